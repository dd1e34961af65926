package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/satyammistari/sqlcollections/internal/config"
	"github.com/satyammistari/sqlcollections/internal/reporter"
	"github.com/satyammistari/sqlcollections/internal/schema"
	"github.com/satyammistari/sqlcollections/internal/validator"
)

var seedCmd = &cobra.Command{
	Use:   "seed <collection> <entries.yaml>",
	Short: "Insert collection entries using the generated insert statements",
	Long: `seed reads a YAML (or JSON) list of entries and runs the collection's
insert statements for each one, binding values by column name. Statements
come from the settings file given with --settings, else from the schema.`,
	Args: cobra.ExactArgs(2),
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().String("db", "", "Connection string (postgres://... or sqlite:./dev.db)")
	seedCmd.Flags().String("settings", "", "Generated settings file to read statements from")
	seedCmd.Flags().String("section", "", "Dotted section inside the settings file")
	seedCmd.Flags().Bool("dry-run", false, "Validate entries without touching the database")
}

func runSeed(cmd *cobra.Command, args []string) error {
	collection, entriesPath := args[0], args[1]
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	entries, err := readEntries(entriesPath)
	if err != nil {
		return err
	}

	res, err := runPipeline(cmd.Context())
	if err != nil {
		return err
	}
	statements := res.Document.Inserts[collection]
	var tables []*schema.Table
	for _, g := range res.Inserts {
		if g.Collection != collection {
			continue
		}
		tables = g.Tables
	}
	if len(tables) == 0 {
		return fmt.Errorf("unknown collection %q", collection)
	}

	if path, _ := cmd.Flags().GetString("settings"); path != "" {
		section, _ := cmd.Flags().GetString("section")
		settings, err := config.LoadSettings(path, section)
		if err != nil {
			return err
		}
		statements = settings.InsertSQL(collection)
		if len(statements) == 0 {
			return fmt.Errorf("%s: no insert_sql for %q", path, collection)
		}
		reporter.Debug("statements from %s", path)
	}

	for _, w := range validator.ValidateRows(tables, entries) {
		reporter.Warn(w)
	}
	if dryRun {
		reporter.Ok(fmt.Sprintf("%d entries checked, %d statements each (dry run)", len(entries), len(statements)))
		return nil
	}

	db, err := openDatabase(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := db.Seed(cmd.Context(), statements, entries)
	if err != nil {
		return err
	}
	reporter.Ok(fmt.Sprintf("%s: %d entries, %d statements executed, %d skipped",
		collection, len(entries), stats.Executed, stats.Skipped))
	return nil
}

func readEntries(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read entries: %w", err)
	}
	var entries []map[string]any
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, errors.New(path + ": no entries")
	}
	return entries, nil
}
