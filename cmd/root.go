// Package cmd holds the sqlcollections command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/satyammistari/sqlcollections/internal/config"
	"github.com/satyammistari/sqlcollections/internal/generator"
	"github.com/satyammistari/sqlcollections/internal/pipeline"
	"github.com/satyammistari/sqlcollections/internal/reporter"
)

// Version is set at build time with -ldflags.
var Version = "0.1.0"

// project holds the project file merged with command-line flags.
var project = config.DefaultProject()

var rootCmd = &cobra.Command{
	Use:   "sqlcollections",
	Short: "Generate collection INSERT and read SQL from an annotated schema",
	Long: `sqlcollections reads CREATE TABLE statements annotated with
-- @collection, -- @attribute and -- @junction markers and emits the INSERT
statements and the aggregating read query for every collection.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command. Interrupts cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("schema", "s", "", "Schema file (default from project file, else schema.sql)")
	pf.String("config", "", "Project file (default: nearest "+config.ProjectFile+")")
	pf.String("dialect", "", "SQL dialect: postgres or sqlite")
	pf.Bool("include-unclassified", false, "Treat unmarked tables as collections")
	pf.BoolP("verbose", "v", false, "Print debug output")
	pf.Bool("no-color", false, "Disable colored output")
}

func setup(cmd *cobra.Command, args []string) error {
	pf := cmd.Root().PersistentFlags()
	reporter.Verbose, _ = pf.GetBool("verbose")
	if noColor, _ := pf.GetBool("no-color"); noColor || os.Getenv("NO_COLOR") != "" {
		reporter.SetNoColor(true)
	}

	path, _ := pf.GetString("config")
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		path, err = config.FindFile(wd, config.ProjectFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	if path != "" {
		p, err := config.LoadProject(path)
		if err != nil {
			return err
		}
		project = p
		reporter.Debug("project file %s", path)
	}

	if pf.Changed("schema") {
		project.Schema, _ = pf.GetString("schema")
	}
	if pf.Changed("dialect") {
		project.Dialect, _ = pf.GetString("dialect")
	}
	if pf.Changed("include-unclassified") {
		project.IncludeUnclassified, _ = pf.GetBool("include-unclassified")
	}
	return nil
}

// generatorConfig builds the generator settings from the project.
func generatorConfig() (generator.Config, error) {
	cfg := generator.DefaultConfig()
	dialect, err := generator.ParseDialect(project.Dialect)
	if err != nil {
		return cfg, err
	}
	cfg.Dialect = dialect
	if len(project.OrderColumns) > 0 {
		cfg.OrderColumns = project.OrderColumns
	}
	cfg.IncludeUnclassified = project.IncludeUnclassified
	return cfg, nil
}

// runPipeline reads the schema file and generates the document.
func runPipeline(ctx context.Context) (*pipeline.Result, error) {
	if project.Schema == "" {
		return nil, fmt.Errorf("--schema is required")
	}
	content, err := os.ReadFile(project.Schema)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	cfg, err := generatorConfig()
	if err != nil {
		return nil, err
	}
	reporter.Debug("schema %s, dialect %s", project.Schema, cfg.Dialect)
	res, err := pipeline.Run(ctx, string(content), pipeline.Options{Generator: cfg})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", project.Schema, err)
	}
	return res, nil
}
