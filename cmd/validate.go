package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satyammistari/sqlcollections/internal/reporter"
	"github.com/satyammistari/sqlcollections/internal/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Parse and analyze the schema without writing anything",
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("strict", false, "Treat warnings as errors")
}

func runValidate(cmd *cobra.Command, args []string) error {
	strict, _ := cmd.Flags().GetBool("strict")

	res, err := runPipeline(cmd.Context())
	if err != nil {
		return err
	}
	reporter.Ok(fmt.Sprintf("%s: %d tables, %d collections", project.Schema, len(res.Schema.Tables), len(res.Document.Collections)))
	for _, g := range res.Inserts {
		reporter.Debug("%s: %d inserts", g.Collection, len(g.Statements))
	}

	warnings := validator.Lint(res.Schema, res.Graph)
	for _, w := range warnings {
		reporter.Warn(w)
	}
	if strict && len(warnings) > 0 {
		return fmt.Errorf("validation failed: %d warnings", len(warnings))
	}
	return nil
}
