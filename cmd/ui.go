package cmd

import (
	"github.com/spf13/cobra"

	"github.com/satyammistari/sqlcollections/internal/pipeline"
	"github.com/satyammistari/sqlcollections/internal/tui"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Browse collections and classify tables interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := generatorConfig()
		if err != nil {
			return err
		}
		return tui.Run(tui.Config{
			SchemaPath: project.Schema,
			Options:    pipeline.Options{Generator: cfg},
		})
	},
}

func init() {
	rootCmd.AddCommand(uiCmd)
}
