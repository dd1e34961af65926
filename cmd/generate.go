package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/satyammistari/sqlcollections/internal/config"
	"github.com/satyammistari/sqlcollections/internal/pipeline"
	"github.com/satyammistari/sqlcollections/internal/reporter"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the insert_sql and read_sql settings document",
	RunE:  runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringP("output", "o", "", `Output file, "-" for stdout`)
	generateCmd.Flags().StringP("format", "f", "", "yaml, json or toml (default from the output extension)")
	generateCmd.Flags().String("section", "", `Dotted section to nest under, e.g. "tool.sqlcollections"`)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("output") {
		project.Output, _ = cmd.Flags().GetString("output")
	}
	if cmd.Flags().Changed("section") {
		project.Section, _ = cmd.Flags().GetString("section")
	}
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	res, err := runPipeline(cmd.Context())
	if err != nil {
		return err
	}
	return writeDocument(res, format)
}

// outputFormat prefers --format, then the --output extension, then the
// project file.
func outputFormat(cmd *cobra.Command) (config.Format, error) {
	if cmd.Flags().Changed("format") {
		f, _ := cmd.Flags().GetString("format")
		return config.ParseFormat(f)
	}
	if cmd.Flags().Changed("output") && project.Output != "-" {
		return config.FormatOf(project.Output), nil
	}
	return config.ParseFormat(project.Format)
}

// writeDocument encodes the document and writes it unless the file on disk
// already has the same content.
func writeDocument(res *pipeline.Result, format config.Format) error {
	out, err := res.Document.Marshal(format, project.Section)
	if err != nil {
		return err
	}
	return writeOutput(out, len(res.Document.Collections), format)
}

func writeOutput(out []byte, collections int, format config.Format) error {
	if project.Output == "-" || project.Output == "" {
		_, err := os.Stdout.Write(out)
		return err
	}

	old, err := os.ReadFile(project.Output)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read output: %w", err)
	}
	if err == nil && bytes.Equal(old, out) {
		reporter.Ok(fmt.Sprintf("%s unchanged (%d collections)", project.Output, collections))
		return nil
	}
	if err := os.WriteFile(project.Output, out, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	reporter.Ok(fmt.Sprintf("wrote %s (%d collections, %s)", project.Output, collections, format))
	return nil
}
