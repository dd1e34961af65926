package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satyammistari/sqlcollections/internal/reporter"
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Show table kinds, references and insert order",
	RunE:  runDescribe,
}

func init() {
	rootCmd.AddCommand(describeCmd)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	res, err := runPipeline(cmd.Context())
	if err != nil {
		return err
	}
	g := res.Graph

	rows := make([]map[string]any, 0, len(res.Schema.Tables))
	for _, t := range res.Schema.Tables {
		var refs []string
		for _, e := range g.Edges(t.Name) {
			refs = append(refs, e.Column+"→"+e.To)
		}
		kind := g.Kind(t.Name).String()
		if j, ok := g.Junction(t.Name); ok && j.Inferred {
			kind += " (inferred)"
		}
		if t.Parent != "" {
			kind += " of " + t.Parent
		}
		rows = append(rows, map[string]any{
			"line":       t.Line,
			"table":      t.Name,
			"kind":       kind,
			"columns":    len(t.Columns),
			"references": strings.Join(refs, ", "),
		})
	}
	reporter.Table([]string{"line", "table", "kind", "columns", "references"}, rows)

	for _, grp := range res.Inserts {
		reporter.Heading(fmt.Sprintf("\n%s", grp.Collection))
		names := make([]string, len(grp.Tables))
		for i, t := range grp.Tables {
			names[i] = t.Name
		}
		reporter.Info("  insert: " + strings.Join(names, " → "))
	}
	return nil
}
