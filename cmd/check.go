package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satyammistari/sqlcollections/internal/reporter"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Prepare every generated statement against a live database",
	Long: `check creates the schema inside a transaction, prepares every
generated INSERT and read query, then rolls the transaction back.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().String("db", "", "Connection string (postgres://... or sqlite:./dev.db)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	res, err := runPipeline(cmd.Context())
	if err != nil {
		return err
	}
	db, err := openDatabase(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Check(cmd.Context(), res.Schema, res.Document); err != nil {
		return fmt.Errorf("check failed:\n%w", err)
	}
	n := 0
	for _, c := range res.Document.Collections {
		n += len(res.Document.Inserts[c]) + 1
	}
	reporter.Ok(fmt.Sprintf("%d statements prepared, nothing committed", n))
	return nil
}
