package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/satyammistari/sqlcollections/internal/config"
	"github.com/satyammistari/sqlcollections/internal/inserter"
	"github.com/satyammistari/sqlcollections/internal/reporter"
)

// openDatabase resolves the connection string from --db, the project file
// or DATABASE_URL (a .env file in the working directory is read first).
func openDatabase(cmd *cobra.Command) (inserter.Inserter, error) {
	conn, _ := cmd.Flags().GetString("db")
	if conn == "" {
		conn = project.Database
	}
	if conn == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
		conn = os.Getenv("DATABASE_URL")
	}
	if conn == "" {
		return nil, fmt.Errorf("no database: pass --db, set database in %s or DATABASE_URL", config.ProjectFile)
	}
	reporter.Debug("database %s", conn)
	return inserter.Open(conn)
}
