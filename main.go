package main

import (
	"errors"
	"os"

	"github.com/satyammistari/sqlcollections/cmd"
	"github.com/satyammistari/sqlcollections/internal/reporter"
	"github.com/satyammistari/sqlcollections/internal/schema"
)

func main() {
	if err := cmd.Execute(); err != nil {
		reporter.Err(err.Error())
		var se *schema.SchemaError
		if errors.As(err, &se) && se.Snippet() != "" {
			reporter.Info("    " + se.Snippet())
		}
		os.Exit(1)
	}
}
