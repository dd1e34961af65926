package reporter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	// Verbose enables Debug output.
	Verbose = false

	// Stderr receives status lines; Stdout receives tables.
	Stderr io.Writer = os.Stderr
	Stdout io.Writer = os.Stdout
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// SetNoColor disables ANSI color output.
func SetNoColor(v bool) {
	color.NoColor = v
}

// Ok prints a green check message.
func Ok(msg string) {
	fmt.Fprintf(Stderr, "  %s %s\n", green("✓"), msg)
}

// Info prints an info line.
func Info(msg string) {
	fmt.Fprintln(Stderr, msg)
}

// Warn prints a yellow warning.
func Warn(msg string) {
	fmt.Fprintf(Stderr, "  %s %s\n", yellow("⚠"), msg)
}

// Err prints a red error.
func Err(msg string) {
	fmt.Fprintf(Stderr, "  %s %s\n", red("✗"), msg)
}

// Debug prints a dimmed line when Verbose is set.
func Debug(format string, args ...any) {
	if !Verbose {
		return
	}
	fmt.Fprintf(Stderr, "  %s\n", faint(fmt.Sprintf(format, args...)))
}

// Heading prints a bold section title.
func Heading(msg string) {
	fmt.Fprintln(Stderr, bold(msg))
}

// Table prints a simple ASCII table from rows (slice of maps) and column names.
func Table(columns []string, rows []map[string]any) {
	if len(rows) == 0 {
		return
	}
	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = len(col)
	}
	for _, row := range rows {
		for i, col := range columns {
			if n := len(fmt.Sprint(row[col])); n > widths[i] {
				widths[i] = n
			}
		}
	}
	// Cap max width
	for i := range widths {
		if widths[i] > 40 {
			widths[i] = 40
		}
	}
	sep := "+"
	for _, w := range widths {
		sep += strings.Repeat("-", w+2) + "+"
	}
	fmt.Fprintln(Stdout, sep)
	header := "|"
	for i, col := range columns {
		header += " " + pad(col, widths[i]) + " |"
	}
	fmt.Fprintln(Stdout, header)
	fmt.Fprintln(Stdout, sep)
	for _, row := range rows {
		line := "|"
		for i, col := range columns {
			s := fmt.Sprint(row[col])
			if len(s) > 40 {
				s = s[:37] + "..."
			}
			line += " " + pad(s, widths[i]) + " |"
		}
		fmt.Fprintln(Stdout, line)
	}
	fmt.Fprintln(Stdout, sep)
}

func pad(s string, w int) string {
	if len(s) > w {
		return s[:w]
	}
	return s + strings.Repeat(" ", w-len(s))
}
