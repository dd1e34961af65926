package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/satyammistari/sqlcollections/internal/config"
	"github.com/satyammistari/sqlcollections/internal/pipeline"
	"github.com/satyammistari/sqlcollections/internal/reporter"
)

// debounce absorbs the burst of events editors emit on save.
const debounce = 200 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate the settings document whenever the schema changes",
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringP("output", "o", "", "Output file")
	watchCmd.Flags().StringP("format", "f", "", "yaml, json or toml (default from the output extension)")
	watchCmd.Flags().String("section", "", "Dotted section to nest under")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("output") {
		project.Output, _ = cmd.Flags().GetString("output")
	}
	if cmd.Flags().Changed("section") {
		project.Section, _ = cmd.Flags().GetString("section")
	}
	if project.Output == "-" {
		return fmt.Errorf("watch needs an output file")
	}
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	w := &docWriter{format: format}
	regenerate := func() {
		res, err := runPipeline(cmd.Context())
		if err != nil {
			reporter.Err(err.Error())
			return
		}
		if err := w.write(res); err != nil {
			reporter.Err(err.Error())
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file on save.
	target, err := filepath.Abs(project.Schema)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", project.Schema, err)
	}

	regenerate()
	reporter.Info(fmt.Sprintf("watching %s (Ctrl+C to stop)", project.Schema))

	var timer <-chan time.Time
	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				reporter.Debug("%s", ev)
				timer = time.After(debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			reporter.Warn(err.Error())
		case <-timer:
			timer = nil
			regenerate()
		}
	}
}

// docWriter remembers the fingerprint of the last document it wrote so
// saves that do not change the output skip the file entirely.
type docWriter struct {
	format config.Format
	last   uint64
	wrote  bool
}

func (w *docWriter) write(res *pipeline.Result) error {
	out, err := res.Document.Marshal(w.format, project.Section)
	if err != nil {
		return err
	}
	fp := config.Fingerprint(out)
	if w.wrote && fp == w.last {
		reporter.Debug("output unchanged (%016x)", fp)
		return nil
	}
	if err := writeOutput(out, len(res.Document.Collections), w.format); err != nil {
		return err
	}
	w.last, w.wrote = fp, true
	return nil
}
