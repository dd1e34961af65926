// Package pipeline runs parse, analysis, generation and emit over one schema.
package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/satyammistari/sqlcollections/internal/config"
	"github.com/satyammistari/sqlcollections/internal/generator"
	"github.com/satyammistari/sqlcollections/internal/relations"
	"github.com/satyammistari/sqlcollections/internal/schema"
)

// Options configures a run. The zero value uses generator.DefaultConfig.
type Options struct {
	Generator generator.Config
}

// Result holds every stage's output.
type Result struct {
	Schema   *schema.Schema
	Graph    *relations.Graph
	Inserts  []generator.InsertGroup
	Selects  []generator.SelectQuery
	Document *config.Document
}

// Run turns schema text into a settings document. INSERT and SELECT
// generation read the same immutable graph and run in parallel.
func Run(ctx context.Context, content string, opts Options) (*Result, error) {
	s, err := schema.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	g, err := relations.Analyze(s)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	gen := generator.New(g, opts.Generator)

	res := &Result{Schema: s, Graph: g}
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		groups, err := gen.Inserts()
		if err != nil {
			return fmt.Errorf("inserts: %w", err)
		}
		res.Inserts = groups
		return ctx.Err()
	})
	eg.Go(func() error {
		selects, err := gen.Selects()
		if err != nil {
			return fmt.Errorf("selects: %w", err)
		}
		res.Selects = selects
		return ctx.Err()
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	doc, err := config.Emit(res.Inserts, res.Selects)
	if err != nil {
		return nil, err
	}
	res.Document = doc
	return res, nil
}
