package main

import (
	"context"
	"errors"
	"fmt"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/niklasfasching/qsa/soup"
	"github.com/niklasfasching/qsa/store"
)

type result struct {
	source string
	lines  []string
	err    error
}

func (a *app) query(ctx context.Context, cmd *cli.Command) error {
	a.applyFlags(cmd)
	if a.cfg.Selector == "" {
		return errors.New("missing selector")
	} else if cmd.Args().Len() == 0 {
		return errors.New("missing source")
	}
	switch a.cfg.Mode {
	case "all", "first", "matches", "closest":
	default:
		return fmt.Errorf("unknown mode %q", a.cfg.Mode)
	}
	if a.cfg.DB != "" {
		db, err := store.Open(a.cfg.DB, a.log)
		if err != nil {
			return err
		}
		a.db = db
	}
	sources := cmd.Args().Slice()
	results := a.each(ctx, sources, func(ctx context.Context, _ int, source string, n *soup.Node) ([]string, error) {
		lines, err := a.run(n)
		if a.db != nil {
			run := store.Run{Selector: a.cfg.Selector, Mode: a.cfg.Mode, Source: source}
			if err != nil {
				run.Error = err.Error()
			}
			a.mu.Lock()
			_, dbErr := a.db.Save(ctx, run, lines)
			a.mu.Unlock()
			err = multierr.Append(err, dbErr)
		}
		return lines, err
	})
	var err error
	for _, r := range results {
		if len(sources) > 1 {
			fmt.Fprintf(a.out, "==> %s <==\n", r.source)
		}
		for _, l := range r.lines {
			fmt.Fprintln(a.out, l)
		}
		if r.err != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", r.source, r.err))
		}
	}
	return err
}

// run queries n according to the configured mode and returns the outer html
// of the results. matches prints true or false.
func (a *app) run(n *soup.Node) ([]string, error) {
	opts := a.queryOptions()
	switch a.cfg.Mode {
	case "first":
		m, err := n.Query(a.cfg.Selector, opts...)
		if m == nil || err != nil {
			return nil, err
		}
		return []string{m.OuterHTML()}, nil
	case "matches", "closest":
		target, err := n.Query(a.cfg.Node)
		if err != nil {
			return nil, fmt.Errorf("invalid node selector: %w", err)
		} else if target == nil {
			return nil, fmt.Errorf("no node matches %q", a.cfg.Node)
		}
		if a.cfg.Mode == "matches" {
			ok, err := target.Matches(a.cfg.Selector, opts...)
			return []string{fmt.Sprint(ok)}, err
		}
		m, err := target.ClosestMatch(a.cfg.Selector, opts...)
		if m == nil || err != nil {
			return nil, err
		}
		return []string{m.OuterHTML()}, nil
	default:
		ms, err := n.QueryAll(a.cfg.Selector, opts...)
		lines := make([]string, len(ms))
		for i, m := range ms {
			lines[i] = m.OuterHTML()
		}
		return lines, err
	}
}

// each loads and processes up to jobs sources concurrently. Results are
// returned in the order of sources.
func (a *app) each(ctx context.Context, sources []string, f func(context.Context, int, string, *soup.Node) ([]string, error)) []result {
	results := make([]result, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Jobs)
	for i, source := range sources {
		g.Go(func() error {
			results[i].source = source
			if err := ctx.Err(); err != nil {
				results[i].err = err
				return err
			}
			n, err := a.load(ctx, source)
			if err != nil {
				results[i].err = err
				return nil
			}
			defer soup.Release(n)
			a.log.Debug("loaded", zap.String("source", source))
			results[i].lines, results[i].err = f(ctx, i, source, n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		a.log.Warn("interrupted", zap.Error(err))
	}
	return results
}
