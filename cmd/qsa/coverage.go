package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/niklasfasching/qsa/finder"
	"github.com/niklasfasching/qsa/sheet"
	"github.com/niklasfasching/qsa/soup"
)

func (a *app) coverage(ctx context.Context, cmd *cli.Command) error {
	a.applyFlags(cmd)
	if cmd.Args().Len() < 2 {
		return errors.New("expected a stylesheet and at least one source")
	}
	args := cmd.Args().Slice()
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	rules, err := sheet.NewParser(a.log).Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	a.log.Debug("parsed stylesheet", zap.String("path", args[0]), zap.Int("rules", len(rules)))
	usages := make([][]sheet.Usage, len(args[1:]))
	results := a.each(ctx, args[1:], func(ctx context.Context, i int, source string, n *soup.Node) ([]string, error) {
		return nil, soup.With(n, func(e *finder.Engine) error {
			usages[i] = sheet.Coverage(e, soup.AsHTMLNode(n), rules, a.queryOptions()...)
			return nil
		})
	})
	for _, r := range results {
		if r.err != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", r.source, r.err))
		}
	}
	total := make([]sheet.Usage, len(rules))
	for i, r := range rules {
		total[i].Rule = r
		for _, us := range usages {
			if us == nil {
				continue
			}
			total[i].Count += us[i].Count
			if total[i].Err == nil {
				total[i].Err = us[i].Err
			}
		}
	}
	if cmd.Bool("unused") {
		for _, r := range sheet.Unused(total) {
			fmt.Fprintf(a.out, "%s%s\n", r.Selector, formatMedia(r.Media))
		}
		return err
	}
	for _, u := range total {
		if u.Err != nil {
			fmt.Fprintf(a.out, "-\t%s%s\t%s\n", u.Selector, formatMedia(u.Media), u.Err)
		} else {
			fmt.Fprintf(a.out, "%d\t%s%s\n", u.Count, u.Selector, formatMedia(u.Media))
		}
	}
	return err
}

func formatMedia(media string) string {
	if media == "" {
		return ""
	}
	return " @media " + strings.TrimSpace(media)
}
