package main

import (
	"context"
	"errors"
	"fmt"

	cli "github.com/urfave/cli/v3"

	"github.com/niklasfasching/qsa/store"
)

// runs prints the stored runs of a selector, optionally followed by the tag
// names of their matches and the matches themselves.
func (a *app) runs(ctx context.Context, cmd *cli.Command) error {
	a.applyFlags(cmd)
	if a.cfg.DB == "" {
		return errors.New("missing db")
	} else if cmd.Args().Len() != 1 {
		return errors.New("expected exactly one selector")
	}
	db, err := store.Open(a.cfg.DB, a.log)
	if err != nil {
		return err
	}
	a.db = db
	runs, err := db.Runs(ctx, cmd.Args().First())
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Fprintf(a.out, "%d\t%s\t%s\t%d", r.ID, r.Mode, r.Source, r.Count)
		if r.Error != "" {
			fmt.Fprintf(a.out, "\t%s", r.Error)
		}
		fmt.Fprintln(a.out)
		if cmd.Bool("tags") {
			tags, err := db.Tags(ctx, r.ID)
			if err != nil {
				return err
			}
			for _, t := range tags {
				fmt.Fprintf(a.out, "\t%s\t%d\n", t.Tag, t.Count)
			}
		}
		if cmd.Bool("matches") {
			matches, err := db.Matches(ctx, r.ID)
			if err != nil {
				return err
			}
			for _, m := range matches {
				fmt.Fprintf(a.out, "\t%s\n", m)
			}
		}
	}
	return nil
}
