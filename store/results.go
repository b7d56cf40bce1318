package store

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// Run is the result of one query of one source.
type Run struct {
	ID       int64
	Selector string
	Mode     string
	Source   string
	Count    int
	Error    string
}

type TagCount struct {
	Tag   string
	Count int
}

// Save stores run and the outer html of its matches in document order and
// returns the id of the run.
func (db *DB) Save(ctx context.Context, run Run, matches []string) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	run.Count = len(matches)
	var runErr any
	if run.Error != "" {
		runErr = run.Error
	}
	result, err := tx.StmtContext(ctx, db.stmts["insert-run"]).ExecContext(ctx,
		run.Selector, run.Mode, run.Source, run.Count, runErr)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	insert := tx.StmtContext(ctx, db.stmts["insert-match"])
	for i, html := range matches {
		if _, err := insert.ExecContext(ctx, id, i, html); err != nil {
			return 0, fmt.Errorf("failed to insert match %d: %w", i, err)
		}
	}
	db.log.Debug("saved run", zap.Int64("id", id), zap.String("selector", run.Selector), zap.Int("count", run.Count))
	return id, tx.Commit()
}

// Runs returns all stored runs of selector.
func (db *DB) Runs(ctx context.Context, selector string) ([]Run, error) {
	rows, err := db.stmts["runs"].QueryContext(ctx, selector)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	return scanAll(rows, func(rows *sql.Rows) (r Run, err error) {
		return r, rows.Scan(&r.ID, &r.Selector, &r.Mode, &r.Source, &r.Count, &r.Error)
	})
}

func (db *DB) Matches(ctx context.Context, run int64) ([]string, error) {
	rows, err := db.stmts["matches"].QueryContext(ctx, run)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	return scanAll(rows, func(rows *sql.Rows) (s string, err error) { return s, rows.Scan(&s) })
}

// Tags counts the matches of run by tag name.
func (db *DB) Tags(ctx context.Context, run int64) ([]TagCount, error) {
	rows, err := db.stmts["tags"].QueryContext(ctx, run)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	return scanAll(rows, func(rows *sql.Rows) (t TagCount, err error) { return t, rows.Scan(&t.Tag, &t.Count) })
}
