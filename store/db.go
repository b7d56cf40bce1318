// Package store persists query results in sqlite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"

	sqlite3 "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

type DB struct {
	stmts map[string]*sql.Stmt
	log   *zap.Logger
	*sql.DB
}

var driverIndex atomic.Int64
var regexpCache sync.Map

var migrations = []string{
	`CREATE TABLE runs (
	   id INTEGER PRIMARY KEY AUTOINCREMENT,
	   selector TEXT NOT NULL,
	   mode TEXT NOT NULL,
	   source TEXT NOT NULL,
	   count INTEGER NOT NULL,
	   error TEXT,
	   created DATETIME DEFAULT CURRENT_TIMESTAMP)`,
	`CREATE TABLE matches (
	   run INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	   position INTEGER NOT NULL,
	   html TEXT NOT NULL,
	   PRIMARY KEY (run, position))`,
	`CREATE INDEX runs_selector ON runs (selector)`,
}

var stmts = map[string]string{
	"insert-run":   `INSERT INTO runs (selector, mode, source, count, error) VALUES (?, ?, ?, ?, ?)`,
	"insert-match": `INSERT INTO matches (run, position, html) VALUES (?, ?, ?)`,
	"runs":         `SELECT id, selector, mode, source, count, COALESCE(error, '') FROM runs WHERE selector = ? ORDER BY id`,
	"matches":      `SELECT html FROM matches WHERE run = ? ORDER BY position`,
	"tags": `SELECT re_extract(html, '^<([a-zA-Z0-9-]+)', 1) AS tag, COUNT(*) FROM matches
	         WHERE run = ? GROUP BY tag ORDER BY COUNT(*) DESC, tag`,
}

// Open opens (and creates or migrates) the results database at name.
func Open(name string, log *zap.Logger) (*DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	driver := fmt.Sprintf("sqlite3-qsa-%d", driverIndex.Add(1))
	sql.Register(driver, &sqlite3.SQLiteDriver{ConnectHook: connectHook})
	db, err := sql.Open(driver, name)
	if err != nil {
		return nil, fmt.Errorf("failed to open: %w", err)
	}
	if name == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	d := &DB{map[string]*sql.Stmt{}, log.Named("store"), db}
	if err := d.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	for k, q := range stmts {
		stmt, err := db.Prepare(q)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to prepare %q: %w", k, err)
		}
		d.stmts[k] = stmt
	}
	return d, nil
}

func connectHook(c *sqlite3.SQLiteConn) error {
	if _, err := c.Exec("PRAGMA foreign_keys = ON", nil); err != nil {
		return err
	}
	return c.RegisterFunc("re_extract", regexpExtract, true)
}

func (db *DB) migrate(ctx context.Context) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`CREATE TABLE IF NOT EXISTS _migrations (sql TEXT)`); err != nil {
		return fmt.Errorf("failed to create _migrations table: %w", err)
	}
	rows, err := tx.Query("SELECT sql FROM _migrations ORDER BY rowid")
	if err != nil {
		return fmt.Errorf("failed to query _migrations: %w", err)
	}
	applied, err := scanAll(rows, func(rows *sql.Rows) (s string, err error) { return s, rows.Scan(&s) })
	if err != nil {
		return fmt.Errorf("failed to query _migrations: %w", err)
	}
	if len(applied) > len(migrations) {
		return fmt.Errorf("database has %d migrations, expected at most %d", len(applied), len(migrations))
	}
	for i, s := range applied {
		if migrations[i] != s {
			return fmt.Errorf("migration %d differs from the applied one", i)
		}
	}
	for _, stmt := range migrations[len(applied):] {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply migration %q: %w", stmt, err)
		}
		if _, err := tx.Exec("INSERT INTO _migrations (sql) VALUES (?)", stmt); err != nil {
			return fmt.Errorf("failed to record migration %q: %w", stmt, err)
		}
	}
	db.log.Debug("migrated", zap.Int("applied", len(migrations)-len(applied)))
	return tx.Commit()
}

func (db *DB) Close() error {
	for _, stmt := range db.stmts {
		stmt.Close()
	}
	return db.DB.Close()
}

func scanAll[T any](rows *sql.Rows, scan func(*sql.Rows) (T, error)) ([]T, error) {
	defer rows.Close()
	vs := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		vs = append(vs, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return vs, nil
}

func regexpExtract(input, expr string, i int) (string, error) {
	r, ok := regexpCache.Load(expr)
	if !ok {
		compiled, err := regexp.Compile(expr)
		if err != nil {
			return "", err
		}
		r, _ = regexpCache.LoadOrStore(expr, compiled)
	}
	if m := r.(*regexp.Regexp).FindStringSubmatch(input); len(m) > i {
		return m[i], nil
	}
	return "", nil
}
