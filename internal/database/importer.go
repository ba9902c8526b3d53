package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
)

// ImportOptions controls ImportTable
type ImportOptions struct {
	Driver  string
	Table   string
	Replace bool // drop an existing table first
	Logger  *slog.Logger
}

func placeholder(driver string, n int) string {
	if driver == DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// ImportTable writes a raw text table into the database in one transaction.
// Every column is stored as TEXT so the loader types it exactly as it would
// the input file. Empty cells become NULL.
func ImportTable(ctx context.Context, db *sql.DB, header []string, rows [][]string, opts ImportOptions) (int, error) {
	name, err := ParseTableName(opts.Table)
	if err != nil {
		return 0, err
	}
	if len(header) == 0 {
		return 0, fmt.Errorf("no columns to import")
	}

	cols := make([]string, len(header))
	marks := make([]string, len(header))
	for i, h := range header {
		cols[i] = quoteIdent(strings.TrimSpace(h)) + " TEXT"
		marks[i] = placeholder(opts.Driver, i+1)
	}
	table := name.Quoted()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if opts.Replace {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("failed to drop %s: %w", opts.Table, err)
		}
	}

	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(cols, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to create %s: %w", opts.Table, err)
	}

	insert := fmt.Sprintf("INSERT INTO %s VALUES (%s)", table, strings.Join(marks, ", "))
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]interface{}, len(header))
	for n, row := range rows {
		for i := range args {
			if i < len(row) && row[i] != "" {
				args[i] = row[i]
			} else {
				args[i] = nil
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("failed to insert row %d: %w", n+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import of %s: %w", opts.Table, err)
	}

	if opts.Logger != nil {
		opts.Logger.Info("table_imported",
			slog.String("component", "database"),
			slog.String("table", opts.Table),
			slog.Int("rows", len(rows)))
	}
	return len(rows), nil
}
