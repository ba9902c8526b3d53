package loader

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jengzang/shuttle-analytics/internal/database"
)

// Table is a raw tabular source: a header row and string cells
type Table struct {
	Header []string
	Rows   [][]string
}

// Index returns the position of a column, or -1
func (t *Table) Index(column string) int {
	for i, h := range t.Header {
		if strings.TrimSpace(h) == column {
			return i
		}
	}
	return -1
}

// Source produces a raw table
type Source interface {
	Name() string
	Read(ctx context.Context) (*Table, error)
}

// FileSource reads a delimited text file. Files ending in .tsv are tab
// separated, everything else is comma separated.
type FileSource struct {
	Path string
}

// Name returns the file path
func (s FileSource) Name() string {
	return s.Path
}

// Read loads the whole file into memory
func (s FileSource) Read(ctx context.Context) (*Table, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			abs, _ := filepath.Abs(s.Path)
			return nil, &MissingSourceError{Source: abs, Err: err}
		}
		return nil, fmt.Errorf("failed to open %s: %w", s.Path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	if strings.EqualFold(filepath.Ext(s.Path), ".tsv") {
		r.Comma = '\t'
		r.LazyQuotes = true
	}
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s has no header row: %w", s.Path, ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", s.Path, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	table := &Table{Header: header}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", s.Path, err)
		}
		table.Rows = append(table.Rows, record)
	}

	return table, nil
}

// SQLSource reads a table through database/sql. Driver selects the
// catalog query used to detect a missing table ("sqlite" or "pgx").
type SQLSource struct {
	DB     *sql.DB
	Driver string
	Table  string
}

// Name returns the table name
func (s SQLSource) Name() string {
	return s.Driver + ":" + s.Table
}

// Read selects every row of the table with all cells as text
func (s SQLSource) Read(ctx context.Context) (*Table, error) {
	name, err := database.ParseTableName(s.Table)
	if err != nil {
		return nil, err
	}

	exists, err := s.tableExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check table %s: %w", s.Table, err)
	}
	if !exists {
		return nil, &MissingSourceError{Source: s.Name()}
	}

	rows, err := s.DB.QueryContext(ctx, "SELECT * FROM "+name.Quoted())
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.Table, err)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", s.Table, err)
	}

	table := &Table{Header: header}
	cells := make([]sql.NullString, len(header))
	dest := make([]interface{}, len(header))
	for i := range cells {
		dest[i] = &cells[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		record := make([]string, len(cells))
		for i, c := range cells {
			if c.Valid {
				record[i] = c.String
			}
		}
		table.Rows = append(table.Rows, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", s.Table, err)
	}
	return table, nil
}

func (s SQLSource) tableExists(ctx context.Context, name database.TableName) (bool, error) {
	switch s.Driver {
	case database.DriverPostgres:
		var exists bool
		err := s.DB.QueryRowContext(ctx, `SELECT to_regclass($1) IS NOT NULL`, name.Quoted()).Scan(&exists)
		return exists, err
	default:
		catalog := "sqlite_master"
		if name.Schema != "" {
			catalog = `"` + name.Schema + `".sqlite_master`
		}
		var count int
		err := s.DB.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM `+catalog+` WHERE type IN ('table', 'view') AND name = ?`,
			name.Name,
		).Scan(&count)
		return count > 0, err
	}
}
