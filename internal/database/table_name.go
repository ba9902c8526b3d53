package database

import (
	"fmt"
	"regexp"
	"strings"
)

var tableNamePattern = regexp.MustCompile(`^(?:([A-Za-z_][A-Za-z0-9_]*)\.)?([A-Za-z_][A-Za-z0-9_]*)$`)

// TableName is a table identifier, optionally qualified by a schema
// ("main.stop_events" for sqlite, "public.stop_events" for postgres)
type TableName struct {
	Schema string
	Name   string
}

// ParseTableName validates a plain or schema-qualified table name
func ParseTableName(raw string) (TableName, error) {
	m := tableNamePattern.FindStringSubmatch(raw)
	if m == nil {
		return TableName{}, fmt.Errorf("invalid table name %q", raw)
	}
	return TableName{Schema: m[1], Name: m[2]}, nil
}

// String returns the name as written
func (t TableName) String() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// Quoted returns the name with each part quoted for use in SQL text
func (t TableName) Quoted() string {
	if t.Schema == "" {
		return quoteIdent(t.Name)
	}
	return quoteIdent(t.Schema) + "." + quoteIdent(t.Name)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
