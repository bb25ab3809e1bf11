// Package schemainfo reads table and column metadata from the target
// database, both for client display and for grounding statement generation.
package schemainfo

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/openclaw/dbagent-server-go/internal/errors"
	"github.com/openclaw/dbagent-server-go/internal/database"
)

type Column struct {
	Name     string `db:"column_name" json:"name"`
	DataType string `db:"data_type" json:"dataType"`
	Nullable string `db:"is_nullable" json:"-"`
	IsNull   bool   `db:"-" json:"nullable"`
}

type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

type DatabaseInfo struct {
	Tables []Table `json:"tables"`
}

type Inspector struct {
	db *database.DB
}

func NewInspector(db *database.DB) *Inspector {
	return &Inspector{db: db}
}

// Describe lists all public tables with their columns.
func (i *Inspector) Describe(ctx context.Context) (*DatabaseInfo, error) {
	var names []string
	err := i.db.SelectContext(ctx, &names, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name`)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	info := &DatabaseInfo{Tables: make([]Table, 0, len(names))}
	for _, name := range names {
		columns, err := i.columns(ctx, name)
		if err != nil {
			return nil, err
		}
		info.Tables = append(info.Tables, Table{Name: name, Columns: columns})
	}
	return info, nil
}

func (i *Inspector) columns(ctx context.Context, table string) ([]Column, error) {
	var columns []Column
	err := i.db.SelectContext(ctx, &columns, `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	for idx := range columns {
		columns[idx].IsNull = columns[idx].Nullable == "YES"
	}
	return columns, nil
}

// FormatForPrompt renders the schema as a compact text block suitable for a
// system prompt.
func FormatForPrompt(info *DatabaseInfo) string {
	if info == nil || len(info.Tables) == 0 {
		return "No tables found."
	}

	var b strings.Builder
	for _, table := range info.Tables {
		fmt.Fprintf(&b, "Table %s:\n", table.Name)
		for _, col := range table.Columns {
			null := "NOT NULL"
			if col.IsNull {
				null = "NULL"
			}
			fmt.Fprintf(&b, "  - %s %s %s\n", col.Name, col.DataType, null)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
