package tools

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

type SQLQuery struct {
	db     *sql.DB
	tables string
}

// NewSQLQuery wraps an open database handle. tables is a human-readable
// summary of the available schema, typically produced by DescribeTables, and
// is folded into the tool description so an orchestrator can write queries
// without probing the database first.
func NewSQLQuery(db *sql.DB, tables string) *SQLQuery {
	return &SQLQuery{db: db, tables: tables}
}

func (t *SQLQuery) Name() string  { return "sql_query" }
func (t *SQLQuery) Title() string { return "Run SQL Query" }
func (t *SQLQuery) Description() string {
	desc := "Executes a SQL query against the service database and returns the matching rows as tuples, one per line."
	if t.tables != "" {
		desc += "\nIt can use the following tables:\n" + t.tables
	}
	return desc
}

func (t *SQLQuery) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"query": {
				Type:        "string",
				Description: "The SQL query to execute. Output is the literal result rows, so the query should select the columns of interest.",
			},
		},
		Required:             []string{"query"},
		AdditionalProperties: noExtraFields(),
	}
}

func (t *SQLQuery) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"result": {Type: "string"},
		},
		Required: []string{"result"},
	}
}

func (t *SQLQuery) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	query, ok := input["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must be a non-empty string")
	}

	rows, err := t.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	var lines []string
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		lines = append(lines, formatRow(values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	// Zero rows is a normal outcome, reported as an empty result string.
	return map[string]any{"result": strings.Join(lines, "\n")}, nil
}

// formatRow renders one result row as a tuple literal, e.g. ('Ada', 42).
func formatRow(values []any) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, formatValue(v))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case time.Time:
		return "'" + x.Format(time.RFC3339) + "'"
	case []byte:
		return "'" + string(x) + "'"
	case string:
		return "'" + x + "'"
	default:
		return fmt.Sprint(x)
	}
}

// DescribeTables returns one line per user table in db, each listing the
// table's columns and their declared types.
func DescribeTables(ctx context.Context, db *sql.DB) (string, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return "", fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return "", fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterate tables: %w", err)
	}

	var lines []string
	for _, table := range tables {
		cols, err := describeColumns(ctx, db, table)
		if err != nil {
			return "", err
		}
		lines = append(lines, fmt.Sprintf("%s(%s)", table, strings.Join(cols, ", ")))
	}

	return strings.Join(lines, "\n"), nil
}

func describeColumns(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("describe table %q: %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    any
			primary int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &primary); err != nil {
			return nil, fmt.Errorf("scan column of %q: %w", table, err)
		}
		if ctype == "" {
			cols = append(cols, name)
			continue
		}
		cols = append(cols, name+" "+ctype)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns of %q: %w", table, err)
	}

	return cols, nil
}
