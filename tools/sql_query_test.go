package tools

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func newReceiptsDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "receipts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE receipts (
		receipt_id INTEGER PRIMARY KEY,
		customer_name TEXT,
		price REAL,
		tip REAL
	)`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO receipts (receipt_id, customer_name, price, tip) VALUES
		(1, 'Alan Payne', 12.06, 1.20),
		(2, 'Alex Mason', 23.86, 0.24),
		(3, 'Woodrow Wilson', 53.43, 5.43),
		(4, 'Margaret James', 21.11, 1.00)`)
	require.NoError(t, err)

	return db
}

func TestSQLQuery_Run(t *testing.T) {
	db := newReceiptsDB(t)
	tool := NewSQLQuery(db, "")

	t.Run("highest price row", func(t *testing.T) {
		result, err := tool.Run(context.Background(), map[string]any{
			"query": "SELECT customer_name, price FROM receipts ORDER BY price DESC LIMIT 1",
		})
		require.NoError(t, err)
		assert.Contains(t, result["result"], "('Woodrow Wilson', 53.43)")
	})

	t.Run("N rows yield N lines with literal values", func(t *testing.T) {
		result, err := tool.Run(context.Background(), map[string]any{
			"query": "SELECT receipt_id, customer_name, price, tip FROM receipts ORDER BY receipt_id",
		})
		require.NoError(t, err)

		text := result["result"].(string)
		lines := strings.Split(text, "\n")
		require.Len(t, lines, 4)
		assert.Equal(t, "(1, 'Alan Payne', 12.06, 1.2)", lines[0])
		assert.Equal(t, "(2, 'Alex Mason', 23.86, 0.24)", lines[1])
		assert.Equal(t, "(3, 'Woodrow Wilson', 53.43, 5.43)", lines[2])
		assert.Equal(t, "(4, 'Margaret James', 21.11, 1)", lines[3])
	})

	t.Run("zero rows is an empty result, not an error", func(t *testing.T) {
		result, err := tool.Run(context.Background(), map[string]any{
			"query": "SELECT * FROM receipts WHERE price > 1000",
		})
		require.NoError(t, err)
		assert.Equal(t, "", result["result"])
	})

	t.Run("NULL renders as NULL", func(t *testing.T) {
		result, err := tool.Run(context.Background(), map[string]any{
			"query": "SELECT NULL, customer_name FROM receipts WHERE receipt_id = 1",
		})
		require.NoError(t, err)
		assert.Equal(t, "(NULL, 'Alan Payne')", result["result"])
	})

	t.Run("non-string query fails fast", func(t *testing.T) {
		tests := []struct {
			name  string
			input map[string]any
		}{
			{name: "integer query", input: map[string]any{"query": 1}},
			{name: "missing query", input: map[string]any{}},
			{name: "blank query", input: map[string]any{"query": "   "}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := tool.Run(context.Background(), tt.input)
				assert.Error(t, err)
			})
		}
	})

	t.Run("query syntax error propagates", func(t *testing.T) {
		_, err := tool.Run(context.Background(), map[string]any{"query": "SELEC nonsense"})
		assert.Error(t, err)
	})

	t.Run("idempotent for identical queries", func(t *testing.T) {
		input := map[string]any{"query": "SELECT customer_name FROM receipts ORDER BY receipt_id"}
		first, err := tool.Run(context.Background(), input)
		require.NoError(t, err)
		second, err := tool.Run(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestSQLQuery_ToolMethods(t *testing.T) {
	db := newReceiptsDB(t)

	t.Run("description advertises discovered tables", func(t *testing.T) {
		tables, err := DescribeTables(context.Background(), db)
		require.NoError(t, err)

		tool := NewSQLQuery(db, tables)
		assert.Equal(t, "sql_query", tool.Name())
		assert.Contains(t, tool.Description(), "receipts(")
		assert.Contains(t, tool.Description(), "customer_name TEXT")
		assert.Contains(t, tool.Description(), "price REAL")
	})

	t.Run("schemas are valid", func(t *testing.T) {
		tool := NewSQLQuery(db, "")
		inputSchema := tool.InputSchema()
		require.NotNil(t, inputSchema)
		assert.Equal(t, []string{"query"}, inputSchema.Required)
		assert.NotNil(t, inputSchema.AdditionalProperties, "schema must be closed")
	})
}

func TestDescribeTables(t *testing.T) {
	db := newReceiptsDB(t)

	_, err := db.Exec(`CREATE TABLE waiters (waiter_name TEXT)`)
	require.NoError(t, err)

	tables, err := DescribeTables(context.Background(), db)
	require.NoError(t, err)

	lines := strings.Split(tables, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "receipts(receipt_id INTEGER, customer_name TEXT, price REAL, tip REAL)", lines[0])
	assert.Equal(t, "waiters(waiter_name TEXT)", lines[1])
}

// BenchmarkSQLQuery_Run benchmarks a small read query.
func BenchmarkSQLQuery_Run(b *testing.B) {
	db := newReceiptsDB(b)
	tool := NewSQLQuery(db, "")
	input := map[string]any{"query": "SELECT customer_name, price FROM receipts ORDER BY price DESC LIMIT 1"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := tool.Run(context.Background(), input); err != nil {
			b.Fatal(err)
		}
	}
}
