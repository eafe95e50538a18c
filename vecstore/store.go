package vecstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

// Document is one passage of corpus text attributed to a named source.
type Document struct {
	ID     int64  `json:"id,omitempty"`
	Source string `json:"source"`
	Text   string `json:"text"`
}

// Match is a document scored against a query.
type Match struct {
	Document
	Score float64 `json:"score"`
}

// Store persists documents and their embeddings in a sqlite file and answers
// similarity searches over them. It is safe for sequential use; callers that
// need concurrent access coordinate externally.
type Store struct {
	db       *sql.DB
	embedder Embedder
}

// Open opens the index at path, creating the file and schema if needed.
func Open(path string, embedder Embedder) (*Store, error) {
	if embedder == nil {
		return nil, fmt.Errorf("open vector store: nil embedder")
	}
	inMemory := path == ":memory:"
	if !inMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create index dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Each pooled connection to a :memory: DSN gets its own private database,
	// so the pool must never grow past the connection holding the data.
	if inMemory {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	s := &Store{db: db, embedder: embedder}
	if err := s.configure(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("sqlite pragma %q: %w", p, err)
		}
	}
	return nil
}

func (s *Store) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			text TEXT NOT NULL,
			embedding BLOB NOT NULL,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(source)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Add embeds and inserts a single document.
func (s *Store) Add(ctx context.Context, doc Document) error {
	return s.AddBatch(ctx, []Document{doc})
}

// AddBatch embeds and inserts documents in one transaction.
func (s *Store) AddBatch(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		if strings.TrimSpace(doc.Source) == "" {
			return fmt.Errorf("add documents: empty source at index %d", i)
		}
		if strings.TrimSpace(doc.Text) == "" {
			return fmt.Errorf("add documents: empty text at index %d", i)
		}
		texts[i] = doc.Text
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("embed documents: got %d vectors for %d documents", len(vectors), len(docs))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO documents (source, text, embedding) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range docs {
		blob, err := EncodeVector(vectors[i])
		if err != nil {
			return fmt.Errorf("encode embedding %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, docs[i].Source, docs[i].Text, blob); err != nil {
			return fmt.Errorf("insert document %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	return nil
}

// Search embeds the query and returns the topK most similar documents,
// optionally restricted to the given sources. Matches come back ordered by
// descending cosine similarity.
func (s *Store) Search(ctx context.Context, query string, topK int, sources []string) ([]Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search: empty query")
	}
	if topK <= 0 {
		return nil, fmt.Errorf("search: topK must be positive, got %d", topK)
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	q := `SELECT id, source, text, embedding FROM documents`
	var args []any
	if len(sources) > 0 {
		q += ` WHERE source IN (` + placeholders(len(sources)) + `)`
		for _, src := range sources {
			args = append(args, src)
		}
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var (
			doc  Document
			blob []byte
		)
		if err := rows.Scan(&doc.ID, &doc.Source, &doc.Text, &blob); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}

		vec, err := DecodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("decode embedding for document %d: %w", doc.ID, err)
		}

		matches = append(matches, Match{Document: doc, Score: CosineSimilarity(queryVec, vec)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Sources returns the distinct source names present in the index.
func (s *Store) Sources(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT source FROM documents ORDER BY source`)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var src string
		if err := rows.Scan(&src); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sources: %w", err)
	}
	return sources, nil
}

// Count returns how many documents are indexed.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = "?"
	}
	return strings.Join(parts, ",")
}
