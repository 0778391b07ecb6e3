// Package memory provides the private, disposable fact store bound to one
// AgentRunContext. Every context gets its own database file; destroying the
// context removes the file, so no fact can leak between executions.
package memory

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/XiaoConstantine/crucible/pkg/core"
	"github.com/XiaoConstantine/crucible/pkg/errors"
)

// SQLiteStore implements core.MemoryStore using SQLite as the backend.
type SQLiteStore struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string

	initialized sync.Once
	destroyed   bool
}

var _ core.MemoryStore = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite-backed fact store. If path is
// ":memory:", the database is created in-memory.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.Unknown, "failed to open SQLite database"),
			errors.Fields{"path": path},
		)
	}

	store := &SQLiteStore{
		db:   db,
		path: path,
	}
	if err := store.ensureInitialized(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) ensureInitialized() error {
	var initErr error
	s.initialized.Do(func() {
		// WAL mode for better concurrency within one context
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			initErr = errors.Wrap(err, errors.Unknown, "failed to enable WAL mode")
			return
		}

		query := `
        CREATE TABLE IF NOT EXISTS facts (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            content TEXT NOT NULL,
            source TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );

        CREATE INDEX IF NOT EXISTS idx_facts_created_at ON facts(created_at);
        `

		if _, err := s.db.Exec(query); err != nil {
			initErr = errors.WithFields(
				errors.Wrap(err, errors.Unknown, "failed to initialize database"),
				errors.Fields{"path": s.path},
			)
			return
		}
	})
	return initErr
}

// WriteFact implements core.MemoryStore.
func (s *SQLiteStore) WriteFact(ctx context.Context, fact core.Fact) error {
	if err := errors.CheckContext(ctx, "write fact"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return errors.New(errors.InvalidInput, "memory store already destroyed")
	}

	createdAt := fact.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO facts (content, source, created_at) VALUES (?, ?, ?)`,
		fact.Content, fact.Source, createdAt)
	if err != nil {
		return errors.WithFields(
			errors.Wrap(err, errors.Unknown, "failed to store fact"),
			errors.Fields{"source": fact.Source},
		)
	}
	return nil
}

// ReadRelevantFacts implements core.MemoryStore. Relevance is keyword
// overlap; newer facts rank first so superseding updates surface before the
// facts they replaced.
func (s *SQLiteStore) ReadRelevantFacts(ctx context.Context, query string, limit int) ([]core.Fact, error) {
	if err := errors.CheckContext(ctx, "read facts"); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed {
		return nil, errors.New(errors.InvalidInput, "memory store already destroyed")
	}
	if limit <= 0 {
		limit = 10
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return s.readRecent(ctx, limit)
	}

	var sb strings.Builder
	args := make([]interface{}, 0, len(terms)+1)
	sb.WriteString(`SELECT content, source, created_at FROM facts WHERE `)
	for i, term := range terms {
		if i > 0 {
			sb.WriteString(" OR ")
		}
		sb.WriteString("content LIKE ?")
		args = append(args, "%"+term+"%")
	}
	sb.WriteString(` ORDER BY created_at DESC, id DESC LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.Unknown, "failed to query facts")
	}
	defer rows.Close()

	return scanFacts(rows)
}

func (s *SQLiteStore) readRecent(ctx context.Context, limit int) ([]core.Fact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT content, source, created_at FROM facts ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.Unknown, "failed to query facts")
	}
	defer rows.Close()

	return scanFacts(rows)
}

func scanFacts(rows *sql.Rows) ([]core.Fact, error) {
	var facts []core.Fact
	for rows.Next() {
		var f core.Fact
		if err := rows.Scan(&f.Content, &f.Source, &f.CreatedAt); err != nil {
			return nil, errors.Wrap(err, errors.Unknown, "failed to scan fact")
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// Destroy closes the database and removes its backing file. The store is
// unusable afterwards; the run context must not outlive its grading.
func (s *SQLiteStore) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return nil
	}
	s.destroyed = true

	if err := s.db.Close(); err != nil {
		return errors.Wrap(err, errors.Unknown, "failed to close database")
	}
	if s.path != ":memory:" {
		for _, suffix := range []string{"", "-wal", "-shm"} {
			if err := os.Remove(s.path + suffix); err != nil && !os.IsNotExist(err) {
				return errors.WithFields(
					errors.Wrap(err, errors.Unknown, "failed to remove database file"),
					errors.Fields{"path": s.path + suffix},
				)
			}
		}
	}
	return nil
}

func tokenize(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, `.,;:!?"'()`)
		// Short tokens match everything and drown out real signal
		if len(f) >= 3 {
			terms = append(terms, f)
		}
	}
	return terms
}
