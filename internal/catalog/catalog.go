// Package catalog persists chunk metadata into a SQLite database. The
// catalog is a consumer of the chunker's output, never a dependency of the
// chunker itself.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/leapstack-labs/leapchunk/pkg/chunk"
)

// Store wraps the catalog database.
type Store struct {
	db   *sql.DB
	path string
}

// Run statuses recorded in ingest_runs.status.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// ChunkRow is one persisted chunk record.
type ChunkRow struct {
	ID         int64
	RunID      string
	SourceFile string
	Position   int
	Type       string
	Dialect    string
	TokenCount int
	Start      int
	End        int
	Tables     []string
}

// Open connects to the catalog database at path. Use ":memory:" for an
// in-memory catalog.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping catalog: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenDB wraps an existing connection without migrating. Used by tests.
func OpenDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// BeginRun records a new ingest run over root and returns its ID.
func (s *Store) BeginRun(ctx context.Context, root string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingest_runs (id, root, status, started_at) VALUES (?, ?, ?, ?)`,
		id, root, RunStatusRunning, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to begin run: %w", err)
	}
	return id, nil
}

// FinishRun stamps the run's final status.
func (s *Store) FinishRun(ctx context.Context, runID, status string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE ingest_runs SET status = ?, finished_at = ? WHERE id = ?`,
		status, time.Now().UTC(), runID)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", runID, err)
	}
	return nil
}

// SaveResult persists one file's outcome: the per-file success row plus all
// chunk records, atomically.
func (s *Store) SaveResult(ctx context.Context, runID string, result chunk.FileResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	errMsg := sql.NullString{}
	if result.Err != nil {
		errMsg = sql.NullString{String: result.Err.Error(), Valid: true}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO ingest_files (run_id, path, success, error) VALUES (?, ?, ?, ?)`,
		runID, result.Path, result.Success(), errMsg); err != nil {
		return fmt.Errorf("failed to save file outcome for %s: %w", result.Path, err)
	}

	// Re-ingesting a file replaces its previous chunks.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM chunks WHERE run_id = ? AND source_file = ?`, runID, result.Path); err != nil {
		return fmt.Errorf("failed to clear previous chunks for %s: %w", result.Path, err)
	}

	for i, c := range result.Chunks {
		tables, err := json.Marshal(c.TablesReferenced)
		if err != nil {
			return fmt.Errorf("failed to encode table references: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chunks
			 (run_id, source_file, position, chunk_type, dialect, token_count, start_offset, end_offset, tables_refd, content)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, result.Path, i, c.Type.String(), c.Dialect.String(),
			c.TokenCount, c.Range.Start, c.Range.End, string(tables), c.Content); err != nil {
			return fmt.Errorf("failed to save chunk %d of %s: %w", i, result.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunks for %s: %w", result.Path, err)
	}
	return nil
}

// ChunksByFile returns the persisted chunks for a source file in document
// order, across all runs that still hold rows for it.
func (s *Store) ChunksByFile(ctx context.Context, sourceFile string) ([]ChunkRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, source_file, position, chunk_type, dialect, token_count, start_offset, end_offset, tables_refd
		 FROM chunks WHERE source_file = ? ORDER BY run_id, position`, sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks for %s: %w", sourceFile, err)
	}
	defer rows.Close()

	return scanChunkRows(rows)
}

// CountByType returns chunk counts per chunk type for one run.
func (s *Store) CountByType(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chunk_type, COUNT(*) FROM chunks WHERE run_id = ? GROUP BY chunk_type`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks for run %s: %w", runID, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		counts[typ] = n
	}
	return counts, rows.Err()
}

func scanChunkRows(rows *sql.Rows) ([]ChunkRow, error) {
	var out []ChunkRow
	for rows.Next() {
		var r ChunkRow
		var tables string
		if err := rows.Scan(&r.ID, &r.RunID, &r.SourceFile, &r.Position, &r.Type,
			&r.Dialect, &r.TokenCount, &r.Start, &r.End, &tables); err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}
		if err := json.Unmarshal([]byte(tables), &r.Tables); err != nil {
			return nil, fmt.Errorf("failed to decode table references: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
