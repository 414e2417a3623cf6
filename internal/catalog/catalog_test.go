package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapchunk/pkg/chunk"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleResult(path string) chunk.FileResult {
	return chunk.FileResult{
		Path: path,
		Chunks: []chunk.Chunk{
			{
				Content:    "CREATE TABLE t (a int);",
				Type:       chunk.TypeTable,
				TokenCount: 9,
				Range:      chunk.Range{Start: 0, End: 23},
				SourceFile: path,
				Dialect:    chunk.DialectGeneric,
			},
			{
				Content:          "CREATE VIEW v AS SELECT * FROM t;",
				Type:             chunk.TypeView,
				TokenCount:       12,
				Range:            chunk.Range{Start: 24, End: 57},
				TablesReferenced: []string{"t"},
				SourceFile:       path,
				Dialect:          chunk.DialectGeneric,
			},
		},
	}
}

func TestStore_RoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	runID, err := store.BeginRun(ctx, "/src/sql")
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	require.NoError(t, store.SaveResult(ctx, runID, sampleResult("schema.sql")))
	require.NoError(t, store.FinishRun(ctx, runID, RunStatusCompleted))

	rows, err := store.ChunksByFile(ctx, "schema.sql")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, runID, rows[0].RunID)
	assert.Equal(t, 0, rows[0].Position)
	assert.Equal(t, "table", rows[0].Type)
	assert.Equal(t, "generic", rows[0].Dialect)
	assert.Equal(t, 0, rows[0].Start)
	assert.Equal(t, 23, rows[0].End)
	assert.Empty(t, rows[0].Tables)

	assert.Equal(t, 1, rows[1].Position)
	assert.Equal(t, "view", rows[1].Type)
	assert.Equal(t, []string{"t"}, rows[1].Tables)
}

func TestStore_SaveResultReplacesChunks(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	runID, err := store.BeginRun(ctx, "/src/sql")
	require.NoError(t, err)

	require.NoError(t, store.SaveResult(ctx, runID, sampleResult("schema.sql")))

	// A second save for the same file replaces its rows instead of stacking.
	replacement := chunk.FileResult{
		Path: "schema.sql",
		Chunks: []chunk.Chunk{
			{
				Content:    "CREATE TABLE u (b int);",
				Type:       chunk.TypeTable,
				TokenCount: 9,
				Range:      chunk.Range{Start: 0, End: 23},
				SourceFile: "schema.sql",
				Dialect:    chunk.DialectGeneric,
			},
		},
	}
	require.NoError(t, store.SaveResult(ctx, runID, replacement))

	rows, err := store.ChunksByFile(ctx, "schema.sql")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "CREATE TABLE u (b int);", rowContent(t, store, rows[0].ID))
}

func TestStore_SaveFailedFile(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	runID, err := store.BeginRun(ctx, "/src/sql")
	require.NoError(t, err)

	failed := chunk.FileResult{Path: "broken.sql", Err: errors.New("unreadable")}
	require.NoError(t, store.SaveResult(ctx, runID, failed))

	rows, err := store.ChunksByFile(ctx, "broken.sql")
	require.NoError(t, err)
	assert.Empty(t, rows)

	var success bool
	var errMsg string
	require.NoError(t, store.db.QueryRowContext(ctx,
		`SELECT success, error FROM ingest_files WHERE run_id = ? AND path = ?`,
		runID, "broken.sql").Scan(&success, &errMsg))
	assert.False(t, success)
	assert.Equal(t, "unreadable", errMsg)
}

func TestStore_CountByType(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	runID, err := store.BeginRun(ctx, "/src/sql")
	require.NoError(t, err)
	require.NoError(t, store.SaveResult(ctx, runID, sampleResult("schema.sql")))

	counts, err := store.CountByType(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"table": 1, "view": 1}, counts)
}

func TestStore_BeginRunError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO ingest_runs").WillReturnError(errors.New("disk full"))

	store := OpenDB(db)
	_, err = store.BeginRun(context.Background(), "/src")
	assert.ErrorContains(t, err, "failed to begin run")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func rowContent(t *testing.T, store *Store, id int64) string {
	t.Helper()
	var content string
	require.NoError(t, store.db.QueryRow(`SELECT content FROM chunks WHERE id = ?`, id).Scan(&content))
	return content
}
