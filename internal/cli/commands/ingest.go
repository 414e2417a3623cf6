package commands

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapchunk/internal/catalog"
	"github.com/leapstack-labs/leapchunk/internal/config"
	"github.com/leapstack-labs/leapchunk/pkg/chunk"
)

// sqlExtensions are the file extensions the ingest walk picks up.
var sqlExtensions = map[string]bool{
	".sql": true, ".ddl": true, ".tsql": true, ".psql": true, ".pgsql": true, ".mssql": true,
}

// IngestOptions holds options for the ingest command.
type IngestOptions struct {
	CatalogPath string
	Watch       bool
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand() *cobra.Command {
	opts := &IngestOptions{}

	cmd := &cobra.Command{
		Use:   "ingest <dir>",
		Short: "Chunk all SQL files under a directory into the catalog",
		Long: `Walk a directory tree for SQL files, chunk each one, and persist chunk
metadata into the SQLite catalog. With --watch, keep running and re-ingest
files as they change.`,
		Example: `  # One-shot ingest
  leapchunk ingest ./warehouse/ddl

  # Keep the catalog current while editing
  leapchunk ingest --watch ./warehouse/ddl`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.CatalogPath, "catalog-path", "", "Catalog database path (default from config)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Watch for changes and re-ingest")

	return cmd
}

func runIngest(cmd *cobra.Command, root string, opts *IngestOptions) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	logger := config.LoggerFromContext(ctx)

	dialect, err := chunk.ParseDialect(cfg.Dialect)
	if err != nil {
		return err
	}

	catalogPath := opts.CatalogPath
	if catalogPath == "" {
		catalogPath = cfg.CatalogPath
	}
	if dir := filepath.Dir(catalogPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}

	store, err := catalog.Open(catalogPath)
	if err != nil {
		return err
	}
	defer store.Close()

	batchOpts := chunk.BatchOptions{
		Dialect:   dialect,
		MaxTokens: cfg.MaxTokens,
		Workers:   cfg.Workers,
		Logger:    logger,
	}

	runID, err := store.BeginRun(ctx, root)
	if err != nil {
		return err
	}

	failed, err := ingestTree(ctx, store, runID, root, batchOpts, logger)
	if err != nil {
		_ = store.FinishRun(ctx, runID, catalog.RunStatusFailed)
		return err
	}

	status := catalog.RunStatusCompleted
	if failed > 0 {
		status = catalog.RunStatusFailed
	}
	if err := store.FinishRun(ctx, runID, status); err != nil {
		return err
	}

	counts, err := store.CountByType(ctx, runID)
	if err != nil {
		return err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d chunks into %s (run %s)\n", total, catalogPath, runID)

	if !opts.Watch {
		return nil
	}
	return watchTree(ctx, store, runID, root, batchOpts, logger)
}

// ingestTree chunks every SQL file under root and persists the results.
// Returns the number of files whose chunking failed.
func ingestTree(ctx context.Context, store *catalog.Store, runID, root string, opts chunk.BatchOptions, logger *slog.Logger) (int, error) {
	var inputs []chunk.FileInput

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !sqlExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			// Unreadable files become failed entries instead of aborting
			// the walk.
			logger.Warn("skipping unreadable file", "path", path, "error", err)
			return store.SaveResult(ctx, runID, chunk.FileResult{Path: path, Err: err})
		}
		inputs = append(inputs, chunk.FileInput{Path: path, Content: string(content)})
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	failed := 0
	for _, result := range chunk.ChunkFiles(ctx, inputs, opts) {
		if result.Err != nil {
			failed++
			logger.Warn("chunking failed", "path", result.Path, "error", result.Err)
		}
		if err := store.SaveResult(ctx, runID, result); err != nil {
			return failed, err
		}
	}
	return failed, nil
}

// watchDebounce coalesces editor write bursts into one re-ingest.
const watchDebounce = 100 * time.Millisecond

// watchTree re-ingests SQL files as they change, until the context is
// cancelled.
func watchTree(ctx context.Context, store *catalog.Store, runID, root string, opts chunk.BatchOptions, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watchDirRecursive(watcher, root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}
	logger.Info("watching for changes", "root", root)

	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return nil

		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !sqlExtensions[strings.ToLower(filepath.Ext(event.Name))] {
				continue
			}

			path := event.Name
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(watchDebounce, func() {
				logger.Debug("file changed, re-ingesting", "path", path)
				reingestFile(ctx, store, runID, path, opts, logger)
			})

		case err := <-watcher.Errors:
			logger.Error("watcher error", "error", err)
		}
	}
}

// reingestFile chunks a single changed file and replaces its catalog rows.
func reingestFile(ctx context.Context, store *catalog.Store, runID, path string, opts chunk.BatchOptions, logger *slog.Logger) {
	content, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("failed to read changed file", "path", path, "error", err)
		return
	}

	results := chunk.ChunkFiles(ctx, []chunk.FileInput{{Path: path, Content: string(content)}}, opts)
	for _, result := range results {
		if result.Err != nil {
			logger.Warn("chunking failed", "path", result.Path, "error", result.Err)
		}
		if err := store.SaveResult(ctx, runID, result); err != nil {
			logger.Error("failed to save chunks", "path", result.Path, "error", err)
		}
	}
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
