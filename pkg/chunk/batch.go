package chunk

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// maxDefaultWorkers caps the pool size chosen from the CPU count.
const maxDefaultWorkers = 8

// FileInput is one (path, content) unit for batch chunking.
type FileInput struct {
	Path    string
	Content string
}

// FileResult is the per-file outcome of a batch. A failed file never
// aborts its siblings; Err records what went wrong for that file alone.
type FileResult struct {
	Path   string
	Chunks []Chunk
	Err    error
}

// Success reports whether the file chunked cleanly.
func (r FileResult) Success() bool {
	return r.Err == nil
}

// BatchOptions configures ChunkFiles.
type BatchOptions struct {
	Dialect   Dialect
	MaxTokens int
	// Workers bounds the pool; zero or negative selects NumCPU capped at
	// maxDefaultWorkers.
	Workers int
	Logger  *slog.Logger
}

// chunkFn is the per-file entry used by the pool. Swapped in tests to
// exercise failure isolation.
var chunkFn = ChunkFileWithOptions

// ChunkFiles chunks a batch of files across a bounded worker pool. Each
// file is fully independent: no state is shared between invocations, and a
// panic or error in one file is converted into that file's result entry.
// Results are returned in input order regardless of completion order.
func ChunkFiles(ctx context.Context, inputs []FileInput, opts BatchOptions) []FileResult {
	results := make([]FileResult, len(inputs))

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers > maxDefaultWorkers {
			workers = maxDefaultWorkers
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, in := range inputs {
		results[i].Path = in.Path

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Chunks, results[i].Err = chunkOne(in, opts)
			return nil
		})
	}

	// Worker funcs never return an error, so Wait only synchronizes.
	_ = g.Wait()

	return results
}

// chunkOne runs the chunker for a single file, converting panics into
// errors so one malformed input cannot take down the batch.
func chunkOne(in FileInput, opts BatchOptions) (chunks []Chunk, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("chunking %s panicked: %v", in.Path, r)
		}
	}()

	return chunkFn(in.Content, Options{
		SourcePath: in.Path,
		Dialect:    opts.Dialect,
		MaxTokens:  opts.MaxTokens,
		Logger:     opts.Logger,
	})
}
