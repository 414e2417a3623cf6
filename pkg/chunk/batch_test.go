package chunk

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestChunkFiles_OrderAndContent(t *testing.T) {
	inputs := []FileInput{
		{Path: "a.sql", Content: "CREATE TABLE a (x int);"},
		{Path: "b.sql", Content: "CREATE VIEW b AS SELECT x FROM a;"},
		{Path: "c.sql", Content: "SELECT 1;"},
	}

	results := ChunkFiles(context.Background(), inputs, BatchOptions{Workers: 2})
	if len(results) != len(inputs) {
		t.Fatalf("expected %d results, got %d", len(inputs), len(results))
	}
	for i, r := range results {
		if r.Path != inputs[i].Path {
			t.Errorf("result %d: path %q, want %q (order must follow input)", i, r.Path, inputs[i].Path)
		}
		if !r.Success() {
			t.Errorf("result %d: unexpected error %v", i, r.Err)
		}
		if len(r.Chunks) == 0 {
			t.Errorf("result %d: no chunks", i)
		}
	}
	if results[0].Chunks[0].Type != TypeTable {
		t.Errorf("a.sql: expected Table, got %v", results[0].Chunks[0].Type)
	}
	if results[1].Chunks[0].Type != TypeView {
		t.Errorf("b.sql: expected View, got %v", results[1].Chunks[0].Type)
	}
}

func TestChunkFiles_FailureIsolation(t *testing.T) {
	orig := chunkFn
	defer func() { chunkFn = orig }()

	boom := errors.New("boom")
	chunkFn = func(content string, opts Options) ([]Chunk, error) {
		if strings.Contains(opts.SourcePath, "bad") {
			return nil, boom
		}
		return orig(content, opts)
	}

	inputs := []FileInput{
		{Path: "ok1.sql", Content: "SELECT 1;"},
		{Path: "bad.sql", Content: "SELECT 2;"},
		{Path: "ok2.sql", Content: "SELECT 3;"},
	}

	results := ChunkFiles(context.Background(), inputs, BatchOptions{Workers: 1})
	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("healthy files must be unaffected: %v, %v", results[0].Err, results[2].Err)
	}
	if !errors.Is(results[1].Err, boom) {
		t.Errorf("bad.sql should carry its own error, got %v", results[1].Err)
	}
}

func TestChunkFiles_PanicIsolation(t *testing.T) {
	orig := chunkFn
	defer func() { chunkFn = orig }()

	chunkFn = func(content string, opts Options) ([]Chunk, error) {
		if opts.SourcePath == "panics.sql" {
			panic("lexer exploded")
		}
		return orig(content, opts)
	}

	inputs := []FileInput{
		{Path: "fine.sql", Content: "SELECT 1;"},
		{Path: "panics.sql", Content: "SELECT 2;"},
	}

	results := ChunkFiles(context.Background(), inputs, BatchOptions{Workers: 2})
	if !results[0].Success() {
		t.Errorf("sibling file failed: %v", results[0].Err)
	}
	if results[1].Err == nil {
		t.Fatal("panicking file must surface an error")
	}
	if !strings.Contains(results[1].Err.Error(), "panicked") {
		t.Errorf("error should mention the panic: %v", results[1].Err)
	}
}

func TestChunkFiles_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inputs := []FileInput{{Path: "a.sql", Content: "SELECT 1;"}}
	results := ChunkFiles(ctx, inputs, BatchOptions{Workers: 1})
	if results[0].Err == nil {
		t.Error("cancelled context should fail remaining files")
	}
}

func TestChunkFiles_Empty(t *testing.T) {
	results := ChunkFiles(context.Background(), nil, BatchOptions{})
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}
