package chunk

import (
	"fmt"
	"log/slog"
)

// DefaultMaxTokens is the token budget applied when the caller does not
// supply one.
const DefaultMaxTokens = 2000

// Options configures a single-file chunking call.
type Options struct {
	// SourcePath is recorded on every chunk and consulted by dialect
	// auto-detection.
	SourcePath string
	// Dialect selects the ruleset; DialectAuto detects one.
	Dialect Dialect
	// MaxTokens is the per-chunk token budget. Zero or negative selects
	// DefaultMaxTokens.
	MaxTokens int
	// Logger receives diagnostic records about fallback transitions. Nil
	// discards them.
	Logger *slog.Logger
}

// ChunkFile splits content into an ordered list of chunks. It is a pure,
// synchronous computation: identical input always yields a byte-identical
// chunk list, and no failure state is fatal: a malformed script degrades
// to fallback delimitation rather than an error.
func ChunkFile(content, sourcePath string, dialect Dialect, maxTokens int) ([]Chunk, error) {
	return ChunkFileWithOptions(content, Options{
		SourcePath: sourcePath,
		Dialect:    dialect,
		MaxTokens:  maxTokens,
	})
}

// ChunkFileWithOptions is ChunkFile with full configuration.
func ChunkFileWithOptions(content string, opts Options) ([]Chunk, error) {
	if content == "" {
		return nil, nil
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	d := opts.Dialect.Resolve(opts.SourcePath, content)

	// The preprocessed text keeps every byte offset of the original, so
	// structural statement spans index straight into the original content.
	preprocessed := Preprocess(content, d)

	outcome := parseScript(preprocessed, content, d, maxTokens)
	switch outcome.status {
	case parseOK:
		chunks := assemble(content, opts.SourcePath, d, enforceBudget(content, outcome.units, d, maxTokens), false)
		if len(chunks) > 0 {
			return chunks, nil
		}
		// Every structural unit was blank; fall through to the fallback so
		// the file still yields a best-effort result.
	case parseFailed:
		logger.Debug("structural parse failed, using fallback chunker",
			"source", opts.SourcePath, "dialect", d.String(), "error", outcome.err)
	case parseDegenerate:
		logger.Debug("structural parse degenerate, using fallback chunker",
			"source", opts.SourcePath, "dialect", d.String())
	}

	return assemble(content, opts.SourcePath, d, fallbackChunk(content, d, maxTokens), true), nil
}

// enforceBudget applies the secondary budget split to structural units.
// Object units are single statements and stay whole even when oversize;
// mixed runs were already budgeted during grouping but may still carry an
// irreducible oversize statement, which also stays whole.
func enforceBudget(content string, units []span, d Dialect, maxTokens int) []span {
	var out []span
	for _, u := range units {
		if CountTokens(content[u.start:u.end]) <= maxTokens {
			out = append(out, u)
			continue
		}
		if u.typ != TypeMixed && u.typ != TypeUnknown {
			// A single object definition is indivisible.
			out = append(out, u)
			continue
		}
		out = append(out, splitSpanByBudget(content, u, d, maxTokens)...)
	}
	return out
}

// Validate checks an Options value for use outside the chunker itself,
// where a misconfigured budget should be surfaced instead of silently
// replaced by the default.
func (o Options) Validate() error {
	if o.MaxTokens < 0 {
		return fmt.Errorf("max tokens must be positive, got %d", o.MaxTokens)
	}
	return nil
}
