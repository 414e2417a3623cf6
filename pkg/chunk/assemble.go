package chunk

import "strings"

// assemble turns typed spans from either chunking path into final Chunk
// records. Spans are never mutated; a span whose trimmed content is empty
// is dropped rather than yielding an empty chunk. When gapFree is set (the
// fallback path), the byte range a dropped span covered is absorbed by the
// following chunk (or the preceding one at end of file), so sorting the
// result by start offset still reconstructs [0, len(content)) exactly.
func assemble(content, sourceFile string, d Dialect, spans []span, gapFree bool) []Chunk {
	var chunks []Chunk
	pendingStart := -1 // start of dropped range awaiting absorption

	for _, s := range spans {
		text := content[s.start:s.end]
		if strings.TrimSpace(text) == "" {
			if gapFree && pendingStart < 0 {
				pendingStart = s.start
			}
			continue
		}

		start := s.start
		if gapFree {
			if pendingStart >= 0 {
				start = pendingStart
				pendingStart = -1
			}
			text = content[start:s.end]
		}

		tokens := CountTokens(text)
		if tokens < 1 {
			tokens = 1
		}

		chunks = append(chunks, Chunk{
			Content:          text,
			Type:             s.typ,
			TokenCount:       tokens,
			Range:            Range{Start: start, End: s.end},
			TablesReferenced: ExtractTables(text),
			SourceFile:       sourceFile,
			Dialect:          d,
		})
	}

	// Trailing blank spans extend the last chunk to end of content.
	if gapFree && pendingStart >= 0 && len(chunks) > 0 {
		last := &chunks[len(chunks)-1]
		last.Range.End = len(content)
		last.Content = content[last.Range.Start:last.Range.End]
		last.TokenCount = CountTokens(last.Content)
		if last.TokenCount < 1 {
			last.TokenCount = 1
		}
	}

	return chunks
}
