package chunk

// fallbackChunk delimits objects in the original content with the keyword
// pattern table and enforces the token budget on every resulting span. It
// is used when the structural parse fails or degenerates, and may be
// invoked directly for diagnostics. The returned spans are gap-free and
// order-preserving: sorted by start they cover [0, len(content)) exactly.
func fallbackChunk(content string, d Dialect, maxTokens int) []span {
	if len(content) == 0 {
		return nil
	}

	spans := delimitObjects(content)

	var out []span
	for _, s := range spans {
		if CountTokens(content[s.start:s.end]) <= maxTokens {
			out = append(out, s)
			continue
		}
		out = append(out, splitSpanByBudget(content, s, d, maxTokens)...)
	}
	return out
}

// delimitObjects marks each pattern match as the start of one object span.
// A span runs from its match to the next match of any type, or to the end
// of content for the last one. Text before the first match becomes a single
// leading mixed span. Zero matches yield the whole content as one mixed
// span.
func delimitObjects(content string) []span {
	matches := findObjectMatches(content)
	if len(matches) == 0 {
		return []span{{typ: TypeMixed, start: 0, end: len(content)}}
	}

	var spans []span
	if matches[0].start > 0 {
		spans = append(spans, span{typ: TypeMixed, start: 0, end: matches[0].start})
	}
	for i, m := range matches {
		end := len(content)
		if i+1 < len(matches) {
			end = matches[i+1].start
		}
		spans = append(spans, span{typ: m.typ, start: m.start, end: end})
	}
	return spans
}

// splitSpanByBudget cuts an oversize span at statement terminators that are
// outside every open block, then greedily merges consecutive fragments
// until adding the next one would exceed the budget. A fragment that alone
// exceeds the budget is emitted whole: cutting inside a statement (or a
// BEGIN...END body, which the boundary scanner treats as indivisible) is
// never allowed.
func splitSpanByBudget(content string, s span, d Dialect, maxTokens int) []span {
	fragments := spanFragments(content, s, d)
	if len(fragments) <= 1 {
		return []span{s}
	}

	var out []span
	accStart := -1
	accEnd := 0

	flush := func() {
		if accStart >= 0 {
			out = append(out, span{typ: s.typ, start: accStart, end: accEnd})
			accStart = -1
		}
	}

	for _, f := range fragments {
		if accStart >= 0 && CountTokens(content[accStart:f.end]) > maxTokens {
			flush()
		}
		if accStart < 0 {
			accStart = f.start
		}
		accEnd = f.end
	}
	flush()

	return out
}

// spanFragments partitions a span at top-level statement boundaries. The
// fragments are contiguous: each ends where the next begins, preserving the
// gap-free property of the fallback path. Boundary-scan errors are ignored
// here; the boundaries found before the error still yield usable cut
// points.
func spanFragments(content string, s span, d Dialect) []span {
	points, _ := scanBoundaries(content[s.start:s.end], d)

	var fragments []span
	prev := s.start
	for _, p := range points {
		cut := s.start + p
		if cut <= prev || cut >= s.end {
			continue
		}
		fragments = append(fragments, span{typ: s.typ, start: prev, end: cut})
		prev = cut
	}
	if prev < s.end {
		fragments = append(fragments, span{typ: s.typ, start: prev, end: s.end})
	}
	return fragments
}
