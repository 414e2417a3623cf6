package chunk

import "strings"

// Preprocess strips dialect-specific batch constructs that the structural
// parser cannot consume. Stripped lines are overwritten with spaces instead
// of being deleted, so every byte offset and line number in the preprocessed
// text matches the original exactly. The caller keeps the original content;
// the fallback path and final chunk spans always operate on it.
func Preprocess(content string, d Dialect) string {
	switch d {
	case DialectTSQL:
		return blankLines(content, isBatchSeparatorLine)
	case DialectPostgres:
		return blankLines(content, isMetaCommandLine)
	default:
		return content
	}
}

// isBatchSeparatorLine reports whether the line is a standalone T-SQL GO
// batch terminator, optionally with a repeat count (GO 5).
func isBatchSeparatorLine(line string) bool {
	fields := strings.Fields(line)
	switch len(fields) {
	case 1:
		return strings.EqualFold(fields[0], "GO")
	case 2:
		if !strings.EqualFold(fields[0], "GO") {
			return false
		}
		for _, r := range fields[1] {
			if r < '0' || r > '9' {
				return false
			}
		}
		return true
	}
	return false
}

// isMetaCommandLine reports whether the line is a psql meta-command
// (\connect, \copy, \set and friends), which is tooling syntax rather than
// SQL grammar.
func isMetaCommandLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return len(trimmed) > 1 && trimmed[0] == '\\'
}

// blankLines overwrites the content bytes of every matching line with
// spaces, preserving newlines and total length.
func blankLines(content string, match func(string) bool) string {
	changed := false
	buf := []byte(content)

	lineStart := 0
	for i := 0; i <= len(buf); i++ {
		if i != len(buf) && buf[i] != '\n' {
			continue
		}
		line := content[lineStart:i]
		if match(strings.TrimSuffix(line, "\r")) {
			for j := lineStart; j < i; j++ {
				if buf[j] != '\r' {
					buf[j] = ' '
				}
			}
			changed = true
		}
		lineStart = i + 1
	}

	if !changed {
		return content
	}
	return string(buf)
}
