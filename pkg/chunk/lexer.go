package chunk

import (
	"errors"
	"strings"
)

// Scan errors reported by the statement walker. Any of them marks the
// structural parse as failed; the fallback path ignores them and uses the
// boundaries found up to the error.
var (
	errUnterminatedString  = errors.New("unterminated string literal")
	errUnterminatedComment = errors.New("unterminated block comment")
	errUnterminatedQuote   = errors.New("unterminated quoted identifier")
	errUnterminatedDollar  = errors.New("unterminated dollar-quoted string")
)

// stmtSpan is one top-level statement, trimmed to its content but including
// the trailing terminator. Offsets index the scanned text.
type stmtSpan struct {
	start int
	end   int
}

// walker advances byte-by-byte through SQL text, tracking string literals,
// comments, quoted identifiers, parenthesis depth and BEGIN...END block
// depth. It reports the offsets at which a new top-level statement may
// start: immediately after a semicolon outside every open block, and after
// a batch-separator line for the T-SQL family.
//
// Separator lines are checked against batchSrc rather than src: when the
// scanned text has been preprocessed, the separator lines in it are already
// blanked, and only the original (which shares every byte offset) still
// shows them.
type walker struct {
	src      string
	batchSrc string
	dialect  Dialect
	pos      int
	parens   int
	blocks   int
}

// scanBoundaries returns the sorted statement boundary offsets for src.
// The returned error, if any, describes the first unterminated construct;
// boundaries found before the error position are still returned.
func scanBoundaries(src string, d Dialect) ([]int, error) {
	w := &walker{src: src, batchSrc: src, dialect: d}
	return w.run()
}

// scanBoundariesInBatches is scanBoundaries for preprocessed text whose
// batch-separator lines survive only in the original. src and original must
// be offset-identical.
func scanBoundariesInBatches(src, original string, d Dialect) ([]int, error) {
	w := &walker{src: src, batchSrc: original, dialect: d}
	return w.run()
}

func (w *walker) run() ([]int, error) {
	var points []int
	lineStart := 0

	for w.pos < len(w.src) {
		c := w.src[w.pos]
		switch {
		case c == '-' && w.peek() == '-':
			w.skipLineComment()
			continue
		case c == '/' && w.peek() == '*':
			if !w.skipBlockComment() {
				return points, errUnterminatedComment
			}
			continue
		case c == '\'':
			if !w.skipQuoted('\'') {
				return points, errUnterminatedString
			}
			continue
		case c == '"':
			if !w.skipQuoted('"') {
				return points, errUnterminatedQuote
			}
			continue
		case c == '[' && w.dialect == DialectTSQL:
			if !w.skipBracketIdent() {
				return points, errUnterminatedQuote
			}
			continue
		case c == '$' && w.dialect == DialectPostgres:
			ok, terminated := w.skipDollarQuote()
			if ok {
				if !terminated {
					return points, errUnterminatedDollar
				}
				continue
			}
		case c == '(':
			w.parens++
		case c == ')':
			if w.parens > 0 {
				w.parens--
			}
		case c == ';':
			if w.parens == 0 && w.blocks == 0 {
				points = append(points, w.pos+1)
			}
		case c == '\n':
			if w.dialect == DialectTSQL && isBatchSeparatorLine(strings.TrimSuffix(w.batchSrc[lineStart:w.pos], "\r")) {
				// GO terminates the batch regardless of open constructs.
				w.parens, w.blocks = 0, 0
				points = append(points, w.pos+1)
			}
			lineStart = w.pos + 1
		default:
			if isWordStart(c) {
				w.readWord()
				continue
			}
			if isWordByte(c) {
				// Numeric-led run; consume it whole so a trailing
				// keyword fragment is not misread.
				for w.pos < len(w.src) && isWordByte(w.src[w.pos]) {
					w.pos++
				}
				continue
			}
		}
		w.pos++
	}

	// Trailing batch separator without a final newline.
	if w.dialect == DialectTSQL && lineStart < len(w.src) &&
		isBatchSeparatorLine(strings.TrimSuffix(w.batchSrc[lineStart:], "\r")) {
		points = append(points, len(w.src))
	}

	return points, nil
}

func (w *walker) peek() byte {
	if w.pos+1 >= len(w.src) {
		return 0
	}
	return w.src[w.pos+1]
}

func (w *walker) skipLineComment() {
	for w.pos < len(w.src) && w.src[w.pos] != '\n' {
		w.pos++
	}
}

func (w *walker) skipBlockComment() bool {
	w.pos += 2
	for w.pos < len(w.src) {
		if w.src[w.pos] == '*' && w.peek() == '/' {
			w.pos += 2
			return true
		}
		w.pos++
	}
	return false
}

// skipQuoted consumes a quoted region delimited by q, honoring doubled
// quotes as escapes.
func (w *walker) skipQuoted(q byte) bool {
	w.pos++
	for w.pos < len(w.src) {
		if w.src[w.pos] == q {
			if w.peek() == q {
				w.pos += 2
				continue
			}
			w.pos++
			return true
		}
		w.pos++
	}
	return false
}

func (w *walker) skipBracketIdent() bool {
	w.pos++
	for w.pos < len(w.src) {
		if w.src[w.pos] == ']' {
			w.pos++
			return true
		}
		w.pos++
	}
	return false
}

// skipDollarQuote consumes a $tag$...$tag$ region. The first return value
// reports whether the current position actually opened a dollar quote; the
// second whether the quote was terminated.
func (w *walker) skipDollarQuote() (ok, terminated bool) {
	end := w.pos + 1
	for end < len(w.src) && (isWordByte(w.src[end]) && w.src[end] < 0x80) {
		end++
	}
	if end >= len(w.src) || w.src[end] != '$' {
		return false, false
	}

	tag := w.src[w.pos : end+1]
	closing := strings.Index(w.src[end+1:], tag)
	if closing < 0 {
		w.pos = len(w.src)
		return true, false
	}
	w.pos = end + 1 + closing + len(tag)
	return true, true
}

// readWord consumes an identifier/keyword run and updates block depth for
// BEGIN, CASE and END keywords.
func (w *walker) readWord() {
	start := w.pos
	for w.pos < len(w.src) && isWordByte(w.src[w.pos]) {
		w.pos++
	}
	word := strings.ToLower(w.src[start:w.pos])

	switch word {
	case "begin":
		if !w.beginIsTransaction() {
			w.blocks++
		}
	case "case":
		w.blocks++
	case "end":
		if w.blocks > 0 {
			w.blocks--
		}
	}
}

// beginIsTransaction reports whether the BEGIN just consumed starts a
// transaction rather than a statement block: BEGIN TRANSACTION, BEGIN TRAN,
// BEGIN WORK, or a bare "BEGIN;".
func (w *walker) beginIsTransaction() bool {
	i := w.pos
	for i < len(w.src) && (w.src[i] == ' ' || w.src[i] == '\t' || w.src[i] == '\n' || w.src[i] == '\r') {
		i++
	}
	if i >= len(w.src) || w.src[i] == ';' {
		return true
	}
	start := i
	for i < len(w.src) && isWordByte(w.src[i]) {
		i++
	}
	switch strings.ToLower(w.src[start:i]) {
	case "transaction", "tran", "work":
		return true
	}
	return false
}

func isWordStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// scanStatements splits src into top-level statement spans, trimmed of
// surrounding whitespace. Blank segments between terminators are dropped.
// original carries the unpreprocessed text for batch-separator detection;
// pass src itself when no preprocessing happened.
func scanStatements(src, original string, d Dialect) ([]stmtSpan, error) {
	points, err := scanBoundariesInBatches(src, original, d)
	if err != nil {
		return nil, err
	}

	var spans []stmtSpan
	prev := 0
	emit := func(start, end int) {
		start, end = trimSpan(src, start, end)
		if start < end {
			spans = append(spans, stmtSpan{start: start, end: end})
		}
	}
	for _, p := range points {
		emit(prev, p)
		prev = p
	}
	emit(prev, len(src))

	return spans, nil
}

// trimSpan narrows [start, end) to exclude surrounding whitespace.
func trimSpan(src string, start, end int) (int, int) {
	for start < end && isSpaceByte(src[start]) {
		start++
	}
	for end > start && isSpaceByte(src[end-1]) {
		end--
	}
	return start, end
}

func isSpaceByte(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
