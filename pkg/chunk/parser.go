package chunk

import (
	"errors"
	"strings"
)

// errNoStatements marks a script in which the scanner found nothing to
// parse.
var errNoStatements = errors.New("no statements found")

// parseStatus is the observable result of the structural parse. The
// fallback transition is an explicit branch, never a swallowed error.
type parseStatus int

const (
	// parseOK means the structural path produced a trustworthy unit list.
	parseOK parseStatus = iota
	// parseFailed means the scanner could not recover a statement sequence.
	parseFailed
	// parseDegenerate means the parse succeeded but collapsed a script with
	// several object definitions into a single unit, so the result is not
	// trusted.
	parseDegenerate
)

// parseOutcome carries the structural parse result.
type parseOutcome struct {
	status parseStatus
	units  []span
	err    error
}

// span is a typed byte range produced by either chunking path, before
// assembly into final Chunk records.
type span struct {
	typ   ChunkType
	start int
	end   int
}

// parseScript parses preprocessed content into per-object units using full
// statement knowledge of the dialect. Object definitions become one unit
// each; consecutive loose statements are grouped into mixed runs up to the
// token budget. Statement spans index the preprocessed text, whose offsets
// are identical to the original's; the original is consulted only for
// batch-separator lines, which preprocessing blanks.
func parseScript(content, original string, d Dialect, maxTokens int) parseOutcome {
	stmts, err := scanStatements(content, original, d)
	if err != nil {
		return parseOutcome{status: parseFailed, err: err}
	}
	if len(stmts) == 0 {
		return parseOutcome{status: parseFailed, err: errNoStatements}
	}

	units := groupStatements(content, stmts, maxTokens)

	if len(units) == 1 && len(findObjectMatches(content)) >= 2 {
		return parseOutcome{status: parseDegenerate, units: units}
	}
	return parseOutcome{status: parseOK, units: units}
}

// groupStatements turns the statement sequence into typed units. A run of
// loose statements is flushed when its head object type changes or adding
// the next statement would exceed the budget; a single oversize statement
// stays whole.
func groupStatements(content string, stmts []stmtSpan, maxTokens int) []span {
	var units []span

	runStart := -1
	runEnd := 0
	runTagged := false // run contains at least one recognized loose statement

	flushRun := func() {
		if runStart < 0 {
			return
		}
		typ := TypeMixed
		if !runTagged {
			typ = TypeUnknown
		}
		units = append(units, span{typ: typ, start: runStart, end: runEnd})
		runStart = -1
		runTagged = false
	}

	for _, s := range stmts {
		text := content[s.start:s.end]
		if typ := classifyObjectHead(text); typ != TypeUnknown {
			flushRun()
			units = append(units, span{typ: typ, start: s.start, end: s.end})
			continue
		}

		if runStart >= 0 && CountTokens(content[runStart:s.end]) > maxTokens {
			flushRun()
		}
		if runStart < 0 {
			runStart = s.start
		}
		runEnd = s.end
		if isLooseStatement(text) {
			runTagged = true
		}
	}
	flushRun()

	return units
}

// looseHeads are the leading keywords of statements that belong in mixed
// runs rather than per-object units.
var looseHeads = map[string]bool{
	"select": true, "insert": true, "update": true, "delete": true,
	"merge": true, "with": true, "set": true, "grant": true, "revoke": true,
	"drop": true, "alter": true, "truncate": true, "comment": true,
	"copy": true, "call": true, "execute": true, "exec": true, "begin": true,
	"commit": true, "rollback": true, "vacuum": true, "analyze": true,
	"explain": true, "use": true, "declare": true, "values": true,
	"create": true,
}

// isLooseStatement reports whether the statement's first keyword is a
// recognized SQL verb. Unrecognized heads leave a run typed Unknown.
func isLooseStatement(stmt string) bool {
	fields := strings.Fields(stmt)
	if len(fields) == 0 {
		return false
	}
	return looseHeads[strings.ToLower(fields[0])]
}
