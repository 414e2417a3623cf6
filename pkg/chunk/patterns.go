package chunk

import (
	"regexp"
	"sync"
)

// objectPattern delimits one kind of composite object definition. The
// floating form finds definition heads anywhere in a script; the anchored
// form classifies a statement by its leading keywords.
type objectPattern struct {
	typ      ChunkType
	floating *regexp.Regexp
	anchored *regexp.Regexp
}

// patternBodies are ordered: when two patterns match at the same offset the
// earlier one wins. Each body tolerates the optional modifiers the dialects
// allow between CREATE and the object keyword.
var patternBodies = []struct {
	typ  ChunkType
	body string
}{
	{TypeProcedure, `CREATE\s+(?:OR\s+(?:ALTER|REPLACE)\s+)?PROC(?:EDURE)?\b`},
	{TypeFunction, `CREATE\s+(?:OR\s+(?:ALTER|REPLACE)\s+)?FUNCTION\b`},
	{TypeTrigger, `CREATE\s+(?:OR\s+(?:ALTER|REPLACE)\s+)?(?:CONSTRAINT\s+)?TRIGGER\b`},
	{TypeView, `CREATE\s+(?:OR\s+(?:ALTER|REPLACE)\s+)?(?:MATERIALIZED\s+)?VIEW\b`},
	{TypeTable, `CREATE\s+(?:GLOBAL\s+|LOCAL\s+)?(?:TEMP(?:ORARY)?\s+)?(?:UNLOGGED\s+)?TABLE\b`},
	{TypeIndex, `CREATE\s+(?:UNIQUE\s+)?(?:CLUSTERED\s+|NONCLUSTERED\s+)?INDEX\b`},
	{TypeSchema, `CREATE\s+SCHEMA\b`},
}

var (
	patternsOnce   sync.Once
	objectPatterns []objectPattern
)

// compiledPatterns returns the process-wide pattern table. It is compiled
// once and never mutated afterwards, so concurrent readers need no locking.
func compiledPatterns() []objectPattern {
	patternsOnce.Do(func() {
		objectPatterns = make([]objectPattern, 0, len(patternBodies))
		for _, p := range patternBodies {
			objectPatterns = append(objectPatterns, objectPattern{
				typ:      p.typ,
				floating: regexp.MustCompile(`(?i)\b` + p.body),
				anchored: regexp.MustCompile(`(?i)\A\s*` + p.body),
			})
		}
	})
	return objectPatterns
}

// objectMatch is one definition head found by the pattern table.
type objectMatch struct {
	typ   ChunkType
	start int
}

// findObjectMatches collects every definition head across all patterns,
// sorted by position. A position claimed by an earlier pattern is not
// reassigned by a later one.
func findObjectMatches(content string) []objectMatch {
	var matches []objectMatch
	claimed := make(map[int]bool)

	for _, p := range compiledPatterns() {
		for _, loc := range p.floating.FindAllStringIndex(content, -1) {
			if claimed[loc[0]] {
				continue
			}
			claimed[loc[0]] = true
			matches = append(matches, objectMatch{typ: p.typ, start: loc[0]})
		}
	}

	sortMatches(matches)
	return matches
}

// sortMatches orders matches by start offset. Insertion sort is sufficient:
// per-pattern results are already ordered and real scripts have few heads.
func sortMatches(matches []objectMatch) {
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].start < matches[j-1].start; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}
}

// classifyObjectHead returns the object type a statement defines, or
// TypeUnknown when the statement is not a recognized definition head.
func classifyObjectHead(stmt string) ChunkType {
	for _, p := range compiledPatterns() {
		if p.anchored.MatchString(stmt) {
			return p.typ
		}
	}
	return TypeUnknown
}
