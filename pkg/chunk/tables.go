package chunk

import (
	"regexp"
	"sort"
	"strings"
)

// tableRefPattern captures the identifier following a table-reference
// keyword. Dialect-agnostic on purpose: quoted, bracketed and
// schema-qualified names are all accepted and unwrapped afterwards.
var tableRefPattern = regexp.MustCompile("(?i)\\b(?:from|join|into|update)\\s+([A-Za-z_\"`\\[][\\w.$\"`\\[\\]]*)")

// tableStopWords filters keyword captures that follow a reference keyword
// without naming a table (SELECT ... INTO, UPDATE OF, FROM (subquery), and
// similar shapes).
var tableStopWords = map[string]bool{
	"select": true, "values": true, "only": true, "lateral": true,
	"unnest": true, "table": true, "dual": true, "of": true, "set": true,
	"where": true, "on": true, "as": true, "not": true, "if": true,
	"each": true, "row": true, "statement": true,
}

// ExtractTables scans content for identifiers referenced as tables. It is a
// lightweight keyword scan, not semantic resolution: names are returned as
// written (minus quoting), deduplicated case-insensitively and sorted.
func ExtractTables(content string) []string {
	seen := make(map[string]bool)
	var tables []string

	for _, m := range tableRefPattern.FindAllStringSubmatch(content, -1) {
		name := unquoteIdent(m[1])
		if name == "" {
			continue
		}
		if tableStopWords[strings.ToLower(name)] {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		tables = append(tables, name)
	}

	sort.Strings(tables)
	return tables
}

// unquoteIdent strips quote and bracket characters from a possibly
// qualified identifier and trims a trailing dot left by a dangling
// qualifier.
func unquoteIdent(ident string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '"', '`', '[', ']':
			return -1
		}
		return r
	}, ident)
	return strings.Trim(cleaned, ".")
}
