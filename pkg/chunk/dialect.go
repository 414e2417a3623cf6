package chunk

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Dialect selects the preprocessing and parsing rules for a SQL family.
type Dialect int

const (
	// DialectAuto asks the chunker to detect the dialect from the file
	// extension and content. It always resolves to a concrete dialect.
	DialectAuto Dialect = iota
	// DialectGeneric is the ANSI-flavored default.
	DialectGeneric
	// DialectPostgres covers the Postgres family (dollar quoting, psql
	// meta-commands, :: casts).
	DialectPostgres
	// DialectTSQL covers the T-SQL family (GO batch separators, bracketed
	// identifiers).
	DialectTSQL
)

var dialectNames = map[Dialect]string{
	DialectAuto:     "auto",
	DialectGeneric:  "generic",
	DialectPostgres: "postgres",
	DialectTSQL:     "tsql",
}

// String returns the lowercase dialect tag.
func (d Dialect) String() string {
	if name, ok := dialectNames[d]; ok {
		return name
	}
	return "generic"
}

// MarshalJSON serializes the dialect as its string tag.
func (d Dialect) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON parses a string tag back into a Dialect.
func (d *Dialect) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDialect(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDialect maps a user-supplied tag to a Dialect. An empty tag means
// auto-detection.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return DialectAuto, nil
	case "generic", "ansi", "sql":
		return DialectGeneric, nil
	case "postgres", "postgresql", "pg", "plpgsql":
		return DialectPostgres, nil
	case "tsql", "t-sql", "mssql", "sqlserver":
		return DialectTSQL, nil
	}
	return DialectGeneric, fmt.Errorf("unknown dialect %q", s)
}

// detectSampleSize bounds how much of the content the detector scans.
const detectSampleSize = 8192

var (
	goLinePattern      = regexp.MustCompile(`(?im)^\s*GO(?:\s+\d+)?\s*$`)
	bracketIdentHint   = regexp.MustCompile(`\[[A-Za-z_][\w ]*\]\s*\.`)
	tsqlKeywordHint    = regexp.MustCompile(`(?i)\b(?:NVARCHAR|IDENTITY\s*\(|EXEC\s+sp_|dbo\.)`)
	dollarQuoteHint    = regexp.MustCompile(`\$[A-Za-z_]*\$`)
	pgKeywordHint      = regexp.MustCompile(`(?i)\bLANGUAGE\s+(?:'?plpgsql'?|sql)\b|::\s*\w+|\bRETURNS\s+\w+\s+AS\b`)
	psqlMetaCommand    = regexp.MustCompile(`(?m)^\\\w+`)
	tsqlFileExtensions = map[string]bool{".tsql": true, ".mssql": true}
	pgFileExtensions   = map[string]bool{".psql": true, ".pgsql": true}
)

// DetectDialect resolves a concrete dialect for the given file. The file
// extension wins when it is dialect-specific; otherwise the leading portion
// of the content is scanned for dialect-signalling tokens. Detection never
// fails: an unrecognized signal falls back to the generic family.
func DetectDialect(sourcePath, content string) Dialect {
	ext := strings.ToLower(filepath.Ext(sourcePath))
	switch {
	case tsqlFileExtensions[ext]:
		return DialectTSQL
	case pgFileExtensions[ext]:
		return DialectPostgres
	}

	sample := content
	if len(sample) > detectSampleSize {
		sample = sample[:detectSampleSize]
	}

	if goLinePattern.MatchString(sample) || bracketIdentHint.MatchString(sample) || tsqlKeywordHint.MatchString(sample) {
		return DialectTSQL
	}
	if dollarQuoteHint.MatchString(sample) || pgKeywordHint.MatchString(sample) || psqlMetaCommand.MatchString(sample) {
		return DialectPostgres
	}
	return DialectGeneric
}

// Resolve returns the dialect itself when concrete, or the detected dialect
// when d is DialectAuto.
func (d Dialect) Resolve(sourcePath, content string) Dialect {
	if d == DialectAuto {
		return DetectDialect(sourcePath, content)
	}
	return d
}
