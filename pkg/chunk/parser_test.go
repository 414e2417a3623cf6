package chunk

import (
	"strings"
	"testing"
)

// Helper to scan and return the statement texts.
func statementTexts(t *testing.T, src string, d Dialect) []string {
	t.Helper()
	spans, err := scanStatements(src, src, d)
	if err != nil {
		t.Fatalf("scanStatements failed: %v", err)
	}
	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = src[s.start:s.end]
	}
	return out
}

func TestScanStatements_Basic(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		dialect Dialect
		want    int
	}{
		{
			name: "two simple statements",
			src:  "SELECT 1;\nSELECT 2;",
			want: 2,
		},
		{
			name: "semicolon inside string literal",
			src:  "INSERT INTO t VALUES ('a;b');\nSELECT 1;",
			want: 2,
		},
		{
			name: "doubled quote escape",
			src:  "INSERT INTO t VALUES ('it''s; fine');\nSELECT 1;",
			want: 2,
		},
		{
			name: "semicolon inside line comment",
			src:  "SELECT 1; -- trailing; noise\nSELECT 2;",
			want: 2,
		},
		{
			name: "semicolon inside block comment",
			src:  "SELECT 1;\n/* not a; boundary */\nSELECT 2;",
			want: 2,
		},
		{
			name: "semicolon inside parens",
			src:  "CREATE TABLE t (a int); SELECT 1;",
			want: 2,
		},
		{
			name: "no trailing semicolon",
			src:  "SELECT 1;\nSELECT 2",
			want: 2,
		},
		{
			name:    "bracketed identifier holds a semicolon",
			src:     "SELECT [a;b] FROM [t];\nSELECT 2;",
			dialect: DialectTSQL,
			want:    2,
		},
		{
			name:    "dollar-quoted body holds semicolons",
			src:     "CREATE FUNCTION f() RETURNS int AS $$ BEGIN RETURN 1; END $$ LANGUAGE plpgsql;\nSELECT 1;",
			dialect: DialectPostgres,
			want:    2,
		},
		{
			name:    "tagged dollar quote",
			src:     "CREATE FUNCTION f() RETURNS int AS $body$ RETURN 1; $body$ LANGUAGE sql;\nSELECT 1;",
			dialect: DialectPostgres,
			want:    2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.dialect
			if d == DialectAuto {
				d = DialectGeneric
			}
			got := statementTexts(t, tt.src, d)
			if len(got) != tt.want {
				t.Errorf("expected %d statements, got %d: %q", tt.want, len(got), got)
			}
		})
	}
}

func TestScanStatements_BeginEndBlock(t *testing.T) {
	src := `CREATE PROCEDURE p AS
BEGIN
  UPDATE t SET a = 1;
  UPDATE t SET b = 2;
END;`

	got := statementTexts(t, src, DialectGeneric)
	if len(got) != 1 {
		t.Fatalf("semicolons inside BEGIN...END must not split: got %d statements %q", len(got), got)
	}
}

func TestScanStatements_BeginTransactionIsNotABlock(t *testing.T) {
	src := "BEGIN TRANSACTION;\nUPDATE t SET a = 1;\nCOMMIT;"

	got := statementTexts(t, src, DialectGeneric)
	if len(got) != 3 {
		t.Errorf("BEGIN TRANSACTION must not open a block: got %d statements %q", len(got), got)
	}

	// Bare BEGIN immediately terminated is a transaction start too.
	src = "BEGIN;\nUPDATE t SET a = 1;\nCOMMIT;"
	got = statementTexts(t, src, DialectGeneric)
	if len(got) != 3 {
		t.Errorf("bare BEGIN; must not open a block: got %d statements %q", len(got), got)
	}
}

func TestScanStatements_CaseEndBalanced(t *testing.T) {
	src := "SELECT CASE WHEN a = 1 THEN 'x' ELSE 'y' END FROM t;\nSELECT 2;"

	got := statementTexts(t, src, DialectGeneric)
	if len(got) != 2 {
		t.Errorf("CASE...END must stay balanced: got %d statements %q", len(got), got)
	}
}

func TestScanBoundaries_BatchSeparator(t *testing.T) {
	src := "SELECT 1\nGO\nSELECT 2\nGO 3\nSELECT 3"

	points, err := scanBoundaries(src, DialectTSQL)
	if err != nil {
		t.Fatalf("scanBoundaries failed: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 batch boundaries, got %d: %v", len(points), points)
	}
	for _, p := range points {
		before := src[:p]
		if !strings.HasSuffix(strings.TrimRight(before, "\n"), "GO") &&
			!strings.HasSuffix(strings.TrimRight(before, "\n"), "GO 3") {
			t.Errorf("boundary %d does not follow a GO line", p)
		}
	}
}

func TestScanBoundaries_BatchSeparatorResetsDepth(t *testing.T) {
	// An unbalanced BEGIN before GO must not leak into the next batch.
	src := "CREATE PROCEDURE p AS\nBEGIN\n  SELECT 1\nGO\nSELECT 2;\nSELECT 3;"

	points, err := scanBoundaries(src, DialectTSQL)
	if err != nil {
		t.Fatalf("scanBoundaries failed: %v", err)
	}
	// One boundary after GO plus one after each top-level semicolon.
	if len(points) != 3 {
		t.Errorf("expected 3 boundaries, got %d: %v", len(points), points)
	}
}

func TestScanStatements_UnterminatedConstructs(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"string", "SELECT 'oops"},
		{"block comment", "SELECT 1; /* never closed"},
		{"quoted identifier", `SELECT "oops`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := scanStatements(tt.src, tt.src, DialectGeneric); err == nil {
				t.Error("expected a scan error")
			}
		})
	}
}

func TestParseScript_Degenerate(t *testing.T) {
	// Missing semicolons collapse several definitions into one statement; the
	// parse must refuse to trust that result.
	src := "CREATE TABLE a (x int)\nCREATE TABLE b (y int)\nCREATE TABLE c (z int)"

	outcome := parseScript(src, src, DialectGeneric, DefaultMaxTokens)
	if outcome.status != parseDegenerate {
		t.Fatalf("expected parseDegenerate, got %v", outcome.status)
	}

	// End to end, the fallback must recover one chunk per definition.
	chunks, err := ChunkFile(src, "broken.sql", DialectGeneric, DefaultMaxTokens)
	if err != nil {
		t.Fatalf("ChunkFile failed: %v", err)
	}
	if len(chunks) != 3 {
		t.Errorf("expected 3 fallback chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.Type != TypeTable {
			t.Errorf("chunk %d: expected Table, got %v", i, c.Type)
		}
	}
}

func TestParseScript_FailedOnUnterminatedString(t *testing.T) {
	src := "CREATE TABLE t (a int);\nINSERT INTO t VALUES ('open"

	outcome := parseScript(src, src, DialectGeneric, DefaultMaxTokens)
	if outcome.status != parseFailed {
		t.Fatalf("expected parseFailed, got %v", outcome.status)
	}

	// The file still chunks via the fallback.
	chunks, err := ChunkFile(src, "bad.sql", DialectGeneric, DefaultMaxTokens)
	if err != nil {
		t.Fatalf("ChunkFile failed: %v", err)
	}
	if len(chunks) == 0 {
		t.Error("expected fallback chunks for a malformed file")
	}
}

func TestGroupStatements_MixedRuns(t *testing.T) {
	src := "INSERT INTO t VALUES (1);\nINSERT INTO t VALUES (2);\nCREATE VIEW v AS SELECT * FROM t;\nDELETE FROM t;"

	outcome := parseScript(src, src, DialectGeneric, DefaultMaxTokens)
	if outcome.status != parseOK {
		t.Fatalf("expected parseOK, got %v", outcome.status)
	}
	if len(outcome.units) != 3 {
		t.Fatalf("expected 3 units (run, view, run), got %d", len(outcome.units))
	}
	if outcome.units[0].typ != TypeMixed {
		t.Errorf("unit 0: expected Mixed, got %v", outcome.units[0].typ)
	}
	if outcome.units[1].typ != TypeView {
		t.Errorf("unit 1: expected View, got %v", outcome.units[1].typ)
	}
	if outcome.units[2].typ != TypeMixed {
		t.Errorf("unit 2: expected Mixed, got %v", outcome.units[2].typ)
	}
}

func TestIsLooseStatement(t *testing.T) {
	if !isLooseStatement("SELECT * FROM t") {
		t.Error("SELECT should be a loose statement head")
	}
	if isLooseStatement("FROBNICATE t") {
		t.Error("unknown verbs are not loose statement heads")
	}
	if isLooseStatement("   ") {
		t.Error("blank text is not a statement")
	}
}
