package lexer

import "testing"

func TestRegexLiterals(t *testing.T) {
	tests := []struct {
		input           string
		expectedPattern string
		expectedFlags   string
	}{
		{"/abc/", "abc", ""},
		{"/abc/gi", "abc", "gi"},
		{`/a\/b/`, `a\/b`, ""},
		{"/[a/b]/", "[a/b]", ""},
	}
	for i, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken()
		if tok.Type != REGEX {
			t.Fatalf("tests[%d] - tokentype = %q, want REGEX", i, tok.Type)
		}
		if tok.Literal != tt.expectedPattern {
			t.Errorf("tests[%d] - pattern = %q, want %q", i, tok.Literal, tt.expectedPattern)
		}
		if tok.Flags != tt.expectedFlags {
			t.Errorf("tests[%d] - flags = %q, want %q", i, tok.Flags, tt.expectedFlags)
		}
	}
}

func TestSlashAfterIdentifierIsDivision(t *testing.T) {
	l := New("x / 2")
	first := l.NextToken()
	if first.Type != IDENT {
		t.Fatalf("first token = %q, want IDENT", first.Type)
	}
	second := l.NextToken()
	if second.Type != SLASH {
		t.Fatalf("second token = %q, want SLASH (division, not a regex start)", second.Type)
	}
}

func TestSlashAfterReturnIsRegexStart(t *testing.T) {
	l := New("return /abc/;")
	ret := l.NextToken()
	if ret.Type != RETURN {
		t.Fatalf("first token = %q, want RETURN", ret.Type)
	}
	re := l.NextToken()
	if re.Type != REGEX {
		t.Fatalf("second token = %q, want REGEX", re.Type)
	}
	if re.Literal != "abc" {
		t.Errorf("pattern = %q, want \"abc\"", re.Literal)
	}
}

func TestUnterminatedRegexFallsBackToDivision(t *testing.T) {
	l := New("return /abc\n")
	l.NextToken() // RETURN
	tok := l.NextToken()
	if tok.Type != SLASH {
		t.Fatalf("tokentype = %q, want SLASH (fallback after an unterminated regex)", tok.Type)
	}
}

func TestRegexFlagsAreCapturedVerbatimForParseTimeValidation(t *testing.T) {
	// This lexer defers flag legality checks (duplicates, unknown
	// letters) to parse time rather than rejecting them here, so even a
	// malformed flag string still lexes as one REGEX token.
	l := New("/abc/gg")
	tok := l.NextToken()
	if tok.Type != REGEX {
		t.Fatalf("tokentype = %q, want REGEX", tok.Type)
	}
	if tok.Flags != "gg" {
		t.Errorf("flags = %q, want \"gg\"", tok.Flags)
	}
}
