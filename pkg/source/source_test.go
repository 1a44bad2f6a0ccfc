package source

import "testing"

func TestNewStdinSourceName(t *testing.T) {
	sf := NewStdinSource("var x = 1;")
	if sf.Name != "<stdin>" {
		t.Errorf("Name = %q, want <stdin>", sf.Name)
	}
	if sf.DisplayPath() != "<stdin>" {
		t.Errorf("DisplayPath() = %q, want <stdin>", sf.DisplayPath())
	}
}

func TestDisplayPathPrefersPath(t *testing.T) {
	sf := FromFile("/tmp/script.js", "1;")
	if sf.DisplayPath() != "/tmp/script.js" {
		t.Errorf("DisplayPath() = %q, want /tmp/script.js", sf.DisplayPath())
	}
	if sf.Name != "script.js" {
		t.Errorf("Name = %q, want script.js", sf.Name)
	}
}

func TestLinesSplitsAndCaches(t *testing.T) {
	sf := NewSourceFile("x", "", "a\nb\nc")
	lines := sf.Lines()
	if len(lines) != 3 || lines[1] != "b" {
		t.Errorf("Lines() = %v, want [a b c]", lines)
	}
	// second call must return the cached slice, not recompute it wrong
	if lines2 := sf.Lines(); len(lines2) != 3 {
		t.Errorf("second Lines() call = %v", lines2)
	}
}

func TestSnippetRendersCaret(t *testing.T) {
	sf := NewSourceFile("x", "", "foo bar")
	got := sf.Snippet(1, 5)
	want := "foo bar\n    ^"
	if got != want {
		t.Errorf("Snippet(1,5) = %q, want %q", got, want)
	}
}

func TestSnippetOutOfRangeLine(t *testing.T) {
	sf := NewSourceFile("x", "", "only one line")
	if got := sf.Snippet(5, 1); got != "" {
		t.Errorf("Snippet on an out-of-range line = %q, want \"\"", got)
	}
}

func TestSnippetClampsColumnPastLineEnd(t *testing.T) {
	sf := NewSourceFile("x", "", "ab")
	got := sf.Snippet(1, 99)
	want := "ab\n  ^"
	if got != want {
		t.Errorf("Snippet with an out-of-range column = %q, want %q", got, want)
	}
}
