package errors

import "testing"

func TestNewBuildsFormattedMessage(t *testing.T) {
	pos := Position{Line: 4, Column: 9}
	err := New(UnexpectedToken, pos, "got %q, want %q", "}", ")")
	if err.Kind() != UnexpectedToken {
		t.Errorf("Kind() = %v, want UnexpectedToken", err.Kind())
	}
	if err.Position() != pos {
		t.Errorf("Position() = %+v, want %+v", err.Position(), pos)
	}
	want := `got "}", want ")"`
	if err.Msg != want {
		t.Errorf("Msg = %q, want %q", err.Msg, want)
	}
}

func TestErrorStringIncludesKindAndPosition(t *testing.T) {
	err := New(LiteralLimitReached, Position{Line: 1, Column: 2}, "too many literals")
	got := err.Error()
	want := "LiteralLimitReached at 1:2: too many literals"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
