package main

import (
	"testing"

	"cbc/pkg/compiler"
)

func TestReportReturnsZeroOnSuccess(t *testing.T) {
	code, err := compiler.Parse("1 + 1;")
	if err != nil {
		t.Fatalf("Parse returned an error: %v", err)
	}
	if got := report("<expr>", code, err, true); got != 0 {
		t.Errorf("report() = %d, want 0", got)
	}
}

func TestReportReturnsOneOnCompileError(t *testing.T) {
	_, err := compiler.Parse("var ;")
	if err == nil {
		t.Fatal("expected a compile error")
	}
	if got := report("<expr>", nil, err, true); got != 1 {
		t.Errorf("report() = %d, want 1", got)
	}
}
