// Package source names and splits a compiled input for diagnostics:
// a CompileError only carries a line/column, not the text it points
// at, so reporting a caret under the offending token needs the
// original source back, by name and by line.
package source

import (
	"path/filepath"
	"strings"
)

// SourceFile represents a source file with its content and metadata
type SourceFile struct {
	Name    string   // Display name (e.g., "script.js", "<stdin>", "<eval>")
	Path    string   // Full file path (empty for REPL/eval)
	Content string   // The source code content
	lines   []string // Cached split lines (lazy initialization)
}

// NewSourceFile creates a new source file
func NewSourceFile(name, path, content string) *SourceFile {
	return &SourceFile{
		Name:    name,
		Path:    path,
		Content: content,
	}
}

// NewEvalSource creates a source file for eval/REPL input
func NewEvalSource(content string) *SourceFile {
	return &SourceFile{
		Name:    "<eval>",
		Path:    "",
		Content: content,
	}
}

// NewStdinSource creates a source file for stdin input
func NewStdinSource(content string) *SourceFile {
	return &SourceFile{
		Name:    "<stdin>",
		Path:    "",
		Content: content,
	}
}

// Lines returns the source split into lines (cached)
func (sf *SourceFile) Lines() []string {
	if sf.lines == nil {
		sf.lines = strings.Split(sf.Content, "\n")
	}
	return sf.lines
}

// DisplayPath returns the best path for display (prefers Path, falls back to Name)
func (sf *SourceFile) DisplayPath() string {
	if sf.Path != "" {
		return sf.Path
	}
	return sf.Name
}

// Snippet renders the 1-indexed line and a caret under column (also
// 1-indexed), for printing under a CompileError. Returns "" if line is
// out of range.
func (sf *SourceFile) Snippet(line, column int) string {
	lines := sf.Lines()
	if line < 1 || line > len(lines) {
		return ""
	}
	text := lines[line-1]
	caretPos := column - 1
	if caretPos < 0 {
		caretPos = 0
	}
	if caretPos > len(text) {
		caretPos = len(text)
	}
	return text + "\n" + strings.Repeat(" ", caretPos) + "^"
}

// Helper functions for creating sources from common patterns

// FromFile creates a SourceFile from a file path and content
func FromFile(filePath, content string) *SourceFile {
	name := filepath.Base(filePath)
	return NewSourceFile(name, filePath, content)
}