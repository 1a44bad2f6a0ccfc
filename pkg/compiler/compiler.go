// Package compiler exposes the single external entry point of a
// compile: parse(arg_list_bytes?, source_bytes) → CompiledCode |
// ParseError. It wires the lexer, parser, literal pool, and
// post-processor together and installs the one context.Context.Recover
// call that implements the non-local error exit for the whole parse.
//
// Grounded on a top-level Compiler entry point that plays the
// identical "own the root Compiler, drive the parse, hand back either
// a finished program or a typed error" role for a register-based
// compiler.
package compiler

import (
	"cbc/pkg/bytecode"
	"cbc/pkg/context"
	"cbc/pkg/errors"
	"cbc/pkg/parser"
	"cbc/pkg/postprocess"
	"cbc/pkg/source"
)

// Parse compiles src as a top-level script with no source file behind
// it; errors are attributed to "<eval>" (see source.NewEvalSource).
func Parse(src string) (code *bytecode.CompiledCode, err *errors.CompileError) {
	return parseProgram(nil, source.NewEvalSource(src))
}

// ParseFile compiles src as a top-level script, attributing errors to
// the named file for diagnostics (see pkg/source.Snippet).
func ParseFile(path, src string) (code *bytecode.CompiledCode, err *errors.CompileError) {
	return parseProgram(nil, source.FromFile(path, src))
}

// ParseStdin compiles src as a top-level script read from standard
// input, displaying as "<stdin>" in diagnostics.
func ParseStdin(src string) (code *bytecode.CompiledCode, err *errors.CompileError) {
	return parseProgram(nil, source.NewStdinSource(src))
}

// ParseFunctionBody compiles sf.Content as a function body whose
// parameter list is given separately as argListSource (e.g. "a, b,
// c"): the source is treated as a function body and the arg-list is
// parsed first under the argument grammar.
func ParseFunctionBody(argListSource string, sf *source.SourceFile) (code *bytecode.CompiledCode, err *errors.CompileError) {
	return parseProgram(&argListSource, sf)
}

func parseProgram(argListSource *string, sf *source.SourceFile) (code *bytecode.CompiledCode, err *errors.CompileError) {
	root := context.NewContext(nil, 0)
	root.SetSource(sf)
	defer root.Recover(&err)

	var p *parser.Parser
	if argListSource == nil {
		p = parser.NewScript(root, sf.Content)
	} else {
		names := parseArgList(root, *argListSource)
		root.ArgumentCount = len(names)
		p = parser.NewFunctionBody(root, sf.Content, names)
	}

	p.ParseProgram()

	ranges := root.Pool.Classify(root.ArgumentCount, bytecode.MaxRegisters, root.Status&context.StatusArgumentsNeeded != 0)
	code = postprocess.Run(root, ranges)
	root.Destroy()
	return code, nil
}

// parseArgList splits a bare comma-separated identifier list (the
// argument grammar, not a full parenthesized parameter list, since the
// caller already stripped the source body out of it)
// and returns the names in order, aborting on a duplicate; it does not
// touch ctx's pool; parser.NewFunctionBody pre-declares the names as
// Ident records, as it does for a parameter list parsed inline from
// `(...)`.
func parseArgList(ctx *context.Context, argListSource string) []string {
	var names []string
	var cur []rune
	flush := func() {
		name := string(cur)
		cur = cur[:0]
		if name == "" {
			return
		}
		for _, existing := range names {
			if existing == name {
				ctx.Abort(errors.DuplicatedArgumentNames, "duplicate parameter name %q", name)
			}
		}
		names = append(names, name)
	}
	for _, r := range argListSource {
		switch r {
		case ',':
			flush()
		case ' ', '\t', '\n', '\r':
			// ignore whitespace between names
		default:
			cur = append(cur, r)
		}
	}
	flush()
	return names
}
