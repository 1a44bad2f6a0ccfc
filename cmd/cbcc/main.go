// Command cbcc is the compiler-only driver: it lexes, parses, and
// post-processes a source file into compact byte-code and prints the
// result. There is no executor here to run the byte-code against —
// this is a compiler, not a VM.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"cbc/pkg/bytecode"
	"cbc/pkg/compiler"
	"cbc/pkg/disasm"
	"cbc/pkg/errors"
)

func main() {
	exprFlag := flag.String("e", "", "compile the given expression text instead of a file")
	quietFlag := flag.Bool("q", false, "suppress the disassembly, just report success or failure")
	flag.Parse()

	if *exprFlag != "" {
		code, compileErr := compiler.Parse(*exprFlag)
		os.Exit(report("<expr>", code, compileErr, *quietFlag))
	}

	if flag.NArg() == 0 {
		inputBytes, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading stdin: %v\n", err)
			os.Exit(1)
		}
		code, compileErr := compiler.ParseStdin(string(inputBytes))
		os.Exit(report("<stdin>", code, compileErr, *quietFlag))
	}

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [-q] <filename.js>\n       %s -e '<expression>'\n       %s < script.js\n", os.Args[0], os.Args[0], os.Args[0])
		os.Exit(64)
	}

	filename := flag.Arg(0)
	inputBytes, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading file %q: %v\n", filename, err)
		os.Exit(1)
	}
	code, compileErr := compiler.ParseFile(filename, string(inputBytes))
	os.Exit(report(filename, code, compileErr, *quietFlag))
}

func report(displayName string, code *bytecode.CompiledCode, compileErr *errors.CompileError, quiet bool) int {
	if compileErr != nil {
		reportError(compileErr)
		return 1
	}
	if !quiet {
		fmt.Print(disasm.Disassemble(code, displayName))
	}
	return 0
}

func reportError(compileErr *errors.CompileError) {
	pos := compileErr.Position()
	if pos.Source != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", pos.Source.DisplayPath(), compileErr.Error())
		if snippet := pos.Source.Snippet(pos.Line, pos.Column); snippet != "" {
			fmt.Fprintln(os.Stderr, snippet)
		}
		return
	}
	fmt.Fprintf(os.Stderr, "%s\n", compileErr.Error())
}
