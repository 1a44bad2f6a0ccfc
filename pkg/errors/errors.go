package errors

import "fmt"

// Kind enumerates the fatal compile error kinds this compiler reports; the
// list is explicitly non-exhaustive so UnexpectedToken and InvalidRegexp
// round out the minimal lexer/driver contract with something to report
// lexical failures with.
type Kind string

const (
	LiteralLimitReached              Kind = "LiteralLimitReached"
	StackLimitReached                Kind = "StackLimitReached"
	RegisterLimitReached             Kind = "RegisterLimitReached"
	IdentifierExpected               Kind = "IdentifierExpected"
	RightParenExpected               Kind = "RightParenExpected"
	LeftBraceExpected                Kind = "LeftBraceExpected"
	ArgumentListExpected             Kind = "ArgumentListExpected"
	NoArgumentsExpected              Kind = "NoArgumentsExpected"
	OneArgumentExpected              Kind = "OneArgumentExpected"
	NonStrictArgDefinition           Kind = "NonStrictArgDefinition"
	DuplicatedArgumentNames          Kind = "DuplicatedArgumentNames"
	FormalParamAfterRestParameter    Kind = "FormalParamAfterRestParameter"
	RestParameterDefaultInitializer  Kind = "RestParameterDefaultInitializer"
	UnexpectedToken                  Kind = "UnexpectedToken"
	InvalidRegexp                    Kind = "InvalidRegexp"
)

// CompileError is the value returned to the caller of Parse on failure:
// a fatal kind plus the line/column of the offending token, and no
// compiled code. Every compile error is fatal; there is no local
// recovery, so unlike a typed multi-phase error family (Syntax/Type/
// Compile/Runtime, one interface per phase) this engine has exactly one
// error shape for the one phase it implements.
type CompileError struct {
	K   Kind
	Pos Position
	Msg string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s at %d:%d: %s", e.K, e.Pos.Line, e.Pos.Column, e.Msg)
}

func (e *CompileError) Kind() Kind        { return e.K }
func (e *CompileError) Position() Position { return e.Pos }

// New builds a CompileError.
func New(kind Kind, pos Position, format string, args ...interface{}) *CompileError {
	return &CompileError{K: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
