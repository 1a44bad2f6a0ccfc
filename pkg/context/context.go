// Package context implements the parser context: the object that owns
// one function's paged byte-code stream, literal pool, value-stack
// depth counters, current token position, and the chain of suspended outer contexts that lets
// nested function declarations pause and resume the enclosing parse
// without heap churn.
//
// Grounded on the Compiler struct's "one struct owns everything this
// parse needs, with an `enclosing *Compiler` link for nesting" shape,
// adapted to the paged stream + literal pool + saved-context-stack
// model this engine specifies instead of a live register allocator.
package context

import (
	"fmt"
	"os"

	"cbc/pkg/errors"
	"cbc/pkg/literal"
	"cbc/pkg/source"
	"cbc/pkg/stream"
)

// StatusFlags mirrors the subset of the compiled-code header flags
// that the context itself tracks while parsing (before they're copied
// into bytecode.StatusFlags at function end).
type StatusFlags uint32

const (
	StatusStrict StatusFlags = 1 << iota
	StatusArgumentsNeeded
	StatusLexicalEnvNeeded
	StatusArrowFunction
	StatusConstructor
	StatusRestParameter
	// StatusNoRegStore marks a function where some identifier has
	// already been forced out of a register: once set, every
	// subsequent hoist decision for this function's free variables
	// short-circuits to NoRegStore too, rather than re-deciding per
	// name.
	StatusNoRegStore
)

// Context is one function's (or the top-level script's) parser
// context. A new Context is created per function body; postprocess.Run
// produces the compiled code from it and Destroy releases the stream
// and pool.
type Context struct {
	Stream *stream.Stream
	Pool   *literal.Pool

	// Outer chains to the suspended context of the function lexically
	// enclosing this one, forming the saved-context stack. Nil at the
	// top level.
	Outer *Context

	// ArgumentCount is the number of positional parameters; known
	// before the body is parsed (from the parameter list).
	ArgumentCount int

	Status StatusFlags

	// StackDepth/StackLimit track the maximum value-stack depth seen
	// so far, for the header's stack_limit field and for
	// StackLimitReached.
	StackDepth, StackLimit int

	// RegisterCount is filled in by Classify at function end.
	RegisterCount int

	line, column     int
	startPos, endPos int

	// UnwoundLevels records how many saved-context levels Recover
	// released on the error path, for tests asserting that every exit
	// path, including the error path, unwinds them all.
	UnwoundLevels int

	// Source names the input this context (and every nested context
	// reachable from it) is compiling from, so a reported
	// errors.Position can carry back enough to render a caret under the
	// offending line. Inherited from Outer when not set explicitly.
	Source *source.SourceFile
}

// NewContext creates a context for a fresh function or script body,
// linking outer as its enclosing (suspended) context. Source defaults
// to outer's (nested function contexts compile from the same input
// file as their enclosing one); pass outer == nil and call SetSource
// for a fresh top-level parse.
func NewContext(outer *Context, argumentCount int) *Context {
	c := &Context{
		Stream:        stream.New(),
		Pool:          literal.NewPool(),
		Outer:         outer,
		ArgumentCount: argumentCount,
	}
	if outer != nil {
		c.Source = outer.Source
	}
	return c
}

// SetSource attaches the source file this top-level context compiles
// from; every Position it reports from then on carries it.
func (c *Context) SetSource(sf *source.SourceFile) {
	c.Source = sf
}

// Trace, when true, makes tracef print to stderr. Off by default,
// mirroring a debugCompiler-style constant a developer flips in-source
// rather than threading a logger through every call.
var Trace = false

func tracef(format string, args ...interface{}) {
	if Trace {
		fmt.Fprintf(os.Stderr, "[context] "+format+"\n", args...)
	}
}

// Position returns the current token's source position, used to stamp
// errors raised from deep within classification/emission helpers that
// don't themselves see the token stream.
func (c *Context) Position() errors.Position {
	return errors.Position{Line: c.line, Column: c.column, StartPos: c.startPos, EndPos: c.endPos, Source: c.Source}
}

// SetSpan records the position and byte-offset span of the token
// currently being compiled, so a later Abort from code that doesn't
// have direct token access still reports an accurate line/column (and
// a tooling caller, unlike this compiler's own text diagnostics, can
// recover the exact source range).
func (c *Context) SetSpan(line, column, startPos, endPos int) {
	c.line, c.column = line, column
	c.startPos, c.endPos = startPos, endPos
}

// PushStack records a value-stack push, aborting the parse with
// StackLimitReached if the configured limit is exceeded. maxStack is
// passed in by the caller (the parser passes its maxStackDepth).
func (c *Context) PushStack(maxStack int) {
	c.StackDepth++
	if c.StackDepth > c.StackLimit {
		c.StackLimit = c.StackDepth
	}
	if c.StackDepth > maxStack {
		c.Abort(errors.StackLimitReached, "value stack exceeds %d slots", maxStack)
	}
}

// PopStack records a value-stack pop.
func (c *Context) PopStack(n int) {
	c.StackDepth -= n
	if c.StackDepth < 0 {
		c.StackDepth = 0
	}
}

// Destroy releases this context's stream and pool on the normal
// (success) exit path, once its compiled code has already been
// produced and handed to the caller. Unlike Recover's unwind, Destroy
// only ever touches one level: the enclosing context is resumed, not
// torn down, when an inner function finishes successfully.
func (c *Context) Destroy() {
	c.Stream = nil
	c.Pool = nil
}
