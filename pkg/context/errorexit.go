package context

import "cbc/pkg/errors"

// abort is the panic payload used to implement the non-local error
// exit: a result-or-long-jump primitive installed once at the top of
// each call to Parse. Go's panic/recover is the idiomatic equivalent
// of the setjmp/longjmp a C parser would reach for; the same semantics
// can equally be expressed with an explicit result-carrying return at
// every call.
type abort struct {
	err *errors.CompileError
}

// Abort raises kind as a fatal compile error at the context's current
// position and performs the non-local jump, unwinding to the nearest
// Recover (installed once per top-level Parse call). Never returns.
func (c *Context) Abort(kind errors.Kind, format string, args ...interface{}) {
	tracef("abort %s at %d:%d", kind, c.line, c.column)
	panic(abort{err: errors.New(kind, c.Position(), format, args...)})
}

// AbortAt is Abort with an explicit position, for callers (like the
// classifier) that know exactly which literal or token triggered the
// failure independent of the context's "current token" position.
func (c *Context) AbortAt(kind errors.Kind, pos errors.Position, format string, args ...interface{}) {
	panic(abort{err: errors.New(kind, pos, format, args...)})
}

// Recover must be deferred exactly once, at the top of Parse. It
// catches an abort panic raised anywhere in the call tree beneath it,
// walks the saved-context chain from c outward freeing every level's
// stream and pool, and reports the error through *outErr. Any other
// panic is re-raised unchanged — this primitive only catches the one
// sentinel type it itself produces.
func (c *Context) Recover(outErr **errors.CompileError) {
	if r := recover(); r != nil {
		a, ok := r.(abort)
		if !ok {
			panic(r)
		}
		*outErr = a.err
		c.UnwoundLevels = c.unwind()
	}
}

// unwind walks the saved-context chain (this context and every
// suspended outer context) and releases each level's stream and
// literal pool: the error path explicitly unwinds the saved context
// chain, freeing each parent's stream and pool in turn. Go's GC
// reclaims the backing memory once these references are dropped; the
// explicit walk exists so the *order* and *completeness* of the
// unwind — every level, no level skipped — is a property callers (and
// tests) can observe via UnwoundLevels, not an accident of when the
// collector happens to run.
func (c *Context) unwind() int {
	levels := 0
	for cur := c; cur != nil; cur = cur.Outer {
		cur.Stream = nil
		cur.Pool = nil
		levels++
	}
	return levels
}
