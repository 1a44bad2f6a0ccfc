package literal

import (
	"cbc/pkg/errors"
)

// HoistFree reconciles one free-variable reference named name, found
// in a child function's pool, against the enclosing (parent)
// function's pool. It must be called once per distinct free identifier
// name when the child function finishes, before the parent's own pool
// is classified (so the parent has already learned about any name the
// child captures before the parent itself is classified).
//
// If childNoRegStore is true (parser.hoistFreeVars always passes
// true), the parent's matching binding is forced NoRegStore.
func HoistFree(parent *Pool, name string, childNoRegStore bool, pos errors.Position) error {
	name = normalizeIdent(name)

	// "At most one parent pool entry per identifier name" — find any
	// existing Ident record for this name first (byte-wise, i.e.
	// string, comparison on the normalized value).
	for _, rec := range parent.records {
		if rec.Type == KindIdent && rec.Value == name {
			if rec.Status.Has(FlagVar) {
				// A binding in the parent: mark it captured so the
				// parent allocates it in the lexical environment
				// rather than a register.
				if childNoRegStore {
					rec.Status |= FlagNoRegStore
				}
			}
			// Already present either as a binding or as a free
			// reference the parent itself also makes; nothing further
			// to add.
			return nil
		}
	}

	if parent.Len() >= MaxLiteralsPerFunction {
		return errors.New(errors.LiteralLimitReached, pos,
			"literal pool exceeds %d entries while hoisting %q", MaxLiteralsPerFunction, name)
	}

	// The parent doesn't know this name yet: add it as an UnusedIdent
	// NoRegStore binding so a later lexical-environment construction at
	// that level can still resolve it by name for the grandchild that
	// actually needs it.
	status := FlagVar | FlagUnusedIdent | FlagNoRegStore
	parent.AddIdent(name, status)
	return nil
}

// MaxLiteralsPerFunction mirrors bytecode.MaxLiteralsPerFunction; kept
// here too (rather than imported) to avoid a dependency from
// pkg/literal on pkg/bytecode — both packages are leaves relative to
// pkg/context, which already depends on both.
const MaxLiteralsPerFunction = 32767

// TransferOwnership marks child as SourcePtr when it is not already,
// indicating that ownership of its backing bytes has moved to a parent
// record by aliasing: ownership of the child buffer is handed to the
// parent by setting SourcePtr on the child. In this Go port the
// child's Value is itself a string (already immutable and GC-owned)
// rather than a raw pointer the child's destructor might free, so this
// call has no effect on memory safety — it exists only to preserve the
// flag's observable state for code that inspects it (disassembly,
// tests asserting the ownership-transfer invariant).
func TransferOwnership(child *Record) {
	child.Status |= FlagSourcePtr
}
