// Package literal implements the append-only literal pool and the
// cross-function identifier hoisting that reconciles a child
// function's free variables against its enclosing scope. A live
// register allocator (pkg/compiler/regalloc.go,
// pkg/compiler/symbol_table.go) resolves identifiers against a mutable
// symbol table instead of a classified pool, so this package is
// grounded on the *shape* of that allocator's bookkeeping (dense index
// assignment, "does this still fit in a register" decisions)
// generalized to a seven-range classification scheme, following
// js-parser.c's exact tie-break and encoding-width rules for
// identifier classification.
package literal

// Kind is the literal record's type tag.
type Kind uint8

const (
	KindIdent Kind = iota
	KindString
	KindNumber
	KindFunction
	KindRegexp
	KindUnused
)

func (k Kind) String() string {
	switch k {
	case KindIdent:
		return "Ident"
	case KindString:
		return "String"
	case KindNumber:
		return "Number"
	case KindFunction:
		return "Function"
	case KindRegexp:
		return "Regexp"
	case KindUnused:
		return "Unused"
	default:
		return "?"
	}
}

// Flags is the record's status bitset.
type Flags uint8

const (
	FlagVar Flags = 1 << iota
	FlagNoRegStore
	FlagInitialized
	FlagFunctionArgument
	FlagUnusedIdent
	FlagSourcePtr
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// FuncOrRegexp is the opaque payload a Function/Regexp literal carries;
// filled in by the compiler (compiled sub-function code, or a compiled
// regexp handle). Declared as an empty interface here to avoid a
// dependency from pkg/literal on pkg/bytecode's CompiledCode type,
// keeping the literal pool ignorant of the final compiled-code layout.
type FuncOrRegexp = interface{}

// Record is one literal-pool entry.
type Record struct {
	Type   Kind
	Status Flags

	// Value holds the identifier/string bytes (when Type is Ident or
	// String) as a Go string; SourcePtr-ness is tracked via Status, not
	// via Go's GC-managed string aliasing (Go strings never need the
	// explicit "who owns this buffer" bookkeeping the original's
	// char_p required — see DESIGN.md for why that bookkeeping is a
	// no-op here).
	Value string

	// Number holds the literal's numeric value when Type == KindNumber.
	Number float64

	// Payload holds the compiled function or regexp handle when
	// Type is Function or Regexp.
	Payload FuncOrRegexp

	// Prop holds Index, the assigned dense index, once the pool has
	// been classified (Length is computed from Value and never stored
	// here). Redirect reuses the same field for Unused tombstones,
	// whose prop.index becomes the redirect.
	Prop uint16
}

// Length returns the byte length of an identifier/string record's value.
func (r *Record) Length() int { return len(r.Value) }

// Index returns the record's assigned dense index (valid only once the
// owning pool has been classified, or for an Unused record, valid as
// the index of the record superseding it).
func (r *Record) Index() int { return int(r.Prop) }

// SetIndex assigns r's dense index, or (for an Unused tombstone) the
// redirect to its replacement.
func (r *Record) SetIndex(i int) { r.Prop = uint16(i) }
