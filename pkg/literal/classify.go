package literal

// Ranges is the result of Classify: the five (really seven, since the
// var region splits into uninitialized/initialized) contiguous dense
// index boundaries of a function's literal pool.
type Ranges struct {
	ArgumentEnd     int
	RegisterEnd     int
	UninitVarEnd    int
	InitVarEnd      int
	IdentEnd        int
	ConstLiteralEnd int
	LiteralEnd      int

	// LexicalEnvNeeded is forced true the moment any local falls
	// through to a heap var region instead of a register.
	LexicalEnvNeeded bool

	// OneByteLimit is literal_one_byte_limit, returned to the emitter
	// and post-processor so they agree on operand width.
	OneByteLimit int

	// Mirrors maps an argument's positional (register-region) index to
	// its mirrored copy's dense index and source name, for the
	// "Initialized ∧ FunctionArgument" rule's NoRegStore/arguments-object
	// case. Absent entries mean no mirror was created.
	Mirrors map[int]Mirror
}

// Mirror is one argument-mirroring entry: the dense index and source
// name of the heap-var copy created for a parameter that was forced
// out of its register (NoRegStore) or that the `arguments` object
// needs to see live mutations of.
type Mirror struct {
	DenseIndex int
	Name       string
}

// Classify walks pool in insertion (source) order exactly once and
// assigns every live (non-Unused) record a dense index within one of
// the seven regions. argumentCount is the number of positional
// parameters (already known from the function's
// parameter list, independent of the pool's Ident records); registers
// are capacity-bounded at bytecode.MaxRegisters (the caller passes it
// in, so pkg/literal does not depend on pkg/bytecode).
func (p *Pool) Classify(argumentCount, maxRegisters int, argumentsNeeded bool) *Ranges {
	r := &Ranges{Mirrors: map[int]Mirror{}}

	type bucketed struct {
		idx         int
		rec         *Record
		origArgIdx  int // valid only for an argument's heap-var mirror entry
		isArgMirror bool
	}
	var registerLocals, uninitVars, initVars, idents, consts, funcs []bucketed

	argIndex := 0
	registerCount := 0

	p.Iter(func(i int, rec *Record) bool {
		switch rec.Type {
		case KindUnused:
			// Tombstones carry no index of their own; already
			// redirect to their replacement.
			return true

		case KindIdent:
			effectiveNoRegStore := rec.Status.Has(FlagNoRegStore) || rec.Status.Has(FlagUnusedIdent)

			if rec.Status.Has(FlagVar) {
				if rec.Status.Has(FlagFunctionArgument) && rec.Status.Has(FlagInitialized) {
					// Rule 1: stays at its positional argument index...
					rec.SetIndex(argIndex)
					thisArg := argIndex
					argIndex++
					if effectiveNoRegStore || argumentsNeeded {
						// ...unless mirrored into the initialized-var
						// region with a runtime copy. rec.SetIndex is
						// overwritten again below once the var regions
						// are laid out, so thisArg is the only remaining
						// record of its original positional slot.
						initVars = append(initVars, bucketed{idx: i, rec: rec, origArgIdx: thisArg, isArgMirror: true})
					}
					return true
				}

				if !effectiveNoRegStore && registerCount < maxRegisters {
					registerLocals = append(registerLocals, bucketed{idx: i, rec: rec})
					registerCount++
					return true
				}

				// Falls through to a heap slot; forces LexicalEnvNeeded
				// on the enclosing function (rule 2).
				r.LexicalEnvNeeded = true
				if rec.Status.Has(FlagInitialized) {
					initVars = append(initVars, bucketed{idx: i, rec: rec})
				} else {
					uninitVars = append(uninitVars, bucketed{idx: i, rec: rec})
				}
				return true
			}

			// Non-Var Ident: a free-variable reference.
			idents = append(idents, bucketed{idx: i, rec: rec})
			return true

		case KindString, KindNumber:
			consts = append(consts, bucketed{idx: i, rec: rec})
			return true

		case KindFunction, KindRegexp:
			funcs = append(funcs, bucketed{idx: i, rec: rec})
			return true
		}
		return true
	})

	r.ArgumentEnd = argumentCount
	idx := r.ArgumentEnd
	for _, b := range registerLocals {
		b.rec.SetIndex(idx)
		idx++
	}
	r.RegisterEnd = idx
	for _, b := range uninitVars {
		b.rec.SetIndex(idx)
		idx++
	}
	r.UninitVarEnd = idx
	for _, b := range initVars {
		b.rec.SetIndex(idx)
		idx++
	}
	r.InitVarEnd = idx
	for _, b := range idents {
		b.rec.SetIndex(idx)
		idx++
	}
	r.IdentEnd = idx
	for _, b := range consts {
		b.rec.SetIndex(idx)
		idx++
	}
	r.ConstLiteralEnd = idx
	for _, b := range funcs {
		b.rec.SetIndex(idx)
		idx++
	}
	r.LiteralEnd = idx

	// Argument mirrors get their final dense index only now that the
	// var regions have been laid out; record the mapping for the
	// emitter's initializer-stream generation, keyed by the argument's
	// original positional slot, since rec.SetIndex above already
	// overwrote the record's own Index() with the mirror's.
	for _, b := range initVars {
		if b.isArgMirror {
			r.Mirrors[b.origArgIdx] = Mirror{DenseIndex: b.rec.Index(), Name: b.rec.Value}
		}
	}

	r.OneByteLimit = oneByteLimitFor(r.LiteralEnd)
	return r
}

func oneByteLimitFor(literalCount int) int {
	const smallValueMax = 254
	const maxByteValue = 255
	if literalCount <= smallValueMax {
		return maxByteValue - 1
	}
	return 0x7F
}
