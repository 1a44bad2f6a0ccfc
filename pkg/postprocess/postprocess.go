// Package postprocess implements the post-processing pass: given a
// function's maximally-encoded paged stream and its already classified
// literal pool, it resolves tombstone redirects, shrinks every literal
// and branch operand to its narrowest representable width, elides
// degenerate forward jumps, appends an implicit return if the body
// falls off the end, and emits the final compact byte array plus the
// literal-value table that together make up a bytecode.CompiledCode.
//
// There is no paged-buffer precedent in the retrieved example pool, so
// this package does not reproduce jerry-core's exact single-pass,
// cumulative-retained-byte-count algorithm (see original_source,
// js-parser.c's parser_post_processing). Instead it decodes the
// maximal stream into an instruction list once, then relaxes branch
// and literal widths to a fixed point — a standard branch-shrinking
// relaxation that converges in a handful of iterations because widths
// only ever shrink, never grow. See DESIGN.md for why this
// simplification was chosen over a literal port of the C algorithm.
package postprocess

import (
	"cbc/pkg/bytecode"
	"cbc/pkg/context"
	"cbc/pkg/literal"
	"cbc/pkg/stream"
)

// instr is one decoded instruction of the maximal stream, before
// widths have been relaxed to their final values.
type instr struct {
	op     bytecode.OpCode
	start  int // byte offset of this instruction's opcode in the maximal stream

	literalIdx int  // final dense index, valid when op carries HasLiteralArg
	byteArg    byte // valid when op carries HasByteArg

	isBranch      bool
	forward       bool
	unconditional bool
	targetInstr   int // index into the instruction list (len(instrs) means "past the end")

	elided   bool
	width    int // current best-known total width in bytes, opcode included
	distance int // current best-known encoded branch distance
}

// Run post-processes c's stream against ranges (the already-computed
// literal classification) and returns the finished compiled code. c's
// stream and pool are left untouched; the caller is still responsible
// for calling c.Destroy() once done with c.
func Run(c *context.Context, ranges *literal.Ranges) *bytecode.CompiledCode {
	raw := flatten(c.Stream)
	instrs := decode(raw, c.Pool, ranges)
	ensureTrailingReturn(&instrs)
	markElisions(instrs)
	relaxWidths(instrs, ranges.OneByteLimit)
	code := emitFinal(instrs, ranges.OneByteLimit)

	cc := &bytecode.CompiledCode{
		StackLimit:      uint16(c.StackLimit),
		ArgumentEnd:     uint16(ranges.ArgumentEnd),
		RegisterEnd:     uint16(ranges.RegisterEnd),
		IdentEnd:        uint16(ranges.IdentEnd),
		ConstLiteralEnd: uint16(ranges.ConstLiteralEnd),
		LiteralEnd:      uint16(ranges.LiteralEnd),
		Code:            code,
		LiteralValues:   literalValues(c.Pool, ranges),
	}
	if ranges.LexicalEnvNeeded {
		c.Status |= context.StatusLexicalEnvNeeded
	} else {
		cc.Status |= bytecode.FlagLexicalEnvNotNeeded
	}
	if c.Status&context.StatusStrict != 0 {
		cc.Status |= bytecode.FlagStrictMode
	}
	if c.Status&context.StatusArgumentsNeeded != 0 {
		cc.Status |= bytecode.FlagArgumentsNeeded
		cc.ArgumentNames = argumentNames(c.Pool, ranges)
	}
	if c.Status&context.StatusArrowFunction != 0 {
		cc.Status |= bytecode.FlagArrowFunction
	}
	if c.Status&context.StatusConstructor != 0 {
		cc.Status |= bytecode.FlagConstructor
	}
	if c.Status&context.StatusRestParameter != 0 {
		cc.Status |= bytecode.FlagRestParameter
	}
	if ranges.LiteralEnd > bytecode.SmallValueMax {
		cc.Status |= bytecode.FlagFullLiteralEncoding
	}
	if ranges.ArgumentEnd > 0xFF {
		cc.Status |= bytecode.FlagUint16Arguments
	}
	return cc
}

// flatten copies the stream's live bytes (respecting Size, since the
// last page is only partially filled) into one contiguous slice.
func flatten(s *stream.Stream) []byte {
	out := make([]byte, 0, s.Size)
	remaining := s.Size
	for _, p := range s.Pages() {
		n := stream.PageSize
		if remaining < n {
			n = remaining
		}
		out = append(out, p.Bytes[:n]...)
		remaining -= n
	}
	return out
}

// decode walks raw once, resolving every literal operand's tombstone
// redirect through pool and recording every branch's target as an
// absolute offset within raw, then maps those offsets back to
// instruction indices.
func decode(raw []byte, pool *literal.Pool, ranges *literal.Ranges) []*instr {
	var out []*instr
	posToIdx := map[int]int{}
	rawTargets := map[int]int{} // instruction index -> raw target offset

	i := 0
	for i < len(raw) {
		start := i
		first := raw[i]
		branchFlag := first&bytecode.HighestBit != 0
		op := bytecode.OpCode(first & bytecode.OpcodeMask)
		i++

		in := &instr{op: op, start: start}
		flags := bytecode.FlagsOf(op)
		var reread *instr

		switch {
		case branchFlag:
			b0, b1, b2 := int(raw[i]), int(raw[i+1]), int(raw[i+2])
			i += 3
			distance := b0<<16 | b1<<8 | b2
			in.isBranch = true
			in.forward = op.IsForwardBranch()
			in.unconditional = op.IsUnconditionalJump()
			var target int
			if in.forward {
				target = start + 1 + 3 + distance
			} else {
				target = start - distance
			}
			rawTargets[len(out)] = target

		case flags&bytecode.HasLiteralArg != 0:
			idx := int(raw[i])<<8 | int(raw[i+1])
			i += 2
			resolved := pool.Resolve(idx)
			if ident, ok := resolveIdentPlaceholder(op, resolved, pool, ranges); ok {
				in.op = ident.op
				in.literalIdx = ident.literalIdx
				in.byteArg = ident.byteArg
				if op == bytecode.OpTeeIdent && ident.op == bytecode.OpSetVar {
					get, _ := resolveIdentPlaceholder(bytecode.OpGetIdent, resolved, pool, ranges)
					reread = &instr{op: get.op, start: start, literalIdx: get.literalIdx}
				}
			} else {
				in.literalIdx = pool.At(resolved).Index()
			}

		case flags&bytecode.HasByteArg != 0:
			in.byteArg = raw[i]
			i++
		}

		posToIdx[start] = len(out)
		out = append(out, in)
		if reread != nil {
			out = append(out, reread)
		}
	}

	for idx, target := range rawTargets {
		if ti, ok := posToIdx[target]; ok {
			out[idx].targetInstr = ti
		} else {
			// Target is exactly one-past-the-end of the decoded stream:
			// a jump out of the function body (e.g. a loop's condition
			// check jumping past a body that ends the function).
			out[idx].targetInstr = len(out)
		}
	}
	return out
}

// identResolution is what an OpGetIdent/OpSetIdent/OpTeeIdent
// placeholder resolves to once the identifier's final classification
// (register, heap var, or free reference) is known.
type identResolution struct {
	op         bytecode.OpCode
	literalIdx int
	byteArg    byte
}

// resolveIdentPlaceholder rewrites one of the three ident-access
// placeholder opcodes into its final concrete opcode, per the
// classification of the record at poolIndex (already the
// tombstone-resolved, dense-indexed position): a binding that fits in
// a register becomes a register op (arguments occupy the low register
// numbers too, so both the argument and register dense ranges map
// directly to register operands); anything classified past
// RegisterEnd becomes a heap-var op; a non-Var (free) identifier
// reference becomes a read through OpPushIdentRef, or — since this
// port does not distinguish "assign to a captured outer binding" from
// "assign to a local heap var" at the opcode level — a write through
// OpSetVar (see DESIGN.md).
func resolveIdentPlaceholder(op bytecode.OpCode, poolIndex int, pool *literal.Pool, ranges *literal.Ranges) (identResolution, bool) {
	switch op {
	case bytecode.OpGetIdent, bytecode.OpSetIdent, bytecode.OpTeeIdent:
	default:
		return identResolution{}, false
	}

	rec := pool.At(poolIndex)
	idx := rec.Index()

	if idx < ranges.RegisterEnd {
		switch op {
		case bytecode.OpGetIdent:
			return identResolution{op: bytecode.OpGetRegister, byteArg: byte(idx)}, true
		case bytecode.OpTeeIdent:
			return identResolution{op: bytecode.OpTeeRegister, byteArg: byte(idx)}, true
		default:
			return identResolution{op: bytecode.OpSetRegister, byteArg: byte(idx)}, true
		}
	}

	if op == bytecode.OpGetIdent && rec.Type == literal.KindIdent && !rec.Status.Has(literal.FlagVar) {
		return identResolution{op: bytecode.OpPushIdentRef, literalIdx: idx}, true
	}

	switch op {
	case bytecode.OpTeeIdent:
		// No stack-teeing heap-var opcode exists in this port, so a
		// heap-slot OpTeeIdent becomes OpSetVar here and decode
		// follows it with a read of the same binding that re-pushes
		// the assigned value.
		return identResolution{op: bytecode.OpSetVar, literalIdx: idx}, true
	case bytecode.OpGetIdent:
		return identResolution{op: bytecode.OpGetVar, literalIdx: idx}, true
	default:
		return identResolution{op: bytecode.OpSetVar, literalIdx: idx}, true
	}
}

// ensureTrailingReturn appends an implicit OpReturnUndefined when the
// body doesn't already end with a return.
func ensureTrailingReturn(instrs *[]*instr) {
	n := len(*instrs)
	if n > 0 {
		last := (*instrs)[n-1].op
		if last == bytecode.OpReturn || last == bytecode.OpReturnUndefined {
			return
		}
	}
	start := 0
	if n > 0 {
		last := (*instrs)[n-1]
		start = last.start + 1 // informational only, never read again
	}
	*instrs = append(*instrs, &instr{op: bytecode.OpReturnUndefined, start: start})
}

// markElisions flags every unconditional forward jump whose target is
// the instruction immediately following it: a no-op that the parser's
// single-pass emission sometimes produces (e.g. the jump over an empty
// else branch), elided to zero bytes instead of
// being emitted as a real jump (see the OpJumpForwardElided sentinel
// documented in pkg/bytecode).
func markElisions(instrs []*instr) {
	for i, in := range instrs {
		if in.isBranch && in.unconditional && in.forward && in.targetInstr == i+1 {
			in.elided = true
			in.op = bytecode.OpJumpForwardElided
		}
	}
}

const maxRelaxIterations = 8

// relaxWidths assigns every instruction its final width and, for
// branches, its final encoded distance, by iterating the classic
// branch-shrinking relaxation to a fixed point: start every branch at
// its maximal width (and every literal operand at the width
// oneByteLimit gives it in emitFinal), shrink whatever now fits given
// the current offset estimates, and repeat until nothing changes.
// Because a shrink can only ever reduce a later instruction's offset,
// and widths only ever shrink, this always terminates — usually in one
// or two passes.
func relaxWidths(instrs []*instr, oneByteLimit int) {
	for _, in := range instrs {
		in.width = maximalWidth(in)
		if !in.isBranch && bytecode.FlagsOf(in.op)&bytecode.HasLiteralArg != 0 {
			var buf [2]byte
			in.width = 1 + bytecode.EncodeLiteralIndex(buf[:], in.literalIdx, oneByteLimit)
		}
	}

	for iter := 0; iter < maxRelaxIterations; iter++ {
		offsets := computeOffsets(instrs)
		changed := false

		for i, in := range instrs {
			if !in.isBranch || in.elided {
				continue
			}
			targetOffset := offsets[in.targetInstr]

			var newWidth, distance int
			if in.forward {
				newWidth, distance = shrinkForward(offsets[i], targetOffset)
			} else {
				newWidth, distance = shrinkBackward(offsets[i], targetOffset)
			}
			in.distance = distance
			if 1+newWidth != in.width {
				in.width = 1 + newWidth
				changed = true
			}
		}
		if !changed {
			break
		}
	}
}

// shrinkForward picks the narrowest branch width w in {1,2,3} for
// which the distance from just after this branch's (w-byte) operand to
// targetOffset is non-negative and representable in w bytes.
func shrinkForward(selfOffset, targetOffset int) (width, distance int) {
	for w := 1; w <= 3; w++ {
		d := targetOffset - (selfOffset + 1 + w)
		if d >= 0 && fitsWidth(d, w) {
			return w, d
		}
	}
	return 3, targetOffset - (selfOffset + 1 + 3)
}

// shrinkBackward picks the narrowest width for a distance that, unlike
// the forward case, does not depend on the branch's own width (the
// distance is measured from the opcode byte itself, per the emitter's
// BackwardBranch).
func shrinkBackward(selfOffset, targetOffset int) (width, distance int) {
	d := selfOffset - targetOffset
	for w := 1; w <= 3; w++ {
		if fitsWidth(d, w) {
			return w, d
		}
	}
	return 3, d
}

func fitsWidth(distance, width int) bool {
	switch width {
	case 1:
		return distance <= 0xFF
	case 2:
		return distance <= 0xFFFF
	default:
		return distance <= 0xFFFFFF
	}
}

func maximalWidth(in *instr) int {
	switch {
	case in.elided:
		return 0
	case in.isBranch:
		return 1 + 3
	case bytecode.FlagsOf(in.op)&bytecode.HasLiteralArg != 0:
		return 1 + 2
	case bytecode.FlagsOf(in.op)&bytecode.HasByteArg != 0:
		return 1 + 1
	default:
		return 1
	}
}

// computeOffsets returns one offset per instruction plus a trailing
// sentinel equal to the total final length, so a branch targeting
// "one past the last instruction" resolves without a special case.
func computeOffsets(instrs []*instr) []int {
	offsets := make([]int, len(instrs)+1)
	pos := 0
	for i, in := range instrs {
		offsets[i] = pos
		pos += in.width
	}
	offsets[len(instrs)] = pos
	return offsets
}

// emitFinal writes every non-elided instruction's final encoding in
// order, using each branch's relaxed width/distance and each literal
// operand's width chosen from oneByteLimit.
func emitFinal(instrs []*instr, oneByteLimit int) []byte {
	offsets := computeOffsets(instrs)
	out := make([]byte, 0, offsets[len(instrs)])

	for _, in := range instrs {
		if in.elided {
			continue
		}
		switch {
		case in.isBranch:
			width := in.width - 1
			op := in.op.WithWidth(width)
			out = append(out, byte(op)|bytecode.HighestBit)
			out = appendBigEndian(out, in.distance, width)

		case bytecode.FlagsOf(in.op)&bytecode.HasLiteralArg != 0:
			var buf [2]byte
			n := bytecode.EncodeLiteralIndex(buf[:], in.literalIdx, oneByteLimit)
			out = append(out, byte(in.op))
			out = append(out, buf[:n]...)

		case bytecode.FlagsOf(in.op)&bytecode.HasByteArg != 0:
			out = append(out, byte(in.op), in.byteArg)

		default:
			out = append(out, byte(in.op))
		}
	}
	return out
}

func appendBigEndian(out []byte, v int, width int) []byte {
	switch width {
	case 1:
		return append(out, byte(v))
	case 2:
		return append(out, byte(v>>8), byte(v))
	default:
		return append(out, byte(v>>16), byte(v>>8), byte(v))
	}
}

// literalValues builds the header's literal-value table: one entry per
// dense index in [RegisterEnd, LiteralEnd), the region above plain
// registers.
func literalValues(pool *literal.Pool, ranges *literal.Ranges) []bytecode.LiteralValue {
	span := ranges.LiteralEnd - ranges.RegisterEnd
	if span <= 0 {
		return nil
	}
	values := make([]bytecode.LiteralValue, span)
	pool.Iter(func(_ int, r *literal.Record) bool {
		if r.Type == literal.KindUnused {
			return true
		}
		idx := r.Index()
		if idx < ranges.RegisterEnd || idx >= ranges.LiteralEnd {
			return true
		}
		values[idx-ranges.RegisterEnd] = toLiteralValue(r)
		return true
	})
	return values
}

func toLiteralValue(r *literal.Record) bytecode.LiteralValue {
	switch r.Type {
	case literal.KindIdent:
		return bytecode.LiteralValue{Kind: bytecode.ValueIdent, String: r.Value}
	case literal.KindString:
		return bytecode.LiteralValue{Kind: bytecode.ValueString, String: r.Value}
	case literal.KindNumber:
		return bytecode.LiteralValue{Kind: bytecode.ValueNumber, Number: r.Number}
	case literal.KindFunction:
		fn, _ := r.Payload.(*bytecode.CompiledCode)
		return bytecode.LiteralValue{Kind: bytecode.ValueFunction, Func: fn}
	case literal.KindRegexp:
		re, _ := r.Payload.(*bytecode.CompiledRegexp)
		return bytecode.LiteralValue{Kind: bytecode.ValueRegexp, Regexp: re}
	default:
		return bytecode.LiteralValue{}
	}
}

// argumentNames builds the optional argument-name table for a
// non-strict function whose `arguments` object needs to map positional
// slots back to source names. A nil entry marks a slot shadowed by a
// later parameter of the same name. An argument that was
// mirrored into the heap-var region (Rule 1's NoRegStore/arguments-
// needed case) no longer carries its original positional index on the
// record itself, so its name is recovered from ranges.Mirrors instead.
func argumentNames(pool *literal.Pool, ranges *literal.Ranges) []*string {
	names := make([]*string, ranges.ArgumentEnd)
	seen := map[string]int{} // name -> last slot index that claimed it

	claim := func(argIdx int, name string) {
		if argIdx < 0 || argIdx >= len(names) {
			return
		}
		if prior, ok := seen[name]; ok {
			names[prior] = nil
		}
		n := name
		names[argIdx] = &n
		seen[name] = argIdx
	}

	pool.Iter(func(_ int, r *literal.Record) bool {
		if r.Type != literal.KindIdent || !r.Status.Has(literal.FlagFunctionArgument) || !r.Status.Has(literal.FlagInitialized) {
			return true
		}
		// Index() is only still the positional slot for an argument
		// that was never mirrored; a mirrored one is picked up via
		// ranges.Mirrors below instead.
		if idx := r.Index(); idx < ranges.ArgumentEnd {
			claim(idx, r.Value)
		}
		return true
	})

	for argIdx, m := range ranges.Mirrors {
		claim(argIdx, m.Name)
	}

	return names
}
