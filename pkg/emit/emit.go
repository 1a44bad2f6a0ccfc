// Package emit implements the code emitter: it appends opcodes and
// their literal/branch/byte arguments to a context's paged stream
// using a maximal encoding, so that post-processing can only shrink
// operands, never grow them.
//
// Grounded on pkg/compiler/emit.go's "one method per opcode shape"
// organization (emitOp, emitOpReg, emitOpRegReg, ...), adapted from a
// fixed-width register machine's emitter to this engine's
// maximal-then-shrink stack machine.
package emit

import (
	"cbc/pkg/bytecode"
	"cbc/pkg/context"
	"cbc/pkg/stream"
)

// Emitter appends instructions to one context's stream.
type Emitter struct {
	ctx *context.Context
}

// New wraps ctx for emission.
func New(ctx *context.Context) *Emitter {
	return &Emitter{ctx: ctx}
}

// Pos returns the current absolute stream position (for computing
// branch distances and for set_branch_to_current_position-style
// backpatching).
func (e *Emitter) Pos() int {
	return e.ctx.Stream.Size
}

// Simple appends a no-operand opcode.
func (e *Emitter) Simple(op bytecode.OpCode) {
	e.ctx.Stream.Append(byte(op))
}

// Byte appends an opcode followed by one raw byte operand (register
// index, argument/element count).
func (e *Emitter) Byte(op bytecode.OpCode, b byte) {
	e.ctx.Stream.Append(byte(op))
	e.ctx.Stream.Append(b)
}

// maxLiteralWidth is the number of bytes a literal operand's
// placeholder occupies before shrinking: always 2, wide enough for any
// index up to bytecode.FullValueMax.
const maxLiteralWidth = 2

// Literal appends an opcode followed by a maximal-width (2-byte,
// big-endian) literal-index placeholder. The post-processor resolves
// tombstone redirects and narrows this to its final width.
func (e *Emitter) Literal(op bytecode.OpCode, poolIndex int) {
	e.ctx.Stream.Append(byte(op))
	e.ctx.Stream.Append(byte(poolIndex >> 8))
	e.ctx.Stream.Append(byte(poolIndex & 0xFF))
}

// maxBranchWidth is the placeholder width (3 bytes) every branch
// operand is emitted at, regardless of the eventual real distance.
const maxBranchWidth = 3

// BranchPlaceholder is a handle a caller holds onto between emitting a
// forward branch and later resolving its target, or between computing
// a backward branch's already-known distance and emitting it.
type BranchPlaceholder struct {
	opcodeMark stream.Mark // the branch-carrying opcode byte itself
	operandPos int         // absolute stream position of the first offset byte
	instrStart int         // absolute stream position of the opcode byte
}

// ForwardBranch emits op (a Forward-family opcode, width unknown yet)
// with a zeroed 3-byte placeholder, flags the opcode byte with the
// branch marker high bit, and returns a handle to resolve later via
// ResolveForward once the jump target (the current position at that
// future point) is known.
func (e *Emitter) ForwardBranch(op bytecode.OpCode) BranchPlaceholder {
	instrStart := e.Pos()
	opMark := e.ctx.Stream.Append(byte(op) | bytecode.HighestBit)
	operandPos := e.Pos()
	e.ctx.Stream.Append(0)
	e.ctx.Stream.Append(0)
	e.ctx.Stream.Append(0)
	return BranchPlaceholder{opcodeMark: opMark, operandPos: operandPos, instrStart: instrStart}
}

// ResolveForward patches a pending forward branch's placeholder with
// the distance from just after its 3-byte operand to the current
// stream position — this is "set_branch_to_current_position".
func (e *Emitter) ResolveForward(bp BranchPlaceholder) {
	target := e.Pos()
	distance := target - (bp.operandPos + maxBranchWidth)
	e.writeOperand(bp.operandPos, distance)
}

// BackwardBranch emits op (a Backward-family opcode) with the distance
// back to target, already known at emission time (the compiler always
// knows a loop's start position before emitting the branch that
// returns to it).
func (e *Emitter) BackwardBranch(op bytecode.OpCode, target int) {
	instrStart := e.Pos()
	e.ctx.Stream.Append(byte(op) | bytecode.HighestBit)
	operandPos := e.Pos()
	distance := (instrStart) - target
	e.writeOperand(operandPos, distance)
}

// writeOperand writes a non-negative distance into the 3-byte
// placeholder starting at absolute position pos, big-endian, growing
// the stream by 3 bytes (the placeholder was already appended as
// zeros by the caller in the forward case, or is appended fresh here
// in the backward case).
func (e *Emitter) writeOperand(pos int, distance int) {
	if distance < 0 {
		panic("emit: negative branch distance")
	}
	// Backward branches append fresh bytes; forward branches overwrite
	// the zeroed placeholder already in the stream. Detect which case
	// by comparing pos to the stream's current write frontier: if pos
	// already has 3 bytes appended (forward case, resolved later), walk
	// and overwrite; otherwise append.
	if pos+maxBranchWidth <= e.ctx.Stream.Size {
		e.overwriteOperand(pos, distance)
		return
	}
	e.ctx.Stream.Append(byte(distance >> 16))
	e.ctx.Stream.Append(byte(distance >> 8))
	e.ctx.Stream.Append(byte(distance))
}

// overwriteOperand rewrites the 3 bytes at absolute position pos with
// distance, big-endian, by walking the stream's pages to locate pos.
func (e *Emitter) overwriteOperand(pos int, distance int) {
	vals := [3]byte{byte(distance >> 16), byte(distance >> 8), byte(distance)}
	page := e.ctx.Stream.First
	base := 0
	for page != nil {
		if pos >= base && pos < base+stream.PageSize {
			break
		}
		base += stream.PageSize
		page = page.Next
	}
	offset := pos - base
	for _, v := range vals {
		if offset == stream.PageSize {
			page = page.Next
			base += stream.PageSize
			offset = 0
		}
		m := stream.Mark{Page: page, Offset: offset, Pos: base + offset}
		e.ctx.Stream.PutByte(m, v)
		offset++
	}
}
