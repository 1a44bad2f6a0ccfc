// Package disasm renders a *bytecode.CompiledCode as human-readable
// text, for the CLI's "print what was compiled" step. Grounded on
// (*Chunk).DisassembleChunk's "one builder, one line per instruction,
// walk offset forward by each instruction's own width" shape, adapted
// to this engine's already-finalized (post-processed) opcode widths
// instead of a fixed-width register-VM encoding.
package disasm

import (
	"fmt"
	"strings"

	"cbc/pkg/bytecode"
)

// Disassemble renders code and every function literal it transitively
// contains (depth-first, each named "<parent>/function#i" by its order
// among its parent's function literals), one "== name ==" section per
// compiled function.
func Disassemble(code *bytecode.CompiledCode, name string) string {
	var b strings.Builder
	disassembleOne(&b, code, name)
	return b.String()
}

func disassembleOne(b *strings.Builder, code *bytecode.CompiledCode, name string) {
	fmt.Fprintf(b, "== %s ==\n", name)
	fmt.Fprintf(b, "arguments=%d registers=%d idents=%d consts=%d literals=%d stack_limit=%d status=%#x\n",
		code.ArgumentEnd, code.RegisterEnd-code.ArgumentEnd, code.IdentEnd-code.RegisterEnd,
		code.ConstLiteralEnd-code.IdentEnd, code.LiteralEnd, code.StackLimit, uint16(code.Status))

	offset := 0
	for offset < len(code.Code) {
		offset = disassembleInstruction(b, code, offset)
	}

	var nested []*bytecode.CompiledCode
	for _, lv := range code.LiteralValues {
		if lv.Kind == bytecode.ValueFunction && lv.Func != nil {
			nested = append(nested, lv.Func)
		}
	}
	for i, child := range nested {
		fmt.Fprintln(b)
		disassembleOne(b, child, fmt.Sprintf("%s/function#%d", name, i))
	}
}

func disassembleInstruction(b *strings.Builder, code *bytecode.CompiledCode, offset int) int {
	// The branch-marker high bit set by the emitter and consulted by
	// the post-processor is still present in the final stream's opcode
	// byte; strip it to recover the plain opcode value before
	// dispatching on it.
	op := bytecode.OpCode(code.Code[offset] & bytecode.OpcodeMask)
	fmt.Fprintf(b, "%04d %s", offset, opName(op))

	flags := bytecode.FlagsOf(op)
	pos := offset + 1
	switch {
	case flags&bytecode.HasByteArg != 0:
		arg := code.Code[pos]
		fmt.Fprintf(b, " %d\n", arg)
		return pos + 1

	case flags&bytecode.HasLiteralArg != 0:
		idx, width := decodeLiteralOperand(code, pos, bytecode.OneByteLimit(int(code.LiteralEnd)))
		fmt.Fprintf(b, " literal[%d]%s\n", idx, literalSuffix(code, idx))
		return pos + width

	case op.BranchWidth() > 0:
		width := op.BranchWidth()
		dist := decodeBranchOperand(code.Code[pos : pos+width])
		fmt.Fprintf(b, " -> %04d\n", targetOf(offset, op, dist))
		return pos + width

	default:
		fmt.Fprintln(b)
		return pos
	}
}

func targetOf(instrStart int, op bytecode.OpCode, dist int) int {
	if op.IsForwardBranch() {
		return instrStart + 1 + op.BranchWidth() + dist
	}
	return instrStart - dist
}

func decodeBranchOperand(bytes []byte) int {
	v := 0
	for _, bb := range bytes {
		v = v<<8 | int(bb)
	}
	return v
}

// decodeLiteralOperand mirrors the post-processor's final literal
// encoding (bytecode.EncodeLiteralIndex): 1 byte, the small-mode
// escape pair, or the full two-byte high-bit form. Which of the two
// multi-byte forms applies is itself determined by oneByteLimit (254
// selects small/escape mode, 0x7F selects full high-bit mode) — the
// same way the post-processor chose it when encoding.
func decodeLiteralOperand(code *bytecode.CompiledCode, pos, oneByteLimit int) (idx, width int) {
	first := code.Code[pos]
	if int(first) <= oneByteLimit {
		return int(first), 1
	}
	if oneByteLimit == 0xFE {
		return 0xFF + int(code.Code[pos+1]), 2
	}
	return int(first&0x7F)<<8 | int(code.Code[pos+1]), 2
}

func literalSuffix(code *bytecode.CompiledCode, idx int) string {
	if idx < int(code.RegisterEnd) {
		return " (register)"
	}
	base := idx - int(code.RegisterEnd)
	if base < 0 || base >= len(code.LiteralValues) {
		return ""
	}
	lv := code.LiteralValues[base]
	switch lv.Kind {
	case bytecode.ValueString, bytecode.ValueIdent:
		return fmt.Sprintf(" %q", lv.String)
	case bytecode.ValueNumber:
		return fmt.Sprintf(" %g", lv.Number)
	case bytecode.ValueFunction:
		return " <function>"
	case bytecode.ValueRegexp:
		return " <regexp>"
	default:
		return ""
	}
}

func opName(op bytecode.OpCode) string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("OP_%d", op)
}

var opNames = map[bytecode.OpCode]string{
	bytecode.OpPushUndefined:         "PUSH_UNDEFINED",
	bytecode.OpPushNull:              "PUSH_NULL",
	bytecode.OpPushTrue:              "PUSH_TRUE",
	bytecode.OpPushFalse:             "PUSH_FALSE",
	bytecode.OpPop:                   "POP",
	bytecode.OpDup:                   "DUP",
	bytecode.OpPushLiteral:           "PUSH_LITERAL",
	bytecode.OpPushIdentRef:          "PUSH_IDENT_REF",
	bytecode.OpPushClosure:           "PUSH_CLOSURE",
	bytecode.OpPushRegexp:            "PUSH_REGEXP",
	bytecode.OpGetRegister:           "GET_REGISTER",
	bytecode.OpSetRegister:           "SET_REGISTER",
	bytecode.OpTeeRegister:           "TEE_REGISTER",
	bytecode.OpGetVar:                "GET_VAR",
	bytecode.OpSetVar:                "SET_VAR",
	bytecode.OpInitVar:               "INIT_VAR",
	bytecode.OpGetIdent:              "GET_IDENT",
	bytecode.OpSetIdent:              "SET_IDENT",
	bytecode.OpTeeIdent:              "TEE_IDENT",
	bytecode.OpNegate:                "NEGATE",
	bytecode.OpLogicalNot:            "LOGICAL_NOT",
	bytecode.OpBitwiseNot:            "BITWISE_NOT",
	bytecode.OpTypeof:                "TYPEOF",
	bytecode.OpToNumber:              "TO_NUMBER",
	bytecode.OpAdd:                   "ADD",
	bytecode.OpSubtract:              "SUBTRACT",
	bytecode.OpMultiply:              "MULTIPLY",
	bytecode.OpDivide:                "DIVIDE",
	bytecode.OpRemainder:             "REMAINDER",
	bytecode.OpExponent:              "EXPONENT",
	bytecode.OpBitwiseAnd:            "BITWISE_AND",
	bytecode.OpBitwiseOr:             "BITWISE_OR",
	bytecode.OpBitwiseXor:            "BITWISE_XOR",
	bytecode.OpShiftLeft:             "SHIFT_LEFT",
	bytecode.OpShiftRight:            "SHIFT_RIGHT",
	bytecode.OpUnsignedShiftRight:    "USHIFT_RIGHT",
	bytecode.OpEqual:                 "EQUAL",
	bytecode.OpNotEqual:              "NOT_EQUAL",
	bytecode.OpStrictEqual:           "STRICT_EQUAL",
	bytecode.OpStrictNotEqual:        "STRICT_NOT_EQUAL",
	bytecode.OpLess:                  "LESS",
	bytecode.OpGreater:               "GREATER",
	bytecode.OpLessEqual:             "LESS_EQUAL",
	bytecode.OpGreaterEqual:          "GREATER_EQUAL",
	bytecode.OpMakeArray:             "MAKE_ARRAY",
	bytecode.OpMakeObject:            "MAKE_OBJECT",
	bytecode.OpGetElement:            "GET_ELEMENT",
	bytecode.OpSetElement:            "SET_ELEMENT",
	bytecode.OpCall:                  "CALL",
	bytecode.OpNew:                   "NEW",
	bytecode.OpReturn:                "RETURN",
	bytecode.OpReturnUndefined:       "RETURN_UNDEFINED",
	bytecode.OpJumpForward1:          "JUMP_FWD1",
	bytecode.OpJumpForward2:          "JUMP_FWD2",
	bytecode.OpJumpForward3:          "JUMP_FWD3",
	bytecode.OpJumpBackward1:         "JUMP_BACK1",
	bytecode.OpJumpBackward2:         "JUMP_BACK2",
	bytecode.OpJumpBackward3:         "JUMP_BACK3",
	bytecode.OpBranchFalseForward1:   "BRANCH_FALSE_FWD1",
	bytecode.OpBranchFalseForward2:   "BRANCH_FALSE_FWD2",
	bytecode.OpBranchFalseForward3:   "BRANCH_FALSE_FWD3",
	bytecode.OpBranchFalseBackward1:  "BRANCH_FALSE_BACK1",
	bytecode.OpBranchFalseBackward2:  "BRANCH_FALSE_BACK2",
	bytecode.OpBranchFalseBackward3:  "BRANCH_FALSE_BACK3",
	bytecode.OpBranchTrueForward1:    "BRANCH_TRUE_FWD1",
	bytecode.OpBranchTrueForward2:    "BRANCH_TRUE_FWD2",
	bytecode.OpBranchTrueForward3:    "BRANCH_TRUE_FWD3",
}
