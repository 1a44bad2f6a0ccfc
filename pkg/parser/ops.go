package parser

import "cbc/pkg/bytecode"

// Thin wrappers naming each opcode by the grammar construct that emits
// it, so parser.go reads in terms of the language rather than the wire
// format. All of these resolve to a representative (maximal-width, for
// branches) family member; pkg/postprocess picks the final width.
func opPop() bytecode.OpCode             { return bytecode.OpPop }
func opDup() bytecode.OpCode             { return bytecode.OpDup }
func opGetIdent() bytecode.OpCode        { return bytecode.OpGetIdent }
func opSetIdent() bytecode.OpCode        { return bytecode.OpSetIdent }
func opTeeIdent() bytecode.OpCode        { return bytecode.OpTeeIdent }
func opReturn() bytecode.OpCode          { return bytecode.OpReturn }
func opReturnUndefined() bytecode.OpCode { return bytecode.OpReturnUndefined }
func opJumpForward() bytecode.OpCode     { return bytecode.OpJumpForward3 }
func opJumpBackward() bytecode.OpCode    { return bytecode.OpJumpBackward3 }
func opBranchFalseForward() bytecode.OpCode { return bytecode.OpBranchFalseForward3 }
func opBranchTrueForward() bytecode.OpCode  { return bytecode.OpBranchTrueForward3 }

func binaryOpcode(t string) (bytecode.OpCode, bool) {
	switch t {
	case "+":
		return bytecode.OpAdd, true
	case "-":
		return bytecode.OpSubtract, true
	case "*":
		return bytecode.OpMultiply, true
	case "/":
		return bytecode.OpDivide, true
	case "%":
		return bytecode.OpRemainder, true
	case "**":
		return bytecode.OpExponent, true
	case "&":
		return bytecode.OpBitwiseAnd, true
	case "|":
		return bytecode.OpBitwiseOr, true
	case "^":
		return bytecode.OpBitwiseXor, true
	case "<<":
		return bytecode.OpShiftLeft, true
	case ">>":
		return bytecode.OpShiftRight, true
	case ">>>":
		return bytecode.OpUnsignedShiftRight, true
	case "==":
		return bytecode.OpEqual, true
	case "!=":
		return bytecode.OpNotEqual, true
	case "===":
		return bytecode.OpStrictEqual, true
	case "!==":
		return bytecode.OpStrictNotEqual, true
	case "<":
		return bytecode.OpLess, true
	case ">":
		return bytecode.OpGreater, true
	case "<=":
		return bytecode.OpLessEqual, true
	case ">=":
		return bytecode.OpGreaterEqual, true
	default:
		return 0, false
	}
}
