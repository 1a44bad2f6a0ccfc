package bytecode

import "testing"

func TestFlagsOfLiteralArgOpcodes(t *testing.T) {
	for _, op := range []OpCode{OpPushLiteral, OpPushIdentRef, OpPushClosure, OpPushRegexp, OpGetVar, OpSetVar, OpInitVar, OpGetIdent, OpSetIdent, OpTeeIdent} {
		if FlagsOf(op)&HasLiteralArg == 0 {
			t.Errorf("opcode %d missing HasLiteralArg", op)
		}
	}
}

func TestFlagsOfByteArgOpcodes(t *testing.T) {
	for _, op := range []OpCode{OpGetRegister, OpSetRegister, OpTeeRegister, OpMakeArray, OpMakeObject, OpCall, OpNew} {
		if FlagsOf(op)&HasByteArg == 0 {
			t.Errorf("opcode %d missing HasByteArg", op)
		}
	}
}

func TestFlagsOfNoOperandOpcode(t *testing.T) {
	if f := FlagsOf(OpPop); f != 0 {
		t.Errorf("FlagsOf(OpPop) = %#x, want 0", f)
	}
}

func TestFlagsOfOutOfRangeReturnsZero(t *testing.T) {
	if f := FlagsOf(OpCode(255)); f != 0 {
		t.Errorf("FlagsOf(255) = %#x, want 0", f)
	}
}

func TestBranchWidthByFamily(t *testing.T) {
	cases := []struct {
		op    OpCode
		width int
	}{
		{OpJumpForward1, 1}, {OpJumpForward2, 2}, {OpJumpForward3, 3},
		{OpJumpBackward1, 1}, {OpBranchFalseForward2, 2}, {OpBranchTrueForward3, 3},
		{OpPop, 0}, {OpAdd, 0},
	}
	for _, c := range cases {
		if got := c.op.BranchWidth(); got != c.width {
			t.Errorf("%d.BranchWidth() = %d, want %d", c.op, got, c.width)
		}
	}
}

func TestIsForwardAndBackwardBranch(t *testing.T) {
	if !OpJumpForward1.IsForwardBranch() {
		t.Error("OpJumpForward1 should be a forward branch")
	}
	if OpJumpForward1.IsBackwardBranch() {
		t.Error("OpJumpForward1 should not be a backward branch")
	}
	if !OpJumpBackward2.IsBackwardBranch() {
		t.Error("OpJumpBackward2 should be a backward branch")
	}
	if OpJumpBackward2.IsForwardBranch() {
		t.Error("OpJumpBackward2 should not be a forward branch")
	}
	if OpAdd.IsForwardBranch() || OpAdd.IsBackwardBranch() {
		t.Error("a non-branch opcode reported as a branch")
	}
}

func TestIsUnconditionalJump(t *testing.T) {
	if !OpJumpForward1.IsUnconditionalJump() {
		t.Error("OpJumpForward1 should be unconditional")
	}
	if OpBranchFalseForward1.IsUnconditionalJump() {
		t.Error("OpBranchFalseForward1 should not be unconditional")
	}
}

func TestWithWidthRoundTripsEveryBranchFamily(t *testing.T) {
	families := []OpCode{OpJumpForward1, OpJumpBackward1, OpBranchFalseForward1, OpBranchFalseBackward1, OpBranchTrueForward1}
	for _, base := range families {
		for width := 1; width <= 3; width++ {
			got := base.WithWidth(width)
			if got.BranchWidth() != width {
				t.Errorf("%d.WithWidth(%d) = %d, whose BranchWidth() = %d, want %d", base, width, got, got.BranchWidth(), width)
			}
		}
	}
}

func TestWithWidthPanicsOnNonBranchOpcode(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("WithWidth on a non-branch opcode did not panic")
		}
	}()
	OpAdd.WithWidth(1)
}

func TestWithWidthPanicsOnOutOfRangeWidth(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("WithWidth(4) did not panic")
		}
	}()
	OpJumpForward1.WithWidth(4)
}

func TestHighestBitAndOpcodeMaskAreComplementary(t *testing.T) {
	if HighestBit&OpcodeMask != 0 {
		t.Error("HighestBit and OpcodeMask overlap")
	}
	if int(HighestBit | OpcodeMask) != 0xFF {
		t.Error("HighestBit | OpcodeMask should cover the full byte")
	}
}
