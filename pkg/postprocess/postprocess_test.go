package postprocess

import (
	"bytes"
	"testing"

	"cbc/pkg/bytecode"
	"cbc/pkg/context"
	"cbc/pkg/emit"
	"cbc/pkg/literal"
)

func TestRunAppendsTrailingReturnUndefinedWhenBodyFallsThrough(t *testing.T) {
	c := context.NewContext(nil, 0)
	e := emit.New(c)
	e.Simple(bytecode.OpPop)

	ranges := c.Pool.Classify(0, 64, false)
	cc := Run(c, ranges)

	want := []byte{byte(bytecode.OpPop), byte(bytecode.OpReturnUndefined)}
	if !bytes.Equal(cc.Code, want) {
		t.Errorf("Code = %v, want %v", cc.Code, want)
	}
}

func TestRunLeavesAnExplicitReturnAlone(t *testing.T) {
	c := context.NewContext(nil, 0)
	e := emit.New(c)
	e.Simple(bytecode.OpReturnUndefined)

	ranges := c.Pool.Classify(0, 64, false)
	cc := Run(c, ranges)

	want := []byte{byte(bytecode.OpReturnUndefined)}
	if !bytes.Equal(cc.Code, want) {
		t.Errorf("Code = %v, want %v (no duplicate trailing return)", cc.Code, want)
	}
}

func TestRunResolvesIdentPlaceholderToRegister(t *testing.T) {
	c := context.NewContext(nil, 0)
	idx := c.Pool.AddIdent("x", literal.FlagVar|literal.FlagInitialized)
	e := emit.New(c)
	e.Literal(bytecode.OpSetIdent, idx)
	e.Literal(bytecode.OpGetIdent, idx)
	e.Simple(bytecode.OpReturn)

	ranges := c.Pool.Classify(0, 64, false)
	cc := Run(c, ranges)

	reg := byte(c.Pool.At(idx).Index())
	want := []byte{
		byte(bytecode.OpSetRegister), reg,
		byte(bytecode.OpGetRegister), reg,
		byte(bytecode.OpReturn),
	}
	if !bytes.Equal(cc.Code, want) {
		t.Errorf("Code = %v, want %v", cc.Code, want)
	}
}

func TestRunResolvesFreeIdentToPushIdentRef(t *testing.T) {
	c := context.NewContext(nil, 0)
	idx := c.Pool.AddIdent("g", 0) // free reference, never declared Var
	e := emit.New(c)
	e.Literal(bytecode.OpGetIdent, idx)
	e.Simple(bytecode.OpReturn)

	ranges := c.Pool.Classify(0, 64, false)
	cc := Run(c, ranges)

	if bytecode.OpCode(cc.Code[0]) != bytecode.OpPushIdentRef {
		t.Errorf("first opcode = %d, want OpPushIdentRef", cc.Code[0])
	}
}

func TestRunElidesDegenerateForwardJump(t *testing.T) {
	c := context.NewContext(nil, 0)
	e := emit.New(c)
	bp := e.ForwardBranch(bytecode.OpJumpForward3)
	e.ResolveForward(bp)
	e.Simple(bytecode.OpPop)

	ranges := c.Pool.Classify(0, 64, false)
	cc := Run(c, ranges)

	want := []byte{byte(bytecode.OpPop), byte(bytecode.OpReturnUndefined)}
	if !bytes.Equal(cc.Code, want) {
		t.Errorf("Code = %v, want %v (branch elided entirely)", cc.Code, want)
	}
}

func TestRunShrinksForwardBranchToNarrowestWidth(t *testing.T) {
	c := context.NewContext(nil, 0)
	e := emit.New(c)
	bp := e.ForwardBranch(bytecode.OpJumpForward3)
	e.Simple(bytecode.OpPop)
	e.Simple(bytecode.OpPop)
	e.ResolveForward(bp)

	ranges := c.Pool.Classify(0, 64, false)
	cc := Run(c, ranges)

	op := bytecode.OpCode(cc.Code[0] & bytecode.OpcodeMask)
	if op != bytecode.OpJumpForward1 {
		t.Fatalf("opcode = %d, want OpJumpForward1 (shrunk to width 1)", op)
	}
	if cc.Code[0]&bytecode.HighestBit == 0 {
		t.Error("shrunk branch lost its branch-marker high bit")
	}
	if cc.Code[1] != 2 {
		t.Errorf("distance = %d, want 2", cc.Code[1])
	}
}

func TestRunBuildsLiteralValueTable(t *testing.T) {
	c := context.NewContext(nil, 0)
	idx := c.Pool.AddString("hello")
	e := emit.New(c)
	e.Literal(bytecode.OpPushLiteral, idx)
	e.Simple(bytecode.OpReturn)

	ranges := c.Pool.Classify(0, 64, false)
	cc := Run(c, ranges)

	slot := c.Pool.At(idx).Index() - int(cc.RegisterEnd)
	if slot < 0 || slot >= len(cc.LiteralValues) {
		t.Fatalf("literal's dense index %d out of LiteralValues range (len %d)", slot, len(cc.LiteralValues))
	}
	lv := cc.LiteralValues[slot]
	if lv.Kind != bytecode.ValueString || lv.String != "hello" {
		t.Errorf("literal value = %+v, want ValueString \"hello\"", lv)
	}
}

func TestRunBuildsArgumentNamesWhenArgumentsNeeded(t *testing.T) {
	c := context.NewContext(nil, 2)
	c.Status |= context.StatusArgumentsNeeded
	c.Pool.AddIdent("a", literal.FlagVar|literal.FlagInitialized|literal.FlagFunctionArgument)
	c.Pool.AddIdent("b", literal.FlagVar|literal.FlagInitialized|literal.FlagFunctionArgument)
	e := emit.New(c)
	e.Simple(bytecode.OpReturnUndefined)

	ranges := c.Pool.Classify(2, 64, false)
	cc := Run(c, ranges)

	if cc.Status&bytecode.FlagArgumentsNeeded == 0 {
		t.Fatal("FlagArgumentsNeeded not set on the compiled header")
	}
	if len(cc.ArgumentNames) != 2 {
		t.Fatalf("len(ArgumentNames) = %d, want 2", len(cc.ArgumentNames))
	}
	if cc.ArgumentNames[0] == nil || *cc.ArgumentNames[0] != "a" {
		t.Errorf("ArgumentNames[0] = %v, want \"a\"", cc.ArgumentNames[0])
	}
	if cc.ArgumentNames[1] == nil || *cc.ArgumentNames[1] != "b" {
		t.Errorf("ArgumentNames[1] = %v, want \"b\"", cc.ArgumentNames[1])
	}
}
