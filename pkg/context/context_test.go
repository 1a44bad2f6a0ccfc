package context

import (
	"testing"

	"cbc/pkg/errors"
	"cbc/pkg/source"
)

func TestNewContextInheritsSourceFromOuter(t *testing.T) {
	outer := NewContext(nil, 0)
	outer.SetSource(source.NewEvalSource("1+1"))
	inner := NewContext(outer, 2)
	if inner.Source != outer.Source {
		t.Error("a nested context did not inherit its enclosing context's source")
	}
	if inner.ArgumentCount != 2 {
		t.Errorf("ArgumentCount = %d, want 2", inner.ArgumentCount)
	}
}

func TestSetSpanPopulatesPosition(t *testing.T) {
	c := NewContext(nil, 0)
	c.SetSpan(3, 7, 100, 104)
	pos := c.Position()
	if pos.Line != 3 || pos.Column != 7 || pos.StartPos != 100 || pos.EndPos != 104 {
		t.Errorf("Position() = %+v, want Line=3 Column=7 StartPos=100 EndPos=104", pos)
	}
}

func TestPushStackTracksHighWaterMark(t *testing.T) {
	c := NewContext(nil, 0)
	c.PushStack(10)
	c.PushStack(10)
	c.PopStack(1)
	c.PushStack(10)
	c.PushStack(10)
	if c.StackLimit != 3 {
		t.Errorf("StackLimit = %d, want 3", c.StackLimit)
	}
}

func TestPopStackNeverGoesNegative(t *testing.T) {
	c := NewContext(nil, 0)
	c.PopStack(5)
	if c.StackDepth != 0 {
		t.Errorf("StackDepth = %d, want 0 (clamped)", c.StackDepth)
	}
}

func TestPushStackAbortsPastMaxStack(t *testing.T) {
	c := NewContext(nil, 0)
	var outErr *errors.CompileError
	func() {
		defer c.Recover(&outErr)
		c.PushStack(1)
		c.PushStack(1) // exceeds maxStack=1
		t.Error("PushStack past the limit did not abort")
	}()
	if outErr == nil {
		t.Fatal("Recover did not capture an error")
	}
	if outErr.Kind() != errors.StackLimitReached {
		t.Errorf("error kind = %v, want StackLimitReached", outErr.Kind())
	}
}

func TestRecoverUnwindsEveryOuterLevel(t *testing.T) {
	outer := NewContext(nil, 0)
	middle := NewContext(outer, 0)
	inner := NewContext(middle, 0)

	var outErr *errors.CompileError
	func() {
		defer inner.Recover(&outErr)
		inner.Abort(errors.UnexpectedToken, "boom")
	}()

	if outErr == nil {
		t.Fatal("Recover did not capture the abort")
	}
	if inner.UnwoundLevels != 3 {
		t.Errorf("UnwoundLevels = %d, want 3 (inner, middle, outer)", inner.UnwoundLevels)
	}
	if inner.Stream != nil || middle.Stream != nil || outer.Stream != nil {
		t.Error("unwind left a stream non-nil on some level")
	}
}

func TestRecoverRepanicsOnForeignPanic(t *testing.T) {
	c := NewContext(nil, 0)
	var outErr *errors.CompileError
	defer func() {
		if recover() == nil {
			t.Error("a non-abort panic was swallowed by Recover instead of re-raised")
		}
	}()
	defer c.Recover(&outErr)
	panic("not an abort")
}

func TestDestroyClearsStreamAndPool(t *testing.T) {
	c := NewContext(nil, 0)
	c.Destroy()
	if c.Stream != nil || c.Pool != nil {
		t.Error("Destroy did not clear Stream/Pool")
	}
}
