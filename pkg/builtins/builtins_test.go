package builtins

import (
	"math"
	"testing"
)

func TestRegistryGetMaterializesOnce(t *testing.T) {
	reg := NewRegistry()
	a := reg.Get(BuiltinMath)
	b := reg.Get(BuiltinMath)
	if a != b {
		t.Error("Get returned two distinct objects for the same builtin id")
	}
}

func TestRegistryReleaseNeverPanicsBelowZero(t *testing.T) {
	reg := NewRegistry()
	reg.Release(BuiltinMath) // never acquired
}

func TestRegistryFinalizeClearsSlots(t *testing.T) {
	reg := NewRegistry()
	first := reg.Get(BuiltinMath)
	reg.Finalize()
	second := reg.Get(BuiltinMath)
	if first == second {
		t.Error("Finalize did not clear the materialized object; Get returned the same instance again")
	}
}

func TestLookupMaterializesLazilyAndCaches(t *testing.T) {
	reg := NewRegistry()
	obj := NewObject(BuiltinMath)

	v1, ok := Lookup(reg, obj, MagicPI)
	if !ok {
		t.Fatal("Lookup(MagicPI) reported not-mine")
	}
	if v1.(float64) != math.Pi {
		t.Errorf("MagicPI = %v, want Pi", v1)
	}

	// A second lookup must hit the already-materialized own property,
	// not re-run materialize.
	v2, ok := Lookup(reg, obj, MagicPI)
	if !ok || v2.(float64) != math.Pi {
		t.Errorf("second Lookup(MagicPI) = %v, %v", v2, ok)
	}
}

func TestLookupUnknownMagicReportsNotMine(t *testing.T) {
	reg := NewRegistry()
	obj := NewObject(BuiltinMath)
	_, ok := Lookup(reg, obj, MagicID(9999))
	if ok {
		t.Error("Lookup on an unknown magic id should report not-mine")
	}
}

func TestDeletedLazyPropertyIsNeverRecreated(t *testing.T) {
	reg := NewRegistry()
	obj := NewObject(BuiltinMath)

	if _, ok := Lookup(reg, obj, MagicPI); !ok {
		t.Fatal("initial Lookup(MagicPI) failed")
	}
	obj.Delete(MagicPI)

	_, ok := Lookup(reg, obj, MagicPI)
	if ok {
		t.Error("Lookup recreated a property that was deleted after materialization")
	}
}

func TestEnumerateLazyNamesIncludesUnmaterializedAndStillPresent(t *testing.T) {
	reg := NewRegistry()
	obj := NewObject(BuiltinMath)

	names := EnumerateLazyNames(obj)
	if len(names) != len(descriptorTables[BuiltinMath]) {
		t.Fatalf("EnumerateLazyNames on a fresh object = %d names, want %d (every descriptor, none materialized)",
			len(names), len(descriptorTables[BuiltinMath]))
	}

	Lookup(reg, obj, MagicPI)
	obj.Delete(MagicPI)
	names = EnumerateLazyNames(obj)
	for _, n := range names {
		if n == MagicPI {
			t.Error("EnumerateLazyNames listed a materialized-then-deleted property")
		}
	}
}

func TestRoutineLengthDecodesPackedDescriptor(t *testing.T) {
	table := descriptorTables[BuiltinMath]
	length, ok := RoutineLength(table, MagicMax)
	if !ok {
		t.Fatal("RoutineLength(MagicMax) reported not found")
	}
	if length != 2 {
		t.Errorf("RoutineLength(MagicMax) = %d, want 2", length)
	}
}

func TestPackRoutineUnpackRoundTrip(t *testing.T) {
	d := PackRoutine(BuiltinMath, 7, 3)
	id, routine, length := d.Unpack()
	if id != BuiltinMath || routine != 7 || length != 3 {
		t.Errorf("Unpack() = (%v, %d, %d), want (BuiltinMath, 7, 3)", id, routine, length)
	}
}

func TestPackRoutinePanicsOnOverflow(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("PackRoutine with an out-of-range length did not panic")
		}
	}()
	PackRoutine(BuiltinMath, 0, 255)
}

func TestCallMathRoutineDispatch(t *testing.T) {
	if got := CallMathRoutine(routineAbs, []float64{-4}); got != 4 {
		t.Errorf("abs(-4) = %v, want 4", got)
	}
	if got := CallMathRoutine(routineMax, []float64{1, 9}); got != 9 {
		t.Errorf("max(1, 9) = %v, want 9", got)
	}
	if got := CallMathRoutine(routineSqrt, []float64{16}); got != 4 {
		t.Errorf("sqrt(16) = %v, want 4", got)
	}
}

func TestCallMathRoutineMissingArgIsNaN(t *testing.T) {
	got := CallMathRoutine(routinePow, []float64{2})
	if !math.IsNaN(got) {
		t.Errorf("pow(2, <missing>) = %v, want NaN", got)
	}
}
