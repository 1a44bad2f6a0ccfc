package builtins

import "math"

// Magic string ids for the Math built-in. Real engines intern these
// against a global string table shared with the lexer's identifier
// literals; this port only needs them to be distinct small integers,
// since nothing outside this package inspects their numeric value.
const (
	MagicPI MagicID = iota + 1
	MagicE
	MagicAbs
	MagicMax
	MagicMin
	MagicPow
	MagicSqrt
)

const (
	routineAbs uint16 = iota
	routineMax
	routineMin
	routinePow
	routineSqrt
)

func init() {
	descriptorTables[BuiltinMath] = []Descriptor{
		{Magic: MagicPI, Type: KindNumber, Value: NumberLiteral, Number: math.Pi, Attrs: 0},
		{Magic: MagicE, Type: KindNumber, Value: NumberLiteral, Number: math.E, Attrs: 0},
		{Magic: MagicAbs, Type: KindRoutine, Value: PackRoutine(BuiltinMath, routineAbs, 1), Attrs: AttrWritable | AttrConfigurable},
		{Magic: MagicMax, Type: KindRoutine, Value: PackRoutine(BuiltinMath, routineMax, 2), Attrs: AttrWritable | AttrConfigurable},
		{Magic: MagicMin, Type: KindRoutine, Value: PackRoutine(BuiltinMath, routineMin, 2), Attrs: AttrWritable | AttrConfigurable},
		{Magic: MagicPow, Type: KindRoutine, Value: PackRoutine(BuiltinMath, routinePow, 2), Attrs: AttrWritable | AttrConfigurable},
		{Magic: MagicSqrt, Type: KindRoutine, Value: PackRoutine(BuiltinMath, routineSqrt, 1), Attrs: AttrWritable | AttrConfigurable},
	}
}

// CallMathRoutine dispatches a decoded Math routine id against args,
// standing in for the executor this package explicitly does not own —
// kept here only so the routine descriptors wired above have somewhere
// to be exercised by tests.
func CallMathRoutine(routineID uint16, args []float64) float64 {
	arg := func(i int) float64 {
		if i < len(args) {
			return args[i]
		}
		return math.NaN()
	}
	switch routineID {
	case routineAbs:
		return math.Abs(arg(0))
	case routineMax:
		return math.Max(arg(0), arg(1))
	case routineMin:
		return math.Min(arg(0), arg(1))
	case routinePow:
		return math.Pow(arg(0), arg(1))
	case routineSqrt:
		return math.Sqrt(arg(0))
	default:
		return math.NaN()
	}
}
