package builtins

import "math"

// Lookup implements lazy instantiation: given an object already bound
// to a descriptor table (via its ID) and a magic-string name, return
// the property's materialized value, instantiating it from the
// descriptor on first access. The bool result is a "mine or not"
// signal: false means this object's descriptor table has no such
// property at all, distinct from "has the property but it was
// deleted" (also false, since the caller never finds it in props
// either way — the bitmap's only job is preventing the *next* lookup
// from recreating it).
func Lookup(reg *Registry, obj *Object, name MagicID) (interface{}, bool) {
	if v, ok := obj.GetOwn(name); ok {
		return v.Value, true
	}

	table := descriptorTables[obj.ID]
	idx := indexOf(table, name)
	if idx < 0 {
		return nil, false // not mine
	}

	if obj.bitAt(idx) {
		// Already instantiated once and since deleted by user code;
		// this must never recreate the property.
		return nil, false
	}

	obj.setBit(idx)
	desc := table[idx]
	value := materialize(reg, desc)
	obj.DefineOwn(name, PropertyValue{Value: value, Attrs: desc.Attrs})
	return value, true
}

// RoutineLength decodes the `length` property of a routine-typed
// descriptor on first access, a path kept separate from general
// materialization since it never needs a Registry.
func RoutineLength(table []Descriptor, name MagicID) (uint8, bool) {
	idx := indexOf(table, name)
	if idx < 0 || table[idx].Type != KindRoutine {
		return 0, false
	}
	rd := table[idx].Value.(RoutineDescriptor)
	return rd.Length(), true
}

func indexOf(table []Descriptor, name MagicID) int {
	for i, d := range table {
		if d.Magic == name {
			return i
		}
	}
	return -1
}

func materialize(reg *Registry, desc Descriptor) interface{} {
	switch desc.Type {
	case KindSimple:
		return desc.Value
	case KindString:
		return desc.Value.(string)
	case KindNumber:
		switch desc.Value.(NumberConst) {
		case NumberNaN:
			return math.NaN()
		case NumberPositiveInfinity:
			return math.Inf(1)
		case NumberNegativeInfinity:
			return math.Inf(-1)
		default:
			return desc.Number
		}
	case KindObject:
		return reg.Get(desc.Value.(BuiltinID))
	case KindRoutine:
		return desc.Value.(RoutineDescriptor)
	default:
		return nil
	}
}

// EnumerateLazyNames yields every magic id on obj's descriptor table
// that a full own-property-names enumeration must report: any
// descriptor still unmaterialized (bit clear), plus any already
// materialized descriptor that a plain own-property probe still finds
// present (i.e. not since deleted).
func EnumerateLazyNames(obj *Object) []MagicID {
	table := descriptorTables[obj.ID]
	var names []MagicID
	for i, d := range table {
		if !obj.bitAt(i) {
			names = append(names, d.Magic)
			continue
		}
		if _, ok := obj.GetOwn(d.Magic); ok {
			names = append(names, d.Magic)
		}
	}
	return names
}
