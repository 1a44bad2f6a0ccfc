package builtins

// PropertyValue is an own data property as the minimal object model
// tracks it: just enough for the instantiator to define, probe, and
// read back properties, and for callers to delete one (exercising the
// rule that a lazy property deleted by user code is never recreated).
type PropertyValue struct {
	Value      interface{}
	Attrs      Attributes
}

// Object is a built-in object instance: an ordinary property bag plus
// the two 32-bit halves of its lazy-instantiation bitmap, a per-object
// 64-bit instantiation bitmap stored in two internal 32-bit halves.
type Object struct {
	ID BuiltinID

	props map[MagicID]PropertyValue

	bitmapLow  uint32
	bitmapHigh uint32
}

// NewObject creates an empty instance bound to id's descriptor table.
func NewObject(id BuiltinID) *Object {
	return &Object{ID: id, props: map[MagicID]PropertyValue{}}
}

// GetOwn probes the object's own properties only (no descriptor
// consultation); used both by user-visible lookup after instantiation
// and by the instantiator itself to implement "already exists on the
// object" checks during enumeration.
func (o *Object) GetOwn(name MagicID) (PropertyValue, bool) {
	v, ok := o.props[name]
	return v, ok
}

// DefineOwn installs or overwrites an own data property.
func (o *Object) DefineOwn(name MagicID, v PropertyValue) {
	o.props[name] = v
}

// Delete removes an own property, simulating user code deleting a
// lazily-materialized built-in property. The instantiation bit is
// deliberately left set: a deleted lazy property must never be
// recreated.
func (o *Object) Delete(name MagicID) {
	delete(o.props, name)
}

// bitAt reports whether the instantiation bit for descriptor index idx
// (0..63) is set.
func (o *Object) bitAt(idx int) bool {
	if idx < 32 {
		return o.bitmapLow&(1<<uint(idx)) != 0
	}
	return o.bitmapHigh&(1<<uint(idx-32)) != 0
}

// setBit marks descriptor index idx as instantiated.
func (o *Object) setBit(idx int) {
	if idx < 32 {
		o.bitmapLow |= 1 << uint(idx)
		return
	}
	o.bitmapHigh |= 1 << uint(idx-32)
}
