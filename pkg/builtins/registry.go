package builtins

import "sync"

// BuiltinID names one of the engine's built-in objects; the value
// doubles as the table index into descriptorTables and as the
// "builtin_id" field packed into a RoutineDescriptor.
type BuiltinID uint16

const (
	BuiltinMath BuiltinID = iota
	builtinCount
)

// descriptorTables holds the static, per-builtin property lists,
// populated by each builtin's init() (see math.go), terminated
// implicitly by Go slice length rather than a sentinel MagicCount
// entry — that sentinel only matters when iterating a raw C array; a
// Go slice already carries its own length.
var descriptorTables [builtinCount][]Descriptor

// Registry is the process-wide lazily-initialized table of built-in
// object instances described in the design notes: "a global table of
// lazily created built-in objects with reference counts... not shared
// across engine instances; each engine initializes and finalizes its
// own." Unlike the descriptor tables (which are immutable process
// globals, since they describe the language, not a running engine),
// a Registry is created one per engine instance.
type Registry struct {
	mu      sync.Mutex
	objects [builtinCount]*Object
	refs    [builtinCount]int
}

// NewRegistry returns an empty registry; all slots start unmaterialized.
func NewRegistry() *Registry {
	return &Registry{}
}

// Get materializes (on first call) and returns a counted reference to
// the built-in object named id. The caller must call Release when
// done with it.
func (r *Registry) Get(id BuiltinID) *Object {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.objects[id] == nil {
		r.objects[id] = NewObject(id)
	}
	r.refs[id]++
	return r.objects[id]
}

// Release drops one reference acquired via Get. It does not evict the
// object even at zero references: built-ins stay resident for the
// engine's lifetime once touched, and the count exists so callers can
// assert balanced acquire/release in tests, not to drive GC.
func (r *Registry) Release(id BuiltinID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.refs[id] > 0 {
		r.refs[id]--
	}
}

// Finalize clears every populated slot, per the design note's
// lifecycle ("finalize releases every populated slot").
func (r *Registry) Finalize() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.objects {
		r.objects[i] = nil
		r.refs[i] = 0
	}
}
