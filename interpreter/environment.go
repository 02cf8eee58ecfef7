package interpreter

import "fmt"

// binding distinguishes a declared-but-uninitialized variable
// ("var x;") from one explicitly holding nil ("var x = nil;"),
// mirroring original_source's Option<Option<Literal>> two-layer model.
type binding struct {
	value       any
	initialized bool
}

// Environment is a single frame in a parent-linked chain of variable
// bindings. Blocks, function calls, and the global scope each own one.
// Closures share a frame by holding a pointer to it, so mutations made
// through one closure are visible through any other referencing the
// same frame.
type Environment struct {
	parent *Environment
	values map[string]binding
}

// NewEnvironment returns a fresh root environment with no parent.
func NewEnvironment() *Environment {
	return &Environment{values: make(map[string]binding)}
}

// NewChildEnvironment returns a new frame whose parent is env.
func NewChildEnvironment(parent *Environment) *Environment {
	return &Environment{parent: parent, values: make(map[string]binding)}
}

// Define unconditionally (re-)binds name in this frame. initialized
// is false for "var x;" and true for every other declaration.
func (e *Environment) Define(name string, value any, initialized bool) {
	e.values[name] = binding{value: value, initialized: initialized}
}

// Get searches this frame then the parent chain. found reports
// whether name is declared anywhere in the chain; initialized reports
// whether it has ever been assigned a value (meaningless when found
// is false).
func (e *Environment) Get(name string) (value any, found bool, initialized bool) {
	for env := e; env != nil; env = env.parent {
		if b, ok := env.values[name]; ok {
			return b.value, true, b.initialized
		}
	}
	return nil, false, false
}

// GetAt walks exactly depth parent links then looks up name only in
// that frame, as the resolver's static depth annotation promises it
// will be found there.
func (e *Environment) GetAt(name string, depth int) (value any, initialized bool, err error) {
	env, err := e.ancestor(depth)
	if err != nil {
		return nil, false, err
	}
	b, ok := env.values[name]
	if !ok {
		return nil, false, fmt.Errorf("resolver error: variable %q not found at depth %d", name, depth)
	}
	return b.value, b.initialized, nil
}

// Update walks the chain starting at this frame and assigns value to
// the first frame that already declares name. ok reports whether such
// a frame was found.
func (e *Environment) Update(name string, value any) (ok bool) {
	for env := e; env != nil; env = env.parent {
		if _, declared := env.values[name]; declared {
			env.values[name] = binding{value: value, initialized: true}
			return true
		}
	}
	return false
}

// UpdateAt walks exactly depth parent links then assigns within that
// frame only, mirroring GetAt's exact-depth discipline.
func (e *Environment) UpdateAt(name string, value any, depth int) error {
	env, err := e.ancestor(depth)
	if err != nil {
		return err
	}
	if _, declared := env.values[name]; !declared {
		return fmt.Errorf("resolver error: variable %q not found at depth %d", name, depth)
	}
	env.values[name] = binding{value: value, initialized: true}
	return nil
}

func (e *Environment) ancestor(depth int) (*Environment, error) {
	env := e
	for i := 0; i < depth; i++ {
		if env.parent == nil {
			return nil, fmt.Errorf("resolver error: chain shorter than depth %d", depth)
		}
		env = env.parent
	}
	return env, nil
}
