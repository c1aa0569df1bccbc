package host

// Scope roots the values allocated while it is open. Scopes nest; only the
// innermost one may be closed. Values in a scope are never moved.
type Scope struct {
	rt     *Runtime
	parent *Scope
	values []Value
	closed bool
}

// OpenScope opens a nested handle scope.
func (rt *Runtime) OpenScope() *Scope {
	s := &Scope{rt: rt, parent: rt.scope}
	rt.scope = s
	return s
}

// Close releases the values rooted by s.
func (s *Scope) Close() {
	if s.closed {
		return
	}
	if s.rt.scope != s {
		Bug("handle scope closed out of order")
	}
	if s.parent == nil {
		Bug("root handle scope closed")
	}
	s.closed = true
	s.values = nil
	s.rt.scope = s.parent
}

// Escape roots v in the enclosing scope so it outlives s.
func (s *Scope) Escape(v Value) Value {
	if s.parent != nil {
		s.parent.add(v)
	}
	return v
}

// Add roots v in s.
func (s *Scope) Add(v Value) Value {
	s.add(v)
	return v
}

// Len returns the number of values rooted by s.
func (s *Scope) Len() int { return len(s.values) }

func (s *Scope) add(v Value) {
	if v.IsHeap() {
		s.values = append(s.values, v)
	}
}

// Keep roots v in the current scope. Use it for values read out of heap
// objects that must survive the next allocation.
func (rt *Runtime) Keep(v Value) Value {
	rt.scope.add(v)
	return v
}

// RegisterMark roots v permanently.
func (rt *Runtime) RegisterMark(v Value) {
	if v.IsHeap() {
		rt.roots = append(rt.roots, v)
	}
}

// UnregisterMark drops one permanent root registered for v.
func (rt *Runtime) UnregisterMark(v Value) {
	for i, r := range rt.roots {
		if r == v {
			rt.roots = append(rt.roots[:i], rt.roots[i+1:]...)
			return
		}
	}
}

// RegisterAddress roots whatever value *p holds at collection time.
func (rt *Runtime) RegisterAddress(p *Value) {
	rt.addresses[p] = struct{}{}
}

// UnregisterAddress stops rooting *p.
func (rt *Runtime) UnregisterAddress(p *Value) {
	delete(rt.addresses, p)
}
