package host

type symbolTable struct {
	ids   map[string]int
	names []string
}

// Intern returns the symbol for name.
func (rt *Runtime) Intern(name string) Value {
	t := &rt.symbols
	if t.ids == nil {
		t.ids = make(map[string]int)
	}
	id, ok := t.ids[name]
	if !ok {
		id = len(t.names)
		t.names = append(t.names, name)
		t.ids[name] = id
	}
	return symbolRef(id)
}

// SymbolName returns the name of a symbol.
func (rt *Runtime) SymbolName(v Value) (string, bool) {
	if !v.IsSymbol() {
		return "", false
	}
	id := v.symbolID()
	if id >= len(rt.symbols.names) {
		return "", false
	}
	return rt.symbols.names[id], true
}
