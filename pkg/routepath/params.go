package routepath

// Param is one captured placeholder value.
type Param struct {
	Name  string
	Value string
}

// Params holds captured values in the order the placeholders were declared.
type Params []Param

// Get returns the value for name, or "" if it was not captured.
func (ps Params) Get(name string) string {
	v, _ := ps.Lookup(name)
	return v
}

// Lookup returns the value for name and whether it was captured.
func (ps Params) Lookup(name string) (string, bool) {
	for _, p := range ps {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// Names returns the captured names in declaration order.
func (ps Params) Names() []string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.Name
	}
	return names
}

// Map copies the params into a map.
func (ps Params) Map() map[string]string {
	m := make(map[string]string, len(ps))
	for _, p := range ps {
		m[p.Name] = p.Value
	}
	return m
}

// Len returns the number of captured params.
func (ps Params) Len() int { return len(ps) }
