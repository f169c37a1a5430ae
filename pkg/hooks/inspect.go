package hooks

// CellInfo describes one cell for diagnostics.
type CellInfo struct {
	Position   int    `json:"position"`
	Kind       string `json:"kind"`
	Value      string `json:"value,omitempty"`
	Deps       string `json:"deps,omitempty"`
	Pending    int    `json:"pending,omitempty"`
	Runs       int    `json:"runs,omitempty"`
	HasCleanup bool   `json:"hasCleanup,omitempty"`
}

// InstanceInfo describes an instance and its subtree for diagnostics.
type InstanceInfo struct {
	ID        uint64         `json:"id"`
	Component string         `json:"component"`
	Status    string         `json:"status"`
	Depth     int            `json:"depth"`
	Passes    int            `json:"passes"`
	Cells     []CellInfo     `json:"cells"`
	Provides  []string       `json:"provides,omitempty"`
	Error     string         `json:"error,omitempty"`
	Children  []InstanceInfo `json:"children,omitempty"`
}

// Inspect returns a snapshot of the instance and its subtree. It must be
// called from the goroutine driving the Runtime.
func (i *Instance) Inspect() InstanceInfo {
	info := InstanceInfo{
		ID:        i.id,
		Component: i.kind,
		Status:    i.Status().String(),
		Depth:     i.depth,
		Passes:    i.store.passes,
		Cells:     make([]CellInfo, 0, len(i.store.cells)),
		Provides:  i.rt.registry.names(i),
	}
	if i.err != nil {
		info.Error = i.err.Error()
	}
	for pos, c := range i.store.cells {
		info.Cells = append(info.Cells, c.info(pos))
	}
	for _, child := range i.children {
		info.Children = append(info.Children, child.Inspect())
	}
	return info
}

// Snapshot returns Inspect for every root.
func (rt *Runtime) Snapshot() []InstanceInfo {
	out := make([]InstanceInfo, 0, len(rt.roots))
	for _, root := range rt.roots {
		out = append(out, root.Inspect())
	}
	return out
}
