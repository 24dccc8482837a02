package model

import "slices"

// Snapshot is one complete parse of the topology file.
// Cores and interconnects keep the order of their rows.
type Snapshot struct {
	Cores         []Core
	Interconnects []Interconnect
}

// Core returns the core with the given id.
func (s *Snapshot) Core(id string) (Core, bool) {
	for _, c := range s.Cores {
		if c.ID == id {
			return c, true
		}
	}
	return Core{}, false
}

// MaxDepth returns the largest core depth, or -1 for an empty snapshot.
func (s *Snapshot) MaxDepth() int {
	deepest := -1
	for _, c := range s.Cores {
		if c.Depth > deepest {
			deepest = c.Depth
		}
	}
	return deepest
}

// Equal reports whether s and other hold the same cores and interconnects in
// the same order with the same field values. A nil snapshot equals only nil.
func (s *Snapshot) Equal(other *Snapshot) bool {
	if s == nil || other == nil {
		return s == other
	}
	return slices.Equal(s.Cores, other.Cores) &&
		slices.Equal(s.Interconnects, other.Interconnects)
}
