package model

// Interconnect is a directed, weighted connection between two cores.
type Interconnect struct {
	Source      string
	Target      string
	Support     float64 // confidence in [0,1]; 0 means none
	Speculative bool
}

// Endpoints returns the ordered (source, target) pair.
func (ic Interconnect) Endpoints() (string, string) {
	return ic.Source, ic.Target
}

// Shade returns the gray level used to draw the interconnect, where 0 is
// black and 1 is white. Full support would be white and is drawn black.
func (ic Interconnect) Shade() float64 {
	g := 1 - ic.Support
	if g == 1 {
		return 0
	}
	if g < 0 {
		return 0
	}
	return g
}

// Annotated reports whether the support value is drawn next to the arrow.
func (ic Interconnect) Annotated() bool {
	return ic.Support > 0
}
