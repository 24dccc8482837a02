// Package route computes the drawn path of every interconnect.
//
// An interconnect between consecutive layers is a straight arrow between
// core boundaries. One that skips layers threads a waypoint through each
// intermediate layer next to the nearest core there, with a random vertical
// jitter so that several long interconnects through the same layer do not
// overlap, and is drawn as a smooth curve through those waypoints.
package route

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"

	"github.com/alfredjeanlab/alcviz/internal/layout"
	"github.com/alfredjeanlab/alcviz/internal/model"
)

// boundaryGap keeps curve ends just clear of the core outline.
const boundaryGap = 0.05

// labelLift raises the support label above its anchor.
const labelLift = 0.2

// Path is the routed shape of one interconnect.
type Path struct {
	Interconnect model.Interconnect

	// Waypoints are the points the path is fitted through: the start point,
	// one point per routed intermediate layer, and the end point.
	Waypoints []layout.Point

	// Samples is the polyline that is drawn. For straight paths it equals
	// Waypoints.
	Samples []layout.Point

	// Anchor is the pair of points the support label is centered between.
	Anchor [2]layout.Point

	Curved bool
}

// Intermediate returns the waypoints between the start and end points.
func (p *Path) Intermediate() []layout.Point {
	if len(p.Waypoints) < 2 {
		return nil
	}
	return p.Waypoints[1 : len(p.Waypoints)-1]
}

// Start returns the first waypoint.
func (p *Path) Start() layout.Point { return p.Waypoints[0] }

// End returns the last waypoint.
func (p *Path) End() layout.Point { return p.Waypoints[len(p.Waypoints)-1] }

// Head returns the segment the arrowhead is drawn along: the last two
// samples, so the head follows the curve's tangent.
func (p *Path) Head() (from, to layout.Point) {
	n := len(p.Samples)
	return p.Samples[n-2], p.Samples[n-1]
}

// LabelPoint returns where the support label is centered.
func (p *Path) LabelPoint() layout.Point {
	mid := p.Anchor[0].Add(p.Anchor[1]).Scale(0.5)
	return mid.Add(layout.Point{Y: labelLift})
}

// Label returns the support annotation, or "" when none is drawn.
func (p *Path) Label() string {
	if !p.Interconnect.Annotated() {
		return ""
	}
	return strconv.FormatFloat(p.Interconnect.Support, 'f', -1, 64)
}

// Router routes interconnects over a layout.
// A Router is not safe for concurrent use; its random source is shared.
type Router struct {
	rng *rand.Rand
}

// New returns a Router drawing jitter from rng. A nil rng gets a source
// seeded from process entropy, so routes differ between runs.
func New(rng *rand.Rand) *Router {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Router{rng: rng}
}

// Route routes every interconnect of snap over lay, in snapshot order.
func (r *Router) Route(snap *model.Snapshot, lay *layout.Layout) ([]Path, error) {
	paths := make([]Path, 0, len(snap.Interconnects))
	for _, ic := range snap.Interconnects {
		p, err := r.RouteOne(ic, lay)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// RouteOne routes a single interconnect.
func (r *Router) RouteOne(ic model.Interconnect, lay *layout.Layout) (Path, error) {
	from, ok := lay.Coords[ic.Source]
	if !ok {
		return Path{}, unknownCore(ic.Source)
	}
	to, ok := lay.Coords[ic.Target]
	if !ok {
		return Path{}, unknownCore(ic.Target)
	}
	d1, d2 := lay.Depths[ic.Source], lay.Depths[ic.Target]

	if d2-d1 <= 1 {
		return straight(ic, from, to), nil
	}

	pts := []layout.Point{{X: from.X + layout.CoreRadius + boundaryGap, Y: from.Y}}
	cur := from
	for d := d1 + 1; d < d2; d++ {
		wp, ok := r.waypoint(lay, d, cur)
		if !ok {
			continue
		}
		pts = append(pts, wp)
		cur = wp
	}
	pts = append(pts, layout.Point{X: to.X - layout.CoreRadius - boundaryGap, Y: to.Y})

	if len(pts) == 2 {
		// Every intermediate layer was empty.
		return straight(ic, from, to), nil
	}

	samples := Fit(pts, SamplesPerWaypoint*len(pts)+1)
	mid := len(samples) / 2
	return Path{
		Interconnect: ic,
		Waypoints:    pts,
		Samples:      samples,
		Anchor:       [2]layout.Point{samples[mid], samples[mid+1]},
		Curved:       true,
	}, nil
}

// waypoint picks the point the path crosses layer d at, guided by the core in
// that layer nearest to cur. It reports false for an empty layer.
func (r *Router) waypoint(lay *layout.Layout, d int, cur layout.Point) (layout.Point, bool) {
	if d >= len(lay.Layers) {
		return layout.Point{}, false
	}
	var (
		guide layout.Point
		best  = math.Inf(1)
	)
	for _, id := range lay.Layers[d] {
		p := lay.Coords[id]
		if dist := p.Dist2(cur); dist < best {
			best, guide = dist, p
		}
	}
	if math.IsInf(best, 1) {
		return layout.Point{}, false
	}

	sign := 1.0
	if guide.Y > cur.Y {
		sign = -1
	}
	const (
		h = layout.HorizontalSpacing
		v = layout.VerticalSpacing
	)
	dy := 0.0
	if best > h*h+v*v {
		// Sparse layer: pull the waypoint back towards the current height.
		dy = cur.Y - guide.Y - sign*v
	}
	return layout.Point{X: guide.X, Y: guide.Y + dy + sign*r.jitter()}, true
}

// jitter returns a vertical offset that keeps the waypoint off the guide
// core and inside the gap to its neighbour.
func (r *Router) jitter() float64 {
	lo := layout.CoreRadius + 0.5
	hi := layout.VerticalSpacing - layout.CoreRadius - 0.5
	return lo + r.rng.Float64()*(hi-lo)
}

// straight builds a boundary-to-boundary segment between two core centers.
func straight(ic model.Interconnect, from, to layout.Point) Path {
	dir := to.Sub(from)
	n := dir.Len()
	if n == 0 {
		dir = layout.Point{X: 1}
	} else {
		dir = dir.Scale(1 / n)
	}
	start := from.Add(dir.Scale(layout.CoreRadius))
	end := to.Sub(dir.Scale(layout.CoreRadius))
	pts := []layout.Point{start, end}
	return Path{
		Interconnect: ic,
		Waypoints:    pts,
		Samples:      pts,
		Anchor:       [2]layout.Point{from, to},
	}
}

func unknownCore(id string) error {
	return &model.MalformedSnapshotError{
		Reason: fmt.Sprintf("interconnect references unknown core %q", id),
	}
}
