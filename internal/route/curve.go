package route

import (
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/mat"

	"github.com/alfredjeanlab/alcviz/internal/layout"
)

// MaxDegree caps the interpolating polynomial. Longer waypoint chains are
// fitted with a natural cubic spline instead.
const MaxDegree = 5

// SamplesPerWaypoint is how densely a fitted curve is sampled.
const SamplesPerWaypoint = 4

// Fit returns n points sampled evenly in parameter space along a smooth curve
// through pts. The first and last samples are pts[0] and pts[len(pts)-1].
//
// Each coordinate is interpolated over the normalized chord length: up to
// MaxDegree+1 points by the single polynomial through all of them, beyond
// that by a natural cubic spline.
func Fit(pts []layout.Point, n int) []layout.Point {
	pts = dedupe(pts)
	if n < 2 {
		n = 2
	}
	out := make([]layout.Point, n)
	if len(pts) == 1 {
		for i := range out {
			out[i] = pts[0]
		}
		return out
	}

	u := chordParams(pts)
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i], ys[i] = p.X, p.Y
	}
	fx, fy := fitAxis(u, xs), fitAxis(u, ys)

	for i := range out {
		t := float64(i) / float64(n-1)
		out[i] = layout.Point{X: fx.Predict(t), Y: fy.Predict(t)}
	}
	out[0] = pts[0]
	out[n-1] = pts[len(pts)-1]
	return out
}

// fitAxis interpolates v over the strictly increasing knots u.
func fitAxis(u, v []float64) interp.Predictor {
	if len(u)-1 <= MaxDegree {
		if p, err := fitPolynomial(u, v); err == nil {
			return p
		}
	}
	var nc interp.NaturalCubic
	if err := nc.Fit(u, v); err == nil {
		return &nc
	}
	var pl interp.PiecewiseLinear
	_ = pl.Fit(u, v) // never fails for increasing knots
	return &pl
}

// polynomial holds coefficients, lowest order first.
type polynomial []float64

// Predict evaluates p at x.
func (p polynomial) Predict(x float64) float64 {
	var y float64
	for i := len(p) - 1; i >= 0; i-- {
		y = y*x + p[i]
	}
	return y
}

// fitPolynomial solves the Vandermonde system for the polynomial of degree
// len(u)-1 through (u[i], v[i]). An ill-conditioned system is an error.
func fitPolynomial(u, v []float64) (polynomial, error) {
	n := len(u)
	a := mat.NewDense(n, n, nil)
	for i, ui := range u {
		pow := 1.0
		for j := range n {
			a.Set(i, j, pow)
			pow *= ui
		}
	}
	b := mat.NewVecDense(n, append([]float64(nil), v...))
	var c mat.VecDense
	if err := c.SolveVec(a, b); err != nil {
		return nil, err
	}
	return polynomial(c.RawVector().Data), nil
}

// dedupe drops consecutive points closer than a hair, which would otherwise
// give two knots the same parameter.
func dedupe(pts []layout.Point) []layout.Point {
	out := make([]layout.Point, 0, len(pts))
	for _, p := range pts {
		if len(out) > 0 && out[len(out)-1].Dist2(p) < 1e-18 {
			continue
		}
		out = append(out, p)
	}
	return out
}

// chordParams assigns each point its normalized cumulative chord length.
func chordParams(pts []layout.Point) []float64 {
	u := make([]float64, len(pts))
	for i := 1; i < len(pts); i++ {
		u[i] = u[i-1] + pts[i].Sub(pts[i-1]).Len()
	}
	total := u[len(u)-1]
	for i := range u {
		u[i] /= total
	}
	return u
}
