package d3

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrDegenerate is returned by geometric constructions and queries whose
// input admits no unique answer, such as parallel lines or collinear points.
var ErrDegenerate = errors.New("degenerate geometry")

// Plane is the set of points x satisfying N·x + D = 0 with N of unit length.
type Plane struct {
	N r3.Vec
	D float64
}

// FitPlane returns the plane through p1, p2 and p3.
func FitPlane(p1, p2, p3 r3.Vec) (Plane, error) {
	e1 := r3.Sub(p2, p1)
	e2 := r3.Sub(p3, p1)
	n := r3.Cross(e1, e2)
	l := r3.Norm(n)
	if l <= 1e-14*r3.Norm(e1)*r3.Norm(e2) || l == 0 {
		return Plane{}, ErrDegenerate
	}
	n = r3.Scale(1/l, n)
	return Plane{N: n, D: -r3.Dot(n, p1)}, nil
}

// FitPlaneLSQ returns the plane minimizing the sum of squared distances to pts.
func FitPlaneLSQ(pts []r3.Vec) (Plane, error) {
	if len(pts) < 3 {
		return Plane{}, ErrDegenerate
	}
	c := Set(pts).Centroid()
	var cov [9]float64
	for _, p := range pts {
		d := r3.Sub(p, c)
		v := [3]float64{d.X, d.Y, d.Z}
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				cov[3*i+j] += v[i] * v[j]
			}
		}
	}
	sym := mat.NewSymDense(3, cov[:])
	var es mat.EigenSym
	if !es.Factorize(sym, true) {
		return Plane{}, ErrDegenerate
	}
	// Eigenvalues are returned in ascending order.
	vals := es.Values(nil)
	if vals[1] <= 1e-14*math.Max(vals[2], 1e-300) {
		return Plane{}, ErrDegenerate // points are collinear.
	}
	var ev mat.Dense
	es.VectorsTo(&ev)
	n := r3.Unit(r3.Vec{X: ev.At(0, 0), Y: ev.At(1, 0), Z: ev.At(2, 0)})
	return Plane{N: n, D: -r3.Dot(n, c)}, nil
}

// Distance returns the signed distance from p to the plane.
func (pl Plane) Distance(p r3.Vec) float64 {
	return r3.Dot(pl.N, p) + pl.D
}

// Project returns the orthogonal projection of p onto the plane.
func (pl Plane) Project(p r3.Vec) r3.Vec {
	return r3.Sub(p, r3.Scale(pl.Distance(p), pl.N))
}
