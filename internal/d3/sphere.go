package d3

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// DegenerateRadius is the radius reported by FitSphere when the four
// points do not define a sphere.
const DegenerateRadius = 1e22

// Sphere is the set of points at distance R from Center.
type Sphere struct {
	Center r3.Vec
	R      float64
}

// Degenerate returns true if the sphere is the FitSphere sentinel.
func (s Sphere) Degenerate() bool { return s.R >= DegenerateRadius }

// FitSphere returns the sphere through four points. Coplanar or
// coincident points yield a sphere with radius DegenerateRadius and a zero
// center instead of an error.
func FitSphere(p1, p2, p3, p4 r3.Vec) Sphere {
	// The center is equidistant to all points:
	//  2(pi-p1)·c = |pi|^2 - |p1|^2, i = 2,3,4
	var a [9]float64
	var b [3]float64
	n1 := r3.Norm2(p1)
	for i, p := range [3]r3.Vec{p2, p3, p4} {
		d := r3.Sub(p, p1)
		a[3*i], a[3*i+1], a[3*i+2] = 2*d.X, 2*d.Y, 2*d.Z
		b[i] = r3.Norm2(p) - n1
	}
	var x mat.VecDense
	err := x.SolveVec(mat.NewDense(3, 3, a[:]), mat.NewVecDense(3, b[:]))
	if err != nil {
		return Sphere{R: DegenerateRadius}
	}
	c := r3.Vec{X: x.AtVec(0), Y: x.AtVec(1), Z: x.AtVec(2)}
	return Sphere{Center: c, R: r3.Norm(r3.Sub(p1, c))}
}

// FitSphereLSQ returns the algebraic least squares sphere of pts, solving
//  2c·p + k = |p|^2,  R^2 = k + |c|^2
// in the least squares sense.
func FitSphereLSQ(pts []r3.Vec) (Sphere, error) {
	if len(pts) < 4 {
		return Sphere{}, ErrDegenerate
	}
	n := len(pts)
	a := mat.NewDense(n, 4, nil)
	b := mat.NewDense(n, 1, nil)
	for i, p := range pts {
		a.Set(i, 0, 2*p.X)
		a.Set(i, 1, 2*p.Y)
		a.Set(i, 2, 2*p.Z)
		a.Set(i, 3, 1)
		b.Set(i, 0, r3.Norm2(p))
	}
	var x mat.Dense
	if err := x.Solve(a, b); err != nil {
		return Sphere{}, ErrDegenerate
	}
	c := r3.Vec{X: x.At(0, 0), Y: x.At(1, 0), Z: x.At(2, 0)}
	r2 := x.At(3, 0) + r3.Norm2(c)
	if r2 <= 0 || math.IsNaN(r2) || math.IsInf(r2, 0) {
		return Sphere{}, ErrDegenerate
	}
	return Sphere{Center: c, R: math.Sqrt(r2)}, nil
}

// Distance returns the signed distance from p to the sphere surface,
// negative inside.
func (s Sphere) Distance(p r3.Vec) float64 {
	return r3.Norm(r3.Sub(p, s.Center)) - s.R
}

// Project returns the point of the sphere closest to p. The center has
// no closest point and returns ErrDegenerate.
func (s Sphere) Project(p r3.Vec) (r3.Vec, error) {
	d := r3.Sub(p, s.Center)
	l := r3.Norm(d)
	if l == 0 {
		return r3.Vec{}, ErrDegenerate
	}
	return r3.Add(s.Center, r3.Scale(s.R/l, d)), nil
}
