package d3

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// NormQuality scales TriangleQuality so that an equilateral triangle has quality 1.
const NormQuality = 4 * 1.7320508075688772 // 4*sqrt(3)

// TriangleArea returns the area of the triangle abc.
func TriangleArea(a, b, c r3.Vec) float64 {
	return 0.5 * r3.Norm(r3.Cross(r3.Sub(b, a), r3.Sub(c, a)))
}

// TriangleNormal returns the unit normal of the counter clockwise triangle abc.
// Degenerate triangles return the zero vector.
func TriangleNormal(a, b, c r3.Vec) r3.Vec {
	n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
	l := r3.Norm(n)
	if l == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/l, n)
}

// TriangleQuality returns the area of abc divided by the sum of its squared
// edge lengths. It is maximal (sqrt(3)/12) for equilateral triangles and
// tends to zero as the triangle flattens.
func TriangleQuality(a, b, c r3.Vec) float64 {
	den := r3.Norm2(r3.Sub(b, a)) + r3.Norm2(r3.Sub(c, b)) + r3.Norm2(r3.Sub(a, c))
	if den == 0 {
		return 0
	}
	return TriangleArea(a, b, c) / den
}

// SkewLineDistance returns the minimum distance between the line through p1, p2
// and the line through p3, p4. Parallel lines have no unique common
// perpendicular and return ErrDegenerate.
func SkewLineDistance(p1, p2, p3, p4 r3.Vec) (float64, error) {
	u1 := r3.Sub(p2, p1)
	u2 := r3.Sub(p4, p3)
	x := r3.Cross(u1, u2)
	nx := r3.Norm(x)
	if nx == 0 {
		return 0, ErrDegenerate
	}
	return math.Abs(r3.Dot(x, r3.Sub(p3, p1))) / nx, nil
}

// ClosestOnTriangle returns the point of triangle abc closest to p.
func ClosestOnTriangle(p, a, b, c r3.Vec) r3.Vec {
	// Voronoi region classification, see Ericson's Real-Time Collision Detection 5.1.5.
	ab := r3.Sub(b, a)
	ac := r3.Sub(c, a)
	ap := r3.Sub(p, a)
	d1 := r3.Dot(ab, ap)
	d2 := r3.Dot(ac, ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}
	bp := r3.Sub(p, b)
	d3 := r3.Dot(ab, bp)
	d4 := r3.Dot(ac, bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}
	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		return r3.Add(a, r3.Scale(d1/(d1-d3), ab))
	}
	cp := r3.Sub(p, c)
	d5 := r3.Dot(ab, cp)
	d6 := r3.Dot(ac, cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}
	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		return r3.Add(a, r3.Scale(d2/(d2-d6), ac))
	}
	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		return r3.Add(b, r3.Scale((d4-d3)/((d4-d3)+(d5-d6)), r3.Sub(c, b)))
	}
	denom := 1 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return r3.Add(a, r3.Add(r3.Scale(v, ab), r3.Scale(w, ac)))
}
