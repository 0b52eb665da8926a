package surfmesh

import (
	"math"

	"github.com/soypat/surfmesh/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// collapseAreaTolerance is the relative change of the area of the ring of
// triangles around the removed vertex beyond which a collapse is refused.
const collapseAreaTolerance = 0.01

// orient returns the vertices of t as the counter clockwise sequence a, b, o
// where a and b are the endpoints of e and o the opposite vertex.
func (m *Mesh) orient(t TriangleRef, e *Edge) (a, b, o VertexRef) {
	vs := m.TriangleVertices(t)
	for i, v := range vs {
		if !e.Has(v) {
			return vs[(i+1)%3], vs[(i+2)%3], v
		}
	}
	panic("bug: triangle does not contain edge")
}

// mustTriangle adds a triangle during an operator whose preconditions
// guarantee success.
func (m *Mesh) mustTriangle(a, b, c VertexRef, g *GeomEntity) TriangleRef {
	tr, err := m.AddTriangle(a, b, c)
	if err != nil {
		panic("bug: operator produced invalid triangle: " + err.Error())
	}
	m.Triangle(tr).Tag = g
	return tr
}

func (m *Mesh) setEdgeTag(a, b VertexRef, g *GeomEntity) {
	if r, ok := m.FindEdge(m.Vertex(a).ID, m.Vertex(b).ID); ok {
		m.Edge(r).Tag = g
	}
}

// hasTriangle reports whether a triangle with vertices a, b and c exists.
func (m *Mesh) hasTriangle(a, b, c VertexRef) bool {
	r, ok := m.FindEdge(m.Vertex(a).ID, m.Vertex(b).ID)
	if !ok {
		return false
	}
	e := m.Edge(r)
	for i := 0; i < e.nf; i++ {
		if m.oppositeVertex(e.faces[i], e) == c {
			return true
		}
	}
	return false
}

// SplitEdge inserts a vertex at P1 + coord*(P2-P1) on e and replaces e's two
// triangles with four. The new vertex gets the next free ID and e's tag;
// sub triangles keep the tag of the triangle they subdivide. It fails
// unless e has exactly two triangles and 0 < coord < 1.
func (m *Mesh) SplitEdge(er EdgeRef, coord float64) bool {
	e := m.Edge(er)
	if e == nil || e.nf != 2 || !(coord > 0 && coord < 1) {
		return false
	}
	t1, t2 := e.faces[0], e.faces[1]
	a1, b1, o1 := m.orient(t1, e)
	a2, b2, o2 := m.orient(t2, e)
	g1, g2 := m.Triangle(t1).Tag, m.Triangle(t2).Tag
	tag := e.Tag
	p1, p2 := e.P1, e.P2
	pos := d3.Lerp(m.Vertex(p1).Pos, m.Vertex(p2).Pos, coord)

	mid := m.AddPoint(m.maxID+1, pos.X, pos.Y, pos.Z)
	m.Vertex(mid).Tag = tag
	m.DelEdge(er) // also deletes t1 and t2.

	m.mustTriangle(a1, mid, o1, g1)
	m.mustTriangle(mid, b1, o1, g1)
	m.mustTriangle(a2, mid, o2, g2)
	m.mustTriangle(mid, b2, o2, g2)
	m.setEdgeTag(p1, mid, tag)
	m.setEdgeTag(mid, p2, tag)
	m.setEdgeTag(mid, o1, g1)
	m.setEdgeTag(mid, o2, g2)
	return true
}

// Swappable reports whether e can be swapped: it has two triangles of the
// same patch and is not a feature edge.
func (m *Mesh) Swappable(er EdgeRef) bool {
	e := m.Edge(er)
	if e == nil || e.nf != 2 {
		return false
	}
	if e.Tag != nil && e.Tag.Degree != DegreeSurface {
		return false
	}
	return m.Triangle(e.faces[0]).Tag == m.Triangle(e.faces[1]).Tag
}

// SwapEdge replaces e by the other diagonal of the quadrilateral formed by
// its two triangles. It fails if e is a feature edge, does not have two
// triangles or if the other diagonal is already an edge.
func (m *Mesh) SwapEdge(er EdgeRef) bool {
	if !m.Swappable(er) {
		return false
	}
	e := m.Edge(er)
	t1, t2 := e.faces[0], e.faces[1]
	a, b, o1 := m.orient(t1, e)
	o2 := m.oppositeVertex(t2, e)
	if o1 == o2 {
		return false
	}
	if _, exists := m.FindEdge(m.Vertex(o1).ID, m.Vertex(o2).ID); exists {
		return false
	}
	g := m.Triangle(t1).Tag
	tag := e.Tag
	m.DelEdge(er)
	m.mustTriangle(a, o2, o1, g)
	m.mustTriangle(o2, b, o1, g)
	m.setEdgeTag(o1, o2, tag)
	return true
}

// CollapseEdge merges the endpoint of e that is not keep into keep,
// removing that vertex, e and e's two triangles. eps is the largest
// rotation, in radians, allowed for the normal of any surviving triangle.
// The collapse is refused if the removed vertex is a model vertex or a curve
// vertex not classified like keep, if the link condition does not hold, if a
// triangle would degenerate, flip beyond eps or duplicate an existing one,
// or if the area of the surrounding ring changes by more than 1%.
func (m *Mesh) CollapseEdge(er EdgeRef, keep VertexRef, eps float64) bool {
	e := m.Edge(er)
	if e == nil || e.nf != 2 || !e.Has(keep) {
		return false
	}
	rem := e.Other(keep)
	kv, rv := m.Vertex(keep), m.Vertex(rem)
	if rv.Tag != nil && rv.Tag.Degree < DegreeSurface && rv.Tag != kv.Tag {
		return false
	}
	if rv.Tag != nil && rv.Tag.Degree == DegreeCurve && e.Tag != rv.Tag {
		return false // curve vertices only slide along their curve.
	}
	ops := m.OppositeVertices(er)
	o1, o2 := ops[0], ops[1]
	for _, rer := range rv.edges {
		if m.Edge(rer).nf == 0 {
			return false
		}
	}
	// Link condition: keep and rem may only share the two opposite vertices.
	kn := make(map[VertexRef]bool, len(kv.edges))
	for _, n := range m.VertexNeighbors(keep) {
		kn[n] = true
	}
	for _, n := range m.VertexNeighbors(rem) {
		if kn[n] && n != o1 && n != o2 {
			return false
		}
	}

	type rebuild struct {
		v   [3]VertexRef
		tag *GeomEntity
	}
	var (
		ring    = m.VertexTriangles(rem)
		rebuilt = make([]rebuild, 0, len(ring))
		areaOld float64
		areaNew float64
	)
	for _, tr := range ring {
		old := m.TrianglePositions(tr)
		areaOld += d3.TriangleArea(old[0], old[1], old[2])
		if tr == e.faces[0] || tr == e.faces[1] {
			continue
		}
		vs := m.TriangleVertices(tr)
		nw := old
		var others []VertexRef
		for i := range vs {
			if vs[i] == rem {
				vs[i] = keep
				nw[i] = kv.Pos
			} else {
				others = append(others, vs[i])
			}
		}
		if m.hasTriangle(keep, others[0], others[1]) {
			return false
		}
		a := d3.TriangleArea(nw[0], nw[1], nw[2])
		if a == 0 {
			return false
		}
		nOld := d3.TriangleNormal(old[0], old[1], old[2])
		nNew := d3.TriangleNormal(nw[0], nw[1], nw[2])
		if d3.Angle(nOld, nNew) > eps {
			return false
		}
		areaNew += a
		rebuilt = append(rebuilt, rebuild{v: vs, tag: m.Triangle(tr).Tag})
	}
	if math.Abs(areaNew-areaOld) > collapseAreaTolerance*areaOld {
		return false
	}

	type edgeTag struct {
		other VertexRef
		tag   *GeomEntity
	}
	var tags []edgeTag
	for _, rer := range rv.edges {
		x := m.Edge(rer).Other(rem)
		if x != keep && x != o1 && x != o2 {
			tags = append(tags, edgeTag{other: x, tag: m.Edge(rer).Tag})
		}
	}
	for len(rv.edges) > 0 {
		m.DelEdge(rv.edges[0])
	}
	if err := m.DelPoint(rem); err != nil {
		panic("bug: collapsed vertex still referenced: " + err.Error())
	}
	for _, rb := range rebuilt {
		m.mustTriangle(rb.v[0], rb.v[1], rb.v[2], rb.tag)
	}
	for _, et := range tags {
		m.setEdgeTag(keep, et.other, et.tag)
	}
	return true
}

// edgeSwapGain evaluates the quadrilateral of a swappable edge. It returns
// whether the diagonal areas agree, the normal dot products before and
// after a swap, and the minimum qualities before and after.
func (m *Mesh) edgeSwapGain(er EdgeRef) (coplanar bool, dotOld, dotNew, qOld, qNew float64) {
	e := m.Edge(er)
	a, b, o1 := m.orient(e.faces[0], e)
	o2 := m.oppositeVertex(e.faces[1], e)
	pa, pb := m.Vertex(a).Pos, m.Vertex(b).Pos
	p1, p2 := m.Vertex(o1).Pos, m.Vertex(o2).Pos
	a1 := d3.TriangleArea(pa, pb, p1) + d3.TriangleArea(pb, pa, p2)
	a2 := d3.TriangleArea(pa, p2, p1) + d3.TriangleArea(p2, pb, p1)
	coplanar = math.Abs(a1-a2) < 0.01*(a1+a2)
	dotOld = r3.Dot(d3.TriangleNormal(pa, pb, p1), d3.TriangleNormal(pb, pa, p2))
	dotNew = r3.Dot(d3.TriangleNormal(pa, p2, p1), d3.TriangleNormal(p2, pb, p1))
	qOld = math.Min(d3.TriangleQuality(pa, pb, p1), d3.TriangleQuality(pb, pa, p2))
	qNew = math.Min(d3.TriangleQuality(pa, p2, p1), d3.TriangleQuality(p2, pb, p1))
	return coplanar, dotOld, dotNew, qOld, qNew
}
