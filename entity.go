package surfmesh

import (
	"github.com/soypat/surfmesh/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// VertexRef is a handle to a mesh vertex. The zero value refers to no vertex.
type VertexRef handle

// EdgeRef is a handle to a mesh edge. The zero value refers to no edge.
type EdgeRef handle

// TriangleRef is a handle to a mesh triangle. The zero value refers to no triangle.
type TriangleRef handle

// Valid reports whether r was ever issued. It does not report liveness,
// use Mesh.Vertex for that.
func (r VertexRef) Valid() bool { return r.gen != 0 }

// Valid reports whether r was ever issued.
func (r EdgeRef) Valid() bool { return r.gen != 0 }

// Valid reports whether r was ever issued.
func (r TriangleRef) Valid() bool { return r.gen != 0 }

// Degree of a classification tag. It is the dimension of the model entity.
const (
	DegreeVertex  = 0
	DegreeCurve   = 1
	DegreeSurface = 2
)

// GeomKey identifies a classification tag within a mesh.
type GeomKey struct {
	ID     int
	Degree int
}

// GeomEntity is a classification tag: the model vertex, curve or surface a
// mesh entity lies on. Surface tags may carry a fitted analytic surface.
type GeomEntity struct {
	ID      int
	Degree  int
	Surface Surface
}

// Key returns the lookup key of g.
func (g *GeomEntity) Key() GeomKey { return GeomKey{ID: g.ID, Degree: g.Degree} }

// degree returns the degree of g or DegreeSurface+1 for untagged entities.
func degree(g *GeomEntity) int {
	if g == nil {
		return DegreeSurface + 1
	}
	return g.Degree
}

// Surface is an analytic surface recovered from a patch of triangles.
type Surface interface {
	// Distance returns the signed distance from p to the surface.
	Distance(p r3.Vec) float64
	// Project returns the point of the surface closest to p.
	Project(p r3.Vec) (r3.Vec, error)
}

// Plane is the analytic surface N·x + D = 0.
type Plane d3.Plane

func (pl Plane) Distance(p r3.Vec) float64 { return d3.Plane(pl).Distance(p) }

func (pl Plane) Project(p r3.Vec) (r3.Vec, error) { return d3.Plane(pl).Project(p), nil }

// Sphere is the analytic surface at distance R from Center.
type Sphere d3.Sphere

func (s Sphere) Distance(p r3.Vec) float64 { return d3.Sphere(s).Distance(p) }

func (s Sphere) Project(p r3.Vec) (r3.Vec, error) { return d3.Sphere(s).Project(p) }

// Vertex is a mesh node.
type Vertex struct {
	ID  int
	Pos r3.Vec
	Tag *GeomEntity

	ref   VertexRef
	edges []EdgeRef
}

// Ref returns the handle of v.
func (v *Vertex) Ref() VertexRef { return v.ref }

// Edges returns a copy of the incident edge handles.
func (v *Vertex) Edges() []EdgeRef { return append([]EdgeRef(nil), v.edges...) }

// Degree returns the number of incident edges.
func (v *Vertex) Degree() int { return len(v.edges) }

func (v *Vertex) removeEdge(e EdgeRef) {
	for i, ve := range v.edges {
		if ve == e {
			last := len(v.edges) - 1
			v.edges[i] = v.edges[last]
			v.edges = v.edges[:last]
			return
		}
	}
}

// Edge joins two vertices and is shared by at most two triangles.
type Edge struct {
	// P1 is the endpoint with the lower vertex ID.
	P1, P2 VertexRef
	Tag    *GeomEntity

	ref     EdgeRef
	faces   [2]TriangleRef
	nf      int
	deleted bool
}

// Ref returns the handle of e.
func (e *Edge) Ref() EdgeRef { return e.ref }

// NumFaces returns the number of adjacent triangles, 0, 1 or 2.
func (e *Edge) NumFaces() int { return e.nf }

// Face returns the ith adjacent triangle.
func (e *Edge) Face(i int) TriangleRef {
	if i >= e.nf {
		panic("edge face index out of range")
	}
	return e.faces[i]
}

// Deleted reports whether e was removed from the mesh.
func (e *Edge) Deleted() bool { return e.deleted }

// Other returns the endpoint of e that is not v.
func (e *Edge) Other(v VertexRef) VertexRef {
	if e.P1 == v {
		return e.P2
	}
	return e.P1
}

// Has reports whether v is an endpoint of e.
func (e *Edge) Has(v VertexRef) bool { return e.P1 == v || e.P2 == v }

func (e *Edge) addFace(t TriangleRef) {
	if e.nf == 2 {
		panic("edge with more than two faces")
	}
	e.faces[e.nf] = t
	e.nf++
}

func (e *Edge) removeFace(t TriangleRef) {
	switch {
	case e.nf > 0 && e.faces[0] == t:
		e.faces[0] = e.faces[1]
		e.faces[1] = TriangleRef{}
		e.nf--
	case e.nf > 1 && e.faces[1] == t:
		e.faces[1] = TriangleRef{}
		e.nf--
	}
}

// otherFace returns the triangle across e from t.
func (e *Edge) otherFace(t TriangleRef) (TriangleRef, bool) {
	if e.nf != 2 {
		return TriangleRef{}, false
	}
	if e.faces[0] == t {
		return e.faces[1], true
	}
	return e.faces[0], true
}

// Triangle is a mesh face defined by three edges. Its vertices are the common
// vertices of consecutive edges: vertex i is shared by E[(i+2)%3] and E[i].
type Triangle struct {
	E   [3]EdgeRef
	Tag *GeomEntity

	ref     TriangleRef
	deleted bool
}

// Ref returns the handle of t.
func (t *Triangle) Ref() TriangleRef { return t.ref }

// Deleted reports whether t was removed from the mesh.
func (t *Triangle) Deleted() bool { return t.deleted }
