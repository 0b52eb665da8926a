package surfmesh

import (
	"errors"
	"fmt"

	"github.com/soypat/surfmesh/internal/d3"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrDegenerate is returned when a numeric construction required by an
	// operation has no solution, such as projecting a sphere's center.
	ErrDegenerate = d3.ErrDegenerate
	// ErrNonManifold is returned when a triangle would give an edge a third face.
	ErrNonManifold = errors.New("edge already has two triangles")
	// ErrDuplicateTriangle is returned when a triangle with the same vertices exists.
	ErrDuplicateTriangle = errors.New("triangle already exists")
	// ErrInvalidHandle is returned when a handle does not refer to a live entity.
	ErrInvalidHandle = errors.New("invalid or deleted handle")
	// ErrVertexInUse is returned when deleting a vertex that still has edges.
	ErrVertexInUse = errors.New("vertex has incident edges")
)

// Mesh is a triangulated surface. It owns every vertex, edge, triangle and
// classification tag it references. The zero value is not usable, call NewMesh.
type Mesh struct {
	// LC is the characteristic length of the model, the diagonal of its
	// bounding box. Geometric tolerances are scaled by it.
	LC float64
	// Bounds contains every vertex added to the mesh.
	Bounds r3.Box
	// FitTolerance is the largest distance, relative to LC, between a patch
	// vertex and the analytic surface fitted by Classify. Zero selects
	// DefaultFitTolerance.
	FitTolerance float64

	verts arena[Vertex]
	edges arena[Edge]
	tris  arena[Triangle]

	byID      map[int]VertexRef
	edgeByIDs map[[2]int]EdgeRef
	geoms     map[GeomKey]*GeomEntity
	geomOrder []*GeomEntity
	maxID     int

	log *zap.Logger
}

// NewMesh returns an empty mesh.
func NewMesh() *Mesh {
	return &Mesh{
		Bounds:    r3.Box(d3.EmptyBox()),
		byID:      make(map[int]VertexRef),
		edgeByIDs: make(map[[2]int]EdgeRef),
		geoms:     make(map[GeomKey]*GeomEntity),
		log:       zap.NewNop(),
	}
}

// SetLogger sets the logger used for ingestion, classification and adaptation
// summaries. A nil logger disables logging.
func (m *Mesh) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	m.log = l
}

// charLength returns LC or, for meshes built without ingestion, the
// diagonal of the current bounds.
func (m *Mesh) charLength() float64 {
	if m.LC > 0 {
		return m.LC
	}
	return d3.Box(m.Bounds).Diagonal()
}

// MaxVertexID returns the largest vertex ID ever added.
func (m *Mesh) MaxVertexID() int { return m.maxID }

// NumVertices returns the number of live vertices.
func (m *Mesh) NumVertices() int { return m.verts.live }

// NumEdges returns the number of live edges.
func (m *Mesh) NumEdges() int { return m.edges.live }

// NumTriangles returns the number of live triangles.
func (m *Mesh) NumTriangles() int { return m.tris.live }

// Vertex returns the vertex referred to by r or nil if it is not live.
func (m *Mesh) Vertex(r VertexRef) *Vertex { return m.verts.get(handle(r)) }

// Edge returns the edge referred to by r or nil if it has been deleted.
func (m *Mesh) Edge(r EdgeRef) *Edge { return m.edges.get(handle(r)) }

// Triangle returns the triangle referred to by r or nil if it has been deleted.
func (m *Mesh) Triangle(r TriangleRef) *Triangle { return m.tris.get(handle(r)) }

// FindVertex returns the vertex with the given ID.
func (m *Mesh) FindVertex(id int) (VertexRef, bool) {
	r, ok := m.byID[id]
	return r, ok
}

// FindEdge returns the edge between the vertices with IDs a and b.
func (m *Mesh) FindEdge(a, b int) (EdgeRef, bool) {
	r, ok := m.edgeByIDs[edgeKey(a, b)]
	return r, ok
}

func edgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// Vertices returns the handles of all live vertices in slot order.
func (m *Mesh) Vertices() []VertexRef {
	refs := make([]VertexRef, 0, m.verts.live)
	for i := 0; i < m.verts.cap(); i++ {
		if h, v := m.verts.at(i); v != nil {
			refs = append(refs, VertexRef(h))
		}
	}
	return refs
}

// Edges returns the handles of all live edges in slot order.
func (m *Mesh) Edges() []EdgeRef {
	refs := make([]EdgeRef, 0, m.edges.live)
	for i := 0; i < m.edges.cap(); i++ {
		if h, e := m.edges.at(i); e != nil {
			refs = append(refs, EdgeRef(h))
		}
	}
	return refs
}

// Triangles returns the handles of all live triangles in slot order.
func (m *Mesh) Triangles() []TriangleRef {
	refs := make([]TriangleRef, 0, m.tris.live)
	for i := 0; i < m.tris.cap(); i++ {
		if h, t := m.tris.at(i); t != nil {
			refs = append(refs, TriangleRef(h))
		}
	}
	return refs
}

// AddGeom returns the tag (id, degree), creating it if needed.
func (m *Mesh) AddGeom(id, degree int) *GeomEntity {
	key := GeomKey{ID: id, Degree: degree}
	if g, ok := m.geoms[key]; ok {
		return g
	}
	g := &GeomEntity{ID: id, Degree: degree}
	m.geoms[key] = g
	m.geomOrder = append(m.geomOrder, g)
	return g
}

// Geom returns the tag (id, degree) or nil if it does not exist.
func (m *Mesh) Geom(id, degree int) *GeomEntity {
	return m.geoms[GeomKey{ID: id, Degree: degree}]
}

// Geoms returns all tags in creation order.
func (m *Mesh) Geoms() []*GeomEntity {
	return append([]*GeomEntity(nil), m.geomOrder...)
}

// AddPoint adds a vertex. If a vertex with the same ID exists it is
// returned unchanged.
func (m *Mesh) AddPoint(id int, x, y, z float64) VertexRef {
	if r, ok := m.byID[id]; ok {
		return r
	}
	v := &Vertex{ID: id, Pos: r3.Vec{X: x, Y: y, Z: z}}
	v.ref = VertexRef(m.verts.alloc(v))
	m.byID[id] = v.ref
	if id > m.maxID {
		m.maxID = id
	}
	m.Bounds = r3.Box(d3.Box(m.Bounds).Include(v.Pos))
	return v.ref
}

// AddEdge returns the edge between a and b, creating it if needed.
func (m *Mesh) AddEdge(a, b VertexRef) (EdgeRef, error) {
	va, vb := m.Vertex(a), m.Vertex(b)
	if va == nil || vb == nil || a == b {
		return EdgeRef{}, ErrInvalidHandle
	}
	key := edgeKey(va.ID, vb.ID)
	if r, ok := m.edgeByIDs[key]; ok {
		return r, nil
	}
	if va.ID > vb.ID {
		a, b = b, a
		va, vb = vb, va
	}
	e := &Edge{P1: a, P2: b}
	e.ref = EdgeRef(m.edges.alloc(e))
	m.edgeByIDs[key] = e.ref
	va.edges = append(va.edges, e.ref)
	vb.edges = append(vb.edges, e.ref)
	return e.ref, nil
}

// AddTriangle adds the counter clockwise triangle abc, creating missing edges.
// It fails without modifying the mesh if the vertices are not distinct
// live vertices, if an edge already has two triangles or if the triangle
// already exists.
func (m *Mesh) AddTriangle(a, b, c VertexRef) (TriangleRef, error) {
	vs := [3]*Vertex{m.Vertex(a), m.Vertex(b), m.Vertex(c)}
	if vs[0] == nil || vs[1] == nil || vs[2] == nil || a == b || b == c || c == a {
		return TriangleRef{}, ErrInvalidHandle
	}
	for i := range vs {
		r, ok := m.FindEdge(vs[i].ID, vs[(i+1)%3].ID)
		if !ok {
			continue
		}
		e := m.Edge(r)
		if e.nf == 2 {
			return TriangleRef{}, fmt.Errorf("edge %d-%d: %w", vs[i].ID, vs[(i+1)%3].ID, ErrNonManifold)
		}
		if i == 0 {
			for j := 0; j < e.nf; j++ {
				tv := m.TriangleVertices(e.faces[j])
				if tv[0] == c || tv[1] == c || tv[2] == c {
					return TriangleRef{}, ErrDuplicateTriangle
				}
			}
		}
	}
	var edges [3]EdgeRef
	for i := range vs {
		r, err := m.AddEdge(vs[i].ref, vs[(i+1)%3].ref)
		if err != nil {
			panic("unreachable: " + err.Error())
		}
		edges[i] = r
	}
	t := &Triangle{E: edges}
	t.ref = TriangleRef(m.tris.alloc(t))
	for _, r := range edges {
		m.Edge(r).addFace(t.ref)
	}
	return t.ref, nil
}

// DelTriangle detaches t from its edges and marks it deleted.
func (m *Mesh) DelTriangle(r TriangleRef) {
	t := m.Triangle(r)
	if t == nil {
		return
	}
	for _, er := range t.E {
		if e := m.Edge(er); e != nil {
			e.removeFace(r)
		}
	}
	t.deleted = true
	m.tris.kill(handle(r))
}

// DelEdge deletes the triangles still attached to e, detaches e from its
// vertices and marks it deleted. The slot is reclaimed by Cleanup.
func (m *Mesh) DelEdge(r EdgeRef) {
	e := m.Edge(r)
	if e == nil {
		return
	}
	for e.nf > 0 {
		m.DelTriangle(e.faces[0])
	}
	v1, v2 := m.Vertex(e.P1), m.Vertex(e.P2)
	v1.removeEdge(r)
	v2.removeEdge(r)
	delete(m.edgeByIDs, edgeKey(v1.ID, v2.ID))
	e.deleted = true
	m.edges.kill(handle(r))
}

// DelPoint removes a vertex with no incident edges.
func (m *Mesh) DelPoint(r VertexRef) error {
	v := m.Vertex(r)
	if v == nil {
		return ErrInvalidHandle
	}
	if len(v.edges) > 0 {
		return ErrVertexInUse
	}
	delete(m.byID, v.ID)
	m.verts.kill(handle(r))
	m.verts.release()
	return nil
}

// Cleanup reclaims the storage of deleted edges and triangles. Handles to
// them stop resolving even if their slot is reused.
func (m *Mesh) Cleanup() {
	ne := m.edges.release()
	nt := m.tris.release()
	if ne+nt > 0 {
		m.log.Debug("cleanup", zap.Int("edges", ne), zap.Int("triangles", nt))
	}
}

// TriangleVertices returns the vertices of t in counter clockwise order.
func (m *Mesh) TriangleVertices(r TriangleRef) [3]VertexRef {
	t := m.Triangle(r)
	if t == nil {
		return [3]VertexRef{}
	}
	e0, e1, e2 := m.Edge(t.E[0]), m.Edge(t.E[1]), m.Edge(t.E[2])
	return [3]VertexRef{commonVertex(e2, e0), commonVertex(e0, e1), commonVertex(e1, e2)}
}

func commonVertex(a, b *Edge) VertexRef {
	if a.P1 == b.P1 || a.P1 == b.P2 {
		return a.P1
	}
	return a.P2
}

// TrianglePositions returns the vertex positions of t.
func (m *Mesh) TrianglePositions(r TriangleRef) [3]r3.Vec {
	vs := m.TriangleVertices(r)
	return [3]r3.Vec{m.Vertex(vs[0]).Pos, m.Vertex(vs[1]).Pos, m.Vertex(vs[2]).Pos}
}

// TriangleNormal returns the unit normal of t.
func (m *Mesh) TriangleNormal(r TriangleRef) r3.Vec {
	p := m.TrianglePositions(r)
	return d3.TriangleNormal(p[0], p[1], p[2])
}

// TriangleArea returns the area of t.
func (m *Mesh) TriangleArea(r TriangleRef) float64 {
	p := m.TrianglePositions(r)
	return d3.TriangleArea(p[0], p[1], p[2])
}

// EdgeLength returns the length of e.
func (m *Mesh) EdgeLength(r EdgeRef) float64 {
	e := m.Edge(r)
	return d3.Dist(m.Vertex(e.P1).Pos, m.Vertex(e.P2).Pos)
}

// OtherTriangle returns the triangle across e from t.
func (m *Mesh) OtherTriangle(e EdgeRef, t TriangleRef) (TriangleRef, bool) {
	ed := m.Edge(e)
	if ed == nil {
		return TriangleRef{}, false
	}
	return ed.otherFace(t)
}

// oppositeVertex returns the vertex of t not on e.
func (m *Mesh) oppositeVertex(t TriangleRef, e *Edge) VertexRef {
	for _, v := range m.TriangleVertices(t) {
		if !e.Has(v) {
			return v
		}
	}
	return VertexRef{}
}

// OppositeVertices returns, for each adjacent triangle of e, the vertex not on e.
func (m *Mesh) OppositeVertices(r EdgeRef) []VertexRef {
	e := m.Edge(r)
	if e == nil {
		return nil
	}
	ops := make([]VertexRef, e.nf)
	for i := 0; i < e.nf; i++ {
		ops[i] = m.oppositeVertex(e.faces[i], e)
	}
	return ops
}

// VertexTriangles returns the distinct triangles incident to v in the
// order they are found walking its edges.
func (m *Mesh) VertexTriangles(r VertexRef) []TriangleRef {
	v := m.Vertex(r)
	if v == nil {
		return nil
	}
	var tris []TriangleRef
	for _, er := range v.edges {
		e := m.Edge(er)
		for i := 0; i < e.nf; i++ {
			if !containsTriangle(tris, e.faces[i]) {
				tris = append(tris, e.faces[i])
			}
		}
	}
	return tris
}

func containsTriangle(tris []TriangleRef, t TriangleRef) bool {
	for _, u := range tris {
		if u == t {
			return true
		}
	}
	return false
}

// VertexNeighbors returns the vertices sharing an edge with v.
func (m *Mesh) VertexNeighbors(r VertexRef) []VertexRef {
	v := m.Vertex(r)
	if v == nil {
		return nil
	}
	nb := make([]VertexRef, len(v.edges))
	for i, er := range v.edges {
		nb[i] = m.Edge(er).Other(r)
	}
	return nb
}

// Clone returns a deep copy of m. Handles, vertex IDs and tag associations
// are preserved so a handle of m addresses the same entity in the copy.
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		LC:           m.LC,
		Bounds:       m.Bounds,
		FitTolerance: m.FitTolerance,
		byID:         make(map[int]VertexRef, len(m.byID)),
		edgeByIDs:    make(map[[2]int]EdgeRef, len(m.edgeByIDs)),
		geoms:        make(map[GeomKey]*GeomEntity, len(m.geoms)),
		maxID:        m.maxID,
		log:          m.log,
	}
	for _, g := range m.geomOrder {
		cg := *g
		c.geoms[g.Key()] = &cg
		c.geomOrder = append(c.geomOrder, &cg)
	}
	tag := func(g *GeomEntity) *GeomEntity {
		if g == nil {
			return nil
		}
		return c.geoms[g.Key()]
	}
	c.verts = m.verts.clone(func(v *Vertex) *Vertex {
		cv := *v
		cv.Tag = tag(v.Tag)
		cv.edges = append([]EdgeRef(nil), v.edges...)
		return &cv
	})
	c.edges = m.edges.clone(func(e *Edge) *Edge {
		ce := *e
		ce.Tag = tag(e.Tag)
		return &ce
	})
	c.tris = m.tris.clone(func(t *Triangle) *Triangle {
		ct := *t
		ct.Tag = tag(t.Tag)
		return &ct
	})
	for k, v := range m.byID {
		c.byID[k] = v
	}
	for k, v := range m.edgeByIDs {
		c.edgeByIDs[k] = v
	}
	return c
}
