package surfmesh

import (
	"math"

	"github.com/soypat/surfmesh/internal/d3"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultFitTolerance is the distance, relative to the characteristic
// length, within which every vertex of a patch must lie for the patch to be
// recognized as a plane or a sphere.
const DefaultFitTolerance = 1e-6

// ClassifyResult summarizes the tags assigned by Classify.
type ClassifyResult struct {
	Surfaces int // degree 2 tags in use
	Curves   int // degree 1 tags created
	Corners  int // degree 0 tags assigned
	Planes   int // surfaces fitted by a plane
	Spheres  int // surfaces fitted by a sphere
}

// boundaryKey marks the second patch of a curve bounding a single patch.
const boundaryKey = -1

// Classify recovers geometric features from connectivity and geometry.
// Edges with one triangle, between triangles of different patches or whose
// dihedral angle exceeds angle (radians) are feature edges. Triangles not
// yet tagged are flood filled into surface patches across non feature edges,
// feature edges get one curve tag per pair of patches they separate and
// vertices meeting two or more curves, or at the apex of a sharp fan, become
// model vertices. Finally patches are tested for planarity and sphericity.
//
// Tag IDs depend on the enumeration order of the mesh and should not be
// relied upon.
func (m *Mesh) Classify(angle float64) ClassifyResult {
	feature := m.markFeatureEdges(angle)
	m.floodFillPatches(feature)
	var res ClassifyResult
	res.Curves = m.tagCurves(feature)
	res.Corners = m.tagVertices(angle)
	surfaces := make(map[*GeomEntity]bool)
	for _, tr := range m.Triangles() {
		surfaces[m.Triangle(tr).Tag] = true
	}
	res.Surfaces = len(surfaces)
	res.Planes, res.Spheres = m.fitSurfaces()
	m.log.Debug("classified mesh",
		zap.Float64("angle", angle),
		zap.Int("surfaces", res.Surfaces),
		zap.Int("curves", res.Curves),
		zap.Int("corners", res.Corners),
		zap.Int("planes", res.Planes),
		zap.Int("spheres", res.Spheres),
	)
	return res
}

func (m *Mesh) markFeatureEdges(angle float64) map[EdgeRef]bool {
	feature := make(map[EdgeRef]bool)
	for _, er := range m.Edges() {
		e := m.Edge(er)
		switch e.nf {
		case 1:
			feature[er] = true
		case 2:
			t1, t2 := m.Triangle(e.faces[0]), m.Triangle(e.faces[1])
			if t1.Tag != nil && t2.Tag != nil && t1.Tag != t2.Tag {
				feature[er] = true
				continue
			}
			n1, n2 := m.TriangleNormal(t1.ref), m.TriangleNormal(t2.ref)
			if d3.Angle(n1, n2) > angle {
				feature[er] = true
			}
		}
	}
	return feature
}

func (m *Mesh) nextGeomID(degree int) int {
	id := 0
	for _, g := range m.geomOrder {
		if g.Degree == degree && g.ID > id {
			id = g.ID
		}
	}
	return id + 1
}

func (m *Mesh) floodFillPatches(feature map[EdgeRef]bool) {
	next := m.nextGeomID(DegreeSurface)
	var stack []TriangleRef
	for _, start := range m.Triangles() {
		if m.Triangle(start).Tag != nil {
			continue
		}
		g := m.AddGeom(next, DegreeSurface)
		next++
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			tr := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			t := m.Triangle(tr)
			if t.Tag != nil {
				continue
			}
			t.Tag = g
			for _, er := range t.E {
				if feature[er] {
					continue
				}
				if other, ok := m.Edge(er).otherFace(tr); ok && m.Triangle(other).Tag == nil {
					stack = append(stack, other)
				}
			}
		}
	}
}

// tagCurves assigns curve tags to feature edges and surface tags to the rest.
// It returns the number of curve tags created.
func (m *Mesh) tagCurves(feature map[EdgeRef]bool) int {
	next := m.nextGeomID(DegreeCurve)
	curves := make(map[[2]int]*GeomEntity)
	for _, er := range m.Edges() {
		e := m.Edge(er)
		e.Tag = nil
		var key [2]int
		switch e.nf {
		case 0:
			continue
		case 1:
			key = [2]int{m.Triangle(e.faces[0]).Tag.ID, boundaryKey}
		case 2:
			g1, g2 := m.Triangle(e.faces[0]).Tag, m.Triangle(e.faces[1]).Tag
			if g1 == g2 && !feature[er] {
				e.Tag = g1
				continue
			}
			key = edgeKey(g1.ID, g2.ID)
		}
		g, ok := curves[key]
		if !ok {
			g = m.AddGeom(next, DegreeCurve)
			next++
			curves[key] = g
		}
		e.Tag = g
	}
	return len(curves)
}

// tagVertices classifies vertices and returns the number of model vertices.
func (m *Mesh) tagVertices(angle float64) int {
	corners := 0
	var curves []*GeomEntity
	for _, vr := range m.Vertices() {
		v := m.Vertex(vr)
		curves = curves[:0]
		for _, er := range v.edges {
			g := m.Edge(er).Tag
			if g != nil && g.Degree == DegreeCurve && !containsGeom(curves, g) {
				curves = append(curves, g)
			}
		}
		switch {
		case len(curves) >= 2:
			v.Tag = m.AddGeom(v.ID, DegreeVertex)
			corners++
		case len(curves) == 1:
			v.Tag = curves[0]
		default:
			tris := m.VertexTriangles(vr)
			if len(tris) == 0 {
				v.Tag = nil
			} else if m.sharpFan(tris, angle) {
				v.Tag = m.AddGeom(v.ID, DegreeVertex)
				corners++
			} else {
				v.Tag = m.Triangle(tris[0]).Tag
			}
		}
	}
	return corners
}

func containsGeom(gs []*GeomEntity, g *GeomEntity) bool {
	for _, h := range gs {
		if h == g {
			return true
		}
	}
	return false
}

// sharpFan reports whether any triangle normal of the fan deviates from the
// average fan normal by more than angle.
func (m *Mesh) sharpFan(tris []TriangleRef, angle float64) bool {
	normals := make([]r3.Vec, len(tris))
	var avg r3.Vec
	for i, tr := range tris {
		normals[i] = m.TriangleNormal(tr)
		avg = r3.Add(avg, normals[i])
	}
	if r3.Norm(avg) == 0 {
		return true
	}
	for _, n := range normals {
		if d3.Angle(n, avg) > angle {
			return true
		}
	}
	return false
}

// fitSurfaces attaches analytic planes or spheres to the surface tags whose
// vertices all lie on one.
func (m *Mesh) fitSurfaces() (planes, spheres int) {
	type patch struct {
		seen map[VertexRef]bool
		pts  []r3.Vec
	}
	rel := m.FitTolerance
	if rel <= 0 {
		rel = DefaultFitTolerance
	}
	tol := rel * m.charLength()
	patches := make(map[*GeomEntity]*patch)
	for _, tr := range m.Triangles() {
		g := m.Triangle(tr).Tag
		if g == nil {
			continue
		}
		p := patches[g]
		if p == nil {
			p = &patch{seen: make(map[VertexRef]bool)}
			patches[g] = p
		}
		for _, vr := range m.TriangleVertices(tr) {
			if !p.seen[vr] {
				p.seen[vr] = true
				p.pts = append(p.pts, m.Vertex(vr).Pos)
			}
		}
	}
	for _, g := range m.geomOrder {
		if g.Degree != DegreeSurface {
			continue
		}
		g.Surface = nil
		p := patches[g]
		if p == nil || len(p.pts) < 4 {
			continue
		}
		if pl, err := d3.FitPlaneLSQ(p.pts); err == nil && within(p.pts, tol, pl.Distance) {
			g.Surface = Plane(pl)
			planes++
			continue
		}
		if s, err := d3.FitSphereLSQ(p.pts); err == nil && within(p.pts, tol, s.Distance) {
			g.Surface = Sphere(s)
			spheres++
		}
	}
	return planes, spheres
}

func within(pts []r3.Vec, tol float64, dist func(r3.Vec) float64) bool {
	for _, p := range pts {
		if math.Abs(dist(p)) > tol {
			return false
		}
	}
	return true
}
