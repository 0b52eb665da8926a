package surfmesh

import (
	"math"

	"github.com/soypat/surfmesh/internal/d3"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// projectorCandidates is the number of nearest centroids examined when
// looking for the closest reference triangle.
const projectorCandidates = 8

// Projector finds the closest point on the reference triangles of a patch.
// It is built from a snapshot of the mesh taken before adaptation so
// vertices can be pulled back onto the original discrete surface.
type Projector struct {
	patches map[GeomKey]*kdtree.Tree
}

// NewProjector indexes the triangles of m by patch tag. Untagged triangles
// are indexed under the zero key. m is not referenced after the call.
func NewProjector(m *Mesh) *Projector {
	byKey := make(map[GeomKey]*refTriangles)
	for _, tr := range m.Triangles() {
		key := GeomKey{}
		if g := m.Triangle(tr).Tag; g != nil {
			key = g.Key()
		}
		set := byKey[key]
		if set == nil {
			set = &refTriangles{}
			byKey[key] = set
		}
		p := m.TrianglePositions(tr)
		set.tris = append(set.tris, refTriangle{
			C: d3.Set(p[:]).Centroid(),
			P: p,
		})
	}
	pr := &Projector{patches: make(map[GeomKey]*kdtree.Tree, len(byKey))}
	for key, set := range byKey {
		pr.patches[key] = kdtree.New(set, true)
	}
	return pr
}

// Project returns the closest point to p on the reference triangles tagged
// with g. It reports false when the projector has no triangles for g.
func (pr *Projector) Project(g *GeomEntity, p r3.Vec) (r3.Vec, bool) {
	key := GeomKey{}
	if g != nil {
		key = g.Key()
	}
	tree := pr.patches[key]
	if tree == nil || tree.Root == nil {
		return p, false
	}
	keep := kdtree.NewNKeeper(projectorCandidates)
	tree.NearestSet(keep, &refTriangle{C: p})
	best, bestDist := p, math.Inf(1)
	for _, cd := range keep.Heap {
		if cd.Comparable == nil {
			continue // empty keeper sentinel.
		}
		t := cd.Comparable.(*refTriangle)
		q := d3.ClosestOnTriangle(p, t.P[0], t.P[1], t.P[2])
		if d := r3.Norm2(r3.Sub(q, p)); d < bestDist {
			best, bestDist = q, d
		}
	}
	return best, !math.IsInf(bestDist, 1)
}

// refTriangle is a reference triangle keyed by centroid. A query point is a
// refTriangle with only C set.
type refTriangle struct {
	C r3.Vec
	P [3]r3.Vec
}

func (t *refTriangle) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(*refTriangle)
	switch d {
	case 0:
		return t.C.X - q.C.X
	case 1:
		return t.C.Y - q.C.Y
	case 2:
		return t.C.Z - q.C.Z
	}
	panic("unreachable")
}

func (t *refTriangle) Dims() int { return 3 }

func (t *refTriangle) Distance(c kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(t.C, c.(*refTriangle).C))
}

type refTriangles struct {
	tris []refTriangle
}

func (s *refTriangles) Index(i int) kdtree.Comparable { return &s.tris[i] }

func (s *refTriangles) Len() int { return len(s.tris) }

func (s *refTriangles) Pivot(d kdtree.Dim) int {
	p := refPlane{dim: d, tris: s.tris}
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

func (s *refTriangles) Slice(start, end int) kdtree.Interface {
	return &refTriangles{tris: s.tris[start:end]}
}

// Bounds implements kdtree.Bounder over the centroids currently in s.
func (s *refTriangles) Bounds() *kdtree.Bounding {
	min := refTriangle{C: d3.Elem(math.MaxFloat64)}
	max := refTriangle{C: d3.Elem(-math.MaxFloat64)}
	for _, t := range s.tris {
		min.C = d3.MinElem(min.C, t.C)
		max.C = d3.MaxElem(max.C, t.C)
	}
	return &kdtree.Bounding{Min: &min, Max: &max}
}

type refPlane struct {
	dim  kdtree.Dim
	tris []refTriangle
}

func (p refPlane) Less(i, j int) bool {
	return p.tris[i].Compare(&p.tris[j], p.dim) < 0
}

func (p refPlane) Swap(i, j int) { p.tris[i], p.tris[j] = p.tris[j], p.tris[i] }

func (p refPlane) Len() int { return len(p.tris) }

func (p refPlane) Slice(start, end int) kdtree.SortSlicer {
	p.tris = p.tris[start:end]
	return p
}
