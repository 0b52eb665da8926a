package surfmesh

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/soypat/surfmesh/internal/d3"
	"github.com/soypat/surfmesh/meshio"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultImportTolerance is the vertex merge distance, relative to the
// characteristic length, used when importing triangle soups.
const DefaultImportTolerance = 1e-6

// ImportTriangles adds a triangle soup to m. Vertices closer than
// tolerance*LC are merged, where LC is the diagonal of the soup's bounding
// box, and triangles whose corners merge are skipped. Triangles that would
// duplicate an existing triangle or give an edge a third face are skipped
// and counted in the log. LC and Bounds are updated.
func (m *Mesh) ImportTriangles(tris []meshio.Triangle, tolerance float64) error {
	if tolerance < 0 || math.IsNaN(tolerance) {
		return fmt.Errorf("negative import tolerance %g", tolerance)
	}
	bb := d3.EmptyBox()
	for _, t := range tris {
		for _, p := range t {
			bb = bb.Include(p)
		}
	}
	lc := bb.Diagonal()
	dd := newDedupe(lc * tolerance)
	var degenerate, rejected int
	for _, t := range tris {
		var vs [3]VertexRef
		for j, p := range t {
			vr, ok := dd.find(p)
			if !ok {
				vr = m.AddPoint(m.maxID+1, p.X, p.Y, p.Z)
				dd.insert(p, vr)
			}
			vs[j] = vr
		}
		if vs[0] == vs[1] || vs[1] == vs[2] || vs[2] == vs[0] {
			degenerate++
			continue
		}
		if _, err := m.AddTriangle(vs[0], vs[1], vs[2]); err != nil {
			if errors.Is(err, ErrNonManifold) || errors.Is(err, ErrDuplicateTriangle) {
				rejected++
				continue
			}
			return err
		}
	}
	m.LC = d3.Box(m.Bounds).Diagonal()
	m.log.Info("imported triangles",
		zap.Int("input", len(tris)),
		zap.Int("vertices", m.NumVertices()),
		zap.Int("triangles", m.NumTriangles()),
		zap.Int("degenerate", degenerate),
	)
	if rejected > 0 {
		m.log.Warn("skipped non manifold or duplicate triangles", zap.Int("count", rejected))
	}
	return nil
}

// ReadSTL imports the ASCII or binary STL file at path. A truncated file is
// imported up to the last complete facet and the error is returned.
func (m *Mesh) ReadSTL(path string, tolerance float64) error {
	fp, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fp.Close()
	tris, rerr := meshio.ReadSTL(fp)
	if err := m.ImportTriangles(tris, tolerance); err != nil {
		return fmt.Errorf("importing %s: %w", path, err)
	}
	if rerr != nil {
		return fmt.Errorf("reading %s: %w", path, rerr)
	}
	return nil
}

// ReadMesh imports the INRIA MESH file at path. Vertex IDs are the file's
// 1-based indices offset by the largest ID already in m. Triangles with a
// positive reference are tagged with the surface of that ID.
func (m *Mesh) ReadMesh(path string) error {
	fp, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fp.Close()
	im, rerr := meshio.ReadINRIA(fp)
	base := m.maxID
	verts := make([]VertexRef, len(im.Vertices))
	for i, p := range im.Vertices {
		verts[i] = m.AddPoint(base+i+1, p.X, p.Y, p.Z)
	}
	for i, tri := range im.Triangles {
		var vs [3]VertexRef
		for j, idx := range tri {
			if idx < 1 || idx > len(verts) {
				return fmt.Errorf("%s: triangle %d references vertex %d of %d", path, i+1, idx, len(verts))
			}
			vs[j] = verts[idx-1]
		}
		tr, err := m.AddTriangle(vs[0], vs[1], vs[2])
		if err != nil {
			return fmt.Errorf("%s: triangle %d: %w", path, i+1, err)
		}
		if ref := im.TriangleRefs[i]; ref > 0 {
			m.Triangle(tr).Tag = m.AddGeom(ref, DegreeSurface)
		}
	}
	m.LC = d3.Box(m.Bounds).Diagonal()
	m.log.Info("read mesh",
		zap.String("path", path),
		zap.Int("vertices", m.NumVertices()),
		zap.Int("triangles", m.NumTriangles()),
	)
	if rerr != nil {
		return fmt.Errorf("reading %s: %w", path, rerr)
	}
	return nil
}

// dedupe merges points closer than tol. Points are binned on a grid of
// cell size tol so a match can only lie in the 27 cells around a query.
type dedupe struct {
	tol   float64
	exact map[r3.Vec]VertexRef
	cells map[[3]int64][]dedupeEntry
}

type dedupeEntry struct {
	p r3.Vec
	v VertexRef
}

func newDedupe(tol float64) *dedupe {
	if tol <= 0 {
		return &dedupe{exact: make(map[r3.Vec]VertexRef)}
	}
	return &dedupe{tol: tol, cells: make(map[[3]int64][]dedupeEntry)}
}

func (d *dedupe) cell(p r3.Vec) [3]int64 {
	ri := 1 / d.tol
	return [3]int64{
		int64(math.Floor(p.X * ri)),
		int64(math.Floor(p.Y * ri)),
		int64(math.Floor(p.Z * ri)),
	}
}

func (d *dedupe) find(p r3.Vec) (VertexRef, bool) {
	if d.exact != nil {
		v, ok := d.exact[p]
		return v, ok
	}
	c := d.cell(p)
	for i := int64(-1); i <= 1; i++ {
		for j := int64(-1); j <= 1; j++ {
			for k := int64(-1); k <= 1; k++ {
				for _, en := range d.cells[[3]int64{c[0] + i, c[1] + j, c[2] + k}] {
					if d3.EqualWithin(en.p, p, d.tol) {
						return en.v, true
					}
				}
			}
		}
	}
	return VertexRef{}, false
}

func (d *dedupe) insert(p r3.Vec, v VertexRef) {
	if d.exact != nil {
		d.exact[p] = v
		return
	}
	c := d.cell(p)
	d.cells[c] = append(d.cells[c], dedupeEntry{p: p, v: v})
}
