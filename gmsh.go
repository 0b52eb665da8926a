package surfmesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
)

// Element types of the legacy Gmsh text format.
const (
	gmshLine     = 1
	gmshTriangle = 2
	gmshPoint    = 15
)

// WriteGmsh writes m in the legacy Gmsh text format. The $NOD section lists
// live vertices in ID order. The $ELM section lists, numbered from 1,
// points for vertices classified on a model vertex, lines for edges
// classified on a curve and every triangle. Classified entities carry
// their tag ID as both physical and elementary region, others carry 0.
func (m *Mesh) WriteGmsh(w io.Writer) error {
	bw := bufio.NewWriter(w)
	verts := m.Vertices()
	sort.Slice(verts, func(i, j int) bool {
		return m.Vertex(verts[i]).ID < m.Vertex(verts[j]).ID
	})
	fmt.Fprintf(bw, "$NOD\n%d\n", len(verts))
	for _, vr := range verts {
		v := m.Vertex(vr)
		fmt.Fprintf(bw, "%d %.16g %.16g %.16g\n", v.ID, v.Pos.X, v.Pos.Y, v.Pos.Z)
	}
	fmt.Fprint(bw, "$ENDNOD\n")

	var corners []*Vertex
	for _, vr := range verts {
		if v := m.Vertex(vr); v.Tag != nil && v.Tag.Degree == DegreeVertex {
			corners = append(corners, v)
		}
	}
	var curves []*Edge
	for _, er := range m.Edges() {
		if e := m.Edge(er); e.Tag != nil && e.Tag.Degree == DegreeCurve {
			curves = append(curves, e)
		}
	}
	tris := m.Triangles()
	fmt.Fprintf(bw, "$ELM\n%d\n", len(corners)+len(curves)+len(tris))
	id := 1
	for _, v := range corners {
		fmt.Fprintf(bw, "%d %d %d %d 1 %d\n", id, gmshPoint, v.Tag.ID, v.Tag.ID, v.ID)
		id++
	}
	for _, e := range curves {
		fmt.Fprintf(bw, "%d %d %d %d 2 %d %d\n", id, gmshLine, e.Tag.ID, e.Tag.ID,
			m.Vertex(e.P1).ID, m.Vertex(e.P2).ID)
		id++
	}
	for _, tr := range tris {
		class := 0
		if g := m.Triangle(tr).Tag; g != nil {
			class = g.ID
		}
		vs := m.TriangleVertices(tr)
		fmt.Fprintf(bw, "%d %d %d %d 3 %d %d %d\n", id, gmshTriangle, class, class,
			m.Vertex(vs[0]).ID, m.Vertex(vs[1]).ID, m.Vertex(vs[2]).ID)
		id++
	}
	fmt.Fprint(bw, "$ENDELM\n")
	return bw.Flush()
}

// SaveGmsh writes m to the file at path in the legacy Gmsh text format.
func (m *Mesh) SaveGmsh(path string) error {
	fp, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := m.WriteGmsh(fp); err != nil {
		fp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return fp.Close()
}
