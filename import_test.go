package surfmesh

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/soypat/surfmesh/meshio"
)

func writeSTL(t *testing.T, tris []meshio.Triangle) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.stl")
	fp, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer fp.Close()
	if err := meshio.WriteSTL(fp, tris); err != nil {
		t.Fatal(err)
	}
	return path
}

// gmshSections parses legacy Gmsh output into its node rows and its element
// rows grouped by element type.
func gmshSections(t *testing.T, data []byte) (nodes [][]string, elems map[int][][]string) {
	t.Helper()
	elems = make(map[int][][]string)
	sc := bufio.NewScanner(bytes.NewReader(data))
	var section string
	var declared, read int
	expectCount := false
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "$NOD", "$ELM":
			section, expectCount, read = line, true, 0
			continue
		case "$ENDNOD", "$ENDELM":
			if read != declared {
				t.Fatalf("%s declares %d rows, has %d", section, declared, read)
			}
			section = ""
			continue
		}
		if expectCount {
			n, err := strconv.Atoi(line)
			if err != nil {
				t.Fatalf("bad %s count %q", section, line)
			}
			declared, expectCount = n, false
			continue
		}
		fields := strings.Fields(line)
		read++
		switch section {
		case "$NOD":
			nodes = append(nodes, fields)
		case "$ELM":
			typ, _ := strconv.Atoi(fields[1])
			nn, _ := strconv.Atoi(fields[4])
			if len(fields) != 5+nn {
				t.Fatalf("element row %q has wrong node count", line)
			}
			elems[typ] = append(elems[typ], fields)
		default:
			t.Fatalf("row outside section: %q", line)
		}
	}
	return nodes, elems
}

func TestSTLRoundTrip(t *testing.T) {
	path := writeSTL(t, cubeSoup())
	m := NewMesh()
	if err := m.ReadSTL(path, DefaultImportTolerance); err != nil {
		t.Fatal(err)
	}
	if got := counts(m); got != [3]int{8, 18, 12} {
		t.Fatalf("counts V,E,T = %v", got)
	}
	var b bytes.Buffer
	if err := m.WriteGmsh(&b); err != nil {
		t.Fatal(err)
	}
	nodes, elems := gmshSections(t, b.Bytes())
	if len(nodes) != 8 || len(elems[2]) != 12 || len(elems) != 1 {
		t.Fatalf("got %d nodes, element types %v", len(nodes), len(elems))
	}
	for i, row := range nodes {
		if row[0] != strconv.Itoa(i+1) {
			t.Fatalf("node rows not in ID order: %v", row)
		}
	}

	m.Classify(0.5)
	b.Reset()
	if err := m.WriteGmsh(&b); err != nil {
		t.Fatal(err)
	}
	_, elems = gmshSections(t, b.Bytes())
	if len(elems[15]) != 8 || len(elems[1]) != 12 || len(elems[2]) != 12 {
		t.Fatalf("classified output has %d points, %d lines, %d triangles",
			len(elems[15]), len(elems[1]), len(elems[2]))
	}
	id := 1
	for _, typ := range []int{15, 1, 2} {
		for _, row := range elems[typ] {
			if row[0] != strconv.Itoa(id) {
				t.Fatalf("element IDs not consecutive at %v", row)
			}
			if row[2] != row[3] || row[2] == "0" {
				t.Fatalf("classified element without region: %v", row)
			}
			id++
		}
	}

	out := filepath.Join(t.TempDir(), "cube.msh")
	if err := m.SaveGmsh(out); err != nil {
		t.Fatal(err)
	}
	saved, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(saved, b.Bytes()) {
		t.Fatal("SaveGmsh output differs from WriteGmsh")
	}
}

func TestImportMergesVertices(t *testing.T) {
	soup := cubeSoup()
	// Jitter shared corners below the merge tolerance.
	for i := range soup {
		for j := range soup[i] {
			soup[i][j].X += float64((i+j)%3) * 1e-9
		}
	}
	// Triangles collapsing to a point or a segment are dropped.
	soup = append(soup,
		meshio.Triangle{vec(0, 0, 0), vec(1e-10, 0, 0), vec(1, 1, 1)},
		meshio.Triangle{vec(1, 1, 1), vec(1, 1, 1), vec(1, 1, 1)},
	)
	m := NewMesh()
	if err := m.ImportTriangles(soup, DefaultImportTolerance); err != nil {
		t.Fatal(err)
	}
	if got := counts(m); got != [3]int{8, 18, 12} {
		t.Fatalf("counts V,E,T = %v", got)
	}
	checkTopology(t, m)
}

func TestImportSkipsNonManifold(t *testing.T) {
	soup := cubeSoup()
	soup = append(soup, soup[0], meshio.Triangle{vec(0, 0, 0), vec(0, 1, 0), vec(0.5, 0.5, -1)})
	m := NewMesh()
	if err := m.ImportTriangles(soup, DefaultImportTolerance); err != nil {
		t.Fatal(err)
	}
	if m.NumTriangles() != 12 {
		t.Fatalf("got %d triangles", m.NumTriangles())
	}
	checkTopology(t, m)
	if err := m.ImportTriangles(soup, -1); err == nil {
		t.Fatal("negative tolerance accepted")
	}
}

func TestReadSTLTruncated(t *testing.T) {
	path := writeSTL(t, cubeSoup())
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	// Keep 6 complete facets and part of the seventh.
	if err := os.WriteFile(path, data[:84+6*50+20], 0o644); err != nil {
		t.Fatal(err)
	}
	m := NewMesh()
	err = m.ReadSTL(path, DefaultImportTolerance)
	if !errors.Is(err, meshio.ErrTruncated) {
		t.Fatalf("got %v, want truncation error", err)
	}
	if m.NumTriangles() != 6 {
		t.Fatalf("partial import kept %d triangles", m.NumTriangles())
	}
	if err := NewMesh().ReadSTL(filepath.Join(t.TempDir(), "missing.stl"), 0); err == nil {
		t.Fatal("missing file read")
	}
}

const inriaSquares = `MeshVersionFormatted 1
Dimension 3
# two unit squares sharing an edge
Vertices
6
0 0 0 1
1 0 0 1
1 1 0 1
0 1 0 1
2 0 0 1
2 1 0 1
Quadrilaterals
2
1 2 3 4 5
2 5 6 3 0
End
`

func TestReadMesh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "squares.mesh")
	if err := os.WriteFile(path, []byte(inriaSquares), 0o644); err != nil {
		t.Fatal(err)
	}
	m := NewMesh()
	if err := m.ReadMesh(path); err != nil {
		t.Fatal(err)
	}
	if got := counts(m); got != [3]int{6, 9, 4} {
		t.Fatalf("counts V,E,T = %v", got)
	}
	tagged := 0
	for _, tr := range m.Triangles() {
		if g := m.Triangle(tr).Tag; g != nil {
			if g.ID != 5 || g.Degree != DegreeSurface {
				t.Fatalf("unexpected tag %+v", g.Key())
			}
			tagged++
		}
	}
	if tagged != 2 {
		t.Fatalf("%d triangles tagged", tagged)
	}
	if g := m.Geom(5, DegreeSurface); g == nil {
		t.Fatal("surface 5 not registered")
	}
	// Classification keeps the file patches and floods the rest.
	res := m.Classify(0.5)
	if res.Surfaces != 2 {
		t.Fatalf("got %+v", res)
	}
	checkTopology(t, m)
}

func TestReadMeshErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.mesh")
	os.WriteFile(bad, []byte(strings.Replace(inriaSquares, "2 5 6 3 0", "2 5 9 3 0", 1)), 0o644)
	if err := NewMesh().ReadMesh(bad); err == nil {
		t.Fatal("out of range vertex index accepted")
	}
	if err := NewMesh().ReadMesh(filepath.Join(dir, "missing.mesh")); err == nil {
		t.Fatal("missing file read")
	}
}
