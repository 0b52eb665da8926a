package surfmesh_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/deadsy/sdfx/obj"
	sdfxrender "github.com/deadsy/sdfx/render"
	"github.com/soypat/surfmesh"
)

// boltSTL renders an sdfx bolt to an STL file in a temporary directory.
func boltSTL(t *testing.T, quality int) string {
	t.Helper()
	stdout := os.Stdout
	defer func() {
		os.Stdout = stdout // pesky sdfx prints out stuff
	}()
	os.Stdout, _ = os.Open(os.DevNull)
	object, err := obj.Bolt(&obj.BoltParms{
		Thread:      "npt_1/2",
		Style:       "hex",
		Tolerance:   0.1,
		TotalLength: 20,
		ShankLength: 10,
	})
	if err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(t.TempDir(), "sdfx_bolt.stl")
	sdfxrender.ToSTL(object, quality, output, &sdfxrender.MarchingCubesOctree{})
	return output
}

func TestBoltPipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("renders an sdfx bolt")
	}
	path := boltSTL(t, 60)
	m := surfmesh.NewMesh()
	if err := m.ReadSTL(path, surfmesh.DefaultImportTolerance); err != nil {
		t.Fatal(err)
	}
	if m.NumTriangles() == 0 {
		t.Fatal("no triangles imported")
	}
	for _, er := range m.Edges() {
		if n := m.Edge(er).NumFaces(); n < 1 || n > 2 {
			t.Fatalf("imported edge with %d faces", n)
		}
	}
	res := m.Classify(40 * math.Pi / 180)
	if res.Surfaces < 2 || res.Curves == 0 {
		t.Fatalf("bolt classified as %+v", res)
	}
	ref := surfmesh.NewProjector(m.Clone())
	before := m.NumTriangles()
	_, passes, err := m.Adapt(2, 3, true, ref)
	if err != nil {
		t.Fatal(err)
	}
	if passes == 0 || m.NumTriangles() == 0 {
		t.Fatalf("adaptation left %d triangles after %d passes", m.NumTriangles(), passes)
	}
	if m.NumTriangles() >= before {
		t.Errorf("coarsening did not reduce triangles: %d -> %d", before, m.NumTriangles())
	}
	if q := m.Quality(); q.Min < 0 || q.Max > 1+1e-9 {
		t.Errorf("quality out of range %+v", q)
	}
	out := filepath.Join(t.TempDir(), "bolt.msh")
	if err := m.SaveGmsh(out); err != nil {
		t.Fatal(err)
	}
}
