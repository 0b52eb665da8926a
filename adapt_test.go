package surfmesh

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

// onCubeSurface returns the distance from a point inside the closed unit
// cube to its surface.
func onCubeSurface(x, y, z float64) float64 {
	return math.Min(math.Min(math.Min(x, 1-x), math.Min(y, 1-y)), math.Min(z, 1-z))
}

func TestAdaptMeshConverged(t *testing.T) {
	tests := []struct {
		name   string
		mesh   func(testing.TB) *Mesh
		target float64
	}{
		{name: "cube", mesh: cubeMesh, target: 1},
		{name: "hexagon", mesh: hexFan, target: 1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m := test.mesh(t)
			m.Classify(math.Pi / 6)
			before := counts(m)
			for i := 0; i < 2; i++ {
				n, err := m.AdaptMesh(test.target, false, nil)
				if err != nil {
					t.Fatal(err)
				}
				if n != 0 {
					t.Fatalf("pass %d: %d modifications on converged mesh", i, n)
				}
			}
			if counts(m) != before {
				t.Fatal("converged pass modified mesh")
			}
		})
	}
}

func TestAdaptMeshTargetSize(t *testing.T) {
	m := cubeMesh(t)
	for _, target := range []float64{0, -1, math.NaN()} {
		if _, err := m.AdaptMesh(target, false, nil); !errors.Is(err, ErrTargetSize) {
			t.Fatalf("target %g: got %v", target, err)
		}
	}
}

func TestAdaptRefinesCube(t *testing.T) {
	for _, smooth := range []bool{false, true} {
		m := cubeMesh(t)
		m.Classify(math.Pi / 6)
		ref := NewProjector(m.Clone())
		total, passes, err := m.Adapt(0.3, 10, smooth, ref)
		if err != nil {
			t.Fatal(err)
		}
		if total == 0 || passes == 0 {
			t.Fatal("no modifications on coarse cube")
		}
		if m.NumTriangles() <= 12 {
			t.Fatalf("cube not refined: %d triangles", m.NumTriangles())
		}
		if euler(m) != 2 {
			t.Fatalf("euler characteristic %d", euler(m))
		}
		checkTopology(t, m)
		corners := 0
		for _, vr := range m.Vertices() {
			v := m.Vertex(vr)
			if d := onCubeSurface(v.Pos.X, v.Pos.Y, v.Pos.Z); math.Abs(d) > 1e-9 {
				t.Fatalf("smooth=%v: vertex %d left the cube surface by %g", smooth, v.ID, d)
			}
			if v.Tag.Degree == DegreeVertex {
				corners++
			}
		}
		if corners != 8 {
			t.Fatalf("smooth=%v: %d model vertices survived", smooth, corners)
		}
		for _, tr := range m.Triangles() {
			if m.Triangle(tr).Tag.Degree != DegreeSurface {
				t.Fatal("triangle lost its surface tag")
			}
			if m.TriangleArea(tr) == 0 {
				t.Fatal("degenerate triangle after adaptation")
			}
		}
		for _, er := range m.Edges() {
			if m.Edge(er).NumFaces() != 2 {
				t.Fatal("adaptation opened the surface")
			}
		}
	}
}

func TestAdaptCoarsensSphere(t *testing.T) {
	m := icosphere(t, 3)
	m.Classify(math.Pi / 4)
	before := m.NumTriangles()
	if _, _, err := m.Adapt(0.5, 10, true, nil); err != nil {
		t.Fatal(err)
	}
	if m.NumTriangles() >= before {
		t.Fatalf("sphere not coarsened: %d -> %d triangles", before, m.NumTriangles())
	}
	if euler(m) != 2 {
		t.Fatalf("euler characteristic %d", euler(m))
	}
	checkTopology(t, m)
	for _, vr := range m.Vertices() {
		p := m.Vertex(vr).Pos
		if r := math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z); math.Abs(r-1) > 1e-6 {
			t.Fatalf("vertex off sphere, radius %g", r)
		}
	}
}

// bumpySphere returns a level 2 icosphere with every vertex pushed radially
// outwards by up to 10%.
func bumpySphere(t testing.TB, seed int64) *Mesh {
	t.Helper()
	m := icosphere(t, 2)
	rng := rand.New(rand.NewSource(seed))
	for _, vr := range m.Vertices() {
		v := m.Vertex(vr)
		v.Pos = r3.Scale(1+0.1*rng.Float64(), v.Pos)
	}
	return m
}

func positions(m *Mesh) map[int]r3.Vec {
	pos := make(map[int]r3.Vec, m.NumVertices())
	for _, vr := range m.Vertices() {
		v := m.Vertex(vr)
		pos[v.ID] = v.Pos
	}
	return pos
}

func TestAdaptConvergesBumpySphere(t *testing.T) {
	for _, seed := range []int64{1, 2, 3} {
		m := bumpySphere(t, seed)
		m.Classify(math.Pi / 6)
		const maxPasses = 50
		total, passes, err := m.Adapt(0.6, maxPasses, false, nil)
		if err != nil {
			t.Fatal(err)
		}
		if total == 0 {
			t.Fatalf("seed %d: no modifications", seed)
		}
		if passes == maxPasses {
			t.Fatalf("seed %d: no convergence after %d passes", seed, passes)
		}
		before := counts(m)
		n, err := m.AdaptMesh(0.6, false, nil)
		if err != nil {
			t.Fatal(err)
		}
		if n != 0 || counts(m) != before {
			t.Fatalf("seed %d: converged mesh modified by %d operations", seed, n)
		}
		if euler(m) != 2 {
			t.Fatalf("seed %d: euler characteristic %d", seed, euler(m))
		}
		checkTopology(t, m)
	}
}

func TestAdaptMeshIdleWithSmoothing(t *testing.T) {
	m := bumpySphere(t, 1)
	m.Classify(math.Pi / 6)
	ref := NewProjector(m.Clone())
	for pass := 0; ; pass++ {
		if pass == 50 {
			t.Fatal("no idle pass")
		}
		n, err := m.AdaptMesh(0.6, true, ref)
		if err != nil {
			t.Fatal(err)
		}
		if n == 0 {
			break
		}
	}
	before, pos := counts(m), positions(m)
	for i := 0; i < 2; i++ {
		n, err := m.AdaptMesh(0.6, true, ref)
		if err != nil {
			t.Fatal(err)
		}
		if n != 0 {
			t.Fatalf("repeated pass %d: %d modifications after idle pass", i, n)
		}
	}
	if counts(m) != before {
		t.Fatal("idle pass changed the topology")
	}
	for id, p := range positions(m) {
		if p != pos[id] {
			t.Fatalf("idle pass moved vertex %d from %v to %v", id, pos[id], p)
		}
	}
}
