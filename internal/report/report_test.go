package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/soypat/surfmesh/meshio"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot/cmpimg"
)

func tetrahedron() []meshio.Triangle {
	p := [4]r3.Vec{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 0, Y: 0, Z: 1}}
	return []meshio.Triangle{
		{p[0], p[2], p[1]},
		{p[0], p[1], p[3]},
		{p[1], p[2], p[3]},
		{p[0], p[3], p[2]},
	}
}

func TestSnapshotDeterministic(t *testing.T) {
	dir := t.TempDir()
	paths := [2]string{filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png")}
	var imgs [2][]byte
	for i, path := range paths {
		if err := Snapshot(tetrahedron(), path, 64, 48, DefaultView); err != nil {
			t.Fatal(err)
		}
		b, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		imgs[i] = b
	}
	equal, err := cmpimg.EqualApprox("png", imgs[0], imgs[1], 0)
	if err != nil {
		t.Fatal(err)
	}
	if !equal {
		t.Error("snapshots of the same model differ")
	}
	if err := Snapshot(nil, paths[0], 64, 48, DefaultView); err == nil {
		t.Error("expected error for empty model")
	}
}

func TestQualityHistogram(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quality.png")
	if err := QualityHistogram([]float64{0.2, 0.5, 0.9, 0.95, 1}, 10, path); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("empty histogram image")
	}
	if err := QualityHistogram(nil, 10, path); err == nil {
		t.Error("expected error for no values")
	}
}
