// Package report renders mesh diagnostics to image files.
package report

import (
	"errors"
	"fmt"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"github.com/soypat/surfmesh/meshio"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// QualityHistogram saves a histogram of triangle qualities to path. The
// image format follows the file extension.
func QualityHistogram(qualities []float64, bins int, path string) error {
	if len(qualities) == 0 {
		return errors.New("no quality values to plot")
	}
	p := plot.New()
	p.Title.Text = "Triangle quality"
	p.X.Label.Text = "normalized quality"
	p.Y.Label.Text = "triangles"
	p.X.Min, p.X.Max = 0, 1
	h, err := plotter.NewHist(plotter.Values(qualities), bins)
	if err != nil {
		return fmt.Errorf("building histogram: %w", err)
	}
	p.Add(h)
	return p.Save(5*vg.Inch, 3*vg.Inch, path)
}

// View positions the camera of a snapshot. The model is scaled to fit a
// bi-unit cube centered at the origin before rendering.
type View struct {
	Eye, Center, Up fauxgl.Vector
	Near, Far       float64
}

// DefaultView is an isometric view of the model.
var DefaultView = View{
	Eye:  fauxgl.V(2.4, 2.4, 2.4),
	Up:   fauxgl.V(0, 0, 1),
	Near: 1,
	Far:  10,
}

// Snapshot renders a shaded image of the triangles to a PNG file.
func Snapshot(model []meshio.Triangle, path string, width, height int, view View) error {
	if len(model) == 0 {
		return errors.New("empty model")
	}
	const (
		scale = 2  // supersampling
		fovy  = 30 // vertical field of view in degrees
	)
	tris := make([]*fauxgl.Triangle, len(model))
	for i, t := range model {
		tris[i] = fauxgl.NewTriangleForPoints(
			fauxgl.V(t[0].X, t[0].Y, t[0].Z),
			fauxgl.V(t[1].X, t[1].Y, t[1].Z),
			fauxgl.V(t[2].X, t[2].Y, t[2].Z),
		)
	}
	mesh := fauxgl.NewTriangleMesh(tris)
	mesh.BiUnitCube()

	context := fauxgl.NewContext(width*scale, height*scale)
	context.ClearColorBufferWith(fauxgl.HexColor("#FFF8E3"))
	aspect := float64(width) / float64(height)
	matrix := fauxgl.LookAt(view.Eye, view.Center, view.Up).Perspective(fovy, aspect, view.Near, view.Far)
	light := fauxgl.V(-0.75, 1, 0.25).Normalize()
	shader := fauxgl.NewPhongShader(matrix, light, view.Eye)
	shader.ObjectColor = fauxgl.HexColor("#468966")
	context.Shader = shader
	context.DrawMesh(mesh)

	image := resize.Resize(uint(width), uint(height), context.Image(), resize.Bilinear)
	return fauxgl.SavePNG(path, image)
}
