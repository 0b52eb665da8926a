package surfmesh

import (
	"math"

	"github.com/soypat/surfmesh/internal/d3"
	"github.com/soypat/surfmesh/meshio"
)

// QualityStats summarizes the normalized quality of the live triangles.
// Values are 1 for equilateral triangles and 0 for degenerate ones.
type QualityStats struct {
	Min, Max, Mean float64
	Values         []float64
}

// Quality returns the normalized quality of every live triangle.
func (m *Mesh) Quality() QualityStats {
	tris := m.Triangles()
	st := QualityStats{Values: make([]float64, len(tris))}
	if len(tris) == 0 {
		return st
	}
	st.Min, st.Max = math.Inf(1), math.Inf(-1)
	var sum float64
	for i, tr := range tris {
		p := m.TrianglePositions(tr)
		q := d3.NormQuality * d3.TriangleQuality(p[0], p[1], p[2])
		st.Values[i] = q
		st.Min = math.Min(st.Min, q)
		st.Max = math.Max(st.Max, q)
		sum += q
	}
	st.Mean = sum / float64(len(tris))
	return st
}

// EdgeLengths returns the length of every live edge.
func (m *Mesh) EdgeLengths() []float64 {
	edges := m.Edges()
	lengths := make([]float64, len(edges))
	for i, er := range edges {
		lengths[i] = m.EdgeLength(er)
	}
	return lengths
}

// Soup returns the live triangles as a triangle soup, suitable for STL output.
func (m *Mesh) Soup() []meshio.Triangle {
	tris := m.Triangles()
	soup := make([]meshio.Triangle, len(tris))
	for i, tr := range tris {
		soup[i] = meshio.Triangle(m.TrianglePositions(tr))
	}
	return soup
}
