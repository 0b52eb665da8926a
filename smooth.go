package surfmesh

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// SmoothPoint moves v to the average of its edge neighbours and projects the
// result back onto its patch. The projection uses the analytic surface of
// the patch when one was fitted, else the closest point of ref. With neither
// available the average is kept. Vertices on model vertices or curves and
// untagged vertices are left in place and false is returned.
func (m *Mesh) SmoothPoint(vr VertexRef, ref *Projector) (bool, error) {
	v := m.Vertex(vr)
	if v == nil {
		return false, ErrInvalidHandle
	}
	if v.Tag == nil || v.Tag.Degree <= DegreeCurve || len(v.edges) == 0 {
		return false, nil
	}
	var sum r3.Vec
	for _, n := range m.VertexNeighbors(vr) {
		sum = r3.Add(sum, m.Vertex(n).Pos)
	}
	p := r3.Scale(1/float64(len(v.edges)), sum)
	switch {
	case v.Tag.Surface != nil:
		proj, err := v.Tag.Surface.Project(p)
		if err != nil {
			return false, fmt.Errorf("smoothing vertex %d: %w", v.ID, err)
		}
		p = proj
	case ref != nil:
		if proj, ok := ref.Project(v.Tag, p); ok {
			p = proj
		}
	}
	v.Pos = p
	return true, nil
}
