package surfmesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/soypat/surfmesh/internal/d3"
	"go.uber.org/zap"
)

// CollapseNormalTolerance is the largest normal rotation, in radians,
// AdaptMesh accepts for a triangle surviving an edge collapse.
const CollapseNormalTolerance = math.Pi / 6

const (
	splitFactor    = 1 / 0.7
	collapseFactor = 0.7
	// minDiagonal is the shortest opposite diagonal, relative to the target
	// size, for which a long edge is split.
	minDiagonal = 0.25
)

// ErrTargetSize is returned by AdaptMesh for a non positive target size.
var ErrTargetSize = errors.New("target size must be positive")

// AdaptMesh runs one adaptation pass driving edge lengths towards
// targetSize. Long edges are split, short edges collapsed and edges swapped
// where this improves the worst of the two triangle qualities. Neither
// collapses nor swaps create edges that the next pass would split, and
// vertices inserted by this pass are not collapsed. Deleted entities are then
// reclaimed and, if smooth is set and the pass modified the mesh, every
// vertex is smoothed using ref. It returns the number of splits, collapses
// and swaps performed. A pass returning 0 leaves the mesh unchanged.
func (m *Mesh) AdaptMesh(targetSize float64, smooth bool, ref *Projector) (int, error) {
	if !(targetSize > 0) {
		return 0, ErrTargetSize
	}
	long, short := targetSize*splitFactor, targetSize*collapseFactor
	var splits, collapses, swaps int
	inserted := m.maxID
	for _, er := range m.Edges() {
		e := m.Edge(er)
		if e == nil || e.nf != 2 || m.EdgeLength(er) <= long {
			continue
		}
		ops := m.OppositeVertices(er)
		if d3.Dist(m.Vertex(ops[0]).Pos, m.Vertex(ops[1]).Pos) < minDiagonal*targetSize {
			continue
		}
		if m.SplitEdge(er, 0.5) {
			splits++
		}
	}
	for _, er := range m.Edges() {
		e := m.Edge(er)
		if e == nil || e.nf != 2 || m.EdgeLength(er) >= short {
			continue
		}
		if m.Vertex(e.P1).ID > inserted || m.Vertex(e.P2).ID > inserted {
			continue
		}
		for _, keep := range [2]VertexRef{e.P1, e.P2} {
			if !m.collapseStretches(er, keep, long) && m.CollapseEdge(er, keep, CollapseNormalTolerance) {
				collapses++
				break
			}
		}
	}
	for _, er := range m.Edges() {
		if !m.Swappable(er) {
			continue
		}
		ops := m.OppositeVertices(er)
		if d3.Dist(m.Vertex(ops[0]).Pos, m.Vertex(ops[1]).Pos) > long {
			continue
		}
		coplanar, dotOld, dotNew, qOld, qNew := m.edgeSwapGain(er)
		if !coplanar || dotNew <= 0 || (dotOld >= 0 && qNew <= qOld) {
			continue
		}
		if m.SwapEdge(er) {
			swaps++
		}
	}
	m.Cleanup()
	n := splits + collapses + swaps
	if smooth && n > 0 {
		for _, vr := range m.Vertices() {
			if _, err := m.SmoothPoint(vr, ref); err != nil {
				return n, err
			}
		}
	}
	m.log.Debug("adapt pass",
		zap.Int("splits", splits),
		zap.Int("collapses", collapses),
		zap.Int("swaps", swaps),
		zap.Int("triangles", m.NumTriangles()),
	)
	return n, nil
}

// collapseStretches reports whether collapsing er onto keep would join keep
// to a vertex farther away than long.
func (m *Mesh) collapseStretches(er EdgeRef, keep VertexRef, long float64) bool {
	rem := m.Edge(er).Other(keep)
	kp := m.Vertex(keep).Pos
	for _, n := range m.VertexNeighbors(rem) {
		if n != keep && d3.Dist(kp, m.Vertex(n).Pos) > long {
			return true
		}
	}
	return false
}

// Adapt repeats AdaptMesh until a pass performs no modification or
// maxPasses passes have run. It returns the total number of modifications
// and the number of passes run.
func (m *Mesh) Adapt(targetSize float64, maxPasses int, smooth bool, ref *Projector) (total, passes int, err error) {
	for passes < maxPasses {
		n, err := m.AdaptMesh(targetSize, smooth, ref)
		passes++
		total += n
		if err != nil {
			return total, passes, fmt.Errorf("adapt pass %d: %w", passes, err)
		}
		if n == 0 {
			break
		}
	}
	m.log.Info("adapted mesh",
		zap.Int("passes", passes),
		zap.Int("modifications", total),
		zap.Int("vertices", m.NumVertices()),
		zap.Int("triangles", m.NumTriangles()),
	)
	return total, passes, nil
}
