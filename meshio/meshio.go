// Package meshio reads and writes triangle soups in the STL and INRIA
// MESH formats. It knows nothing about connectivity; shared vertices are
// recovered by the importer in the surfmesh package.
package meshio

import (
	"errors"

	"github.com/soypat/surfmesh/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrTruncated is returned when a file ends before the amount of data its
// header announced. Readers return whatever was parsed before the error.
var ErrTruncated = errors.New("truncated mesh file")

// Triangle is a counter clockwise triangle of a soup.
type Triangle [3]r3.Vec

// Normal returns the unit normal of the triangle.
func (t Triangle) Normal() r3.Vec {
	return d3.TriangleNormal(t[0], t[1], t[2])
}
