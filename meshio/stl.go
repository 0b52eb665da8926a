package meshio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	stlHeaderSize   = 84
	stlTriangleSize = 50
)

// stlHeader defines the STL file header.
type stlHeader struct {
	_     [80]uint8 // Header
	Count uint32    // Number of triangles
}

// stlTriangle defines the triangle data within an STL file.
type stlTriangle struct {
	Normal  [3]float32
	Vertex1 [3]float32
	Vertex2 [3]float32
	Vertex3 [3]float32
	_       uint16 // Attribute byte count
}

// ReadSTL reads an ASCII or binary STL file. The format is detected from the
// content: data that starts with "solid" is ASCII unless its length matches
// the facet count of a binary header exactly. On error the triangles parsed
// so far are returned along with it.
func ReadSTL(r io.Reader) ([]Triangle, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if isBinarySTL(data) {
		return readBinarySTL(data)
	}
	return readASCIISTL(data)
}

func isBinarySTL(data []byte) bool {
	if !bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
		return true
	}
	if len(data) < stlHeaderSize {
		return false
	}
	// Some exporters write "solid" in binary headers.
	n := uint64(binary.LittleEndian.Uint32(data[80:84]))
	return uint64(len(data)) == stlHeaderSize+n*stlTriangleSize
}

// stlFacetCount returns the facet count of a binary STL and the byte order
// of the file. Files whose little endian count does not fit the data but
// whose byte swapped count does are read as big endian.
func stlFacetCount(data []byte) (int, binary.ByteOrder) {
	body := uint64(len(data) - stlHeaderSize)
	le := uint64(binary.LittleEndian.Uint32(data[80:84]))
	if le*stlTriangleSize <= body {
		return int(le), binary.LittleEndian
	}
	be := uint64(binary.BigEndian.Uint32(data[80:84]))
	if be > 0 && be*stlTriangleSize <= body {
		return int(be), binary.BigEndian
	}
	return int(le), binary.LittleEndian
}

func readBinarySTL(data []byte) ([]Triangle, error) {
	if len(data) < stlHeaderSize {
		return nil, fmt.Errorf("encountered EOF while reading STL header: %w", ErrTruncated)
	}
	count, order := stlFacetCount(data)
	if count == 0 {
		return nil, errors.New("STL header indicates 0 triangles present")
	}
	var (
		d      stlTriangle
		output = make([]Triangle, 0, count)
	)
	b := data[stlHeaderSize:]
	for i := 0; i < count; i++ {
		if len(b) < stlTriangleSize {
			return output, fmt.Errorf("%d/%d STL triangles read: %w", i, count, ErrTruncated)
		}
		d.get(b, order)
		b = b[stlTriangleSize:]
		if err := d.validate(); err != nil {
			return output, fmt.Errorf("STL triangle %d: %w", i, err)
		}
		output = append(output, d.toTriangle())
	}
	return output, nil
}

func readASCIISTL(data []byte) ([]Triangle, error) {
	var (
		output []Triangle
		tri    Triangle
		nv     int
		line   int
	)
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch strings.ToLower(fields[0]) {
		case "facet":
			nv = 0
		case "vertex":
			if len(fields) < 4 {
				return output, fmt.Errorf("line %d: vertex needs 3 coordinates", line)
			}
			if nv >= 3 {
				return output, fmt.Errorf("line %d: facet with more than 3 vertices", line)
			}
			v, err := parseVec(fields[1:4])
			if err != nil {
				return output, fmt.Errorf("line %d: %w", line, err)
			}
			tri[nv] = v
			nv++
		case "endfacet":
			if nv != 3 {
				return output, fmt.Errorf("line %d: facet with %d vertices", line, nv)
			}
			output = append(output, tri)
			nv = 0
		case "endsolid":
			return output, sc.Err()
		}
	}
	if err := sc.Err(); err != nil {
		return output, err
	}
	return output, fmt.Errorf("missing endsolid: %w", ErrTruncated)
}

func parseVec(fields []string) (r3.Vec, error) {
	var v [3]float64
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return r3.Vec{}, err
		}
		v[i] = x
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}, nil
}

// SaveSTL writes model triangles to the file at path in binary STL format.
func SaveSTL(path string, model []Triangle) error {
	fp, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteSTL(fp, model); err != nil {
		fp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return fp.Close()
}

// WriteSTL writes model triangles to a writer in binary STL file format.
func WriteSTL(w io.Writer, model []Triangle) error {
	if len(model) == 0 {
		return errors.New("empty triangle slice")
	}
	header := stlHeader{
		Count: uint32(len(model)),
	}
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	var d stlTriangle
	var b [stlTriangleSize]byte
	for _, triangle := range model {
		n := triangle.Normal()
		d.Normal = to3F32(n)
		d.Vertex1 = to3F32(triangle[0])
		d.Vertex2 = to3F32(triangle[1])
		d.Vertex3 = to3F32(triangle[2])
		d.put(b[:])
		if _, err := bw.Write(b[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func (t stlTriangle) put(b []byte) {
	if len(b) < stlTriangleSize {
		panic("need length 50 to marshal stlTriangle")
	}
	put3F32(b, t.Normal)
	put3F32(b[12:], t.Vertex1)
	put3F32(b[24:], t.Vertex2)
	put3F32(b[36:], t.Vertex3)
	binary.LittleEndian.PutUint16(b[48:], 0)
}

func (t *stlTriangle) get(b []byte, order binary.ByteOrder) {
	if len(b) < stlTriangleSize {
		panic("need length 50 to unmarshal stlTriangle")
	}
	get3F32(b, &t.Normal, order)
	get3F32(b[12:], &t.Vertex1, order)
	get3F32(b[24:], &t.Vertex2, order)
	get3F32(b[36:], &t.Vertex3, order)
	// no attributes supported yet.
}

func put3F32(b []byte, f [3]float32) {
	_ = b[11] // early bounds check
	binary.LittleEndian.PutUint32(b, math.Float32bits(f[0]))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(f[1]))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(f[2]))
}

func get3F32(b []byte, f *[3]float32, order binary.ByteOrder) {
	_ = b[11] // early bounds check
	f[0] = math.Float32frombits(order.Uint32(b))
	f[1] = math.Float32frombits(order.Uint32(b[4:]))
	f[2] = math.Float32frombits(order.Uint32(b[8:]))
}

func bad3F32(f [3]float32) bool {
	return math32.IsNaN(f[0]) || math32.IsInf(f[0], 0) ||
		math32.IsNaN(f[1]) || math32.IsInf(f[1], 0) ||
		math32.IsNaN(f[2]) || math32.IsInf(f[2], 0)
}

// validate rejects non finite data. Normals are not checked against the
// vertices since many exporters write zero normals.
func (t stlTriangle) validate() error {
	if bad3F32(t.Normal) {
		return errors.New("inf/NaN STL triangle normal")
	}
	if bad3F32(t.Vertex1) || bad3F32(t.Vertex2) || bad3F32(t.Vertex3) {
		return errors.New("inf/NaN STL triangle vertex")
	}
	return nil
}

func to3F32(v r3.Vec) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}

func r3From3F32(f [3]float32) r3.Vec {
	return r3.Vec{X: float64(f[0]), Y: float64(f[1]), Z: float64(f[2])}
}

func (d stlTriangle) toTriangle() Triangle {
	return Triangle{
		r3From3F32(d.Vertex1),
		r3From3F32(d.Vertex2),
		r3From3F32(d.Vertex3),
	}
}
