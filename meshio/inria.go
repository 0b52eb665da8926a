package meshio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// INRIAMesh is the surface content of an INRIA MESH (format version 1) file.
// Triangle indices are 1-based as in the file. Quadrilaterals are split
// into two triangles along their first diagonal and share the quad's
// reference.
type INRIAMesh struct {
	Vertices     []r3.Vec
	Triangles    [][3]int
	TriangleRefs []int
}

// inriaSkip is the number of tokens per entry of sections that carry no
// surface data. They are skipped.
var inriaSkip = map[string]int{
	"edges":            3,
	"corners":          1,
	"ridges":           1,
	"requiredvertices": 1,
	"requirededges":    1,
	"tetrahedra":       5,
	"hexahedra":        9,
	"normals":          3,
	"normalatvertices": 2,
	"tangents":         3,
	"tangentatedges":   3,
}

type tokenizer struct {
	sc   *bufio.Scanner
	toks []string
	line int
}

func (t *tokenizer) next() (string, bool) {
	for len(t.toks) == 0 {
		if !t.sc.Scan() {
			return "", false
		}
		t.line++
		text := t.sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		t.toks = strings.Fields(text)
	}
	tok := t.toks[0]
	t.toks = t.toks[1:]
	return tok, true
}

func (t *tokenizer) int() (int, error) {
	tok, ok := t.next()
	if !ok {
		return 0, ErrTruncated
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("line %d: %w", t.line, err)
	}
	return v, nil
}

func (t *tokenizer) float() (float64, error) {
	tok, ok := t.next()
	if !ok {
		return 0, ErrTruncated
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: %w", t.line, err)
	}
	return v, nil
}

// ReadINRIA parses an ASCII INRIA MESH file. On error the entities read so
// far are returned along with it.
func ReadINRIA(r io.Reader) (*INRIAMesh, error) {
	tk := &tokenizer{sc: bufio.NewScanner(r)}
	m := &INRIAMesh{}
	for {
		kw, ok := tk.next()
		if !ok {
			if err := tk.sc.Err(); err != nil {
				return m, err
			}
			return m, nil // End keyword is optional.
		}
		var err error
		switch key := strings.ToLower(kw); key {
		case "meshversionformatted":
			var v int
			if v, err = tk.int(); err == nil && v != 1 {
				err = fmt.Errorf("unsupported MeshVersionFormatted %d", v)
			}
		case "dimension":
			var dim int
			if dim, err = tk.int(); err == nil && dim != 3 {
				err = fmt.Errorf("unsupported dimension %d", dim)
			}
		case "vertices":
			err = m.readVertices(tk)
		case "triangles":
			err = m.readElements(tk, 3)
		case "quadrilaterals":
			err = m.readElements(tk, 4)
		case "end":
			return m, nil
		default:
			size, known := inriaSkip[key]
			if !known {
				return m, fmt.Errorf("line %d: unknown keyword %q", tk.line, kw)
			}
			err = skipSection(tk, size)
		}
		if err != nil {
			return m, fmt.Errorf("%s section: %w", kw, err)
		}
	}
}

func (m *INRIAMesh) readVertices(tk *tokenizer) error {
	n, err := tk.int()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		var c [3]float64
		for j := range c {
			if c[j], err = tk.float(); err != nil {
				return err
			}
		}
		// Vertex references carry no surface classification.
		if _, err := tk.int(); err != nil {
			return err
		}
		m.Vertices = append(m.Vertices, r3.Vec{X: c[0], Y: c[1], Z: c[2]})
	}
	return nil
}

func (m *INRIAMesh) readElements(tk *tokenizer, nodes int) error {
	n, err := tk.int()
	if err != nil {
		return err
	}
	var v [4]int
	for i := 0; i < n; i++ {
		for j := 0; j < nodes; j++ {
			if v[j], err = tk.int(); err != nil {
				return err
			}
		}
		ref, err := tk.int()
		if err != nil {
			return err
		}
		m.Triangles = append(m.Triangles, [3]int{v[0], v[1], v[2]})
		m.TriangleRefs = append(m.TriangleRefs, ref)
		if nodes == 4 {
			m.Triangles = append(m.Triangles, [3]int{v[0], v[2], v[3]})
			m.TriangleRefs = append(m.TriangleRefs, ref)
		}
	}
	return nil
}

func skipSection(tk *tokenizer, size int) error {
	n, err := tk.int()
	if err != nil {
		return err
	}
	for i := 0; i < n*size; i++ {
		if _, ok := tk.next(); !ok {
			return ErrTruncated
		}
	}
	return nil
}
