package cloud

import (
	"errors"
	"fmt"
	"os"

	"github.com/chenzhekl/goply"
	"github.com/golang/geo/r3"
)

// ErrDecode wraps any failure of the external PLY decoder. Malformed,
// truncated and zero-length inputs all surface as this class.
var ErrDecode = errors.New("cannot decode PLY content")

// Decode parses fileBytes as a PLY point cloud. The bytes are handed to the
// decoder through a scoped temporary file which is removed on every exit
// path. Only ASCII-format PLY is supported; binary-format files fail with
// ErrDecode. A cloud without a color channel gets a uniform mid-gray fill; a
// cloud without normals leaves Normals nil.
func Decode(fileBytes []byte) (*Record, error) {
	tmp, err := os.CreateTemp("", "splatview-*.ply")
	if err != nil {
		return nil, fmt.Errorf("cannot create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(fileBytes); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("cannot write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, 0); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("cannot rewind temp file: %w", err)
	}
	defer tmp.Close()

	vertices, err := readVertices(tmp)
	if err != nil {
		return nil, err
	}
	return recordFromVertices(vertices)
}

// readVertices runs goply over the file. goply panics on malformed input, so
// the parse is fenced off and any panic is folded into ErrDecode.
func readVertices(f *os.File) (vertices []goply.PlyElement, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrDecode, r)
		}
	}()
	ply := goply.New(f)
	return ply.Elements("vertex"), nil
}

func recordFromVertices(vertices []goply.PlyElement) (*Record, error) {
	rec := &Record{
		Points: make([]r3.Vector, 0, len(vertices)),
		Colors: make([]RGB, 0, len(vertices)),
	}
	if len(vertices) == 0 {
		return rec, nil
	}

	// Channel presence is decided from the first vertex; PLY properties are
	// uniform across an element.
	_, hasRed := vertices[0]["red"]
	_, hasNX := vertices[0]["nx"]
	rec.HasSourceColors = hasRed
	rec.HasSourceNormals = hasNX
	if hasNX {
		rec.Normals = make([]r3.Vector, 0, len(vertices))
	}

	for i, v := range vertices {
		x, okX := propFloat(v, "x")
		y, okY := propFloat(v, "y")
		z, okZ := propFloat(v, "z")
		if !okX || !okY || !okZ {
			return nil, fmt.Errorf("%w: vertex %d has no position", ErrDecode, i)
		}
		rec.Points = append(rec.Points, r3.Vector{X: x, Y: y, Z: z})

		if hasRed {
			r, _ := propChannel(v, "red")
			g, _ := propChannel(v, "green")
			b, _ := propChannel(v, "blue")
			rec.Colors = append(rec.Colors, RGB{r, g, b})
		} else {
			rec.Colors = append(rec.Colors, Gray)
		}

		if hasNX {
			nx, _ := propFloat(v, "nx")
			ny, _ := propFloat(v, "ny")
			nz, _ := propFloat(v, "nz")
			rec.Normals = append(rec.Normals, r3.Vector{X: nx, Y: ny, Z: nz})
		}
	}
	return rec, nil
}

// propFloat reads a numeric vertex property. goply yields values typed after
// the declared PLY property, so every numeric width has to be accepted.
func propFloat(v goply.PlyElement, name string) (float64, bool) {
	raw, ok := v[name]
	if !ok {
		return 0, false
	}
	switch n := raw.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case uint8:
		return float64(n), true
	case int8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case int16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case int32:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// propChannel reads a color channel and normalizes it to [0,1]. Integer-typed
// channels (the usual uchar) are scaled by 255; float channels are taken
// as already normalized.
func propChannel(v goply.PlyElement, name string) (float64, bool) {
	raw, ok := v[name]
	if !ok {
		return 0, false
	}
	switch raw.(type) {
	case float64, float32:
		f, _ := propFloat(v, name)
		return f, true
	default:
		f, ok := propFloat(v, name)
		if !ok {
			return 0, false
		}
		return f / 255.0, true
	}
}
