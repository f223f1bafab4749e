// Package cloud decodes uploaded point-cloud files into an in-memory record
// and re-serializes that record for download. Parsing of the PLY container is
// delegated to goply; this package only shapes the result.
package cloud

import (
	"github.com/golang/geo/r3"
)

// RGB is a per-point color with channels in [0,1].
type RGB struct {
	R, G, B float64
}

// Gray is the color substituted for every point when the source file carries
// no color channel.
var Gray = RGB{0.5, 0.5, 0.5}

// Record is the decoded form of one point cloud. It is created fresh per
// upload, never mutated afterwards, and owns its own re-serialization: the
// source-channel flags record what the original file actually carried so that
// WritePLY emits only those properties.
type Record struct {
	Points  []r3.Vector
	Colors  []RGB       // always len(Points); synthesized gray when absent in the source
	Normals []r3.Vector // nil when the source carries no normals

	HasSourceColors  bool
	HasSourceNormals bool
}

// Size returns the number of points.
func (rec *Record) Size() int {
	return len(rec.Points)
}

// Bounds is the axis-aligned bounding box of a record.
type Bounds struct {
	Min, Max r3.Vector
}

// Spans returns the per-axis extents of the box.
func (b Bounds) Spans() r3.Vector {
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of each axis's [min, max].
func (b Bounds) Center() r3.Vector {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Bounds computes the bounding box over all points. ok is false for an empty
// record, where min/max is undefined.
func (rec *Record) Bounds() (bounds Bounds, ok bool) {
	if len(rec.Points) == 0 {
		return Bounds{}, false
	}
	bounds.Min = rec.Points[0]
	bounds.Max = rec.Points[0]
	for _, p := range rec.Points[1:] {
		if p.X < bounds.Min.X {
			bounds.Min.X = p.X
		}
		if p.Y < bounds.Min.Y {
			bounds.Min.Y = p.Y
		}
		if p.Z < bounds.Min.Z {
			bounds.Min.Z = p.Z
		}
		if p.X > bounds.Max.X {
			bounds.Max.X = p.X
		}
		if p.Y > bounds.Max.Y {
			bounds.Max.Y = p.Y
		}
		if p.Z > bounds.Max.Z {
			bounds.Max.Z = p.Z
		}
	}
	return bounds, true
}
