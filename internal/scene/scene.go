// Package scene turns a decoded point cloud into a camera-framed 3D scatter
// description and renders it with go-echarts. Each point becomes an opaque
// colored marker; this approximates splatting rather than implementing true
// Gaussian footprints.
package scene

import (
	"errors"
	"fmt"

	"github.com/golang/geo/r3"

	"splatview/internal/cloud"
)

// ErrEmptyCloud is returned when a cloud with zero points is handed to Build.
// min/max over no points has no defined answer, so an empty upload is
// rejected instead of rendering an empty canvas.
var ErrEmptyCloud = errors.New("point cloud has no points")

// Canvas dimensions are fixed; the page is not responsive.
const (
	CanvasWidth  = 900
	CanvasHeight = 800
)

const markerOpacity = 0.8

// Camera is a derived pose: eye position, look-at center and up vector.
type Camera struct {
	Eye    r3.Vector
	Center r3.Vector
	Up     r3.Vector
}

// Description is the full scatter-scene value object consumed by the
// renderer. Build is pure: identical inputs yield identical Descriptions.
type Description struct {
	Positions []r3.Vector
	Colors    []string // "rgb(R,G,B)" per point

	PointSize float64
	// SplatScale is accepted and carried for forward compatibility but has no
	// effect on marker geometry yet.
	SplatScale float64
	Opacity    float64

	Bounds     cloud.Bounds
	Center     r3.Vector
	MaxRange   float64
	CameraDist float64
	Camera     Camera

	Width, Height int
	ShowAxes      bool
	AspectMode    string // "data": axes scaled to data units
	DragMode      string // "orbit": drag rotates around the look-at center
	Background    string
}

// Build produces the scene description for a record. pointSize is the marker
// size in pixels; splatScale is range-checked by the caller and stored
// untouched.
func Build(rec *cloud.Record, pointSize, splatScale float64) (*Description, error) {
	bounds, ok := rec.Bounds()
	if !ok {
		return nil, ErrEmptyCloud
	}

	colors := make([]string, len(rec.Colors))
	for i, c := range rec.Colors {
		colors[i] = colorString(c)
	}

	spans := bounds.Spans()
	maxRange := spans.X
	if spans.Y > maxRange {
		maxRange = spans.Y
	}
	if spans.Z > maxRange {
		maxRange = spans.Z
	}

	// The eye sits at (d, d, d/2) in absolute coordinates with the look-at
	// target pinned to the origin, so framing is only centered for clouds
	// whose centroid is near the origin. A single point collapses d to zero;
	// both are accepted as-is.
	dist := maxRange * 2.5

	return &Description{
		Positions:  rec.Points,
		Colors:     colors,
		PointSize:  pointSize,
		SplatScale: splatScale,
		Opacity:    markerOpacity,
		Bounds:     bounds,
		Center:     bounds.Center(),
		MaxRange:   maxRange,
		CameraDist: dist,
		Camera: Camera{
			Eye:    r3.Vector{X: dist, Y: dist, Z: dist / 2},
			Center: r3.Vector{},
			Up:     r3.Vector{Z: 1},
		},
		Width:      CanvasWidth,
		Height:     CanvasHeight,
		ShowAxes:   false,
		AspectMode: "data",
		DragMode:   "orbit",
		Background: "rgba(0,0,0,0)",
	}, nil
}

// colorString maps [0,1] channels to an rgb() string, truncating each channel
// to an integer (matching int(c*255), not rounding).
func colorString(c cloud.RGB) string {
	return fmt.Sprintf("rgb(%d,%d,%d)", int(c.R*255), int(c.G*255), int(c.B*255))
}
