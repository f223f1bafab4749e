package cloud

import (
	"math"

	"github.com/golang/geo/r3"
)

const (
	sphereLongitudeSteps = 100
	sphereLatitudeSteps  = 50
)

// SampleSphere builds the unit-sphere demo cloud shown before any file is
// uploaded: a 100x50 spherical-coordinate grid with colors derived from the
// normalized position. It has no normals and no source channels, so it is a
// display-only record.
func SampleSphere() *Record {
	thetas := linspace(0, 2*math.Pi, sphereLongitudeSteps)
	phis := linspace(0, math.Pi, sphereLatitudeSteps)

	n := len(thetas) * len(phis)
	rec := &Record{
		Points: make([]r3.Vector, 0, n),
		Colors: make([]RGB, 0, n),
	}

	for _, phi := range phis {
		for _, theta := range thetas {
			p := r3.Vector{
				X: math.Sin(phi) * math.Cos(theta),
				Y: math.Sin(phi) * math.Sin(theta),
				Z: math.Cos(phi),
			}
			rec.Points = append(rec.Points, p)
			rec.Colors = append(rec.Colors, RGB{
				R: (p.X + 1) / 2,
				G: (p.Y + 1) / 2,
				B: (p.Z + 1) / 2,
			})
		}
	}
	return rec
}

// linspace returns n evenly spaced values from start to stop inclusive.
func linspace(start, stop float64, n int) []float64 {
	if n == 1 {
		return []float64{start}
	}
	step := (stop - start) / float64(n-1)
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = start + float64(i)*step
	}
	return vals
}
