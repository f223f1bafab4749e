package scene

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"splatview/internal/cloud"
)

func cubeRecord() *cloud.Record {
	corners := []r3.Vector{
		{X: 0, Y: 0, Z: 0},
		{X: 10, Y: 0, Z: 0},
		{X: 0, Y: 10, Z: 0},
		{X: 0, Y: 0, Z: 10},
		{X: 10, Y: 10, Z: 0},
		{X: 10, Y: 0, Z: 10},
		{X: 0, Y: 10, Z: 10},
		{X: 10, Y: 10, Z: 10},
	}
	rec := &cloud.Record{Points: corners}
	for range corners {
		rec.Colors = append(rec.Colors, cloud.Gray)
	}
	return rec
}

func TestBuildCameraFraming(t *testing.T) {
	desc, err := Build(cubeRecord(), 5, 1.0)
	require.NoError(t, err)

	assert.Equal(t, r3.Vector{X: 5, Y: 5, Z: 5}, desc.Center)
	assert.Equal(t, 10.0, desc.MaxRange)
	assert.Equal(t, 25.0, desc.CameraDist)
	assert.Equal(t, r3.Vector{X: 25, Y: 25, Z: 12.5}, desc.Camera.Eye)
	assert.Equal(t, r3.Vector{}, desc.Camera.Center)
	assert.Equal(t, r3.Vector{Z: 1}, desc.Camera.Up)
}

func TestBuildDisplayFlags(t *testing.T) {
	desc, err := Build(cubeRecord(), 5, 1.0)
	require.NoError(t, err)

	assert.Equal(t, 900, desc.Width)
	assert.Equal(t, 800, desc.Height)
	assert.False(t, desc.ShowAxes)
	assert.Equal(t, "data", desc.AspectMode)
	assert.Equal(t, "orbit", desc.DragMode)
	assert.Equal(t, "rgba(0,0,0,0)", desc.Background)
	assert.Equal(t, 0.8, desc.Opacity)
}

func TestBuildCarriesSplatScale(t *testing.T) {
	desc, err := Build(cubeRecord(), 5, 2.5)
	require.NoError(t, err)

	// splat_scale is accepted and stored but must not change marker size.
	assert.Equal(t, 2.5, desc.SplatScale)
	assert.Equal(t, 5.0, desc.PointSize)
}

func TestBuildColorTruncation(t *testing.T) {
	rec := &cloud.Record{
		Points: []r3.Vector{{}, {}, {}},
		Colors: []cloud.RGB{
			{R: 0.999, G: 0, B: 1},
			{R: 0.5, G: 0.5, B: 0.5},
			{R: 1, G: 1, B: 1},
		},
	}
	desc, err := Build(rec, 5, 1.0)
	require.NoError(t, err)

	assert.Equal(t, "rgb(254,0,255)", desc.Colors[0])
	assert.Equal(t, "rgb(127,127,127)", desc.Colors[1])
	assert.Equal(t, "rgb(255,255,255)", desc.Colors[2])
}

func TestBuildSinglePointCollapsesCamera(t *testing.T) {
	rec := &cloud.Record{
		Points: []r3.Vector{{X: 2, Y: 3, Z: 4}},
		Colors: []cloud.RGB{cloud.Gray},
	}
	desc, err := Build(rec, 5, 1.0)
	require.NoError(t, err)

	assert.Equal(t, 0.0, desc.MaxRange)
	assert.Equal(t, 0.0, desc.CameraDist)
	assert.Equal(t, r3.Vector{}, desc.Camera.Eye)
	assert.Equal(t, r3.Vector{X: 2, Y: 3, Z: 4}, desc.Center)
	assert.Equal(t, []string{"rgb(127,127,127)"}, desc.Colors)
}

func TestBuildEmptyCloud(t *testing.T) {
	_, err := Build(&cloud.Record{}, 5, 1.0)
	assert.ErrorIs(t, err, ErrEmptyCloud)
}

func TestBuildIsPure(t *testing.T) {
	rec := cubeRecord()
	a, err := Build(rec, 7, 0.5)
	require.NoError(t, err)
	b, err := Build(rec, 7, 0.5)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}
