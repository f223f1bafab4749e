package scene

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// RenderHTML writes a self-contained HTML page rendering the description as
// an ECharts GL scatter3D chart. ECharts' default view control already
// rotates around the grid center on drag, which matches the orbit drag mode
// the description asks for; the exact camera pose in Description.Camera is
// advisory for renderers that can place an eye point directly.
func RenderHTML(w io.Writer, d *Description) error {
	chart := charts.NewScatter3D()

	chart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:       "Gaussian Splatting Viewer",
			Width:           fmt.Sprintf("%dpx", d.Width),
			Height:          fmt.Sprintf("%dpx", d.Height),
			BackgroundColor: d.Background,
		}),
		charts.WithXAxis3DOpts(opts.XAxis3D{Show: opts.Bool(d.ShowAxes)}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Show: opts.Bool(d.ShowAxes)}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Show: opts.Bool(d.ShowAxes)}),
		charts.WithGrid3DOpts(grid3D(d)),
	)

	data := make([]opts.Chart3DData, 0, len(d.Positions))
	for i, p := range d.Positions {
		data = append(data, opts.Chart3DData{
			Value: []interface{}{p.X, p.Y, p.Z},
			ItemStyle: &opts.ItemStyle{
				Color:   d.Colors[i],
				Opacity: opts.Float(float32(d.Opacity)),
			},
		})
	}

	chart.AddSeries("points", data,
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: float32(d.PointSize)}),
	)

	return chart.Render(w)
}

// grid3D hides the box and, for the "data" aspect mode, scales the box sides
// to the data extents so one data unit is the same length on every axis.
func grid3D(d *Description) opts.Grid3D {
	g := opts.Grid3D{Show: opts.Bool(d.ShowAxes)}
	if d.AspectMode != "data" || d.MaxRange <= 0 {
		return g
	}
	spans := d.Bounds.Spans()
	const boxSide = 100.0
	g.BoxWidth = float32(boxSide * spans.X / d.MaxRange)
	g.BoxDepth = float32(boxSide * spans.Y / d.MaxRange)
	g.BoxHeight = float32(boxSide * spans.Z / d.MaxRange)
	return g
}
