package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/mat"
)

// PlotOptions sizes an ASCII chart.
type PlotOptions struct {
	Width, Height int
	Caption       string
}

func (o PlotOptions) options(n int) []asciigraph.Option {
	opts := []asciigraph.Option{asciigraph.Height(o.Height), asciigraph.Width(o.Width)}
	if o.Caption != "" {
		opts = append(opts, asciigraph.Caption(o.Caption))
	}
	if n > 1 {
		colors := make([]asciigraph.AnsiColor, n)
		legends := make([]string, n)
		for i := range colors {
			colors[i] = seriesColors[i%len(seriesColors)]
			legends[i] = fmt.Sprintf("θ%d", i+1)
		}
		opts = append(opts, asciigraph.SeriesColors(colors...), asciigraph.SeriesLegends(legends...))
	}
	return opts
}

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Red, asciigraph.Green, asciigraph.Blue,
	asciigraph.Yellow, asciigraph.Cyan, asciigraph.Magenta,
}

// Columns splits an N x n matrix into its n column series.
func Columns(M mat.Matrix) [][]float64 {
	_, c := M.Dims()
	out := make([][]float64, c)
	for j := range out {
		out[j] = mat.Col(nil, j, M)
	}
	return out
}

// PlotJoints draws every column of a trajectory matrix as one series.
func PlotJoints(M mat.Matrix, o PlotOptions) string {
	return PlotMany(Columns(M), o)
}

// PlotMany draws several series of equal length on shared axes.
func PlotMany(series [][]float64, o PlotOptions) string {
	if len(series) == 0 || len(series[0]) == 0 {
		return ""
	}
	return asciigraph.PlotMany(series, o.options(len(series))...)
}

// PlotSeries draws a single series.
func PlotSeries(values []float64, o PlotOptions) string {
	if len(values) == 0 {
		return ""
	}
	return asciigraph.Plot(values, o.options(1)...)
}
