package viz

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Figure describes a line chart of several series sampled at common times.
type Figure struct {
	Title  string
	XLabel string
	YLabel string
	Times  []float64
	Series [][]float64
	// Names labels each series in the legend. Missing names default to q1, q2, ...
	Names []string
}

// Plot builds the gonum plot for the figure.
func (f Figure) Plot() (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = f.Title
	p.X.Label.Text = f.XLabel
	if p.X.Label.Text == "" {
		p.X.Label.Text = "Time (s)"
	}
	p.Y.Label.Text = f.YLabel

	for i, s := range f.Series {
		if len(s) != len(f.Times) {
			return nil, errors.Errorf("series %d has %d samples, want %d", i, len(s), len(f.Times))
		}
		pts := make(plotter.XYs, len(s))
		for k := range s {
			pts[k] = plotter.XY{X: f.Times[k], Y: s[k]}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, errors.Wrapf(err, "series %d", i)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1)
		p.Add(line)
		name := fmt.Sprintf("q%d", i+1)
		if i < len(f.Names) && f.Names[i] != "" {
			name = f.Names[i]
		}
		p.Legend.Add(name, line)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// SavePNG renders the figure to path. The image format follows the file
// extension.
func (f Figure) SavePNG(path string) error {
	p, err := f.Plot()
	if err != nil {
		return err
	}
	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "saving plot to %s", path)
	}
	return nil
}
