// Package plotting renders labeled datasets and prediction results as
// scatter plots of their first two features.
package plotting

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/YuminosukeSato/farout/pkg/errors"
)

var palette = []color.RGBA{
	{R: 31, G: 119, B: 180, A: 255},
	{R: 255, G: 127, B: 14, A: 255},
	{R: 44, G: 160, B: 44, A: 255},
	{R: 148, G: 103, B: 189, A: 255},
	{R: 140, G: 86, B: 75, A: 255},
	{R: 227, G: 119, B: 194, A: 255},
}

var errorColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}

type config struct {
	title string
	size  vg.Length
	radii []float64
}

// Option configures a plot.
type Option func(*config)

// WithTitle sets the plot title.
func WithTitle(title string) Option {
	return func(c *config) { c.title = title }
}

// WithSize sets the width and height of the square canvas.
func WithSize(size vg.Length) Option {
	return func(c *config) { c.size = size }
}

// WithBandBoundaries draws quarter-circle arcs around the origin at the
// given distances.
func WithBandBoundaries(radii ...float64) Option {
	return func(c *config) { c.radii = append(c.radii, radii...) }
}

func newConfig(opts []Option) config {
	c := config{size: 5 * vg.Inch}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Dataset saves a scatter plot of a dataset whose last column is the label,
// one colour per label. The format follows the file extension
// (.png, .svg, .pdf, ...).
func Dataset(data mat.Matrix, filename string, opts ...Option) error {
	rows, cols, err := checkShape("plotting.Dataset", data, 3)
	if err != nil {
		return err
	}
	cfg := newConfig(opts)

	byLabel := make(map[float64]plotter.XYs)
	for i := 0; i < rows; i++ {
		label := data.At(i, cols-1)
		byLabel[label] = append(byLabel[label], plotter.XY{X: data.At(i, 0), Y: data.At(i, 1)})
	}

	p := newPlot(cfg)
	for k, label := range sortedKeys(byLabel) {
		s, err := plotter.NewScatter(byLabel[label])
		if err != nil {
			return errors.Wrap(err, "plotting.Dataset: scatter")
		}
		s.Color = palette[k%len(palette)]
		s.Radius = vg.Points(1.5)
		p.Add(s)
		p.Legend.Add(fmt.Sprintf("class %g", label), s)
	}
	if err := addBoundaries(p, cfg.radii); err != nil {
		return err
	}
	return save(p, cfg, filename)
}

// Results saves a scatter plot of a results table with rows
// [x..., expected, predicted]. Correct predictions are coloured by class,
// misclassified points are drawn as red crosses.
func Results(results mat.Matrix, filename string, opts ...Option) error {
	rows, cols, err := checkShape("plotting.Results", results, 4)
	if err != nil {
		return err
	}
	cfg := newConfig(opts)

	correct := make(map[float64]plotter.XYs)
	var wrong plotter.XYs
	for i := 0; i < rows; i++ {
		xy := plotter.XY{X: results.At(i, 0), Y: results.At(i, 1)}
		expected, predicted := results.At(i, cols-2), results.At(i, cols-1)
		if expected == predicted {
			correct[predicted] = append(correct[predicted], xy)
		} else {
			wrong = append(wrong, xy)
		}
	}

	p := newPlot(cfg)
	for k, label := range sortedKeys(correct) {
		s, err := plotter.NewScatter(correct[label])
		if err != nil {
			return errors.Wrap(err, "plotting.Results: scatter")
		}
		s.Color = palette[k%len(palette)]
		s.Radius = vg.Points(2)
		p.Add(s)
		p.Legend.Add(fmt.Sprintf("predicted %g", label), s)
	}
	if len(wrong) > 0 {
		s, err := plotter.NewScatter(wrong)
		if err != nil {
			return errors.Wrap(err, "plotting.Results: scatter")
		}
		s.Color = errorColor
		s.Shape = draw.CrossGlyph{}
		s.Radius = vg.Points(3)
		p.Add(s)
		p.Legend.Add(fmt.Sprintf("misclassified (%d)", len(wrong)), s)
	}
	if err := addBoundaries(p, cfg.radii); err != nil {
		return err
	}
	return save(p, cfg, filename)
}

func checkShape(op string, m mat.Matrix, minCols int) (rows, cols int, err error) {
	if m == nil {
		return 0, 0, errors.NewValueError(op, "matrix must not be nil")
	}
	rows, cols = m.Dims()
	if rows == 0 {
		return 0, 0, errors.NewEmptyDataError(op)
	}
	if cols < minCols {
		return 0, 0, errors.NewDimensionError(op, minCols, cols, 1)
	}
	return rows, cols, nil
}

func newPlot(cfg config) *plot.Plot {
	p := plot.New()
	p.Title.Text = cfg.title
	p.X.Label.Text = "x0"
	p.Y.Label.Text = "x1"
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	return p
}

func addBoundaries(p *plot.Plot, radii []float64) error {
	const steps = 64
	for _, r := range radii {
		if r <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		arc := make(plotter.XYs, steps+1)
		for i := range arc {
			theta := math.Pi / 2 * float64(i) / steps
			arc[i] = plotter.XY{X: r * math.Cos(theta), Y: r * math.Sin(theta)}
		}
		l, err := plotter.NewLine(arc)
		if err != nil {
			return errors.Wrap(err, "plotting: boundary")
		}
		l.Color = color.Gray{Y: 80}
		l.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(l)
	}
	return nil
}

func save(p *plot.Plot, cfg config, filename string) error {
	if filename == "" {
		return errors.NewValueError("plotting", "file name must not be empty")
	}
	if err := p.Save(cfg.size, cfg.size, filename); err != nil {
		return errors.Wrapf(err, "save plot %s", filename)
	}
	return nil
}

func sortedKeys(m map[float64]plotter.XYs) []float64 {
	keys := make([]float64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Float64s(keys)
	return keys
}
