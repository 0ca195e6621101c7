package report

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// DefaultBins is the histogram bin count used when bins <= 0.
const DefaultBins = 50

// Histogram saves a histogram of values to path. The image format follows
// the file extension (.png, .svg, .pdf).
func Histogram(values []float32, title, path string, bins int) error {
	if len(values) == 0 {
		return fmt.Errorf("%w: %s", ErrEmpty, title)
	}
	if bins <= 0 {
		bins = DefaultBins
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "value"
	p.Y.Label.Text = "count"

	h, err := plotter.NewHist(plotter.Values(Float64s(values)), bins)
	if err != nil {
		return fmt.Errorf("report: histogram %s: %w", title, err)
	}
	p.Add(h)

	if err := p.Save(4*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("report: save %s: %w", path, err)
	}
	return nil
}
