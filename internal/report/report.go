// Package report summarises network parameters.
package report

import (
	"errors"
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/born-ml/convnet/internal/graph"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrEmpty is returned when there are no values to summarise.
var ErrEmpty = errors.New("report: no values")

// Summary holds descriptive statistics of one parameter tensor.
type Summary struct {
	Name   string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Max    float64
	Median float64
	P99    float64 // 99th percentile of |x|
}

// Named is anything with a name and float32 values, such as a parameter.
type Named interface {
	Name() string
	Values() []float32
}

type parameter[B graph.Backend] struct {
	p *graph.Parameter[B]
}

func (p parameter[B]) Name() string      { return p.p.Name() }
func (p parameter[B]) Values() []float32 { return p.p.Tensor().Data() }

// Parameters adapts graph parameters for SummarizeAll.
func Parameters[B graph.Backend](params []*graph.Parameter[B]) []Named {
	out := make([]Named, len(params))
	for i, p := range params {
		out[i] = parameter[B]{p}
	}
	return out
}

// Summarize computes a Summary of values.
func Summarize(name string, values []float32) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, fmt.Errorf("%w: %s", ErrEmpty, name)
	}
	x := Float64s(values)
	mean, std := stat.MeanStdDev(x, nil)
	if len(x) == 1 {
		std = 0
	}
	median, err := stats.Median(x)
	if err != nil {
		return Summary{}, fmt.Errorf("report: %s median: %w", name, err)
	}
	abs := make([]float64, len(x))
	for i, v := range x {
		abs[i] = math.Abs(v)
	}
	p99, err := stats.Percentile(abs, 99)
	if err != nil {
		return Summary{}, fmt.Errorf("report: %s percentile: %w", name, err)
	}
	return Summary{
		Name:   name,
		Count:  len(x),
		Mean:   mean,
		Std:    std,
		Min:    floats.Min(x),
		Max:    floats.Max(x),
		Median: median,
		P99:    p99,
	}, nil
}

// SummarizeAll summarises every item in order.
func SummarizeAll(items []Named) ([]Summary, error) {
	out := make([]Summary, 0, len(items))
	for _, it := range items {
		s, err := Summarize(it.Name(), it.Values())
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// WriteTable writes summaries as an aligned text table.
func WriteTable(w io.Writer, summaries []Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "name\tcount\tmean\tstd\tmin\tmax\tmedian\tp99|x|\t")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%d\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t\n",
			s.Name, s.Count, s.Mean, s.Std, s.Min, s.Max, s.Median, s.P99)
	}
	return tw.Flush()
}

// Float64s widens float32 values.
func Float64s(values []float32) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
