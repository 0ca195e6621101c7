package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/born-ml/born/autodiff"
	"github.com/born-ml/born/backend/cpu"
	"github.com/born-ml/born/tensor"
	"github.com/born-ml/convnet/internal/config"
	"github.com/born-ml/convnet/internal/graph"
	"github.com/born-ml/convnet/internal/layers"
	"github.com/born-ml/convnet/internal/network"
	"github.com/born-ml/convnet/internal/report"
	"go.dedis.ch/onet/v3/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// runner hides the backend type parameter from the commands.
type runner interface {
	forward(w io.Writer, batch int) error
	inspect(w io.Writer, histDir string, bins int) error
	close()
}

func newRunner(cfg config.Config) (runner, error) {
	switch cfg.Runtime.Device {
	case config.DeviceCPU:
		return newSession(cfg, autodiff.New(cpu.New()), nil)
	case config.DeviceWebGPU:
		return newGPURunner(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown device %q", config.ErrInvalidConfig, cfg.Runtime.Device)
	}
}

type session[B layers.Backend] struct {
	cfg       config.Config
	graph     *graph.Graph[B]
	assembler *network.Assembler[B]
	release   func()
}

func newSession[B layers.Backend](cfg config.Config, backend B, release func()) (*session[B], error) {
	in, err := cfg.LayerInit()
	if err != nil {
		return nil, err
	}
	g := graph.New(backend, cfg.GraphOptions()...)
	b, err := layers.NewBuilder(g, cfg.LayerHyperparameters(), layers.WithInit(in))
	if err != nil {
		return nil, err
	}
	return &session[B]{cfg: cfg, graph: g, assembler: network.NewAssembler(b), release: release}, nil
}

func (s *session[B]) close() {
	if s.release != nil {
		s.release()
	}
}

// build feeds a uniform random batch to a placeholder and assembles the
// configured network on it.
func (s *session[B]) build(batch int) (*layers.Output[B], error) {
	n := s.cfg.Network
	ph, err := s.graph.Placeholder("input", tensor.Shape{batch, n.Channels, n.ImageSize, n.ImageSize})
	if err != nil {
		return nil, err
	}
	data := make([]float32, ph.Shape().NumElements())
	u := distuv.Uniform{Min: 0, Max: 1, Src: s.graph.Source()}
	for i := range data {
		data[i] = float32(u.Rand())
	}
	x, err := ph.Feed(data)
	if err != nil {
		return nil, err
	}
	log.Lvl1("building", n.Name, "on", s.cfg.Runtime.Device, "batch", batch)
	return s.assembler.AddLayers(x, n.ImageSize, n.Channels, n.Labels, n.Name)
}

func (s *session[B]) forward(w io.Writer, batch int) error {
	if batch <= 0 {
		return fmt.Errorf("%w: batch %d", layers.ErrInvalidDimension, batch)
	}
	out, err := s.build(batch)
	if err != nil {
		return err
	}
	pred := report.Float64s(out.YPred.Data())
	fmt.Fprintf(w, "logits: %v\n", out.Logits.Shape())
	fmt.Fprintf(w, "y_pred: %v in [%.4f, %.4f]\n", out.YPred.Shape(), floats.Min(pred), floats.Max(pred))
	fmt.Fprintf(w, "parameters: %d\n", s.graph.NumParameters())
	return nil
}

func (s *session[B]) inspect(w io.Writer, histDir string, bins int) error {
	if _, err := s.build(1); err != nil {
		return err
	}
	params := s.graph.Parameters()
	summaries, err := report.SummarizeAll(report.Parameters(params))
	if err != nil {
		return err
	}
	if err := report.WriteTable(w, summaries); err != nil {
		return err
	}
	if histDir == "" {
		return nil
	}

	if err := os.MkdirAll(histDir, 0o755); err != nil {
		return err
	}
	for _, p := range params {
		file := filepath.Join(histDir, strings.ReplaceAll(p.Name(), "/", "_")+".png")
		if err := report.Histogram(p.Tensor().Data(), p.Name(), file, bins); err != nil {
			return err
		}
		log.Lvl2("wrote", file)
	}
	return nil
}
