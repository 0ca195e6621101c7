// Package main provides the convnet CLI.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/born-ml/convnet/internal/config"
	"github.com/born-ml/convnet/internal/network"
	"go.dedis.ch/onet/v3/log"
)

const version = "v0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage(os.Stdout)
		return
	}

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "version":
		fmt.Printf("convnet %s\n", version)
	case "config":
		err = config.Write(os.Stdout, config.Default())
	case "summary":
		err = runSummary(args)
	case "forward":
		err = runForward(args)
	case "inspect":
		err = runInspect(args)
	case "help", "-h", "--help":
		usage(os.Stdout)
	default:
		usage(os.Stderr)
		os.Exit(2)
	}
	log.ErrFatal(err, cmd)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "convnet - fixed-topology convolutional network builder")
	fmt.Fprintf(w, "Version: %s\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  version    Show version")
	fmt.Fprintln(w, "  config     Print the default configuration as TOML")
	fmt.Fprintln(w, "  summary    Print the layer table of the configured network")
	fmt.Fprintln(w, "  forward    Build the network and run a random batch through it")
	fmt.Fprintln(w, "  inspect    Build the network and print parameter statistics")
}

// commonFlags registers -config and -debug on fs.
func commonFlags(fs *flag.FlagSet) (path *string, debug *int) {
	path = fs.String("config", "", "TOML configuration file (default: built-in)")
	debug = fs.Int("debug", -1, "Debug level 0-5 (default: [runtime].debug)")
	return path, debug
}

// loadConfig loads path, or the defaults when path is empty, and applies
// the debug level.
func loadConfig(path string, debug int) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return config.Config{}, err
		}
	}
	if debug >= 0 {
		cfg.Runtime.Debug = debug
	}
	log.SetDebugVisible(cfg.Runtime.Debug)
	log.Lvlf2("config: network %q, %dx%dx%d, %d labels, device %s",
		cfg.Network.Name, cfg.Network.ImageSize, cfg.Network.ImageSize,
		cfg.Network.Channels, cfg.Network.Labels, cfg.Runtime.Device)
	return cfg, nil
}

func runSummary(args []string) error {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	path, debug := commonFlags(fs)
	_ = fs.Parse(args)

	cfg, err := loadConfig(*path, *debug)
	if err != nil {
		return err
	}
	n := cfg.Network
	infos, err := network.Describe(cfg.Hyperparameters.BatchSize, n.ImageSize, n.Channels, n.Labels, n.Name)
	if err != nil {
		return err
	}
	return writeSummary(os.Stdout, infos)
}

func writeSummary(w io.Writer, infos []network.LayerInfo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCOPE\tKIND\tOUTPUT\tPARAMS")
	for _, l := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%v\t%d\n", l.Scope, l.Kind, l.Shape, l.Params)
	}
	fmt.Fprintf(tw, "total\t\t\t%d\n", network.TotalParams(infos))
	return tw.Flush()
}

func runForward(args []string) error {
	fs := flag.NewFlagSet("forward", flag.ExitOnError)
	path, debug := commonFlags(fs)
	batch := fs.Int("batch", 1, "Batch size of the random input")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*path, *debug)
	if err != nil {
		return err
	}
	r, err := newRunner(cfg)
	if err != nil {
		return err
	}
	defer r.close()
	return r.forward(os.Stdout, *batch)
}

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	path, debug := commonFlags(fs)
	hist := fs.String("hist", "", "Directory to write one histogram PNG per parameter")
	bins := fs.Int("bins", 0, "Histogram bins (default 50)")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*path, *debug)
	if err != nil {
		return err
	}
	r, err := newRunner(cfg)
	if err != nil {
		return err
	}
	defer r.close()
	return r.inspect(os.Stdout, *hist, *bins)
}
