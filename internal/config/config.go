// Package config loads network and runtime settings from TOML files.
//
// Example file:
//
//	[network]
//	name = "letters"
//	image_size = 64
//	channels = 1
//	labels = 65
//
//	[hyperparameters]
//	batch_size = 128
//	learning_rate = 0.001
//
//	[init]
//	scheme = "truncated_normal"
//	stddev = 0.1
//	bias = 0.1
//
//	[runtime]
//	device = "cpu"
//	seed = 1
//	training = false
//	debug = 1
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/born-ml/convnet/internal/graph"
	"github.com/born-ml/convnet/internal/layers"
)

// ErrInvalidConfig is returned for unknown keys or out-of-range values.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Devices accepted in [runtime].device.
const (
	DeviceCPU    = "cpu"
	DeviceWebGPU = "webgpu"
)

// Config is the full configuration file.
type Config struct {
	Network         Network         `toml:"network"`
	Hyperparameters Hyperparameters `toml:"hyperparameters"`
	Init            Init            `toml:"init"`
	Runtime         Runtime         `toml:"runtime"`
}

// Network selects the network name and its input and output sizes.
type Network struct {
	Name      string `toml:"name"`
	ImageSize int    `toml:"image_size"`
	Channels  int    `toml:"channels"`
	Labels    int    `toml:"labels"`
}

// Hyperparameters are handed to the layer builder.
type Hyperparameters struct {
	BatchSize    int     `toml:"batch_size"`
	LearningRate float64 `toml:"learning_rate"`
}

// Init selects the weight initialisation.
type Init struct {
	Scheme string  `toml:"scheme"`
	Stddev float64 `toml:"stddev"`
	Bias   float32 `toml:"bias"`
}

// Runtime selects the compute device and graph options.
type Runtime struct {
	Device   string `toml:"device"`
	Seed     int64  `toml:"seed"`
	Training bool   `toml:"training"`
	Debug    int    `toml:"debug"`
}

// Default returns the reference configuration: 64x64 grayscale images and
// 65 labels.
func Default() Config {
	hp := layers.DefaultHyperparameters()
	in := layers.DefaultInit()
	return Config{
		Network: Network{
			Name:      "letters",
			ImageSize: 64,
			Channels:  1,
			Labels:    hp.NumLabels,
		},
		Hyperparameters: Hyperparameters{
			BatchSize:    hp.BatchSize,
			LearningRate: hp.LearningRate,
		},
		Init: Init{
			Scheme: in.Scheme.String(),
			Stddev: in.Stddev,
			Bias:   in.Bias,
		},
		Runtime: Runtime{
			Device: DeviceCPU,
			Seed:   1,
		},
	}
}

// Load reads a TOML file over Default. Keys missing from the file keep
// their default; keys the file has but Config does not are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := checkUndecoded(md); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses TOML text over Default, with the same rules as Load.
func Decode(text string) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(text, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := checkUndecoded(md); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// checkUndecoded rejects keys present in the file but unknown to Config.
func checkUndecoded(md toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}
	keys := make([]string, len(undecoded))
	for i, k := range undecoded {
		keys[i] = k.String()
	}
	return fmt.Errorf("%w: unknown keys %s", ErrInvalidConfig, strings.Join(keys, ", "))
}

// Write encodes cfg as TOML.
func Write(w io.Writer, cfg Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// Validate checks every section.
func (c Config) Validate() error {
	id := graph.ScopeID{Network: c.Network.Name, Kind: graph.Conv, Counter: 1}
	if err := id.Validate(); err != nil {
		return fmt.Errorf("%w: network name %q", ErrInvalidConfig, c.Network.Name)
	}
	if c.Network.ImageSize <= 0 || c.Network.Channels <= 0 {
		return fmt.Errorf("%w: image %dx%d with %d channels",
			ErrInvalidConfig, c.Network.ImageSize, c.Network.ImageSize, c.Network.Channels)
	}
	if err := c.LayerHyperparameters().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := c.LayerInit(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch c.Runtime.Device {
	case DeviceCPU, DeviceWebGPU:
	default:
		return fmt.Errorf("%w: unknown device %q", ErrInvalidConfig, c.Runtime.Device)
	}
	if c.Runtime.Debug < 0 || c.Runtime.Debug > 5 {
		return fmt.Errorf("%w: debug level %d", ErrInvalidConfig, c.Runtime.Debug)
	}
	return nil
}

// LayerHyperparameters converts the file sections to builder hyperparameters.
func (c Config) LayerHyperparameters() layers.Hyperparameters {
	return layers.Hyperparameters{
		BatchSize:    c.Hyperparameters.BatchSize,
		LearningRate: c.Hyperparameters.LearningRate,
		NumLabels:    c.Network.Labels,
	}
}

// LayerInit converts [init] to a validated layers.Init.
func (c Config) LayerInit() (layers.Init, error) {
	scheme, err := layers.ParseScheme(c.Init.Scheme)
	if err != nil {
		return layers.Init{}, err
	}
	in := layers.Init{Scheme: scheme, Stddev: c.Init.Stddev, Bias: c.Init.Bias}
	return in, in.Validate()
}

// GraphOptions returns the graph options of [runtime].
func (c Config) GraphOptions() []graph.Option {
	return []graph.Option{
		graph.WithSeed(c.Runtime.Seed),
		graph.WithTraining(c.Runtime.Training),
	}
}
