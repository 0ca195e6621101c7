package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/born-ml/convnet/internal/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 64, cfg.Network.ImageSize)
	assert.Equal(t, 65, cfg.Network.Labels)
	assert.Equal(t, layers.DefaultHyperparameters(), cfg.LayerHyperparameters())

	in, err := cfg.LayerInit()
	require.NoError(t, err)
	assert.Equal(t, layers.DefaultInit(), in)
	assert.Len(t, cfg.GraphOptions(), 2)
}

func TestWriteDecodeRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Network.Name = "digits"
	cfg.Network.Labels = 10
	cfg.Init.Scheme = "xavier"
	cfg.Runtime.Training = true

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, cfg))
	assert.Contains(t, buf.String(), "[network]")
	assert.Contains(t, buf.String(), `name = "digits"`)

	got, err := Decode(buf.String())
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "net.toml")
	text := `
[network]
name = "small"
image_size = 128
channels = 3

[runtime]
seed = 9
`
	require.NoError(t, os.WriteFile(path, []byte(text), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "small", cfg.Network.Name)
	assert.Equal(t, 128, cfg.Network.ImageSize)
	assert.Equal(t, 3, cfg.Network.Channels)
	assert.Equal(t, int64(9), cfg.Runtime.Seed)
	// Unset keys keep their defaults.
	assert.Equal(t, 65, cfg.Network.Labels)
	assert.Equal(t, DeviceCPU, cfg.Runtime.Device)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Decode("[network]\nimage_sise = 64\n")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Decode("[network\n")
	assert.Error(t, err)
}

func TestUnknownKeysAllReported(t *testing.T) {
	text := "[network]\nimage_sise = 64\n\n[runtime]\ndevise = \"cpu\"\n"

	_, err := Decode(text)
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "network.image_sise")
	assert.Contains(t, err.Error(), "runtime.devise")

	path := filepath.Join(t.TempDir(), "typos.toml")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o600))
	_, err = Load(path)
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "network.image_sise")
	assert.Contains(t, err.Error(), "runtime.devise")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty name", func(c *Config) { c.Network.Name = "" }},
		{"slash in name", func(c *Config) { c.Network.Name = "a/b" }},
		{"zero image", func(c *Config) { c.Network.ImageSize = 0 }},
		{"zero channels", func(c *Config) { c.Network.Channels = 0 }},
		{"zero labels", func(c *Config) { c.Network.Labels = 0 }},
		{"zero batch", func(c *Config) { c.Hyperparameters.BatchSize = 0 }},
		{"negative rate", func(c *Config) { c.Hyperparameters.LearningRate = -1 }},
		{"unknown scheme", func(c *Config) { c.Init.Scheme = "he" }},
		{"zero stddev", func(c *Config) { c.Init.Stddev = 0 }},
		{"unknown device", func(c *Config) { c.Runtime.Device = "tpu" }},
		{"debug level", func(c *Config) { c.Runtime.Debug = 9 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
