package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/born-ml/convnet/internal/config"
	"github.com/born-ml/convnet/internal/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallConfig() config.Config {
	cfg := config.Default()
	cfg.Network.Name = "cli"
	cfg.Network.Labels = 4
	cfg.Hyperparameters.BatchSize = 2
	return cfg
}

func TestWriteSummary(t *testing.T) {
	infos, err := network.Describe(2, 64, 1, 4, "cli")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeSummary(&buf, infos))
	out := buf.String()
	assert.Contains(t, out, "cli_conv1")
	assert.Contains(t, out, "cli_output_layer")
	assert.Contains(t, out, "total")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), len(infos)+2)
}

func TestSession_Forward(t *testing.T) {
	r, err := newRunner(smallConfig())
	require.NoError(t, err)
	defer r.close()

	var buf bytes.Buffer
	require.NoError(t, r.forward(&buf, 2))
	assert.Contains(t, buf.String(), "logits: [2 4]")
	assert.Contains(t, buf.String(), "y_pred: [2 4]")

	// The placeholder and scopes are taken: a second build in the same
	// session fails.
	assert.Error(t, r.forward(&buf, 2))
}

func TestSession_Inspect(t *testing.T) {
	r, err := newRunner(smallConfig())
	require.NoError(t, err)
	defer r.close()

	dir := filepath.Join(t.TempDir(), "hist")
	var buf bytes.Buffer
	require.NoError(t, r.inspect(&buf, dir, 10))
	assert.Contains(t, buf.String(), "cli_fc1/weights")

	_, err = os.Stat(filepath.Join(dir, "cli_conv1_weights.png"))
	assert.NoError(t, err)
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig("", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Runtime.Debug)

	_, err = loadConfig(filepath.Join(t.TempDir(), "none.toml"), -1)
	assert.Error(t, err)
}
