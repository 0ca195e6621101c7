//go:build windows

package main

import (
	"errors"

	"github.com/born-ml/born/autodiff"
	"github.com/born-ml/born/backend/webgpu"
	"github.com/born-ml/convnet/internal/config"
)

func newGPURunner(cfg config.Config) (runner, error) {
	if !webgpu.IsAvailable() {
		return nil, errors.New("webgpu: no compatible GPU found")
	}
	gpu, err := webgpu.New()
	if err != nil {
		return nil, err
	}
	return newSession(cfg, autodiff.New(gpu), gpu.Release)
}
