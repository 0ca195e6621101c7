//go:build !windows

package main

import (
	"fmt"

	"github.com/born-ml/convnet/internal/config"
)

func newGPURunner(config.Config) (runner, error) {
	return nil, fmt.Errorf("%w: device %q is only available on windows builds",
		config.ErrInvalidConfig, config.DeviceWebGPU)
}
