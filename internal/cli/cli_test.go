package cli

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/mecfleet/internal/config"
	"github.com/rileyhilliard/mecfleet/internal/device"
	"github.com/rileyhilliard/mecfleet/internal/ui"
)

// newFleetFs creates /fleet/<id>-S<id>-10.0.0.<id> for each id.
func newFleetFs(t *testing.T, ids ...int) afero.Fs {
	t.Helper()
	ui.DisableColors()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/fleet", 0755))
	for _, id := range ids {
		require.NoError(t, fs.MkdirAll(fleetDir(id), 0755))
	}
	return fs
}

func fleetDir(id int) string {
	return filepath.Join("/fleet", fmt.Sprintf("%03d-S%d-10.0.0.%d", id, id, id))
}

func newRegistry(t *testing.T, ids ...int) device.Registry {
	t.Helper()
	reg := make(device.Registry)
	for _, id := range ids {
		dev, err := device.New(fleetDir(id), device.Credentials{User: "mec"})
		require.NoError(t, err)
		reg[id] = dev
	}
	return reg
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Root = "/fleet"
	cfg.Calibration.Dir = "/cal"
	cfg.Calibration.Staging = "/tmp/stage"
	cfg.Execution.DryRun = true
	cfg.Execution.Verbose = false
	return cfg
}
