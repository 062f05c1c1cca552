package fleet

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/mecfleet/internal/device"
)

func newRegistry(t *testing.T, ids ...int) device.Registry {
	t.Helper()
	reg := make(device.Registry)
	for _, id := range ids {
		dev, err := device.New(fmt.Sprintf("/fleet/%03d-S%d-10.0.0.%d", id, id, id), device.Credentials{User: "mec", Password: "pw"})
		require.NoError(t, err)
		reg[id] = dev
	}
	return reg
}
