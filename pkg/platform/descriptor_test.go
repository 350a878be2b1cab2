package platform

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-vfs/vfst"
)

const sampleDescriptor = `{
  "chassis": {"name": "SS-1000"},
  "DPUS": {
    "DPU0": {"bus_info": "0000:01:00.0"},
    "DPU1": {"bus_info": "0000:02:00.0"},
    "DPU2": {"midplane_interface": "dpu2"}
  }
}`

func TestLoadAndLookup(t *testing.T) {
	fs, cleanup, err := vfst.NewTestFS(map[string]interface{}{
		"/usr/share/sonic/platform/platform.json": sampleDescriptor,
	})
	require.NoError(t, err)
	defer cleanup()

	d, err := Load(fs, DefaultPath)
	require.NoError(t, err)

	bus, err := d.BusInfo("DPU0")
	require.NoError(t, err)
	assert.Equal(t, "0000:01:00.0", bus)

	_, err = d.BusInfo("DPU5")
	assert.True(t, errors.Is(err, ErrModuleNotFound))

	_, err = d.BusInfo("DPU2")
	assert.True(t, errors.Is(err, ErrModuleNotFound), "entry without bus_info")

	assert.Equal(t, []string{"DPU0", "DPU1", "DPU2"}, d.Modules())
	assert.Equal(t, map[string]string{"DPU0": "0000:01:00.0", "DPU1": "0000:02:00.0"}, d.BusMap())
}

func TestLoadErrors(t *testing.T) {
	fs, cleanup, err := vfst.NewTestFS(map[string]interface{}{
		"/broken.json": `{"DPUS": {"DPU0": `,
	})
	require.NoError(t, err)
	defer cleanup()

	_, err = Load(fs, "/missing.json")
	assert.Error(t, err)

	_, err = Load(fs, "/broken.json")
	assert.True(t, errors.Is(err, ErrInvalidDescriptor))
}

func TestModuleNameIsEscaped(t *testing.T) {
	d, err := Parse([]byte(`{"DPUS": {"DPU.0": {"bus_info": "0000:03:00.0"}, "DPU": {"0": {"bus_info": "wrong"}}}}`))
	require.NoError(t, err)

	bus, err := d.BusInfo("DPU.0")
	require.NoError(t, err)
	assert.Equal(t, "0000:03:00.0", bus)
}

func TestNoDPUs(t *testing.T) {
	d, err := Parse([]byte(`{"chassis": {}}`))
	require.NoError(t, err)
	assert.Empty(t, d.Modules())
	_, err = d.BusInfo("DPU0")
	assert.Error(t, err)
}
