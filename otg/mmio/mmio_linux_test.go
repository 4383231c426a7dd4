//go:build linux && !tinygo

package mmio

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/otgfs/otg"
	"github.com/ardnew/otgfs/pkg"
)

var _ otg.RegisterBlock = (*Mapping)(nil)

func backingFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "core")
	require.NoError(t, os.WriteFile(path, make([]byte, CoreSize), 0o600))
	return path
}

func TestMappingLoadStore(t *testing.T) {
	path := backingFile(t)
	m, err := Open(path, 0, CoreSize)
	require.NoError(t, err)

	m.Store(0x804, 0xDEADBEEF)
	m.Store(0x1000, 0x01020304)
	assert.Equal(t, uint32(0xDEADBEEF), m.Load(0x804))
	assert.Equal(t, uint32(0x01020304), m.Load(0x1000))
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), binary.NativeEndian.Uint32(data[0x804:]))
}

func TestOpenInvalid(t *testing.T) {
	path := backingFile(t)

	_, err := Open(path, 0x10, CoreSize)
	assert.ErrorIs(t, err, pkg.ErrInvalidParameter)

	_, err = Open(path, 0, 3)
	assert.ErrorIs(t, err, pkg.ErrInvalidParameter)

	_, err = Open(filepath.Join(t.TempDir(), "missing"), 0, CoreSize)
	assert.Error(t, err)
}

func TestMappingDrivesBus(t *testing.T) {
	m, err := Open(backingFile(t), 0, CoreSize)
	require.NoError(t, err)
	defer m.Close()

	bus, err := otg.New(m, otg.FullSpeedConfig())
	require.NoError(t, err)
	defer bus.Close()

	bus.SetDeviceAddress(7)
	assert.Equal(t, uint32(7<<4), m.Load(0x800)&0x7F0)
}
