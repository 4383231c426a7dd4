package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/otgfs/hal"
	"github.com/ardnew/otgfs/otg"
	"github.com/ardnew/otgfs/pkg"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "variant.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigPresets(t *testing.T) {
	cfg, err := loadConfig("", "fs")
	require.NoError(t, err)
	assert.Equal(t, otg.FullSpeedConfig(), cfg)

	cfg, err = loadConfig("", "HS")
	require.NoError(t, err)
	assert.Equal(t, otg.HighSpeedConfig(), cfg)

	_, err = loadConfig("", "ls")
	assert.ErrorIs(t, err, pkg.ErrInvalidParameter)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeFile(t, `
name = "board"
speed = "high"
endpoints = 3
pool_words = 128
internal_phy = false
`)
	cfg, err := loadConfig(path, "hs")
	require.NoError(t, err)

	want := otg.HighSpeedConfig()
	want.Name = "board"
	want.Speed = hal.SpeedHigh
	want.Endpoints = 3
	want.PoolWords = 128
	want.InternalPHY = false
	assert.Equal(t, want, cfg)
}

func TestLoadConfigRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"UnknownKey", `fifo_depth = 10`},
		{"BadSpeed", `speed = "warp"`},
		{"Invalid", `endpoints = 9`},
		{"Syntax", `endpoints = `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(writeFile(t, tt.content), "fs")
			assert.Error(t, err)
		})
	}

	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml"), "fs")
	assert.Error(t, err)
}

func TestWriteConfigRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeConfig(&buf, otg.FullSpeedConfig()))
	assert.Contains(t, buf.String(), `speed = "full"`)
	assert.Contains(t, buf.String(), `internal_phy = true`)

	var file variantFile
	_, err := toml.Decode(buf.String(), &file)
	require.NoError(t, err)
	cfg, err := file.config()
	require.NoError(t, err)
	assert.Equal(t, otg.FullSpeedConfig(), cfg)
}
