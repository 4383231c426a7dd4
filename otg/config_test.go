package otg

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ardnew/otgfs/hal"
	"github.com/ardnew/otgfs/pkg"
)

func TestPresetsValid(t *testing.T) {
	for _, cfg := range []Config{FullSpeedConfig(), HighSpeedConfig()} {
		assert.NoError(t, cfg.Validate(), cfg.Name)
		assert.Equal(t, MaxEndpoints, cfg.Endpoints, cfg.Name)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"NoEndpoints", func(c *Config) { c.Endpoints = 0 }},
		{"TooManyEndpoints", func(c *Config) { c.Endpoints = MaxEndpoints + 1 }},
		{"LowSpeed", func(c *Config) { c.Speed = hal.SpeedLow }},
		{"SmallRxFIFO", func(c *Config) { c.RxFIFOWords = 8 }},
		{"SmallTx0FIFO", func(c *Config) { c.Tx0FIFOWords = 4 }},
		{"FIFORAMTooSmall", func(c *Config) { c.FIFOWords = 40 }},
		{"PoolBelowReservation", func(c *Config) { c.PoolWords = 16 }},
		{"TurnaroundTooWide", func(c *Config) { c.TurnaroundTime = 0x10 }},
		{"NoSpin", func(c *Config) { c.SpinLimit = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := FullSpeedConfig()
			tt.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), pkg.ErrInvalidParameter)
		})
	}
}
