package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ardnew/otgfs/hal"
	"github.com/ardnew/otgfs/otg"
	"github.com/ardnew/otgfs/pkg"
)

// variantFile is the TOML form of otg.Config. Keys left out of a file keep
// the preset's value.
type variantFile struct {
	Name           string `toml:"name"`
	Base           uint64 `toml:"base"`
	Speed          string `toml:"speed"`
	Endpoints      int    `toml:"endpoints"`
	FIFOWords      int    `toml:"fifo_words"`
	RxFIFOWords    int    `toml:"rx_fifo_words"`
	Tx0FIFOWords   int    `toml:"tx0_fifo_words"`
	PoolWords      int    `toml:"pool_words"`
	InternalPHY    bool   `toml:"internal_phy"`
	TurnaroundTime uint8  `toml:"turnaround_time"`
	SpinLimit      int    `toml:"spin_limit"`
}

func preset(variant string) (otg.Config, error) {
	switch strings.ToLower(variant) {
	case "", "fs":
		return otg.FullSpeedConfig(), nil
	case "hs":
		return otg.HighSpeedConfig(), nil
	}
	return otg.Config{}, fmt.Errorf("%w: unknown variant %q", pkg.ErrInvalidParameter, variant)
}

func speedName(s hal.Speed) string {
	if s == hal.SpeedHigh {
		return "high"
	}
	return "full"
}

func parseSpeed(s string) (hal.Speed, error) {
	switch strings.ToLower(s) {
	case "full", "fs":
		return hal.SpeedFull, nil
	case "high", "hs":
		return hal.SpeedHigh, nil
	}
	return hal.SpeedUnknown, fmt.Errorf("%w: unknown speed %q", pkg.ErrInvalidParameter, s)
}

func fromConfig(cfg otg.Config) variantFile {
	return variantFile{
		Name:           cfg.Name,
		Base:           uint64(cfg.Base),
		Speed:          speedName(cfg.Speed),
		Endpoints:      cfg.Endpoints,
		FIFOWords:      cfg.FIFOWords,
		RxFIFOWords:    cfg.RxFIFOWords,
		Tx0FIFOWords:   cfg.Tx0FIFOWords,
		PoolWords:      cfg.PoolWords,
		InternalPHY:    cfg.InternalPHY,
		TurnaroundTime: cfg.TurnaroundTime,
		SpinLimit:      cfg.SpinLimit,
	}
}

func (f variantFile) config() (otg.Config, error) {
	speed, err := parseSpeed(f.Speed)
	if err != nil {
		return otg.Config{}, err
	}
	return otg.Config{
		Name:           f.Name,
		Base:           uintptr(f.Base),
		Speed:          speed,
		Endpoints:      f.Endpoints,
		FIFOWords:      f.FIFOWords,
		RxFIFOWords:    f.RxFIFOWords,
		Tx0FIFOWords:   f.Tx0FIFOWords,
		PoolWords:      f.PoolWords,
		InternalPHY:    f.InternalPHY,
		TurnaroundTime: f.TurnaroundTime,
		SpinLimit:      f.SpinLimit,
	}, nil
}

// loadConfig starts from the named preset and applies the overrides in
// path, if any.
func loadConfig(path, variant string) (otg.Config, error) {
	cfg, err := preset(variant)
	if err != nil {
		return otg.Config{}, err
	}
	if path == "" {
		return cfg, cfg.Validate()
	}

	file := fromConfig(cfg)
	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		return otg.Config{}, fmt.Errorf("load %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return otg.Config{}, fmt.Errorf("%w: %s: unknown key %q", pkg.ErrInvalidParameter, path, undecoded[0].String())
	}

	cfg, err = file.config()
	if err != nil {
		return otg.Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return otg.Config{}, fmt.Errorf("%s: %w", path, err)
	}
	pkg.LogDebug(pkg.ComponentCmd, "configuration loaded", "path", path, "variant", cfg.Name)
	return cfg, nil
}

func writeConfig(w io.Writer, cfg otg.Config) error {
	return toml.NewEncoder(w).Encode(fromConfig(cfg))
}
