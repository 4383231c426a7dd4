package otg

import (
	"fmt"

	"github.com/ardnew/otgfs/hal"
	"github.com/ardnew/otgfs/pkg"
)

// MaxEndpoints is the number of endpoint slots per direction in the
// endpoint table. EP0 is always the control endpoint.
const MaxEndpoints = 4

// Default FIFO layout, in 32-bit words.
const (
	DefaultRxFIFOWords  = 32 // Shared receive FIFO (128 bytes)
	DefaultTx0FIFOWords = 16 // EP0 transmit FIFO (64 bytes)
	MinTxFIFOWords      = 16 // Smallest transmit FIFO the core accepts
)

// DefaultSpinLimit bounds every hardware busy-wait. The waits it guards
// (AHB idle, FIFO flush) complete in a few dozen core clocks.
const DefaultSpinLimit = 1 << 16

// Config describes one OTG core variant. It is chosen once when the driver
// is constructed.
type Config struct {
	// Name identifies the variant in logs.
	Name string

	// Base is the physical base address of the core register block.
	Base uintptr

	// Speed selects the device speed programmed into DCFG.DSPD.
	Speed hal.Speed

	// Endpoints is the number of usable endpoint slots per direction,
	// including EP0. Slots at or above it do not exist.
	Endpoints int

	// FIFOWords is the size of the core's dedicated FIFO RAM.
	FIFOWords int

	// RxFIFOWords is the size of the shared receive FIFO.
	RxFIFOWords int

	// Tx0FIFOWords is the size of the EP0 transmit FIFO.
	Tx0FIFOWords int

	// PoolWords is the size of the packet memory pool shared by OUT
	// endpoints. The first RxFIFOWords of it are reserved.
	PoolWords int

	// InternalPHY selects the embedded full-speed transceiver
	// (GUSBCFG.PHYSEL). OTG_FS has no other PHY and reads the bit as one;
	// OTG_HS needs it written or it drives the ULPI port.
	InternalPHY bool

	// TurnaroundTime is programmed into GUSBCFG.TRDT.
	TurnaroundTime uint8

	// SpinLimit bounds hardware busy-waits.
	SpinLimit int
}

// FullSpeedConfig returns the configuration of the OTG_FS core
// (STM32F4/F7, 1.25 KB FIFO RAM).
func FullSpeedConfig() Config {
	return Config{
		Name:           "otg_fs",
		Base:           0x5000_0000,
		Speed:          hal.SpeedFull,
		Endpoints:      MaxEndpoints,
		FIFOWords:      320,
		RxFIFOWords:    DefaultRxFIFOWords,
		Tx0FIFOWords:   DefaultTx0FIFOWords,
		PoolWords:      256,
		InternalPHY:    true,
		TurnaroundTime: 0x6,
		SpinLimit:      DefaultSpinLimit,
	}
}

// HighSpeedConfig returns the configuration of the OTG_HS core running on
// its embedded full-speed PHY (STM32F4/F7, 4 KB FIFO RAM). The core has six
// endpoint pairs; the driver's table uses the first four.
func HighSpeedConfig() Config {
	return Config{
		Name:           "otg_hs",
		Base:           0x4004_0000,
		Speed:          hal.SpeedFull,
		Endpoints:      MaxEndpoints,
		FIFOWords:      1024,
		RxFIFOWords:    DefaultRxFIFOWords,
		Tx0FIFOWords:   DefaultTx0FIFOWords,
		PoolWords:      512,
		InternalPHY:    true,
		TurnaroundTime: 0x9,
		SpinLimit:      DefaultSpinLimit,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch {
	case c.Endpoints < 1 || c.Endpoints > MaxEndpoints:
		return fmt.Errorf("%w: endpoints %d not in [1,%d]", pkg.ErrInvalidParameter, c.Endpoints, MaxEndpoints)
	case c.Speed != hal.SpeedFull && c.Speed != hal.SpeedHigh:
		return fmt.Errorf("%w: unsupported speed %v", pkg.ErrInvalidParameter, c.Speed)
	case c.RxFIFOWords < MinTxFIFOWords:
		return fmt.Errorf("%w: rx fifo %d words below %d", pkg.ErrInvalidParameter, c.RxFIFOWords, MinTxFIFOWords)
	case c.Tx0FIFOWords < MinTxFIFOWords:
		return fmt.Errorf("%w: tx0 fifo %d words below %d", pkg.ErrInvalidParameter, c.Tx0FIFOWords, MinTxFIFOWords)
	case c.RxFIFOWords+c.Tx0FIFOWords > c.FIFOWords:
		return fmt.Errorf("%w: fifo ram %d words cannot hold rx %d + tx0 %d",
			pkg.ErrInvalidParameter, c.FIFOWords, c.RxFIFOWords, c.Tx0FIFOWords)
	case c.PoolWords < c.RxFIFOWords:
		return fmt.Errorf("%w: pool %d words smaller than rx reservation %d",
			pkg.ErrInvalidParameter, c.PoolWords, c.RxFIFOWords)
	case c.TurnaroundTime > 0xF:
		return fmt.Errorf("%w: turnaround time %d exceeds 4 bits", pkg.ErrInvalidParameter, c.TurnaroundTime)
	case c.SpinLimit <= 0:
		return fmt.Errorf("%w: spin limit must be positive", pkg.ErrInvalidParameter)
	}
	return nil
}
