//go:build tinygo

package mmio

import (
	"runtime/interrupt"
	"runtime/volatile"
	"unsafe"
)

// Block is the register window of an OTG core at a fixed address.
type Block struct {
	base uintptr
}

// NewBlock returns the register window at base, usually Config.Base.
func NewBlock(base uintptr) *Block {
	return &Block{base: base}
}

func (b *Block) reg(off uint32) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(b.base + uintptr(off)))
}

// Load reads the 32-bit register at off.
func (b *Block) Load(off uint32) uint32 {
	return b.reg(off).Get()
}

// Store writes the 32-bit register at off.
func (b *Block) Store(off, v uint32) {
	b.reg(off).Set(v)
}

// InterruptLock masks interrupts while held. It is not reentrant.
type InterruptLock struct {
	state interrupt.State
}

// Lock disables interrupts and saves the previous mask.
func (l *InterruptLock) Lock() {
	l.state = interrupt.Disable()
}

// Unlock restores the interrupt mask saved by Lock.
func (l *InterruptLock) Unlock() {
	interrupt.Restore(l.state)
}
