package otg

import (
	"encoding/binary"

	"github.com/ardnew/otgfs/otg/internal/regs"
	"github.com/ardnew/otgfs/pkg"
)

// RegisterBlock is bit-exact 32-bit access to the OTG core register space.
// Offsets are relative to the core base. Loads and stores must not be
// merged, reordered or elided by the implementation; loads of GRXSTSP and
// of the FIFO windows have side effects in hardware.
//
// Implementations must be pointer types: the driver uses the block's
// identity to guarantee a single owner.
type RegisterBlock interface {
	Load(offset uint32) uint32
	Store(offset uint32, value uint32)
}

// registers wraps a RegisterBlock with read-modify-write helpers. All
// methods assume the caller holds the bus critical section.
type registers struct {
	block     RegisterBlock
	spinLimit int
}

func (r *registers) load(off uint32) uint32 {
	return r.block.Load(off)
}

func (r *registers) store(off, v uint32) {
	r.block.Store(off, v)
}

// modify clears the bits in clear, then sets the bits in set.
func (r *registers) modify(off, clear, set uint32) {
	v := r.block.Load(off)
	r.block.Store(off, v&^clear|set)
}

func (r *registers) setBits(off, bits uint32) {
	r.modify(off, 0, bits)
}

func (r *registers) clearBits(off, bits uint32) {
	r.modify(off, bits, 0)
}

func (r *registers) hasBits(off, bits uint32) bool {
	return r.block.Load(off)&bits == bits
}

// waitClear spins until bits read back as zero, or the spin limit is hit.
func (r *registers) waitClear(off, bits uint32) error {
	for i := 0; i < r.spinLimit; i++ {
		if r.block.Load(off)&bits == 0 {
			return nil
		}
	}
	pkg.LogError(pkg.ComponentRegister, "spin limit reached waiting for clear",
		"offset", off, "bits", bits, "limit", r.spinLimit)
	return pkg.ErrTimeout
}

// waitSet spins until bits read back as one, or the spin limit is hit.
func (r *registers) waitSet(off, bits uint32) error {
	for i := 0; i < r.spinLimit; i++ {
		if r.block.Load(off)&bits == bits {
			return nil
		}
	}
	pkg.LogError(pkg.ComponentRegister, "spin limit reached waiting for set",
		"offset", off, "bits", bits, "limit", r.spinLimit)
	return pkg.ErrTimeout
}

// flushRx flushes the shared receive FIFO.
func (r *registers) flushRx() error {
	r.setBits(regs.GRSTCTL, regs.GRSTCTL_RXFFLSH)
	return r.waitClear(regs.GRSTCTL, regs.GRSTCTL_RXFFLSH)
}

// flushTx flushes the transmit FIFO of IN endpoint n.
func (r *registers) flushTx(n int) error {
	r.modify(regs.GRSTCTL, regs.GRSTCTL_TXFNUM_Msk,
		uint32(n)<<regs.GRSTCTL_TXFNUM_Pos|regs.GRSTCTL_TXFFLSH)
	return r.waitClear(regs.GRSTCTL, regs.GRSTCTL_TXFFLSH)
}

// pushFIFO writes data into the transmit FIFO of IN endpoint n one word at a
// time. A trailing partial word is zero padded in its high-order bytes.
func (r *registers) pushFIFO(n int, data []byte) {
	off := regs.FIFO(n)
	for len(data) >= 4 {
		r.block.Store(off, binary.LittleEndian.Uint32(data))
		data = data[4:]
	}
	if len(data) > 0 {
		var word [4]byte
		copy(word[:], data)
		r.block.Store(off, binary.LittleEndian.Uint32(word[:]))
	}
}

// popFIFO reads len(words) words from the shared receive FIFO.
func (r *registers) popFIFO(words []uint32) {
	off := regs.FIFO(0)
	for i := range words {
		words[i] = r.block.Load(off)
	}
}
