// Package sim is a software model of the OTG core register file.
//
// It models the parts of the core the device driver depends on: sticky
// write-1-to-clear interrupt flags, the shared receive status queue and FIFO,
// per-endpoint transmit FIFOs, self-clearing FIFO flush bits and endpoint
// control registers with write-only bits. Every store is counted per
// register so tests can assert on the exact hardware traffic.
//
// A [Core] is safe for concurrent use; the driver may poll it while a test
// injects traffic.
package sim

import (
	"encoding/binary"
	"sync"

	"github.com/ardnew/otgfs/otg/internal/regs"
	"github.com/ardnew/otgfs/pkg"
)

// Number of transmit FIFOs modeled. GRSTCTL.TXFNUM can address 16.
const txFIFOs = 16

// StuckFlush makes flush bits never self-clear.
const StuckFlush = -1

// Core is a simulated OTG core register block.
type Core struct {
	mu sync.Mutex

	reg    map[uint32]uint32
	last   map[uint32]uint32
	writes map[uint32]int

	rxStatus []uint32
	rxFIFO   []uint32
	txFIFO   [txFIFOs][]uint32

	clock      bool
	flushDelay int
	flushLeft  int
	rxFlushes  int
	txFlushes  [txFIFOs]int
}

// New returns a core in its power-on state with the clock gated.
func New() *Core {
	return &Core{
		reg:    make(map[uint32]uint32),
		last:   make(map[uint32]uint32),
		writes: make(map[uint32]int),
	}
}

// Load implements otg.RegisterBlock.
func (c *Core) Load(off uint32) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := regs.IsFIFO(off); ok && n < txFIFOs {
		return c.popRx()
	}

	switch off {
	case regs.GRSTCTL:
		return c.loadGRSTCTL()
	case regs.GINTSTS:
		return c.loadGINTSTS()
	case regs.DAINT:
		return c.daint()
	case regs.GRXSTSR:
		if len(c.rxStatus) == 0 {
			return 0
		}
		return c.rxStatus[0]
	case regs.GRXSTSP:
		if len(c.rxStatus) == 0 {
			return 0
		}
		v := c.rxStatus[0]
		c.rxStatus = c.rxStatus[1:]
		return v
	}
	return c.reg[off]
}

// Store implements otg.RegisterBlock.
func (c *Core) Store(off, v uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writes[off]++
	c.last[off] = v

	if n, ok := regs.IsFIFO(off); ok && n < txFIFOs {
		c.txFIFO[n] = append(c.txFIFO[n], v)
		return
	}

	switch {
	case off == regs.GINTSTS:
		c.reg[off] &^= v &^ regs.GINTSTS_ReadOnly
	case off == regs.GRSTCTL:
		c.storeGRSTCTL(v)
	case isEndpointReg(off, 0x08):
		c.reg[off] &^= v
	case isEndpointReg(off, 0x00):
		c.storeDEPCTL(off, v)
	default:
		c.reg[off] = v
	}
}

// isEndpointReg reports whether off is the register at offset sub within an
// IN or OUT endpoint register set.
func isEndpointReg(off, sub uint32) bool {
	if off < regs.DIEPCTL(0) || off >= regs.DOEPCTL(txFIFOs) {
		return false
	}
	if off >= regs.DIEPCTL(txFIFOs) && off < regs.DOEPCTL(0) {
		return false
	}
	return off&0x1F == sub
}

func (c *Core) storeDEPCTL(off, v uint32) {
	nv := v &^ regs.DEPCTL_WriteOnly
	if v&regs.DEPCTL_EPDIS != 0 {
		// Disabling completes immediately.
		nv &^= regs.DEPCTL_EPDIS | regs.DEPCTL_EPENA
	}
	c.reg[off] = nv
}

func (c *Core) storeGRSTCTL(v uint32) {
	v &^= regs.GRSTCTL_AHBIDL
	if v&regs.GRSTCTL_RXFFLSH != 0 {
		c.rxStatus = nil
		c.rxFIFO = nil
		c.rxFlushes++
	}
	if v&regs.GRSTCTL_TXFFLSH != 0 {
		n := (v & regs.GRSTCTL_TXFNUM_Msk) >> regs.GRSTCTL_TXFNUM_Pos
		if n == regs.GRSTCTL_TXFNUM_ALL {
			for i := range c.txFIFO {
				c.txFIFO[i] = nil
				c.txFlushes[i]++
			}
		} else if n < txFIFOs {
			c.txFIFO[n] = nil
			c.txFlushes[n]++
		}
	}
	flush := regs.GRSTCTL_RXFFLSH | regs.GRSTCTL_TXFFLSH
	if v&flush != 0 && c.flushDelay == 0 {
		v &^= flush
	}
	c.flushLeft = c.flushDelay
	c.reg[regs.GRSTCTL] = v
}

func (c *Core) loadGRSTCTL() uint32 {
	flush := regs.GRSTCTL_RXFFLSH | regs.GRSTCTL_TXFFLSH
	v := c.reg[regs.GRSTCTL]
	if v&flush != 0 && c.flushLeft >= 0 {
		if c.flushLeft == 0 {
			v &^= flush
			c.reg[regs.GRSTCTL] = v
		} else {
			c.flushLeft--
		}
	}
	if c.clock {
		v |= regs.GRSTCTL_AHBIDL
	}
	return v
}

func (c *Core) loadGINTSTS() uint32 {
	v := c.reg[regs.GINTSTS] &^ regs.GINTSTS_ReadOnly
	if len(c.rxStatus) > 0 {
		v |= regs.GINTSTS_RXFLVL
	}
	d := c.daint() & c.reg[regs.DAINTMSK]
	if d&0xFFFF != 0 {
		v |= regs.GINTSTS_IEPINT
	}
	if d>>regs.DAINT_OEP_Pos != 0 {
		v |= regs.GINTSTS_OEPINT
	}
	return v
}

// daint collects the unmasked endpoint interrupt flags.
func (c *Core) daint() uint32 {
	var d uint32
	for i := 0; i < txFIFOs; i++ {
		if c.reg[regs.DIEPINT(i)]&c.reg[regs.DIEPMSK] != 0 {
			d |= 1 << i
		}
		if c.reg[regs.DOEPINT(i)]&c.reg[regs.DOEPMSK] != 0 {
			d |= 1 << (regs.DAINT_OEP_Pos + i)
		}
	}
	return d
}

func (c *Core) popRx() uint32 {
	if len(c.rxFIFO) == 0 {
		return 0
	}
	v := c.rxFIFO[0]
	c.rxFIFO = c.rxFIFO[1:]
	return v
}

// EnableClock ungates the core clock. Until it is called GRSTCTL.AHBIDL
// reads zero.
func (c *Core) EnableClock() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock = true
}

// ClockEnabled reports whether EnableClock was called.
func (c *Core) ClockEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clock
}

// SetFlushDelay sets how many GRSTCTL reads a FIFO flush stays busy.
// StuckFlush keeps it busy forever.
func (c *Core) SetFlushDelay(reads int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushDelay = reads
}

// SetInterrupt raises GINTSTS flags.
func (c *Core) SetInterrupt(bits uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reg[regs.GINTSTS] |= bits
}

// BusReset signals a bus reset followed by enumeration done.
func (c *Core) BusReset() {
	pkg.LogDebug(pkg.ComponentSim, "bus reset")
	c.SetInterrupt(regs.GINTSTS_USBRST | regs.GINTSTS_ENUMDNE)
}

// Suspend signals bus idle.
func (c *Core) Suspend() {
	pkg.LogDebug(pkg.ComponentSim, "suspend")
	c.SetInterrupt(regs.GINTSTS_USBSUSP)
}

// Wakeup signals resume signaling from the host.
func (c *Core) Wakeup() {
	pkg.LogDebug(pkg.ComponentSim, "wakeup")
	c.SetInterrupt(regs.GINTSTS_WKUPINT)
}

// PushRxStatus appends a receive status entry and its payload.
func (c *Core) PushRxStatus(entry uint32, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rxStatus = append(c.rxStatus, entry)
	c.rxFIFO = append(c.rxFIFO, words(data)...)
}

// PushSetup queues a SETUP packet on endpoint ep: the data entry followed by
// the SETUP stage done entry.
func (c *Core) PushSetup(ep int, setup []byte) {
	pkg.LogDebug(pkg.ComponentSim, "setup", "endpoint", ep, "count", len(setup))
	c.PushRxStatus(regs.RxStatus(ep, len(setup), regs.PKTSTS_SetupData), setup)
	c.PushRxStatus(regs.RxStatus(ep, 0, regs.PKTSTS_SetupComplete), nil)
}

// PushOut queues an OUT data packet on endpoint ep followed by its transfer
// complete entry.
func (c *Core) PushOut(ep int, data []byte) {
	pkg.LogDebug(pkg.ComponentSim, "out", "endpoint", ep, "count", len(data))
	c.PushRxStatus(regs.RxStatus(ep, len(data), regs.PKTSTS_OutData), data)
	c.PushRxStatus(regs.RxStatus(ep, 0, regs.PKTSTS_OutComplete), nil)
}

// CompleteIn transmits the packet queued on IN endpoint ep. It returns the
// bytes the host received, clears the transfer size and enable bit, and
// raises the endpoint's transfer complete flag.
func (c *Core) CompleteIn(ep int) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := int(c.reg[regs.DIEPTSIZ(ep)] & regs.DEPTSIZ_XFRSIZ_Msk)
	buf := make([]byte, len(c.txFIFO[ep])*4)
	for i, w := range c.txFIFO[ep] {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	if size < len(buf) {
		buf = buf[:size]
	}
	c.txFIFO[ep] = nil
	c.reg[regs.DIEPTSIZ(ep)] = 0
	c.reg[regs.DIEPCTL(ep)] &^= regs.DEPCTL_EPENA
	c.reg[regs.DIEPINT(ep)] |= regs.DEPINT_XFRC
	pkg.LogDebug(pkg.ComponentSim, "in complete", "endpoint", ep, "count", len(buf))
	return buf
}

// Reg returns the stored value of a register without load side effects.
func (c *Core) Reg(off uint32) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reg[off]
}

// SetReg sets a register without store side effects or counting.
func (c *Core) SetReg(off, v uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reg[off] = v
}

// LastWrite returns the raw value of the most recent store to off,
// including write-only bits the register does not retain.
func (c *Core) LastWrite(off uint32) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last[off]
}

// Writes returns the number of stores to off.
func (c *Core) Writes(off uint32) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes[off]
}

// TotalWrites returns the number of stores to any register.
func (c *Core) TotalWrites() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, n := range c.writes {
		total += n
	}
	return total
}

// ResetWriteCounts zeroes all store counters.
func (c *Core) ResetWriteCounts() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.writes)
}

// RxPending returns the number of receive status entries queued.
func (c *Core) RxPending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rxStatus)
}

// RxWords returns the number of words left in the receive FIFO.
func (c *Core) RxWords() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rxFIFO)
}

// TxWords returns the number of words queued in transmit FIFO n.
func (c *Core) TxWords(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.txFIFO[n])
}

// RxFlushes returns how many times the receive FIFO was flushed.
func (c *Core) RxFlushes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rxFlushes
}

// TxFlushes returns how many times transmit FIFO n was flushed.
func (c *Core) TxFlushes(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.txFlushes[n]
}

// words packs data little-endian, zero padding the last word.
func words(data []byte) []uint32 {
	w := make([]uint32, 0, (len(data)+3)/4)
	for len(data) >= 4 {
		w = append(w, binary.LittleEndian.Uint32(data))
		data = data[4:]
	}
	if len(data) > 0 {
		var b [4]byte
		copy(b[:], data)
		w = append(w, binary.LittleEndian.Uint32(b[:]))
	}
	return w
}
