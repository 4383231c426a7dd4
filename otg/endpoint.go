package otg

import (
	"fmt"

	"github.com/ardnew/otgfs/hal"
	"github.com/ardnew/otgfs/otg/internal/regs"
	"github.com/ardnew/otgfs/pkg"
)

// endpoint is the state shared by both directions of an endpoint slot.
// Every method must be called with the bus critical section held.
type endpoint struct {
	regs    *registers
	address hal.EndpointAddress

	// Set once by AllocEndpoint, never cleared.
	initialized bool
	typ         hal.EndpointType
	maxPacket   uint16
}

// inEndpoint is a device-to-host endpoint slot.
type inEndpoint struct {
	endpoint
	txFIFO PacketBuffer // Dedicated transmit FIFO region; unused for EP0
}

// outEndpoint is a host-to-device endpoint slot.
type outEndpoint struct {
	endpoint
	buffer PacketBuffer // Staging area for received packets
}

func (e *endpoint) index() int {
	return e.address.Index()
}

func (e *endpoint) ctl() uint32 {
	if e.address.IsIn() {
		return regs.DIEPCTL(e.index())
	}
	return regs.DOEPCTL(e.index())
}

func (e *endpoint) intr() uint32 {
	if e.address.IsIn() {
		return regs.DIEPINT(e.index())
	}
	return regs.DOEPINT(e.index())
}

func (e *endpoint) tsiz() uint32 {
	if e.address.IsIn() {
		return regs.DIEPTSIZ(e.index())
	}
	return regs.DOEPTSIZ(e.index())
}

// daintBit is the endpoint's bit in DAINT and DAINTMSK.
func (e *endpoint) daintBit() uint32 {
	if e.address.IsIn() {
		return 1 << e.index()
	}
	return 1 << (regs.DAINT_OEP_Pos + e.index())
}

// active reports whether the hardware endpoint is activated.
func (e *endpoint) active() bool {
	return e.regs.hasBits(e.ctl(), regs.DEPCTL_USBAEP)
}

// initialize records the endpoint's type and size. It does not touch
// hardware.
func (e *endpoint) initialize(typ hal.EndpointType, maxPacket uint16) {
	e.typ = typ
	e.maxPacket = maxPacket
	e.initialized = true
}

// ctlBits returns the static part of the control register: packet size,
// type and activation.
func (e *endpoint) ctlBits() uint32 {
	if e.index() == 0 {
		return ep0MaxPacketSize(e.maxPacket) | regs.DEPCTL_USBAEP
	}
	return uint32(e.maxPacket)&regs.DEPCTL_MPSIZ_Msk |
		uint32(e.typ)<<regs.DEPCTL_EPTYP_Pos |
		regs.DEPCTL_SD0PID |
		regs.DEPCTL_USBAEP
}

// deconfigure masks the endpoint interrupt, deactivates and disables the
// endpoint, and clears its interrupt flags. The retained type, size and
// buffer are kept.
func (e *endpoint) deconfigure() {
	e.regs.clearBits(regs.DAINTMSK, e.daintBit())
	ctl := e.ctl()
	e.regs.clearBits(ctl, regs.DEPCTL_USBAEP)
	// EP0 cannot be disabled by software.
	if e.index() != 0 && e.regs.hasBits(ctl, regs.DEPCTL_EPENA) {
		e.regs.setBits(ctl, regs.DEPCTL_EPDIS)
	}
	e.regs.store(e.intr(), regs.DEPINT_All)
}

// isStalled reads the STALL bit from hardware.
func (e *endpoint) isStalled() bool {
	return e.regs.hasBits(e.ctl(), regs.DEPCTL_STALL)
}

// setStalled sets or clears STALL. Nothing is written when the bit already
// has the requested value or the endpoint was never allocated.
func (e *endpoint) setStalled(stalled bool) {
	if !e.initialized || e.isStalled() == stalled {
		return
	}
	if stalled {
		e.regs.setBits(e.ctl(), regs.DEPCTL_STALL)
	} else {
		set := uint32(0)
		if e.index() != 0 && (e.typ == hal.EndpointTypeBulk || e.typ == hal.EndpointTypeInterrupt) {
			// Clearing a halt restarts the data toggle at DATA0.
			set = regs.DEPCTL_SD0PID
		}
		e.regs.modify(e.ctl(), regs.DEPCTL_STALL, set)
	}
	pkg.LogDebug(pkg.ComponentEndpoint, "stall changed",
		"address", e.address.String(), "stalled", stalled)
}

// configure programs the IN endpoint for its retained type and size.
func (e *inEndpoint) configure() {
	if !e.initialized {
		return
	}
	n := e.index()
	if n != 0 {
		e.regs.store(regs.DIEPTXF(n), regs.TxFIFOSize(e.txFIFO.Offset(), e.txFIFO.Words()))
	}
	e.regs.store(regs.DIEPTSIZ(n), 0)
	e.regs.store(regs.DIEPCTL(n), e.ctlBits()|uint32(n)<<regs.DEPCTL_TXFNUM_Pos|regs.DEPCTL_SNAK)
	e.regs.setBits(regs.DAINTMSK, e.daintBit())
	pkg.LogDebug(pkg.ComponentEndpoint, "endpoint configured",
		"address", e.address.String(), "type", e.typ.String(), "maxPacket", e.maxPacket)
}

// write loads one packet into the transmit FIFO and arms the transfer.
func (e *inEndpoint) write(data []byte) error {
	if !e.initialized || !e.active() {
		return pkg.ErrInvalidEndpoint
	}
	if len(data) > int(e.maxPacket) {
		return fmt.Errorf("%w: %d bytes exceeds max packet size %d",
			pkg.ErrBufferOverflow, len(data), e.maxPacket)
	}
	n := e.index()
	if e.regs.load(regs.DIEPTSIZ(n))&regs.DEPTSIZ_PKTCNT_Msk != 0 {
		return pkg.ErrWouldBlock
	}
	e.regs.store(regs.DIEPTSIZ(n), regs.DEPTSIZ_PKTCNT_One|uint32(len(data)))
	e.regs.setBits(regs.DIEPCTL(n), regs.DEPCTL_CNAK|regs.DEPCTL_EPENA)
	e.regs.pushFIFO(n, data)
	return nil
}

// abort cancels a packet still queued for transmission: the transmit FIFO
// is flushed, the endpoint NAKs and is disabled, and the packet count is
// zeroed so the next write is accepted.
func (e *inEndpoint) abort() error {
	n := e.index()
	err := e.regs.flushTx(n)
	ctl := regs.DIEPCTL(n)
	e.regs.setBits(ctl, regs.DEPCTL_SNAK)
	if e.regs.hasBits(ctl, regs.DEPCTL_EPENA) {
		e.regs.setBits(ctl, regs.DEPCTL_EPDIS)
	}
	e.regs.store(regs.DIEPTSIZ(n), 0)
	pkg.LogDebug(pkg.ComponentEndpoint, "transfer aborted", "address", e.address.String())
	return err
}

// configure programs the OUT endpoint and arms the first reception.
func (e *outEndpoint) configure() {
	if !e.initialized {
		return
	}
	e.regs.store(regs.DOEPCTL(e.index()), e.ctlBits())
	e.arm()
	e.regs.setBits(regs.DAINTMSK, e.daintBit())
	pkg.LogDebug(pkg.ComponentEndpoint, "endpoint configured",
		"address", e.address.String(), "type", e.typ.String(), "maxPacket", e.maxPacket,
		"buffer", e.buffer.Offset())
}

// arm sets up reception of one packet (and one SETUP on EP0), clears NAK
// and enables the endpoint.
func (e *outEndpoint) arm() {
	n := e.index()
	tsiz := regs.DEPTSIZ_PKTCNT_One | uint32(e.maxPacket)&regs.DEPTSIZ_XFRSIZ_Msk
	if n == 0 {
		tsiz = regs.DEPTSIZ_STUPCNT_One | regs.DEPTSIZ_PKTCNT_One |
			uint32(e.maxPacket)&regs.DEPTSIZ0_XFRSIZ_Msk
	}
	e.regs.store(regs.DOEPTSIZ(n), tsiz)
	e.regs.setBits(regs.DOEPCTL(n), regs.DEPCTL_CNAK|regs.DEPCTL_EPENA)
}

// read takes the packet at the head of the receive status queue if it
// belongs to this endpoint.
func (e *outEndpoint) read(buf []byte) (int, error) {
	if !e.initialized || !e.active() {
		return 0, pkg.ErrInvalidEndpoint
	}
	if !e.regs.hasBits(regs.GINTSTS, regs.GINTSTS_RXFLVL) {
		return 0, pkg.ErrWouldBlock
	}
	n, count, status := regs.DecodeRxStatus(e.regs.load(regs.GRXSTSR))
	if n != e.index() || (status != regs.PKTSTS_OutData && status != regs.PKTSTS_SetupData) {
		return 0, pkg.ErrWouldBlock
	}
	if count > len(buf) {
		return 0, fmt.Errorf("%w: %d byte packet, %d byte buffer",
			pkg.ErrBufferOverflow, count, len(buf))
	}

	e.regs.load(regs.GRXSTSP)

	words := (count + 3) / 4
	if words > e.buffer.Words() {
		discardFIFO(e.regs, count)
		pkg.LogWarn(pkg.ComponentEndpoint, "oversized packet dropped",
			"address", e.address.String(), "count", count, "buffer", e.buffer.Len())
		return 0, fmt.Errorf("%w: %d byte packet exceeds %d byte packet buffer",
			pkg.ErrBufferOverflow, count, e.buffer.Len())
	}

	staged := e.buffer.words[:words]
	e.regs.popFIFO(staged)
	for i := 0; i < count; i++ {
		buf[i] = byte(staged[i/4] >> (8 * (i % 4)))
	}
	return count, nil
}

// discardFIFO pops count bytes from the receive FIFO and drops them.
func discardFIFO(r *registers, count int) {
	var word [1]uint32
	for i := 0; i < (count+3)/4; i++ {
		r.popFIFO(word[:])
	}
}

// ep0MaxPacketSize encodes an EP0 packet size into the 2-bit MPSIZ field.
// Any other size is a configuration error that cannot be recovered from.
func ep0MaxPacketSize(size uint16) uint32 {
	switch size {
	case 8:
		return regs.DEPCTL0_MPSIZ_8
	case 16:
		return regs.DEPCTL0_MPSIZ_16
	case 32:
		return regs.DEPCTL0_MPSIZ_32
	case 64:
		return regs.DEPCTL0_MPSIZ_64
	}
	panic(fmt.Sprintf("otg: unsupported control endpoint max packet size %d", size))
}
