package otg

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ardnew/otgfs/hal"
	"github.com/ardnew/otgfs/otg/internal/regs"
	"github.com/ardnew/otgfs/pkg"
)

// ClockGate enables the peripheral clock of the OTG core. Pin muxing and
// clock tree setup belong to the board; the driver only calls this first
// thing in Enable.
type ClockGate func()

// Option configures a Bus at construction.
type Option func(*Bus)

// WithCriticalSection replaces the default mutex with cs, typically a
// locker that masks interrupts.
func WithCriticalSection(cs CriticalSection) Option {
	return func(b *Bus) { b.cs = cs }
}

// WithClockGate sets the function Enable uses to ungate the core clock.
func WithClockGate(gate ClockGate) Option {
	return func(b *Bus) { b.clock = gate }
}

// Stats counts driver activity since construction.
type Stats struct {
	Polls        uint64
	Resets       uint64
	Suspends     uint64
	Resumes      uint64
	SetupPackets uint64
	OutPackets   uint64
	InComplete   uint64
	WouldBlock   uint64
}

// Bus is the driver for one OTG core in device mode. It owns the endpoint
// table, the packet memory pool and the core's transmit FIFO RAM.
type Bus struct {
	cs    CriticalSection
	regs  registers
	cfg   Config
	clock ClockGate

	in  [MaxEndpoints]inEndpoint
	out [MaxEndpoints]outEndpoint

	pool    *Allocator // OUT packet buffers
	fifoRAM *Allocator // IN transmit FIFOs

	enabled bool
	stats   Stats
}

var _ hal.Bus = (*Bus)(nil)

// New takes ownership of the register block and returns the only driver
// handle for it. A second New on the same block fails with
// [pkg.ErrAlreadyClaimed] until the first Bus is closed.
func New(block RegisterBlock, cfg Config, opts ...Option) (*Bus, error) {
	if block == nil {
		return nil, fmt.Errorf("%w: nil register block", pkg.ErrInvalidParameter)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := claim(block); err != nil {
		return nil, err
	}

	b := &Bus{
		cs:      &sync.Mutex{},
		regs:    registers{block: block, spinLimit: cfg.SpinLimit},
		cfg:     cfg,
		pool:    NewAllocator(cfg.PoolWords, cfg.RxFIFOWords),
		fifoRAM: NewAllocator(cfg.FIFOWords, cfg.RxFIFOWords+cfg.Tx0FIFOWords),
	}
	for i := 0; i < MaxEndpoints; i++ {
		b.in[i].regs = &b.regs
		b.in[i].address = hal.NewEndpointAddress(uint8(i), hal.DirectionIn)
		b.out[i].regs = &b.regs
		b.out[i].address = hal.NewEndpointAddress(uint8(i), hal.DirectionOut)
	}
	for _, opt := range opts {
		opt(b)
	}

	pkg.LogInfo(pkg.ComponentBus, "driver created",
		"variant", cfg.Name, "base", fmt.Sprintf("0x%08X", cfg.Base), "endpoints", cfg.Endpoints)
	return b, nil
}

// Config returns the configuration the driver was built with.
func (b *Bus) Config() Config {
	return b.cfg
}

// Stats returns a snapshot of the activity counters.
func (b *Bus) Stats() Stats {
	b.cs.Lock()
	defer b.cs.Unlock()
	return b.stats
}

// slot returns the shared state of endpoint i in direction dir.
func (b *Bus) slot(dir hal.Direction, i int) *endpoint {
	if dir == hal.DirectionIn {
		return &b.in[i].endpoint
	}
	return &b.out[i].endpoint
}

// findFree picks the slot for an allocation request.
func (b *Bus) findFree(dir hal.Direction, addr *hal.EndpointAddress) (int, error) {
	if addr != nil {
		i := addr.Index()
		if addr.Direction() != dir || i >= b.cfg.Endpoints || b.slot(dir, i).initialized {
			return 0, pkg.ErrInvalidEndpoint
		}
		return i, nil
	}
	for i := 1; i < b.cfg.Endpoints; i++ {
		if !b.slot(dir, i).initialized {
			return i, nil
		}
	}
	return 0, pkg.ErrEndpointOverflow
}

// AllocEndpoint reserves an endpoint slot and its memory. OUT endpoints get
// a packet buffer of maxPacketSize bytes; IN endpoints other than EP0 get a
// dedicated transmit FIFO. Running out of either fails with
// [pkg.ErrEndpointOverflow]. The interval is only logged.
func (b *Bus) AllocEndpoint(dir hal.Direction, addr *hal.EndpointAddress, typ hal.EndpointType,
	maxPacketSize uint16, interval uint8) (hal.EndpointAddress, error) {
	if maxPacketSize == 0 || uint32(maxPacketSize) > regs.DEPCTL_MPSIZ_Msk {
		return 0, fmt.Errorf("%w: max packet size %d", pkg.ErrInvalidParameter, maxPacketSize)
	}

	b.cs.Lock()
	defer b.cs.Unlock()

	i, err := b.findFree(dir, addr)
	if err != nil {
		return 0, err
	}
	if i == 0 {
		if typ != hal.EndpointTypeControl {
			return 0, fmt.Errorf("%w: EP0 must be a control endpoint", pkg.ErrInvalidEndpoint)
		}
		ep0MaxPacketSize(maxPacketSize)
	}

	if dir == hal.DirectionIn {
		ep := &b.in[i]
		if i != 0 {
			words := max((int(maxPacketSize)+3)/4, MinTxFIFOWords)
			fifo, err := b.fifoRAM.Allocate(words * 4)
			if err != nil {
				return 0, overflow(err)
			}
			ep.txFIFO = fifo
		}
		ep.initialize(typ, maxPacketSize)
		b.logAlloc(ep.address, typ, maxPacketSize, interval)
		return ep.address, nil
	}

	ep := &b.out[i]
	buffer, err := b.pool.Allocate(int(maxPacketSize))
	if err != nil {
		return 0, overflow(err)
	}
	ep.buffer = buffer
	ep.initialize(typ, maxPacketSize)
	b.logAlloc(ep.address, typ, maxPacketSize, interval)
	return ep.address, nil
}

func overflow(err error) error {
	if errors.Is(err, pkg.ErrCapacityExceeded) {
		return fmt.Errorf("%w: %w", pkg.ErrEndpointOverflow, err)
	}
	return err
}

func (b *Bus) logAlloc(addr hal.EndpointAddress, typ hal.EndpointType, size uint16, interval uint8) {
	pkg.LogDebug(pkg.ComponentBus, "endpoint allocated",
		"address", addr.String(), "type", typ.String(), "maxPacket", size, "interval", interval)
}

// Enable powers up the core in device mode and connects to the bus. It must
// be called exactly once, after the endpoints are allocated.
func (b *Bus) Enable() error {
	b.cs.Lock()
	defer b.cs.Unlock()

	if b.enabled {
		return pkg.ErrAlreadyRunning
	}
	if b.clock != nil {
		b.clock()
	}

	r := &b.regs
	if err := r.waitSet(regs.GRSTCTL, regs.GRSTCTL_AHBIDL); err != nil {
		return fmt.Errorf("wait for AHB idle: %w", err)
	}

	usbcfg := regs.GUSBCFG_FDMOD | uint32(b.cfg.TurnaroundTime)<<regs.GUSBCFG_TRDT_Pos
	if b.cfg.InternalPHY {
		usbcfg |= regs.GUSBCFG_PHYSEL
	}
	r.modify(regs.GUSBCFG,
		regs.GUSBCFG_SRPCAP|regs.GUSBCFG_HNPCAP|regs.GUSBCFG_FHMOD|regs.GUSBCFG_TRDT_Msk,
		usbcfg)

	// The device is bus powered and always present.
	r.store(regs.GCCFG, regs.GCCFG_NOVBUSSENS)
	r.store(regs.PCGCCTL, 0)

	r.setBits(regs.DCTL, regs.DCTL_SDIS)
	r.modify(regs.DCFG, regs.DCFG_DSPD_Msk, b.speedBits())

	r.store(regs.GRXFSIZ, uint32(b.cfg.RxFIFOWords))
	r.store(regs.DIEPTXF0, regs.TxFIFOSize(b.cfg.RxFIFOWords, b.cfg.Tx0FIFOWords))

	r.store(regs.DIEPMSK, regs.DEPINT_XFRC)
	r.store(regs.GINTMSK, regs.GINTSTS_USBRST|regs.GINTSTS_ENUMDNE|
		regs.GINTSTS_USBSUSP|regs.GINTSTS_WKUPINT|
		regs.GINTSTS_IEPINT|regs.GINTSTS_RXFLVL)
	r.store(regs.GINTSTS, 0xFFFF_FFFF)
	r.setBits(regs.GAHBCFG, regs.GAHBCFG_GINT)

	r.setBits(regs.GCCFG, regs.GCCFG_PWRDWN)
	r.clearBits(regs.DCTL, regs.DCTL_SDIS)

	b.enabled = true
	pkg.LogInfo(pkg.ComponentBus, "device enabled",
		"variant", b.cfg.Name, "speed", b.cfg.Speed.String())
	return nil
}

func (b *Bus) speedBits() uint32 {
	if b.cfg.Speed == hal.SpeedHigh {
		return regs.DCFG_DSPD_HS
	}
	return regs.DCFG_DSPD_FS
}

// Close detaches from the bus, masks the core interrupt and releases the
// register block. The Bus must not be used afterwards.
func (b *Bus) Close() error {
	b.cs.Lock()
	defer b.cs.Unlock()

	if b.enabled {
		b.regs.setBits(regs.DCTL, regs.DCTL_SDIS)
		b.regs.clearBits(regs.GAHBCFG, regs.GAHBCFG_GINT)
		b.regs.clearBits(regs.GCCFG, regs.GCCFG_PWRDWN)
		b.enabled = false
	}
	release(b.regs.block)
	pkg.LogInfo(pkg.ComponentBus, "driver closed", "variant", b.cfg.Name)
	return nil
}

// Reset re-arms every allocated endpoint from its retained settings and
// returns the device to address 0. Call it after Poll reports PollReset.
func (b *Bus) Reset() {
	b.cs.Lock()
	defer b.cs.Unlock()

	b.configureAll()
	b.regs.clearBits(regs.DCFG, regs.DCFG_DAD_Msk)
}

func (b *Bus) configureAll() {
	for i := 0; i < b.cfg.Endpoints; i++ {
		b.in[i].configure()
	}
	for i := 0; i < b.cfg.Endpoints; i++ {
		b.out[i].configure()
	}
}

func (b *Bus) deconfigureAll() {
	for i := 0; i < b.cfg.Endpoints; i++ {
		b.in[i].deconfigure()
	}
	for i := 0; i < b.cfg.Endpoints; i++ {
		b.out[i].deconfigure()
	}
}

// SetDeviceAddress programs the device address. This core latches the new
// address immediately, so it must be set before the status stage of
// SET_ADDRESS completes; see QuirkSetAddressBeforeStatus.
func (b *Bus) SetDeviceAddress(addr uint8) {
	b.cs.Lock()
	defer b.cs.Unlock()

	b.regs.modify(regs.DCFG, regs.DCFG_DAD_Msk, uint32(addr)<<regs.DCFG_DAD_Pos&regs.DCFG_DAD_Msk)
	pkg.LogDebug(pkg.ComponentBus, "address set", "address", addr)
}

// QuirkSetAddressBeforeStatus is always true for this core.
func (b *Bus) QuirkSetAddressBeforeStatus() bool {
	return true
}

// Write queues data as one packet on IN endpoint ep. It fails with
// [pkg.ErrWouldBlock] while the previous packet is still in flight.
func (b *Bus) Write(ep hal.EndpointAddress, data []byte) (int, error) {
	if !ep.IsIn() || ep.Index() >= b.cfg.Endpoints {
		return 0, pkg.ErrInvalidEndpoint
	}

	b.cs.Lock()
	defer b.cs.Unlock()

	if err := b.in[ep.Index()].write(data); err != nil {
		if pkg.IsRetryable(err) {
			b.stats.WouldBlock++
		}
		return 0, err
	}
	return len(data), nil
}

// Read copies the next packet of OUT endpoint ep into buf. The receive
// status queue is shared by all OUT endpoints: when its head belongs to
// another endpoint, Read fails with [pkg.ErrWouldBlock] and leaves it in
// place. Each call returns at most one packet.
func (b *Bus) Read(ep hal.EndpointAddress, buf []byte) (int, error) {
	if !ep.IsOut() || ep.Index() >= b.cfg.Endpoints {
		return 0, pkg.ErrInvalidEndpoint
	}

	b.cs.Lock()
	defer b.cs.Unlock()

	n, err := b.out[ep.Index()].read(buf)
	if pkg.IsRetryable(err) {
		b.stats.WouldBlock++
	}
	return n, err
}

// SetStalled sets or clears the STALL state of ep. Addresses outside the
// endpoint table are ignored.
func (b *Bus) SetStalled(ep hal.EndpointAddress, stalled bool) {
	if ep.Index() >= b.cfg.Endpoints {
		return
	}

	b.cs.Lock()
	defer b.cs.Unlock()

	b.slot(ep.Direction(), ep.Index()).setStalled(stalled)
}

// IsStalled reports the STALL state of ep. Addresses outside the endpoint
// table report stalled.
func (b *Bus) IsStalled(ep hal.EndpointAddress) bool {
	if ep.Index() >= b.cfg.Endpoints {
		return true
	}

	b.cs.Lock()
	defer b.cs.Unlock()

	return b.slot(ep.Direction(), ep.Index()).isStalled()
}

// Suspend requires no action from this core.
func (b *Bus) Suspend() {}

// Resume requires no action from this core.
func (b *Bus) Resume() {}

// Poll reads the core interrupt status and decodes at most one event.
//
// A pending bus reset is handled first as a side effect: all endpoints are
// deconfigured and the receive FIFO is flushed. Then, in priority order,
// enumeration done reports PollReset, wakeup PollResume and suspend
// PollSuspend. Otherwise endpoint activity is reported as PollData.
func (b *Bus) Poll() hal.PollResult {
	b.cs.Lock()
	defer b.cs.Unlock()

	b.stats.Polls++
	r := &b.regs
	sts := r.load(regs.GINTSTS)

	if sts&regs.GINTSTS_USBRST != 0 {
		r.store(regs.GINTSTS, regs.GINTSTS_USBRST)
		b.deconfigureAll()
		if err := r.flushRx(); err != nil {
			pkg.LogError(pkg.ComponentBus, "receive FIFO flush failed", "error", err)
		}
		b.stats.Resets++
		pkg.LogDebug(pkg.ComponentBus, "bus reset")
	}

	switch {
	case sts&regs.GINTSTS_ENUMDNE != 0:
		r.store(regs.GINTSTS, regs.GINTSTS_ENUMDNE)
		return hal.PollResult{Event: hal.PollReset}

	case sts&regs.GINTSTS_WKUPINT != 0:
		r.store(regs.GINTSTS, regs.GINTSTS_WKUPINT)
		b.stats.Resumes++
		return hal.PollResult{Event: hal.PollResume}

	case sts&regs.GINTSTS_USBSUSP != 0:
		r.store(regs.GINTSTS, regs.GINTSTS_USBSUSP)
		b.stats.Suspends++
		return hal.PollResult{Event: hal.PollSuspend}

	case sts&(regs.GINTSTS_IEPINT|regs.GINTSTS_RXFLVL) != 0:
		return b.pollData(sts)
	}
	return hal.PollResult{}
}

// pollData decodes the receive status queue head and IN completions.
// RXFLVL and IEPINT are read-only summaries and need no clearing.
func (b *Bus) pollData(sts uint32) hal.PollResult {
	var epOut, epInComplete, epSetup uint16
	r := &b.regs

	if sts&regs.GINTSTS_RXFLVL != 0 {
		n, count, status := regs.DecodeRxStatus(r.load(regs.GRXSTSR))
		switch status {
		case regs.PKTSTS_OutData, regs.PKTSTS_SetupData:
			if n >= b.cfg.Endpoints || !b.out[n].initialized {
				r.load(regs.GRXSTSP)
				discardFIFO(r, count)
				pkg.LogWarn(pkg.ComponentBus, "packet for unallocated endpoint dropped",
					"endpoint", n, "count", count)
				break
			}
			if status == regs.PKTSTS_OutData {
				epOut |= 1 << n
				b.stats.OutPackets++
				break
			}
			// A new control transfer discards whatever the previous one
			// left in the EP0 transmit FIFO.
			if r.load(regs.DIEPTSIZ(n))&regs.DEPTSIZ_PKTCNT_Msk != 0 {
				if err := b.in[n].abort(); err != nil {
					pkg.LogError(pkg.ComponentBus, "transmit FIFO flush failed",
						"endpoint", n, "error", err)
				}
			}
			epSetup |= 1 << n
			b.stats.SetupPackets++

		case regs.PKTSTS_OutComplete, regs.PKTSTS_SetupComplete:
			if n < b.cfg.Endpoints && b.out[n].initialized {
				b.out[n].arm()
			}
			r.load(regs.GRXSTSP)

		default:
			r.load(regs.GRXSTSP)
		}
	}

	if sts&regs.GINTSTS_IEPINT != 0 {
		for i := 0; i < b.cfg.Endpoints; i++ {
			if !b.in[i].initialized {
				continue
			}
			if r.load(regs.DIEPINT(i))&regs.DEPINT_XFRC != 0 {
				r.store(regs.DIEPINT(i), regs.DEPINT_XFRC)
				epInComplete |= 1 << i
				b.stats.InComplete++
			}
		}
	}

	res := hal.Data(epOut, epInComplete, epSetup)
	if res.Event == hal.PollData && pkg.Enabled(slog.LevelDebug) {
		pkg.LogDebug(pkg.ComponentBus, "endpoint activity",
			"out", fmt.Sprintf("%04b", epOut),
			"inComplete", fmt.Sprintf("%04b", epInComplete),
			"setup", fmt.Sprintf("%04b", epSetup))
	}
	return res
}
