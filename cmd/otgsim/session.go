package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ardnew/otgfs/hal"
	"github.com/ardnew/otgfs/otg"
	"github.com/ardnew/otgfs/otg/sim"
	"github.com/ardnew/otgfs/pkg"
)

// Standard requests used by the script.
const (
	requestSetAddress    = 0x05
	requestGetDescriptor = 0x06
	descriptorDevice     = 0x01
)

// deviceDescriptor is returned for GET_DESCRIPTOR(DEVICE): USB 2.00, 64 byte
// EP0, VID 0x1209, one configuration.
var deviceDescriptor = []byte{
	0x12, 0x01, 0x00, 0x02, 0x00, 0x00, 0x00, 0x40,
	0x09, 0x12, 0x01, 0x00, 0x00, 0x01, 0x01, 0x02,
	0x00, 0x01,
}

var errUnexpectedEvent = errors.New("unexpected poll result")

// report summarizes a session.
type report struct {
	Variant    string
	Address    uint8
	Descriptor []byte
	Echoed     []byte
	Events     []hal.PollEvent
	Stats      otg.Stats
}

func (r *report) print(w io.Writer) {
	fmt.Fprintf(w, "variant:     %s\n", r.Variant)
	fmt.Fprintf(w, "address:     %d\n", r.Address)
	fmt.Fprintf(w, "descriptor:  % x\n", r.Descriptor)
	fmt.Fprintf(w, "bulk echo:   %q\n", r.Echoed)
	fmt.Fprintf(w, "events:      %v\n", r.Events)
	fmt.Fprintf(w, "polls:       %d\n", r.Stats.Polls)
	fmt.Fprintf(w, "resets:      %d\n", r.Stats.Resets)
	fmt.Fprintf(w, "setup:       %d\n", r.Stats.SetupPackets)
	fmt.Fprintf(w, "out:         %d\n", r.Stats.OutPackets)
	fmt.Fprintf(w, "in complete: %d\n", r.Stats.InComplete)
}

// session plays the host side against a driver on a simulated core.
type session struct {
	core *sim.Core
	bus  *otg.Bus

	ep0Out, ep0In   hal.EndpointAddress
	bulkOut, bulkIn hal.EndpointAddress
	report          report
}

// runSession enumerates a device on a fresh simulated core, echoes one bulk
// packet and goes through suspend and resume.
func runSession(cfg otg.Config) (*report, error) {
	core := sim.New()
	bus, err := otg.New(core, cfg, otg.WithClockGate(core.EnableClock))
	if err != nil {
		return nil, err
	}
	defer bus.Close()

	s := &session{core: core, bus: bus, report: report{Variant: cfg.Name}}
	steps := []struct {
		name string
		fn   func() error
	}{
		{"allocate", s.allocate},
		{"enable", bus.Enable},
		{"reset", s.reset},
		{"get descriptor", s.getDescriptor},
		{"set address", s.setAddress},
		{"bulk echo", s.bulkEcho},
		{"suspend", s.suspendResume},
	}
	for _, step := range steps {
		pkg.LogInfo(pkg.ComponentCmd, "step", "name", step.name)
		if err := step.fn(); err != nil {
			return nil, fmt.Errorf("%s: %w", step.name, err)
		}
	}

	s.report.Stats = bus.Stats()
	return &s.report, nil
}

func (s *session) allocate() error {
	ep0 := hal.NewEndpointAddress(0, hal.DirectionOut)
	var err error
	if s.ep0Out, err = s.bus.AllocEndpoint(hal.DirectionOut, &ep0, hal.EndpointTypeControl, 64, 0); err != nil {
		return err
	}
	ep0 = hal.NewEndpointAddress(0, hal.DirectionIn)
	if s.ep0In, err = s.bus.AllocEndpoint(hal.DirectionIn, &ep0, hal.EndpointTypeControl, 64, 0); err != nil {
		return err
	}
	if s.bulkOut, err = s.bus.AllocEndpoint(hal.DirectionOut, nil, hal.EndpointTypeBulk, 64, 0); err != nil {
		return err
	}
	s.bulkIn, err = s.bus.AllocEndpoint(hal.DirectionIn, nil, hal.EndpointTypeBulk, 64, 0)
	return err
}

// poll polls once and checks the event kind.
func (s *session) poll(want hal.PollEvent) (hal.PollResult, error) {
	r := s.bus.Poll()
	if r.Event != hal.PollNone {
		s.report.Events = append(s.report.Events, r.Event)
	}
	pkg.LogInfo(pkg.ComponentCmd, "poll", "event", r.Event.String(),
		"out", r.EPOut, "inComplete", r.EPInComplete, "setup", r.EPSetup)
	if r.Event != want {
		return r, fmt.Errorf("%w: got %v, want %v", errUnexpectedEvent, r.Event, want)
	}
	return r, nil
}

func (s *session) reset() error {
	s.core.BusReset()
	if _, err := s.poll(hal.PollReset); err != nil {
		return err
	}
	s.bus.Reset()
	return nil
}

// setup delivers a SETUP packet and returns it as read back by the driver.
func (s *session) setup(raw []byte) (hal.SetupPacket, error) {
	var pkt hal.SetupPacket
	s.core.PushSetup(0, raw)
	r, err := s.poll(hal.PollData)
	if err != nil {
		return pkt, err
	}
	if r.EPSetup&1 == 0 {
		return pkt, fmt.Errorf("%w: no SETUP on EP0", errUnexpectedEvent)
	}
	buf := make([]byte, hal.SetupPacketSize)
	n, err := s.bus.Read(s.ep0Out, buf)
	if err != nil {
		return pkt, err
	}
	if !hal.ParseSetupPacket(buf[:n], &pkt) {
		return pkt, fmt.Errorf("%w: short SETUP packet (%d bytes)", pkg.ErrInvalidParameter, n)
	}
	// SETUP stage done.
	_, err = s.poll(hal.PollNone)
	return pkt, err
}

// transmit sends data on ep and has the host acknowledge it.
func (s *session) transmit(ep hal.EndpointAddress, data []byte) ([]byte, error) {
	if _, err := s.bus.Write(ep, data); err != nil {
		return nil, err
	}
	got := s.core.CompleteIn(ep.Index())
	r, err := s.poll(hal.PollData)
	if err != nil {
		return nil, err
	}
	if r.EPInComplete&(1<<ep.Index()) == 0 {
		return nil, fmt.Errorf("%w: no IN completion on %v", errUnexpectedEvent, ep)
	}
	return got, nil
}

// receive has the host send data on ep and reads it back.
func (s *session) receive(ep hal.EndpointAddress, data []byte) ([]byte, error) {
	s.core.PushOut(ep.Index(), data)
	r, err := s.poll(hal.PollData)
	if err != nil {
		return nil, err
	}
	if r.EPOut&(1<<ep.Index()) == 0 {
		return nil, fmt.Errorf("%w: no OUT packet on %v", errUnexpectedEvent, ep)
	}
	buf := make([]byte, 64)
	n, err := s.bus.Read(ep, buf)
	if err != nil {
		return nil, err
	}
	// Transfer complete re-arms the endpoint.
	if _, err := s.poll(hal.PollNone); err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (s *session) getDescriptor() error {
	pkt, err := s.setup([]byte{0x80, requestGetDescriptor, 0x00, descriptorDevice, 0x00, 0x00, 0x40, 0x00})
	if err != nil {
		return err
	}
	n := min(int(pkt.Length), len(deviceDescriptor))
	got, err := s.transmit(s.ep0In, deviceDescriptor[:n])
	if err != nil {
		return err
	}
	s.report.Descriptor = got
	// Status stage.
	_, err = s.receive(s.ep0Out, nil)
	return err
}

func (s *session) setAddress() error {
	pkt, err := s.setup([]byte{0x00, requestSetAddress, 0x05, 0x00, 0x00, 0x00, 0x00, 0x00})
	if err != nil {
		return err
	}
	addr := uint8(pkt.Value)
	if s.bus.QuirkSetAddressBeforeStatus() {
		s.bus.SetDeviceAddress(addr)
	}
	if _, err := s.transmit(s.ep0In, nil); err != nil {
		return err
	}
	if !s.bus.QuirkSetAddressBeforeStatus() {
		s.bus.SetDeviceAddress(addr)
	}
	s.report.Address = addr
	return nil
}

func (s *session) bulkEcho() error {
	msg := []byte("hello, otg")
	got, err := s.receive(s.bulkOut, msg)
	if err != nil {
		return err
	}
	echoed, err := s.transmit(s.bulkIn, got)
	if err != nil {
		return err
	}
	if !bytes.Equal(echoed, msg) {
		return fmt.Errorf("%w: echoed %q, sent %q", errUnexpectedEvent, echoed, msg)
	}
	s.report.Echoed = echoed
	return nil
}

func (s *session) suspendResume() error {
	s.core.Suspend()
	if _, err := s.poll(hal.PollSuspend); err != nil {
		return err
	}
	s.bus.Suspend()
	s.core.Wakeup()
	if _, err := s.poll(hal.PollResume); err != nil {
		return err
	}
	s.bus.Resume()
	return nil
}
