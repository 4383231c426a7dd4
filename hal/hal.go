package hal

import "fmt"

// Speed represents the USB connection speed.
type Speed uint8

// USB speed constants (USB 2.0 Specification).
const (
	SpeedUnknown Speed = iota // Not connected or unknown
	SpeedLow                  // Low Speed (1.5 Mbit/s)
	SpeedFull                 // Full Speed (12 Mbit/s)
	SpeedHigh                 // High Speed (480 Mbit/s)
)

// String returns a human-readable speed name.
func (s Speed) String() string {
	switch s {
	case SpeedLow:
		return "Low Speed"
	case SpeedFull:
		return "Full Speed"
	case SpeedHigh:
		return "High Speed"
	default:
		return "Unknown"
	}
}

// Direction is the data direction of an endpoint, encoded as bit 7 of the
// endpoint address.
type Direction uint8

// Endpoint directions.
const (
	DirectionOut Direction = 0x00 // Host to device
	DirectionIn  Direction = 0x80 // Device to host
)

// String returns "IN" or "OUT".
func (d Direction) String() string {
	if d == DirectionIn {
		return "IN"
	}
	return "OUT"
}

// EndpointAddress identifies one logical endpoint: direction bit 7 and
// endpoint number in bits 3:0.
type EndpointAddress uint8

// NewEndpointAddress builds an address from its number and direction.
func NewEndpointAddress(index uint8, dir Direction) EndpointAddress {
	return EndpointAddress(index&0x0F) | EndpointAddress(dir&DirectionIn)
}

// Index returns the endpoint number (0-15).
func (a EndpointAddress) Index() int {
	return int(a & 0x0F)
}

// Direction returns the endpoint direction.
func (a EndpointAddress) Direction() Direction {
	return Direction(a) & DirectionIn
}

// IsIn returns true if this is an IN endpoint (device to host).
func (a EndpointAddress) IsIn() bool {
	return a.Direction() == DirectionIn
}

// IsOut returns true if this is an OUT endpoint (host to device).
func (a EndpointAddress) IsOut() bool {
	return a.Direction() == DirectionOut
}

// String formats the address as "EP1 IN (0x81)".
func (a EndpointAddress) String() string {
	return fmt.Sprintf("EP%d %s (0x%02X)", a.Index(), a.Direction(), uint8(a))
}

// EndpointType is the transfer type of an endpoint (USB 2.0 Spec Table 9-13).
type EndpointType uint8

// Endpoint transfer types.
const (
	EndpointTypeControl     EndpointType = 0x00 // Control transfer
	EndpointTypeIsochronous EndpointType = 0x01 // Isochronous transfer
	EndpointTypeBulk        EndpointType = 0x02 // Bulk transfer
	EndpointTypeInterrupt   EndpointType = 0x03 // Interrupt transfer
)

// String returns a human-readable transfer type name.
func (t EndpointType) String() string {
	switch t {
	case EndpointTypeControl:
		return "Control"
	case EndpointTypeIsochronous:
		return "Isochronous"
	case EndpointTypeBulk:
		return "Bulk"
	case EndpointTypeInterrupt:
		return "Interrupt"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

// PollEvent is the kind of bus event decoded by a single Poll call.
type PollEvent uint8

// Poll events.
const (
	PollNone    PollEvent = iota // Nothing to report
	PollReset                    // Bus reset finished (enumeration done)
	PollResume                   // Resume signalling detected
	PollSuspend                  // Bus idle, device should suspend
	PollData                     // Endpoint activity, see PollResult bitmasks
)

// String returns the event name.
func (e PollEvent) String() string {
	switch e {
	case PollNone:
		return "none"
	case PollReset:
		return "reset"
	case PollResume:
		return "resume"
	case PollSuspend:
		return "suspend"
	case PollData:
		return "data"
	default:
		return fmt.Sprintf("PollEvent(%d)", uint8(e))
	}
}

// PollResult is the outcome of one Poll call. The bitmasks are only
// meaningful for PollData; bit n refers to endpoint number n.
type PollResult struct {
	Event        PollEvent
	EPOut        uint16 // OUT packet received
	EPInComplete uint16 // IN transfer completed
	EPSetup      uint16 // SETUP packet received
}

// Data returns a PollData result, or a PollNone result when every mask is zero.
func Data(epOut, epInComplete, epSetup uint16) PollResult {
	if epOut|epInComplete|epSetup == 0 {
		return PollResult{Event: PollNone}
	}
	return PollResult{
		Event:        PollData,
		EPOut:        epOut,
		EPInComplete: epInComplete,
		EPSetup:      epSetup,
	}
}

// SetupPacket represents a USB SETUP packet in the HAL layer.
// This is a fixed-size, zero-allocation structure for SETUP transactions.
type SetupPacket struct {
	RequestType uint8  // Request characteristics
	Request     uint8  // Specific request
	Value       uint16 // Request-specific value
	Index       uint16 // Request-specific index
	Length      uint16 // Number of bytes to transfer
}

// SetupPacketSize is the size of a USB SETUP packet in bytes.
const SetupPacketSize = 8

// ParseSetupPacket parses raw bytes into a SetupPacket.
// Returns false if data is too short.
func ParseSetupPacket(data []byte, out *SetupPacket) bool {
	if len(data) < SetupPacketSize {
		return false
	}
	out.RequestType = data[0]
	out.Request = data[1]
	out.Value = uint16(data[2]) | uint16(data[3])<<8
	out.Index = uint16(data[4]) | uint16(data[5])<<8
	out.Length = uint16(data[6]) | uint16(data[7])<<8
	return true
}

// IsDeviceToHost reports whether the data stage, if any, is IN.
func (s *SetupPacket) IsDeviceToHost() bool {
	return s.RequestType&0x80 != 0
}

// Bus is the transaction-level contract a USB device controller driver
// exposes to a protocol stack.
//
// A stack allocates its endpoints first, then calls Enable once and drives
// everything else from Poll, typically from the controller's interrupt
// handler. No method blocks on bus activity: anything that cannot complete
// now fails with [github.com/ardnew/otgfs/pkg.ErrWouldBlock].
type Bus interface {
	// AllocEndpoint reserves an endpoint slot. With addr nil the lowest free
	// non-control slot of dir is chosen; otherwise exactly *addr is reserved.
	AllocEndpoint(dir Direction, addr *EndpointAddress, typ EndpointType,
		maxPacketSize uint16, interval uint8) (EndpointAddress, error)

	// Enable brings up the controller and attaches to the bus.
	Enable() error

	// Reset re-arms all allocated endpoints after a bus reset and clears the
	// device address.
	Reset()

	// SetDeviceAddress programs the device address.
	SetDeviceAddress(addr uint8)

	// Write queues one packet on an IN endpoint.
	Write(ep EndpointAddress, data []byte) (int, error)

	// Read takes one received packet from an OUT endpoint.
	Read(ep EndpointAddress, buf []byte) (int, error)

	// SetStalled sets or clears the STALL handshake of an endpoint.
	SetStalled(ep EndpointAddress, stalled bool)

	// IsStalled reports the STALL state of an endpoint.
	IsStalled(ep EndpointAddress) bool

	// Suspend and Resume notify the driver of bus power state changes.
	Suspend()
	Resume()

	// Poll decodes pending controller status into one event.
	Poll() PollResult

	// QuirkSetAddressBeforeStatus reports whether SetDeviceAddress must be
	// called before the status stage of SET_ADDRESS completes.
	QuirkSetAddressBeforeStatus() bool
}
