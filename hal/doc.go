// Package hal defines the boundary between a USB device controller driver
// and the protocol stack that drives it.
//
// The contract is transaction level and polling based. A protocol stack
// (descriptor handling, class requests) sits above it; a controller driver
// such as [github.com/ardnew/otgfs/otg] implements it.
//
// # Interface Overview
//
// The [Bus] interface covers:
//
//   - Endpoint allocation before the controller is enabled
//   - One-time bring-up ([Bus.Enable])
//   - Bus reset and address handling
//   - Single-packet transfers ([Bus.Write], [Bus.Read])
//   - Stall control
//   - Event decoding ([Bus.Poll])
//
// # Polling Model
//
// Every call returns immediately. [Bus.Poll] reports at most one event per
// call; [PollData] carries bitmasks of endpoints with a received OUT packet,
// a received SETUP packet, or a completed IN transfer. The stack then calls
// Read or Write on those endpoints:
//
//	for {
//	    r := bus.Poll()
//	    switch r.Event {
//	    case hal.PollReset:
//	        bus.Reset()
//	    case hal.PollData:
//	        if r.EPSetup&1 != 0 {
//	            n, err := bus.Read(hal.NewEndpointAddress(0, hal.DirectionOut), buf)
//	            // ...
//	        }
//	    }
//	}
package hal
