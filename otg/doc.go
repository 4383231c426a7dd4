// Package otg implements the device side of the DesignWare USB OTG core found
// in STM32 OTG_FS and OTG_HS peripherals.
//
// [Bus] implements [hal.Bus]. It owns the core's register block, a table of
// four IN and four OUT endpoint slots, the packet memory pool used to stage
// received packets and the transmit FIFO RAM.
//
// # Lifecycle
//
// Endpoints are allocated before the core is enabled:
//
//	bus, err := otg.New(block, otg.FullSpeedConfig(), otg.WithClockGate(enableClock))
//	ep0 := hal.NewEndpointAddress(0, hal.DirectionOut)
//	ep0out, _ := bus.AllocEndpoint(hal.DirectionOut, &ep0, hal.EndpointTypeControl, 64, 0)
//	bulkIn, _ := bus.AllocEndpoint(hal.DirectionIn, nil, hal.EndpointTypeBulk, 64, 0)
//	err = bus.Enable()
//
// A nil address picks the lowest free slot above EP0, so the control
// endpoint is always requested with an explicit index 0 address.
//
// # Register Access
//
// Registers are reached through a [RegisterBlock]. The [github.com/ardnew/otgfs/otg/mmio]
// package maps the real core; [github.com/ardnew/otgfs/otg/sim] models it in
// software.
//
// # Concurrency
//
// Every public method takes the [CriticalSection] supplied at construction,
// so Poll may run from the USB interrupt while the application calls Read
// and Write.
package otg
