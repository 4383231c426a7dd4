// Package mmio provides [github.com/ardnew/otgfs/otg.RegisterBlock]
// implementations backed by the real OTG core.
//
// On Linux, [Open] maps the core's physical register window through a
// memory device such as /dev/mem. Under TinyGo, [NewBlock] addresses the
// registers directly and [InterruptLock] is the matching critical section.
package mmio

// CoreSize is the length of the OTG core register window, including the
// data FIFO windows.
const CoreSize = 0x20000
