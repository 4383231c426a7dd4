package otg

import (
	"sync"

	"github.com/ardnew/otgfs/pkg"
)

// CriticalSection serializes all access to the core registers and the
// packet memory pool. On a microcontroller it disables interrupts on Lock
// and restores the previous state on Unlock, so that Poll running in the
// USB interrupt handler cannot interleave with a caller's Read or Write.
// Hosted builds use a mutex.
//
// Lock is never re-entered by the driver.
type CriticalSection = sync.Locker

// claims records register blocks owned by a Bus.
var (
	claimsMutex sync.Mutex
	claims      = map[RegisterBlock]struct{}{}
)

// claim marks block as owned. It fails if another Bus already owns it.
func claim(block RegisterBlock) error {
	claimsMutex.Lock()
	defer claimsMutex.Unlock()
	if _, ok := claims[block]; ok {
		return pkg.ErrAlreadyClaimed
	}
	claims[block] = struct{}{}
	return nil
}

// release gives up ownership of block.
func release(block RegisterBlock) {
	claimsMutex.Lock()
	defer claimsMutex.Unlock()
	delete(claims, block)
}
