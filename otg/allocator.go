package otg

import (
	"fmt"

	"github.com/ardnew/otgfs/pkg"
)

// PacketBuffer is a word-aligned region of packet memory. It is owned by
// the endpoint it was issued to for the lifetime of the driver.
type PacketBuffer struct {
	words  []uint32
	offset int
}

// Offset returns the start of the region within its pool, in words.
func (b PacketBuffer) Offset() int { return b.offset }

// Words returns the size of the region in words.
func (b PacketBuffer) Words() int { return len(b.words) }

// Len returns the size of the region in bytes.
func (b PacketBuffer) Len() int { return len(b.words) * 4 }

// Allocator hands out non-overlapping regions of a fixed pool. It never
// reclaims space: regions are issued once per endpoint and kept.
type Allocator struct {
	pool     []uint32
	reserved int
	next     int
}

// NewAllocator creates an allocator over a pool of words 32-bit words with
// the first reserved words already in use.
func NewAllocator(words, reserved int) *Allocator {
	if reserved > words {
		reserved = words
	}
	return &Allocator{
		pool:     make([]uint32, words),
		reserved: reserved,
		next:     reserved,
	}
}

// Allocate issues a region large enough for size bytes, rounded up to whole
// words. On failure the allocator state is unchanged.
func (a *Allocator) Allocate(size int) (PacketBuffer, error) {
	if size <= 0 {
		return PacketBuffer{}, fmt.Errorf("%w: allocation size %d", pkg.ErrInvalidParameter, size)
	}
	n := (size + 3) / 4
	if n > len(a.pool)-a.next {
		return PacketBuffer{}, fmt.Errorf("%w: %d words requested, %d free",
			pkg.ErrCapacityExceeded, n, len(a.pool)-a.next)
	}
	b := PacketBuffer{words: a.pool[a.next : a.next+n : a.next+n], offset: a.next}
	a.next += n
	pkg.LogDebug(pkg.ComponentAlloc, "region allocated",
		"offset", b.offset, "words", n, "free", len(a.pool)-a.next)
	return b, nil
}

// Reserved returns the size of the reserved prefix in words.
func (a *Allocator) Reserved() int { return a.reserved }

// Used returns the number of words issued, including the reserved prefix.
func (a *Allocator) Used() int { return a.next }

// Free returns the number of words still available.
func (a *Allocator) Free() int { return len(a.pool) - a.next }

// Capacity returns the total pool size in words.
func (a *Allocator) Capacity() int { return len(a.pool) }
