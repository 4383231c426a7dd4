//go:build linux && !tinygo

package mmio

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ardnew/otgfs/pkg"
)

// Mapping is a memory-mapped register window.
type Mapping struct {
	mem   []byte
	words []uint32
}

// Open maps size bytes of path starting at the physical address base. Base
// must be page aligned.
func Open(path string, base uintptr, size int) (*Mapping, error) {
	page := uintptr(unix.Getpagesize())
	if base%page != 0 {
		return nil, fmt.Errorf("%w: base 0x%X not aligned to %d byte page", pkg.ErrInvalidParameter, base, page)
	}
	if size <= 0 || size%4 != 0 {
		return nil, fmt.Errorf("%w: size %d", pkg.ErrInvalidParameter, size)
	}

	fd, err := unix.Open(path, unix.O_RDWR|unix.O_SYNC|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer unix.Close(fd)

	mem, err := unix.Mmap(fd, int64(base), size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s at 0x%X: %w", path, base, err)
	}

	pkg.LogDebug(pkg.ComponentRegister, "register window mapped",
		"path", path, "base", fmt.Sprintf("0x%X", base), "size", size)
	return &Mapping{
		mem:   mem,
		words: unsafe.Slice((*uint32)(unsafe.Pointer(&mem[0])), size/4),
	}, nil
}

// Load reads the 32-bit register at off.
func (m *Mapping) Load(off uint32) uint32 {
	return atomic.LoadUint32(&m.words[off/4])
}

// Store writes the 32-bit register at off.
func (m *Mapping) Store(off, v uint32) {
	atomic.StoreUint32(&m.words[off/4], v)
}

// Close unmaps the window.
func (m *Mapping) Close() error {
	if m.mem == nil {
		return nil
	}
	err := unix.Munmap(m.mem)
	m.mem, m.words = nil, nil
	return err
}
