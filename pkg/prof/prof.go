//go:build profile

package prof

import (
	"io"
	"os"
	"runtime/pprof"
	"sync"

	"github.com/ardnew/otgfs/pkg"
)

// Enabled reports whether profiling is compiled in.
const Enabled = true

var (
	cpuMutex  sync.Mutex
	cpuFile   *os.File
	cpuActive bool
)

// StartCPU starts CPU profiling into the file at path.
// Returns [ErrCPUProfileActive] if CPU profiling is already active.
func StartCPU(path string) error {
	cpuMutex.Lock()
	defer cpuMutex.Unlock()

	if cpuActive {
		return ErrCPUProfileActive
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return err
	}

	cpuFile = f
	cpuActive = true
	pkg.LogDebug(pkg.ComponentCmd, "cpu profile started", "path", path)
	return nil
}

// StopCPU stops CPU profiling. It is safe to call when profiling is not
// active.
func StopCPU() {
	cpuMutex.Lock()
	defer cpuMutex.Unlock()

	if !cpuActive {
		return
	}
	pprof.StopCPUProfile()
	cpuFile.Close()
	cpuFile = nil
	cpuActive = false
}

// IsCPUActive reports whether CPU profiling is running.
func IsCPUActive() bool {
	cpuMutex.Lock()
	defer cpuMutex.Unlock()
	return cpuActive
}

// Write writes a snapshot profile to the file at path.
func Write(profile Profile, path string) error {
	if profile == ProfileCPU {
		return ErrInvalidProfile
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteTo(profile, f)
}

// WriteTo writes a snapshot profile to w in protobuf format.
func WriteTo(profile Profile, w io.Writer) error {
	if profile == ProfileCPU {
		return ErrInvalidProfile
	}
	p := pprof.Lookup(string(profile))
	if p == nil {
		return ErrInvalidProfile
	}
	return p.WriteTo(w, 0)
}
