// Package prof wraps [runtime/pprof] for the otgsim demo tool.
//
// Profiling is compiled in only with the "profile" build tag:
//
//	go build -tags profile ./cmd/otgsim
//
// Without the tag every function returns [ErrDisabled] so callers can log
// that the flag had no effect.
//
//	if err := prof.StartCPU("cpu.prof"); err != nil {
//	    return err
//	}
//	defer prof.StopCPU()
//
// Snapshot profiles are written with [Write]. [ProfileCPU] is not a
// snapshot and is rejected with [ErrInvalidProfile].
package prof

import "errors"

// Profiling errors.
var (
	// ErrCPUProfileActive indicates CPU profiling is already active.
	ErrCPUProfileActive = errors.New("cpu profile already active")

	// ErrInvalidProfile indicates an invalid or unsupported profile type.
	ErrInvalidProfile = errors.New("invalid profile")

	// ErrDisabled is returned when built without the "profile" tag.
	ErrDisabled = errors.New("profiling not compiled in (build with -tags profile)")
)

// Profile is a pprof profile name.
type Profile string

// Profile types.
const (
	ProfileCPU       Profile = "cpu"
	ProfileHeap      Profile = "heap"
	ProfileAllocs    Profile = "allocs"
	ProfileGoroutine Profile = "goroutine"
)

// String returns the pprof name of the profile.
func (p Profile) String() string {
	return string(p)
}
