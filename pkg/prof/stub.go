//go:build !profile

package prof

import "io"

// Enabled reports whether profiling is compiled in.
const Enabled = false

// StartCPU returns [ErrDisabled].
func StartCPU(_ string) error {
	return ErrDisabled
}

// StopCPU does nothing.
func StopCPU() {}

// IsCPUActive always returns false.
func IsCPUActive() bool {
	return false
}

// Write returns [ErrDisabled].
func Write(_ Profile, _ string) error {
	return ErrDisabled
}

// WriteTo returns [ErrDisabled].
func WriteTo(_ Profile, _ io.Writer) error {
	return ErrDisabled
}
