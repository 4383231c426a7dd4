//go:build !profile

package prof

import (
	"errors"
	"testing"
)

func TestStubDisabled(t *testing.T) {
	if Enabled {
		t.Fatal("Enabled = true without the profile tag")
	}
	if err := StartCPU("cpu.prof"); !errors.Is(err, ErrDisabled) {
		t.Errorf("StartCPU() error = %v, want %v", err, ErrDisabled)
	}
	StopCPU()
	if IsCPUActive() {
		t.Error("IsCPUActive() = true, want false")
	}
	if err := Write(ProfileHeap, "heap.prof"); !errors.Is(err, ErrDisabled) {
		t.Errorf("Write() error = %v, want %v", err, ErrDisabled)
	}
	if err := WriteTo(ProfileHeap, nil); !errors.Is(err, ErrDisabled) {
		t.Errorf("WriteTo() error = %v, want %v", err, ErrDisabled)
	}
}
