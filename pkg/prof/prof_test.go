//go:build profile

package prof

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestStartCPU_Success(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cpu.prof")

	if err := StartCPU(path); err != nil {
		t.Fatalf("StartCPU() error = %v, want nil", err)
	}
	if !IsCPUActive() {
		t.Error("IsCPUActive() = false, want true")
	}
	StopCPU()

	if IsCPUActive() {
		t.Error("IsCPUActive() = true after StopCPU")
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Size() == 0 {
		t.Error("cpu profile is empty")
	}
}

func TestStartCPU_FailFastWhenActive(t *testing.T) {
	if err := StartCPU(filepath.Join(t.TempDir(), "cpu.prof")); err != nil {
		t.Fatalf("StartCPU() error = %v, want nil", err)
	}
	defer StopCPU()

	err := StartCPU(filepath.Join(t.TempDir(), "cpu2.prof"))
	if !errors.Is(err, ErrCPUProfileActive) {
		t.Errorf("StartCPU() error = %v, want %v", err, ErrCPUProfileActive)
	}
}

func TestStartCPU_InvalidPath(t *testing.T) {
	if err := StartCPU("/nonexistent/directory/cpu.prof"); err == nil {
		t.Error("StartCPU() error = nil, want error for invalid path")
		StopCPU()
	}
}

func TestStopCPU_Inactive(t *testing.T) {
	StopCPU()
	StopCPU()
}

func TestWrite(t *testing.T) {
	tests := []struct {
		profile Profile
		wantErr error
	}{
		{ProfileHeap, nil},
		{ProfileAllocs, nil},
		{ProfileGoroutine, nil},
		{ProfileCPU, ErrInvalidProfile},
		{Profile("bogus"), ErrInvalidProfile},
	}

	for _, tt := range tests {
		t.Run(tt.profile.String(), func(t *testing.T) {
			var buf bytes.Buffer
			err := WriteTo(tt.profile, &buf)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("WriteTo() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && buf.Len() == 0 {
				t.Error("WriteTo() wrote nothing")
			}
		})
	}

	path := filepath.Join(t.TempDir(), "heap.prof")
	if err := Write(ProfileHeap, path); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
}
