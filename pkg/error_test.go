package pkg

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"would block", ErrWouldBlock, true},
		{"wrapped would block", fmt.Errorf("ep 0x81: %w", ErrWouldBlock), true},
		{"invalid endpoint", ErrInvalidEndpoint, false},
		{"endpoint overflow", ErrEndpointOverflow, false},
		{"buffer overflow", ErrBufferOverflow, false},
		{"timeout", ErrTimeout, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestErrorsDistinct(t *testing.T) {
	all := []error{
		ErrWouldBlock,
		ErrInvalidEndpoint,
		ErrEndpointOverflow,
		ErrBufferOverflow,
		ErrCapacityExceeded,
		ErrTimeout,
		ErrAlreadyRunning,
		ErrAlreadyClaimed,
		ErrInvalidParameter,
	}

	for i, a := range all {
		if a.Error() == "" {
			t.Errorf("error %d has empty message", i)
		}
		for j, b := range all {
			if i != j && errors.Is(a, b) {
				t.Errorf("errors.Is(%v, %v) = true, want false", a, b)
			}
		}
	}
}
