package pkg

import "errors"

// Transfer errors reported by the driver contract.
var (
	// ErrWouldBlock indicates the operation cannot proceed right now.
	// It is transient: the caller retries after a later poll.
	ErrWouldBlock = errors.New("operation would block")

	// ErrInvalidEndpoint indicates an unconfigured, nonexistent, or
	// wrong-direction endpoint address.
	ErrInvalidEndpoint = errors.New("invalid endpoint")

	// ErrEndpointOverflow indicates no free endpoint slot or no packet
	// memory left for a new endpoint.
	ErrEndpointOverflow = errors.New("endpoint overflow")

	// ErrBufferOverflow indicates a buffer too small for the pending packet,
	// or a payload larger than the endpoint's max packet size.
	ErrBufferOverflow = errors.New("buffer overflow")
)

// Resource and lifecycle errors.
var (
	// ErrCapacityExceeded indicates an allocation larger than the remaining pool.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrTimeout indicates a hardware busy-wait exceeded its spin limit.
	ErrTimeout = errors.New("hardware timeout")

	// ErrAlreadyRunning indicates the peripheral has already been enabled.
	ErrAlreadyRunning = errors.New("already running")

	// ErrAlreadyClaimed indicates a register block already owned by another driver.
	ErrAlreadyClaimed = errors.New("register block already claimed")

	// ErrInvalidParameter indicates an invalid parameter was provided.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// IsRetryable reports whether err is a transient condition that may succeed
// if the same call is repeated after the next poll.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrWouldBlock)
}
