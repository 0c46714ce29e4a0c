package link

import "errors"

var (
	// ErrAddressResolution indicates that a target address couldn't be resolved or bound.
	ErrAddressResolution = errors.New("address resolution failed")

	// ErrTransport indicates a send or receive failure on an established channel.
	ErrTransport = errors.New("transport failure")

	// ErrTimeoutExceeded indicates that no valid reply arrived within the receive retry bound.
	ErrTimeoutExceeded = errors.New("reply timeout exceeded")
)
