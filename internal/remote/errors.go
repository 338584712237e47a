package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable indicates the connection to the simulator is closed or broken.
	ErrUnavailable = errors.New("remote: simulator unavailable")

	// ErrProtocol indicates a reply that could not be understood.
	ErrProtocol = errors.New("remote: malformed reply")
)

// CallError is a failure reported by the simulator for a single call.
type CallError struct {
	Func string
	Msg  string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("remote: %s: %s", e.Func, e.Msg)
}

// IsUnavailable reports whether err means the simulator can no longer be reached.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
