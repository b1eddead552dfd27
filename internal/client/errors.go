package client

import (
	"fmt"

	"github.com/GriffinCanCode/msgslot/internal/slot"
)

// APIError is a failure reported by the server. It unwraps to the matching
// slot sentinel, so errors.Is(err, slot.ErrNoMessage) works across the wire.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	Errno   string `json:"errno"`
	Kind    string `json:"kind"`
}

func (e *APIError) Error() string {
	if e.Errno == "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Errno)
}

func (e *APIError) Unwrap() error {
	return slot.FromKind(e.Kind)
}
