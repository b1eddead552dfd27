// Package client is a Go client for the msgslot REST API.
//
// Server failures come back as *APIError values that unwrap to the slot
// package's sentinel errors:
//
//	h, err := client.New(client.DefaultConfig()).Open(ctx, 0)
//	...
//	if _, err := h.Read(ctx, slot.MaxMessageSize); errors.Is(err, slot.ErrNoMessage) {
//		// nothing written on this channel yet
//	}
package client
