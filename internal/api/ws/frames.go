package ws

import (
	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/msgslot/internal/slot"
)

// Frame types.
const (
	TypeSelect = "select"
	TypeWrite  = "write"
	TypeRead   = "read"
	TypePing   = "ping"
	TypeClose  = "close"

	TypeOpened = "opened"
	TypeOK     = "ok"
	TypeData   = "data"
	TypeError  = "error"
	TypePong   = "pong"
)

// Request is a client frame. Data travels base64 encoded.
type Request struct {
	Type     string `json:"type"`
	ID       string `json:"id,omitempty"`
	Channel  *int64 `json:"channel,omitempty"`
	Data     []byte `json:"data,omitempty"`
	Capacity *int   `json:"capacity,omitempty"`
}

// Response is a server frame. ID echoes the request it answers.
type Response struct {
	Type    string  `json:"type"`
	ID      string  `json:"id,omitempty"`
	Handle  string  `json:"handle,omitempty"`
	Slot    *uint32 `json:"slot,omitempty"`
	Channel uint32  `json:"channel,omitempty"`
	Data    []byte  `json:"data,omitempty"`
	Written int     `json:"written,omitempty"`
	Error   string  `json:"error,omitempty"`
	Errno   string  `json:"errno,omitempty"`
	Kind    string  `json:"kind,omitempty"`
}

func decodeRequest(raw []byte) (Request, error) {
	var req Request
	err := sonic.Unmarshal(raw, &req)
	return req, err
}

func encodeResponse(resp Response) ([]byte, error) {
	return sonic.Marshal(resp)
}

func errorResponse(id string, err error) Response {
	return Response{
		Type:  TypeError,
		ID:    id,
		Error: err.Error(),
		Errno: slot.Errno(err),
		Kind:  slot.Kind(err),
	}
}
