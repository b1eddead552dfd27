// Package ws streams a message slot session over a WebSocket.
//
// Each connection opens exactly one session on the slot named in the URL and
// closes it when the connection ends, mirroring an open file descriptor.
//
// Message Types (Client → Server):
//   - select: {"type":"select","channel":N}
//   - write: {"type":"write","data":"<base64>"}, or a binary frame carrying
//     the raw message
//   - read: {"type":"read","capacity":N}, capacity defaults to 128
//   - ping: Keep-alive ping
//   - close: close the session and the connection
//
// Message Types (Server → Client):
//   - opened: sent once with the handle and slot
//   - ok: select or write succeeded
//   - data: the message read, base64 encoded
//   - error: carries errno and kind like the REST API
//   - pong: reply to ping
//
// Every request may carry an "id" that is echoed on its reply.
//
// Example Usage:
//
//	handler := ws.NewHandler(device, metrics, logger)
//	router.GET("/slots/:slot/stream", handler.HandleConnection)
package ws
