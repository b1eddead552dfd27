// Package http exposes the message slot device over a small REST API.
//
// A handle returned by POST /slots/:slot/open stands in for an open file
// descriptor on the slot. Channel selection, writes and reads are then issued
// against that handle until it is deleted.
//
// Endpoints:
//   - Health: /health
//   - Stats: /stats
//   - Slots: POST /slots/:slot/open
//   - Handles: GET|DELETE /handles/:handle, PUT /handles/:handle/channel,
//     POST /handles/:handle/write, GET /handles/:handle/read?capacity=N
//
// Writes take the raw request body as the message. Reads answer with the raw
// message bytes as application/octet-stream. Failures carry a JSON body with
// the errno the device would have reported:
//
//	{"success": false, "error": "...", "errno": "EINVAL", "kind": "invalid_argument"}
//
// Example Usage:
//
//	handlers := http.NewHandlers(device, metrics, logger)
//	handlers.Register(router)
package http
