// Package main is the entry point for the msgslot server.
//
// The server hosts a message slot device: numbered slots, each holding up to
// 2^32-1 channels with one message per channel. Clients open handles on slots
// over REST or WebSocket, select a channel, then write and read messages.
//
// Configuration:
//   - Defaults for development
//   - Optional YAML or TOML file named by MSGSLOT_CONFIG or -config
//   - Environment variables (12-factor)
//   - CLI flags (override everything)
//
// Usage:
//
//	# Production mode
//	./server -port 8000 -max-slots 256
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
