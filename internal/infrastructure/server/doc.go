// Package server wires the message slot device to its HTTP and WebSocket
// front ends.
//
// Server Lifecycle:
//  1. Load configuration (defaults, optional file, environment)
//  2. Initialize logger and Prometheus metrics
//  3. Create the slot device with its limits
//  4. Setup middleware (recovery, request id, logging, metrics, CORS, rate limit)
//  5. Register REST, stream and /metrics routes
//  6. Serve, optionally behind a connection limit
//  7. Graceful shutdown: drain HTTP, then close every open handle
//
// Example Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//	srv, err := server.NewServer(cfg, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	go srv.Run()
//	defer srv.Close()
package server
