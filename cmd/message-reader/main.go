// Command message-reader prints the message stored on a channel of a message
// slot. The bytes are written to stdout exactly as stored.
//
//	message-reader [-server URL] <slot> <channel_id>
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/GriffinCanCode/msgslot/internal/client"
	"github.com/GriffinCanCode/msgslot/internal/slot"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("message-reader", flag.ContinueOnError)
	fs.SetOutput(stderr)
	server := fs.String("server", serverFromEnv(), "msgslot server URL (env MSGSLOT_SERVER)")
	timeout := fs.Duration("timeout", 10*time.Second, "overall request timeout")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	if fs.NArg() != 2 {
		fmt.Fprintln(stderr, "Usage: message-reader [-server URL] <slot> <channel_id>")
		return 1
	}

	slotID, err := strconv.ParseUint(fs.Arg(0), 10, 32)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid slot %q\n", fs.Arg(0))
		return 1
	}
	channelID, err := strconv.ParseUint(fs.Arg(1), 10, 32)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid channel id %q\n", fs.Arg(1))
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cfg := client.DefaultConfig()
	cfg.BaseURL = *server
	h, err := client.New(cfg).Open(ctx, uint32(slotID))
	if err != nil {
		fmt.Fprintf(stderr, "open: %v\n", err)
		return 1
	}
	defer func() { _ = h.Close(ctx) }()

	if err := h.SelectChannel(ctx, uint32(channelID)); err != nil {
		fmt.Fprintf(stderr, "select channel: %v\n", err)
		return 1
	}

	msg, err := h.Read(ctx, slot.MaxMessageSize)
	if err != nil {
		fmt.Fprintf(stderr, "read: %v\n", err)
		return 1
	}
	if _, err := stdout.Write(msg); err != nil {
		fmt.Fprintf(stderr, "write: %v\n", err)
		return 1
	}
	return 0
}

func serverFromEnv() string {
	if s := os.Getenv("MSGSLOT_SERVER"); s != "" {
		return s
	}
	return client.DefaultBaseURL
}
