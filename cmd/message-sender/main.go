// Command message-sender writes one message to a channel of a message slot.
//
//	message-sender [-server URL] <slot> <channel_id> <message>
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
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("message-sender", flag.ContinueOnError)
	fs.SetOutput(stderr)
	server := fs.String("server", serverFromEnv(), "msgslot server URL (env MSGSLOT_SERVER)")
	timeout := fs.Duration("timeout", 10*time.Second, "overall request timeout")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	if fs.NArg() != 3 {
		fmt.Fprintln(stderr, "Usage: message-sender [-server URL] <slot> <channel_id> <message>")
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
	message := fs.Arg(2)
	if len(message) == 0 || len(message) > slot.MaxMessageSize {
		fmt.Fprintf(stderr, "Invalid message length (1-%d bytes)\n", slot.MaxMessageSize)
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
	if _, err := h.Write(ctx, []byte(message)); err != nil {
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
