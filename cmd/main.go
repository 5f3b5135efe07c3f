package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Main is the entry point called from the root main.go
func Main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := Execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
