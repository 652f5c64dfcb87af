package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"wheeltracker/cmd"
)

func main() {
	// Cancel in-flight work on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
