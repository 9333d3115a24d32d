package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Ning0612/Cloudbrowse/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	_ = logger.Shutdown()
	if err != nil {
		os.Exit(1)
	}
}
