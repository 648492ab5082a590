package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/printdeck/internal/cli"
)

// version is injected at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cli.Version = version
	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "printdeck: %v\n", err)
		return 1
	}
	return 0
}
