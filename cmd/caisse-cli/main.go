package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"caisse/internal/cli"
)

func main() {
	cli.LoadEnvFile()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
