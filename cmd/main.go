package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"exceltoquiz/internal/cli"
)

func main() {
	log.SetPrefix("exceltoquiz: ")
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
