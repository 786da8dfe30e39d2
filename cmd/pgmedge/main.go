package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Fepozopo/pgmedge/pkg/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Main(ctx)
	stop()
	os.Exit(code)
}
