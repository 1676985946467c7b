package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func die(err error) { fmt.Fprintln(os.Stderr, err); os.Exit(1) }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := NewCLI().ExecuteContext(ctx); err != nil {
		die(err)
	}
}
