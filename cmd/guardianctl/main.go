package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"guardian/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.Execute(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "guardianctl:", err)
		os.Exit(1)
	}
}
