package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	pkgerrors "github.com/angelmondragon/catalogsync/pkg/errors"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().rootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(exitCode(err))
	}
}

// exitCode separates fatal configuration failures (2) from run failures (1).
func exitCode(err error) int {
	if pkgerrors.IsFatal(err) {
		return 2
	}
	return 1
}
