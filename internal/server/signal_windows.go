//go:build windows

package server

import (
	"context"
	"os"
	"os/signal"
)

// signalContext returns a context canceled on os.Interrupt. Windows has
// no SIGTERM equivalent wired through os/signal, so only Interrupt is
// handled here.
func signalContext() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), os.Interrupt)
	return ctx
}
