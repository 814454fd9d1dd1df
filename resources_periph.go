//go:build linux && !baremetal

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"hazardnode-go/services/hal/halcore"
	"hazardnode-go/services/hal/periphhal"
	"hazardnode-go/types"
)

func openResources(cfg types.NodeConfig) (halcore.Resources, func() error, error) {
	return periphhal.Open(cfg)
}

func rootContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
