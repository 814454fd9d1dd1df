//go:build !linux && !rp2040 && !rp2350

package main

import (
	"context"
	"os"
	"os/signal"

	"hazardnode-go/services/hal/halcore"
	"hazardnode-go/services/hal/platform"
	"hazardnode-go/types"
)

// Off-target dry run on fakes: the node sets up and suspends. Scheduled
// wakes follow the real clock; see cmd/nodesim for scripted runs.
func openResources(_ types.NodeConfig) (halcore.Resources, func() error, error) {
	h := platform.NewHost()
	h.Dormancy.Realtime = true
	return h.Resources(), func() error { return nil }, nil
}

func rootContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
