//go:build rp2040 || rp2350

package main

import (
	"context"

	"hazardnode-go/services/hal/halcore"
	"hazardnode-go/services/hal/platform"
	"hazardnode-go/types"
)

func openResources(cfg types.NodeConfig) (halcore.Resources, func() error, error) {
	res, err := platform.Open(cfg)
	return res, func() error { return nil }, err
}

// The node never shuts down on the MCU.
func rootContext() (context.Context, context.CancelFunc) {
	return context.Background(), func() {}
}
