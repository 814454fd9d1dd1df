// Package platform supplies halcore resources: in-memory fakes on the host
// and machine-backed pins, buses and dormancy on RP2040/RP2350.
package platform

import (
	"hazardnode-go/services/diag"
	"hazardnode-go/services/hal/halcore"
)

var log = diag.New("platform")

// wakeEdge is the trigger edge a level-wake suspension listens for.
const wakeEdge = halcore.EdgeRising
