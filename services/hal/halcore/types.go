// services/hal/halcore/types.go
package halcore

import (
	"context"
	"io"
	"time"

	"tinygo.org/x/drivers"
)

// ---- Buses ----

// I2C is the addressed-bus contract. It is tinygo's drivers.I2C so that
// machine.I2C (MCU), periph i2c.Bus (Linux) and host fakes all satisfy it.
//
// Tx MUST perform a write followed by a repeated-start read when both w and
// r are provided, without releasing the bus.
type I2C = drivers.I2C

// Stream is the byte-stream (UART) contract: single bytes in and out.
// ReadByte blocks until a byte is available.
type Stream interface {
	io.ByteReader
	io.ByteWriter
}

// ---- GPIO abstractions ----

type Pull uint8

const (
	PullNone Pull = iota // floating / high impedance
	PullUp
	PullDown
)

type GPIOPin interface {
	ConfigureInput(pull Pull) error
	ConfigureOutput(initial bool) error
	Set(level bool)
	Get() bool
	Number() int
}

// Edge selection for IRQ.
type Edge uint8

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
	EdgeBoth
)

// IRQPin extends GPIOPin with interrupts.
type IRQPin interface {
	GPIOPin
	SetIRQ(edge Edge, handler func()) error
	ClearIRQ() error
}

// PinFactory supplies GPIO pins by the configured number scheme.
type PinFactory interface {
	ByNumber(n int) (GPIOPin, bool)
}

// ---- Low-power suspension ----

// Dormancy is the platform's deep-suspend primitive.
//
// UntilLevelHigh returns once pin reads high. UntilAlarm programs the real
// time clock with now and alarm and runs onWake when the alarm fires.
// Neither has a timeout; ctx only ends the wait when the hosting process is
// shutting down (host builds). MCU builds pass context.Background().
type Dormancy interface {
	UntilLevelHigh(ctx context.Context, pin GPIOPin) error
	UntilAlarm(ctx context.Context, now, alarm time.Time, onWake func()) error
}

// ---- Resources handed to a node ----

// Resources are the platform collaborators a node is built from. Unused
// buses are nil.
type Resources struct {
	Pins     PinFactory
	I2C      I2C
	Stream   Stream
	Dormancy Dormancy
}

// Util
func EdgeToString(e Edge) string {
	switch e {
	case EdgeRising:
		return "rising"
	case EdgeFalling:
		return "falling"
	case EdgeBoth:
		return "both"
	default:
		return "none"
	}
}
