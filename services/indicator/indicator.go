// Package indicator drives the node's status LED.
//
//	slow pulse  waiting for the aggregator to acknowledge
//	rapid flash sampling (one toggle per sample) / rain line still high
//	fast pulse  fault, forever
package indicator

import (
	"time"

	"hazardnode-go/services/hal/halcore"
)

// Default half-periods.
const (
	PendingHalf = 500 * time.Millisecond
	FlashHalf   = 100 * time.Millisecond
	FaultHalf   = 100 * time.Millisecond
)

// LED is a single status output. A nil pin is allowed (indicator not
// wired): patterns keep their timing but drive nothing.
type LED struct {
	pin halcore.GPIOPin
	on  bool

	// Sleep is used for all pattern timing; tests replace it.
	Sleep func(time.Duration)
}

func New(pin halcore.GPIOPin) *LED {
	return &LED{pin: pin, Sleep: time.Sleep}
}

// Setup configures the pin as an output, initially off.
func (l *LED) Setup() error {
	if l.pin == nil {
		return nil
	}
	return l.pin.ConfigureOutput(false)
}

func (l *LED) set(on bool) {
	l.on = on
	if l.pin != nil {
		l.pin.Set(on)
	}
}

func (l *LED) On()     { l.set(true) }
func (l *LED) Off()    { l.set(false) }
func (l *LED) Toggle() { l.set(!l.on) }

// Pulse runs one period: on for half, off for half.
func (l *LED) Pulse(half time.Duration) {
	l.set(true)
	l.Sleep(half)
	l.set(false)
	l.Sleep(half)
}

// FlashWhile pulses with the given half-period for as long as cond holds,
// and returns the number of pulses.
func (l *LED) FlashWhile(half time.Duration, cond func() bool) int {
	n := 0
	for cond() {
		l.Pulse(half)
		n++
	}
	return n
}

// FailStop blinks the fault pattern and never returns.
func (l *LED) FailStop(half time.Duration) {
	if half <= 0 {
		half = FaultHalf
	}
	for {
		l.Pulse(half)
	}
}
