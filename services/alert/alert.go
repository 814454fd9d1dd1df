// Package alert signals a hazard to the aggregator over a two-wire
// warning/acknowledge pair and blocks until it is acknowledged.
package alert

import (
	"time"

	"hazardnode-go/services/diag"
	"hazardnode-go/services/hal/halcore"
	"hazardnode-go/services/indicator"
)

var log = diag.New("alert")

// Channel is the node's half of the signal pair.
type Channel struct {
	Warning halcore.GPIOPin // node -> aggregator
	Ack     halcore.GPIOPin // aggregator -> node
}

type Handshake struct {
	ch   Channel
	led  *indicator.LED
	half time.Duration

	polls int
}

// New binds a handshake to its lines. pendingHalf is the indicator
// half-period while waiting (indicator.PendingHalf when <= 0).
func New(ch Channel, led *indicator.LED, pendingHalf time.Duration) *Handshake {
	if pendingHalf <= 0 {
		pendingHalf = indicator.PendingHalf
	}
	if led == nil {
		led = indicator.New(nil)
	}
	return &Handshake{ch: ch, led: led, half: pendingHalf}
}

// Polls is the number of unacknowledged polls in the last handshake.
func (h *Handshake) Polls() int { return h.polls }

// IssueWarning raises the warning line and waits, with no timeout, for the
// acknowledge line to go high. The indicator slow-pulses while waiting. On
// acknowledge the warning line is released to a floating input so it never
// contends with the aggregator, and the indicator is turned off. It always
// returns true and may be called again for the next hazard.
func (h *Handshake) IssueWarning() bool {
	if err := h.ch.Warning.ConfigureOutput(false); err != nil {
		log.Warn("warning line:", err)
	}
	if err := h.ch.Ack.ConfigureInput(halcore.PullNone); err != nil {
		log.Warn("ack line:", err)
	}

	h.ch.Warning.Set(true)
	log.Info("warning raised on pin", h.ch.Warning.Number())

	h.polls = 0
	for !h.ch.Ack.Get() {
		h.led.Pulse(h.half)
		h.polls++
	}

	if err := h.ch.Warning.ConfigureInput(halcore.PullNone); err != nil {
		log.Warn("release warning line:", err)
	}
	h.led.Off()
	log.Info("acknowledged after", h.polls, "polls")
	return true
}
