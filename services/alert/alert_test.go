package alert

import (
	"testing"
	"time"

	"hazardnode-go/services/hal/halcore"
	"hazardnode-go/services/indicator"
)

type mode uint8

const (
	modeUnset mode = iota
	modeInput
	modeOutput
)

type linePin struct {
	n     int
	mode  mode
	pull  halcore.Pull
	level bool
	// onGet, if set, is consulted for reads.
	onGet func() bool
	sets  []bool
}

func (p *linePin) ConfigureInput(pull halcore.Pull) error {
	p.mode, p.pull = modeInput, pull
	return nil
}
func (p *linePin) ConfigureOutput(v bool) error {
	p.mode, p.level = modeOutput, v
	return nil
}
func (p *linePin) Set(v bool) {
	p.level = v
	p.sets = append(p.sets, v)
}
func (p *linePin) Get() bool {
	if p.onGet != nil {
		return p.onGet()
	}
	return p.level
}
func (p *linePin) Number() int { return p.n }

func newHandshake(ackAfter int) (*Handshake, *linePin, *linePin, *linePin, *int) {
	warn := &linePin{n: 3}
	ledPin := &linePin{n: 25}
	reads := 0
	ack := &linePin{n: 2}
	ack.onGet = func() bool {
		if warn.mode != modeOutput || !warn.level {
			return false
		}
		reads++
		return reads > ackAfter
	}
	led := indicator.New(ledPin)
	led.Sleep = func(time.Duration) {}
	return New(Channel{Warning: warn, Ack: ack}, led, 0), warn, ack, ledPin, &reads
}

func TestIssueWarningWaitsForAck(t *testing.T) {
	h, warn, ack, ledPin, _ := newHandshake(4)

	if !h.IssueWarning() {
		t.Fatal("IssueWarning returned false")
	}
	if h.Polls() != 4 {
		t.Fatalf("polls = %d, want 4", h.Polls())
	}
	if len(warn.sets) != 1 || !warn.sets[0] {
		t.Fatalf("warning sets %v", warn.sets)
	}
	if warn.mode != modeInput || warn.pull != halcore.PullNone {
		t.Fatalf("warning not floated: mode=%d pull=%d", warn.mode, warn.pull)
	}
	if ack.mode != modeInput {
		t.Fatal("ack not an input")
	}
	// four pulses (on/off) then off
	if len(ledPin.sets) != 9 || ledPin.level {
		t.Fatalf("led sets %v", ledPin.sets)
	}
}

func TestIssueWarningImmediateAck(t *testing.T) {
	h, warn, _, ledPin, _ := newHandshake(0)
	if !h.IssueWarning() || h.Polls() != 0 {
		t.Fatalf("polls = %d", h.Polls())
	}
	if warn.mode != modeInput {
		t.Fatal("warning not released")
	}
	if len(ledPin.sets) != 1 || ledPin.sets[0] {
		t.Fatalf("led sets %v", ledPin.sets)
	}
}

func TestIssueWarningRepeatable(t *testing.T) {
	h, warn, _, _, reads := newHandshake(1)
	h.IssueWarning()
	*reads = 0
	h.IssueWarning()
	if h.Polls() != 1 || len(warn.sets) != 2 {
		t.Fatalf("second handshake: polls=%d sets=%v", h.Polls(), warn.sets)
	}
}

func TestDefaultPendingHalf(t *testing.T) {
	h := New(Channel{}, nil, 0)
	if h.half != indicator.PendingHalf {
		t.Fatalf("half = %v", h.half)
	}
}
