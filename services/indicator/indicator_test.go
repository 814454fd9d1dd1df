package indicator

import (
	"testing"
	"time"

	"hazardnode-go/services/hal/halcore"
)

type recPin struct {
	level   bool
	history []bool
	output  bool
}

func (p *recPin) ConfigureInput(halcore.Pull) error { p.output = false; return nil }
func (p *recPin) ConfigureOutput(v bool) error {
	p.output = true
	p.level = v
	return nil
}
func (p *recPin) Set(v bool) {
	p.level = v
	p.history = append(p.history, v)
}
func (p *recPin) Get() bool   { return p.level }
func (p *recPin) Number() int { return 25 }

func TestPulseTiming(t *testing.T) {
	pin := &recPin{}
	l := New(pin)
	var slept []time.Duration
	l.Sleep = func(d time.Duration) { slept = append(slept, d) }

	if err := l.Setup(); err != nil || !pin.output || pin.level {
		t.Fatalf("setup: err=%v output=%v level=%v", err, pin.output, pin.level)
	}
	l.Pulse(PendingHalf)

	if len(pin.history) != 2 || !pin.history[0] || pin.history[1] {
		t.Fatalf("history %v", pin.history)
	}
	if len(slept) != 2 || slept[0] != 500*time.Millisecond || slept[1] != 500*time.Millisecond {
		t.Fatalf("slept %v", slept)
	}
}

func TestFlashWhileCountsPulses(t *testing.T) {
	pin := &recPin{}
	l := New(pin)
	l.Sleep = func(time.Duration) {}

	left := 3
	n := l.FlashWhile(FlashHalf, func() bool { left--; return left >= 0 })
	if n != 3 {
		t.Fatalf("pulses = %d, want 3", n)
	}
	if pin.level {
		t.Fatal("LED left on")
	}
}

func TestNilPinKeepsTiming(t *testing.T) {
	l := New(nil)
	var total time.Duration
	l.Sleep = func(d time.Duration) { total += d }
	if err := l.Setup(); err != nil {
		t.Fatal(err)
	}
	l.Pulse(FlashHalf)
	l.On()
	l.Off()
	if total != 200*time.Millisecond {
		t.Fatalf("total sleep %v", total)
	}
}

func TestToggleAlternates(t *testing.T) {
	pin := &recPin{}
	l := New(pin)
	_ = l.Setup()
	for i := 0; i < 3; i++ {
		l.Toggle()
	}
	l.Off()
	want := []bool{true, false, true, false}
	if len(pin.history) != len(want) {
		t.Fatalf("history %v", pin.history)
	}
	for i := range want {
		if pin.history[i] != want[i] {
			t.Fatalf("history %v, want %v", pin.history, want)
		}
	}
}
