// Package aggregator is the Zero side of the warning handshake: it watches
// each subsystem's warning line and answers a raised warning by holding
// that subsystem's acknowledge line high for a while.
package aggregator

import (
	"context"
	"time"

	"hazardnode-go/bus"
	"hazardnode-go/errcode"
	"hazardnode-go/services/diag"
	"hazardnode-go/services/hal/halcore"
	"hazardnode-go/types"
)

var log = diag.New("zero")

// Line is one subsystem's signal pair.
type Line struct {
	Name    string
	Warning halcore.GPIOPin
	Ack     halcore.GPIOPin
}

// WarningTopic carries one Warning per serviced line. It is not retained.
var WarningTopic = bus.T("zero", "warning")

// Warning is one acknowledged hazard.
type Warning struct {
	Subsystem string
	At        time.Time
}

type Acknowledger struct {
	lines []Line
	hold  time.Duration
	poll  time.Duration
	conn  *bus.Connection

	// Sleep times the acknowledge pulse; tests replace it.
	Sleep func(time.Duration)
}

// New returns an acknowledger over lines. Zero durations default to 1 s.
func New(lines []Line, hold, poll time.Duration) *Acknowledger {
	if hold <= 0 {
		hold = time.Second
	}
	if poll <= 0 {
		poll = time.Second
	}
	return &Acknowledger{lines: lines, hold: hold, poll: poll, Sleep: time.Sleep}
}

// FromConfig resolves cfg's pin numbers through pins.
func FromConfig(cfg types.AggregatorConfig, pins halcore.PinFactory) (*Acknowledger, error) {
	lines := make([]Line, 0, len(cfg.Lines))
	for _, lc := range cfg.Lines {
		w, ok := pins.ByNumber(lc.Warning)
		if !ok {
			return nil, errcode.UnknownPin
		}
		a, ok := pins.ByNumber(lc.Ack)
		if !ok {
			return nil, errcode.UnknownPin
		}
		lines = append(lines, Line{Name: lc.Name, Warning: w, Ack: a})
	}
	return New(lines, cfg.Hold, cfg.Poll), nil
}

// Attach publishes a Warning on WarningTopic, before each acknowledge pulse.
func (a *Acknowledger) Attach(c *bus.Connection) { a.conn = c }

// Setup makes every warning a pulled-down input and every acknowledge a low
// output.
func (a *Acknowledger) Setup() error {
	for _, l := range a.lines {
		if err := l.Warning.ConfigureInput(halcore.PullDown); err != nil {
			return err
		}
		if err := l.Ack.ConfigureOutput(false); err != nil {
			return err
		}
	}
	return nil
}

// Scan services at most one raised warning, in line order, and returns its
// subsystem name ("" when all lines are low).
func (a *Acknowledger) Scan() string {
	for _, l := range a.lines {
		if !l.Warning.Get() {
			continue
		}
		log.Info("acknowledging", l.Name)
		if a.conn != nil {
			a.conn.Publish(a.conn.NewMessage(WarningTopic, Warning{Subsystem: l.Name, At: time.Now()}, false))
		}
		l.Ack.Set(true)
		a.Sleep(a.hold)
		l.Ack.Set(false)
		return l.Name
	}
	return ""
}

// Run sets the lines up and serves until ctx ends.
func (a *Acknowledger) Run(ctx context.Context) error {
	if err := a.Setup(); err != nil {
		return err
	}
	return a.Serve(ctx)
}

// Serve scans every poll period until ctx ends. The lines must already be
// set up.
func (a *Acknowledger) Serve(ctx context.Context) error {
	t := time.NewTicker(a.poll)
	defer t.Stop()
	for {
		a.Scan()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}
