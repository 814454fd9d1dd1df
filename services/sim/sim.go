//go:build !rp2040 && !rp2350

// Package sim runs a real node loop on host fakes, with the aggregator
// acknowledging on the same lines, and drives it from a scripted scenario.
package sim

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/shlex"

	"hazardnode-go/bus"
	"hazardnode-go/services/aggregator"
	"hazardnode-go/services/config"
	"hazardnode-go/services/diag"
	"hazardnode-go/services/hal/platform"
	"hazardnode-go/services/node"
	"hazardnode-go/types"
	"hazardnode-go/x/mathx"
)

var log = diag.New("sim")

// accelerometer full-scale range used to bound scripted readings
const rangeG = 16.0

// syncTopic carries a chan struct{} that the collector closes on receipt.
var syncTopic = bus.T("sim", "sync")

var (
	ErrUnknownStep = errors.New("sim: unknown step")
	ErrBadArgs     = errors.New("sim: bad step arguments")
	ErrExpect      = errors.New("sim: expectation failed")
	ErrTimeout     = errors.New("sim: await timed out")
)

// Report summarises a finished run.
type Report struct {
	Name     string
	Verdicts []types.HazardVerdict
	Signals  int
	Warnings []aggregator.Warning
	State    types.PowerState
	NodeErr  error
}

// StepError locates a failing step.
type StepError struct {
	Index int
	Step  string
	Err   error
}

func (e *StepError) Error() string {
	return "step " + strconv.Itoa(e.Index+1) + " (" + e.Step + "): " + e.Err.Error()
}

func (e *StepError) Unwrap() error { return e.Err }

type runner struct {
	sc   *Scenario
	cfg  types.NodeConfig
	host *platform.Host
	n    *node.Node
	zero *aggregator.Acknowledger
	obs  *bus.Connection

	mu       sync.Mutex
	verdicts []types.HazardVerdict
	warnings []aggregator.Warning
	signals  int
	state    types.PowerState
	nodeErr  error
	nodeDone bool
}

// Run executes sc to completion.
func Run(ctx context.Context, sc *Scenario) (Report, error) {
	cfg, err := config.Lookup(sc.Node)
	if err != nil {
		return Report{Name: sc.Name}, err
	}
	cfg.Timing = types.TimingConfig{
		PendingHalf: time.Millisecond,
		FlashHalf:   time.Millisecond,
		FaultHalf:   time.Millisecond,
		SensorBoot:  time.Millisecond,
		SensorQuery: time.Millisecond,
	}

	r := &runner{sc: sc, cfg: cfg, host: platform.NewHost()}
	if sc.DeviceID != nil {
		r.host.I2C.SetDeviceID(*sc.DeviceID)
	}

	r.n, err = node.Build(cfg, r.host.Resources())
	if err != nil {
		return Report{Name: sc.Name}, err
	}

	b := bus.NewBus(256)
	r.obs = b.NewConnection("sim")
	collected := make(chan struct{})
	go r.collect(r.obs.Subscribe(bus.T(bus.WildRest)), collected)
	r.n.Attach(b.NewConnection(cfg.Name))

	hold := sc.Hold
	if hold <= 0 {
		hold = 5 * time.Millisecond
	}
	r.zero = aggregator.New([]aggregator.Line{{
		Name:    cfg.Name,
		Warning: r.host.Pins.Pin(cfg.Pins.Warning),
		Ack:     r.host.Pins.Pin(cfg.Pins.Ack),
	}}, hold, time.Millisecond)
	r.zero.Attach(b.NewConnection("zero"))
	if err := r.zero.Setup(); err != nil {
		r.obs.Disconnect()
		return Report{Name: sc.Name}, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if !sc.Silent {
		go r.zero.Serve(ctx)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		err := r.n.Run(ctx)
		r.mu.Lock()
		r.nodeErr, r.nodeDone = err, true
		r.mu.Unlock()
	}()

	log.Info("scenario", sc.Name, "on", cfg.Name)
	var stepErr error
	for i, s := range sc.Steps {
		if err := r.step(ctx, s); err != nil {
			stepErr = &StepError{Index: i, Step: s, Err: err}
			break
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(50 * time.Millisecond):
		// Still in a handshake: the acknowledger has stopped, so answer it.
		r.host.Pins.Pin(cfg.Pins.Ack).Set(true)
		select {
		case <-done:
		case <-time.After(time.Second):
			log.Warn("node still busy at shutdown")
		}
	}
	r.obs.Disconnect()
	<-collected
	return r.report(), stepErr
}

// collect records node and aggregator messages until sub closes.
func (r *runner) collect(sub *bus.Subscription, done chan<- struct{}) {
	defer close(done)
	name := r.cfg.Name
	for m := range sub.Channel() {
		r.mu.Lock()
		switch {
		case bus.Match(node.StateTopic(name), m.Topic):
			r.state, _ = m.Payload.(types.PowerState)
		case bus.Match(node.VerdictTopic(name), m.Topic):
			if v, ok := m.Payload.(types.HazardVerdict); ok {
				r.verdicts = append(r.verdicts, v)
			}
		case bus.Match(node.SignalTopic(name), m.Topic):
			r.signals, _ = m.Payload.(int)
		case bus.Match(aggregator.WarningTopic, m.Topic):
			if w, ok := m.Payload.(aggregator.Warning); ok {
				r.warnings = append(r.warnings, w)
			}
		case bus.Match(syncTopic, m.Topic):
			if ch, ok := m.Payload.(chan struct{}); ok {
				close(ch)
			}
		}
		r.mu.Unlock()
	}
}

// sync returns once the collector has seen everything published so far.
func (r *runner) sync() {
	ch := make(chan struct{})
	r.obs.Publish(r.obs.NewMessage(syncTopic, ch, false))
	select {
	case <-ch:
	case <-time.After(time.Second):
		log.Warn("collector lagging")
	}
}

func (r *runner) report() Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Report{
		Name:     r.sc.Name,
		Verdicts: append([]types.HazardVerdict(nil), r.verdicts...),
		Signals:  r.signals,
		Warnings: append([]aggregator.Warning(nil), r.warnings...),
		State:    r.state,
		NodeErr:  r.nodeErr,
	}
}

func (r *runner) step(ctx context.Context, line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}
	switch cmd, rest := args[0], args[1:]; cmd {
	case "accel":
		return r.accel(rest)
	case "soil":
		for _, a := range rest {
			v, err := strconv.Atoi(a)
			if err != nil {
				return ErrBadArgs
			}
			r.host.Stream.PushMoisture(v)
		}
		return nil
	case "frame":
		if len(rest) != 1 {
			return ErrBadArgs
		}
		r.host.Stream.PushFrame(rest[0] + "\n")
		return nil
	case "trigger":
		if len(rest) != 1 || r.cfg.Pins.Trigger < 0 {
			return ErrBadArgs
		}
		high, err := level(rest[0])
		if err != nil {
			return err
		}
		r.host.Pins.Pin(r.cfg.Pins.Trigger).Set(high)
		return nil
	case "alarm":
		r.host.Dormancy.Fire()
		return nil
	case "sleep":
		if len(rest) != 1 {
			return ErrBadArgs
		}
		d, err := time.ParseDuration(rest[0])
		if err != nil {
			return ErrBadArgs
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
		}
		return nil
	case "await":
		return r.await(ctx, rest)
	case "expect":
		if len(rest) != 2 {
			return ErrBadArgs
		}
		ok, err := r.check(rest[0], rest[1], true)
		if err != nil {
			return err
		}
		if !ok {
			return &expectError{what: rest[0], want: rest[1], got: r.observe(rest[0])}
		}
		return nil
	default:
		return ErrUnknownStep
	}
}

// accel x y z [count]
func (r *runner) accel(args []string) error {
	if len(args) != 3 && len(args) != 4 {
		return ErrBadArgs
	}
	var g [3]float64
	for i := range g {
		v, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return ErrBadArgs
		}
		g[i] = mathx.Clamp(v, -rangeG, rangeG)
	}
	count := 1
	if len(args) == 4 {
		n, err := strconv.Atoi(args[3])
		if err != nil || n < 1 {
			return ErrBadArgs
		}
		count = n
	}
	for i := 0; i < count; i++ {
		r.host.I2C.PushG(g[0], g[1], g[2])
	}
	return nil
}

func level(s string) (bool, error) {
	switch s {
	case "high", "1", "on":
		return true, nil
	case "low", "0", "off":
		return false, nil
	}
	return false, ErrBadArgs
}

// await <what> <value> [timeout]
func (r *runner) await(ctx context.Context, args []string) error {
	if len(args) != 2 && len(args) != 3 {
		return ErrBadArgs
	}
	timeout := r.sc.Timeout
	if len(args) == 3 {
		d, err := time.ParseDuration(args[2])
		if err != nil {
			return ErrBadArgs
		}
		timeout = d
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	timeout = mathx.Clamp(timeout, time.Millisecond, time.Minute)

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(time.Millisecond)
	defer tick.Stop()
	for {
		ok, err := r.check(args[0], args[1], false)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return ErrTimeout
		case <-tick.C:
		}
	}
}

// check compares an observation against want. Counts match exactly when
// exact is set and as "at least" otherwise.
func (r *runner) check(what, want string, exact bool) (bool, error) {
	r.sync()
	got := r.observe(what)
	switch what {
	case "verdicts", "signals", "warnings", "hazards":
		n, err := strconv.Atoi(want)
		if err != nil {
			return false, ErrBadArgs
		}
		have, _ := strconv.Atoi(got)
		if exact {
			return have == n, nil
		}
		return have >= n, nil
	case "state", "hazard", "fault":
		return got == want, nil
	default:
		return false, ErrUnknownStep
	}
}

func (r *runner) observe(what string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch what {
	case "verdicts":
		return strconv.Itoa(len(r.verdicts))
	case "signals":
		return strconv.Itoa(r.signals)
	case "warnings":
		return strconv.Itoa(len(r.warnings))
	case "hazards":
		n := 0
		for _, v := range r.verdicts {
			if v.Hazard {
				n++
			}
		}
		return strconv.Itoa(n)
	case "state":
		return r.state.String()
	case "hazard":
		if len(r.verdicts) == 0 {
			return "none"
		}
		return strconv.FormatBool(r.verdicts[len(r.verdicts)-1].Hazard)
	case "fault":
		return strconv.FormatBool(r.nodeDone && errors.Is(r.nodeErr, node.ErrFault))
	}
	return ""
}

type expectError struct{ what, want, got string }

func (e *expectError) Error() string {
	return strings.Join([]string{"expect", e.what, e.want, "got", e.got}, " ")
}

func (e *expectError) Unwrap() error { return ErrExpect }
