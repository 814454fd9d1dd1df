// Package power tracks the node's power state and drives deep suspension.
//
// Transitions:
//
//	active                  -> awaiting_level_trigger | awaiting_scheduled_wake | fault
//	awaiting_level_trigger  -> active (trigger line high) | fault
//	awaiting_scheduled_wake -> active (alarm fired)       | fault
//	fault                   -> (none)
package power

import (
	"context"
	"time"

	"hazardnode-go/errcode"
	"hazardnode-go/services/diag"
	"hazardnode-go/services/hal/halcore"
	"hazardnode-go/types"
	"hazardnode-go/x/timex"
)

var log = diag.New("power")

// DefaultInterval is the scheduled wake period.
const DefaultInterval = 10 * time.Second

// Allowed reports whether from -> to is a legal transition.
func Allowed(from, to types.PowerState) bool {
	switch from {
	case types.PowerActive:
		return to == types.PowerAwaitingLevelTrigger ||
			to == types.PowerAwaitingScheduledWake ||
			to == types.PowerFault
	case types.PowerAwaitingLevelTrigger, types.PowerAwaitingScheduledWake:
		return to == types.PowerActive || to == types.PowerFault
	default:
		return false
	}
}

// Controller owns the current power state. It is not safe for concurrent
// use; the node loop is its only caller.
type Controller struct {
	dorm     halcore.Dormancy
	mode     types.WakeMode
	interval time.Duration
	trigger  halcore.GPIOPin
	state    types.PowerState

	// Now supplies the RTC time programmed before a scheduled wake.
	Now func() time.Time
	// OnTransition, if set, observes every accepted transition.
	OnTransition func(from, to types.PowerState)
}

// New returns a controller in the active state. trigger is required for
// level wakes and ignored for alarm wakes.
func New(dorm halcore.Dormancy, w types.WakeConfig, trigger halcore.GPIOPin) (*Controller, error) {
	switch w.Mode {
	case types.WakeLevelHigh:
		if trigger == nil {
			return nil, errcode.UnknownPin
		}
	case types.WakeAlarm:
	default:
		return nil, errcode.InvalidParams
	}
	if dorm == nil {
		return nil, errcode.InvalidParams
	}
	iv := w.Interval
	if iv <= 0 {
		iv = DefaultInterval
	}
	return &Controller{
		dorm:     dorm,
		mode:     w.Mode,
		interval: iv,
		trigger:  trigger,
		state:    types.PowerActive,
		Now:      time.Now,
	}, nil
}

func (c *Controller) State() types.PowerState { return c.state }
func (c *Controller) Mode() types.WakeMode    { return c.mode }

func (c *Controller) transition(to types.PowerState) error {
	from := c.state
	if !Allowed(from, to) {
		log.Warn("refused", from, "->", to)
		return &errcode.E{C: errcode.InvalidTransition, Op: "power", Msg: from.String() + " -> " + to.String()}
	}
	c.state = to
	if c.OnTransition != nil {
		c.OnTransition(from, to)
	}
	return nil
}

// Fault enters the terminal fault state. Calling it again is a no-op.
func (c *Controller) Fault() error {
	if c.state == types.PowerFault {
		return nil
	}
	log.Error("entering fault state")
	return c.transition(types.PowerFault)
}

// Await suspends until the configured wake condition, returns to active and
// runs onWake (which may be nil). It fails with errcode.InvalidTransition
// when called outside the active state. A ctx cancelled during suspension
// ends the wait with ctx.Err() and leaves the node suspended.
func (c *Controller) Await(ctx context.Context, onWake func()) error {
	wake := func() {
		if err := c.transition(types.PowerActive); err != nil {
			return
		}
		if onWake != nil {
			onWake()
		}
	}

	switch c.mode {
	case types.WakeLevelHigh:
		if err := c.transition(types.PowerAwaitingLevelTrigger); err != nil {
			return err
		}
		for {
			if err := c.dorm.UntilLevelHigh(ctx, c.trigger); err != nil {
				return err
			}
			if c.trigger.Get() {
				break
			}
			log.Warn("spurious wake, trigger low")
		}
		wake()
	default:
		if err := c.transition(types.PowerAwaitingScheduledWake); err != nil {
			return err
		}
		log.Info("alarm in", timex.Ms(c.interval), "ms")
		now := c.Now()
		if err := c.dorm.UntilAlarm(ctx, now, now.Add(c.interval), wake); err != nil {
			return err
		}
	}

	if c.state != types.PowerActive {
		return &errcode.E{C: errcode.InvalidTransition, Op: "power", Msg: "woke without wake event"}
	}
	return nil
}
