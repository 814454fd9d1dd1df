// Package node runs one sensing role: suspend, wake, evaluate a burst,
// signal the aggregator on hazard, suspend again.
package node

import (
	"context"
	"errors"
	"sync/atomic"

	"hazardnode-go/bus"
	"hazardnode-go/errcode"
	"hazardnode-go/services/alert"
	"hazardnode-go/services/diag"
	"hazardnode-go/services/indicator"
	"hazardnode-go/services/power"
	"hazardnode-go/services/threshold"
	"hazardnode-go/types"
)

var log = diag.New("node")

// ErrFault is returned once the node has entered the fault state.
var ErrFault = errors.New("node: fault")

// Retained topics published by an attached node. Payloads are
// types.PowerState, types.HazardVerdict and the signal count (int).
func StateTopic(name string) bus.Topic   { return bus.T("node", name, "state") }
func VerdictTopic(name string) bus.Topic { return bus.T("node", name, "verdict") }
func SignalTopic(name string) bus.Topic  { return bus.T("node", name, "signal") }

type Node struct {
	name   string
	sensor Sensor
	policy threshold.Policy
	power  *power.Controller
	alert  *alert.Handshake
	led    *indicator.LED

	signals atomic.Int32
	conn    *bus.Connection
}

func New(name string, s Sensor, p threshold.Policy, pc *power.Controller, hs *alert.Handshake, led *indicator.LED) *Node {
	if led == nil {
		led = indicator.New(nil)
	}
	return &Node{name: name, sensor: s, policy: p, power: pc, alert: hs, led: led}
}

func (n *Node) Name() string              { return n.name }
func (n *Node) Power() *power.Controller  { return n.power }
func (n *Node) Indicator() *indicator.LED { return n.led }

// Signals counts handshakes issued since start.
func (n *Node) Signals() int { return int(n.signals.Load()) }

// Attach publishes the node's state, verdicts and signal count on c. The
// current power state is published at once. Call before Run.
func (n *Node) Attach(c *bus.Connection) {
	n.conn = c
	n.power.OnTransition = func(_, to types.PowerState) {
		n.publish(StateTopic(n.name), to)
	}
	n.publish(StateTopic(n.name), n.power.State())
}

func (n *Node) publish(t bus.Topic, payload any) {
	if n.conn == nil {
		return
	}
	n.conn.Publish(n.conn.NewMessage(t, payload, true))
}

// Setup prepares the indicator and the sensor. Any sensor setup failure,
// including an identity mismatch, puts the node in the fault state and
// returns ErrFault.
func (n *Node) Setup() error {
	if err := n.led.Setup(); err != nil {
		log.Warn(n.name, "indicator:", err)
	}
	if err := n.sensor.Setup(); err != nil {
		log.Error(n.name, "sensor setup failed:", err)
		if ferr := n.power.Fault(); ferr != nil {
			return ferr
		}
		return ErrFault
	}
	log.Info(n.name, "ready")
	return nil
}

// Cycle evaluates one burst and, on hazard, blocks in the handshake until
// the aggregator acknowledges. Exactly one handshake is issued per hazard.
func (n *Node) Cycle() (types.HazardVerdict, error) {
	if n.power.State() == types.PowerFault {
		return types.HazardVerdict{}, ErrFault
	}
	v, err := n.policy.Evaluate(n.sensor)
	n.led.Off()
	if err != nil {
		log.Warn(n.name, "evaluation failed:", errcode.Of(err))
		return v, err
	}
	n.publish(VerdictTopic(n.name), v)
	if !v.Hazard {
		return v, nil
	}
	log.Info(n.name, "hazard, signalling aggregator")
	n.alert.IssueWarning()
	n.publish(SignalTopic(n.name), int(n.signals.Add(1)))
	return v, nil
}

// Run sets up the node and alternates suspension and evaluation until ctx
// ends (host builds) or a fault occurs. Evaluation errors are logged and the
// node suspends again.
func (n *Node) Run(ctx context.Context) error {
	if err := n.Setup(); err != nil {
		return err
	}
	for {
		log.Info(n.name, "suspending until", string(n.power.Mode()))
		if err := n.power.Await(ctx, nil); err != nil {
			return err
		}
		if _, err := n.Cycle(); errors.Is(err, ErrFault) {
			return err
		}
	}
}
