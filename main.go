package main

import (
	"errors"
	"time"

	"hazardnode-go/bus"
	"hazardnode-go/services/config"
	"hazardnode-go/services/diag"
	"hazardnode-go/services/node"
	"hazardnode-go/types"
)

// device selects the compiled-in setup:
//
//	tinygo flash -target pico -ldflags "-X main.device=soil" .
var device = "seismic"

var log = diag.New("main")

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	log.Info("boot", device)

	cfg, err := config.Lookup(device)
	if err != nil {
		halt("config:", err)
	}

	res, release, err := openResources(cfg)
	if err != nil {
		halt("resources:", err)
	}
	defer release()

	n, err := node.Build(cfg, res)
	if err != nil {
		halt("build:", err)
	}

	b := bus.NewBus(4)
	monitor := b.NewConnection("monitor")
	go watchState(monitor.Subscribe(node.StateTopic(cfg.Name)))
	defer monitor.Disconnect()
	n.Attach(b.NewConnection(cfg.Name))

	ctx, stop := rootContext()
	defer stop()

	err = n.Run(ctx)
	if errors.Is(err, node.ErrFault) {
		log.Error(cfg.Name, "halted in fault state")
		n.Indicator().FailStop(cfg.Timing.FaultHalf)
	}
	log.Info("stopped:", err)
}

// watchState logs the node's power state as it changes.
func watchState(sub *bus.Subscription) {
	for m := range sub.Channel() {
		if st, ok := m.Payload.(types.PowerState); ok {
			log.Info("state", st)
		}
	}
}

// halt reports a start-up failure and parks. There is no indicator yet.
func halt(a ...any) {
	log.Error(a...)
	for {
		time.Sleep(time.Hour)
	}
}
