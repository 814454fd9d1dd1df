//go:build linux && !baremetal

// zero-ack runs the aggregator's acknowledge loop on a Raspberry Pi.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"hazardnode-go/bus"
	"hazardnode-go/services/aggregator"
	"hazardnode-go/services/config"
	"hazardnode-go/services/diag"
	"hazardnode-go/services/hal/periphhal"
)

func main() {
	cfg := config.Zero()
	flag.DurationVar(&cfg.Hold, "hold", cfg.Hold, "acknowledge pulse length")
	flag.DurationVar(&cfg.Poll, "poll", cfg.Poll, "warning scan period")
	flag.Parse()

	log := diag.New("zero-ack")

	pins, err := periphhal.Pins()
	if err != nil {
		log.Error("periph init:", err)
		os.Exit(1)
	}
	a, err := aggregator.FromConfig(cfg, pins)
	if err != nil {
		log.Error("lines:", err)
		os.Exit(1)
	}

	b := bus.NewBus(8)
	a.Attach(b.NewConnection("zero"))
	reporter := b.NewConnection("report")
	go report(reporter.Subscribe(aggregator.WarningTopic), log)
	defer reporter.Disconnect()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("watching", len(cfg.Lines), "lines")
	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error(err)
		os.Exit(1)
	}
}

// report logs each acknowledged warning until the subscription closes.
func report(sub *bus.Subscription, log diag.Logger) {
	for m := range sub.Channel() {
		w, ok := m.Payload.(aggregator.Warning)
		if !ok {
			continue
		}
		log.Warn("hazard reported by", w.Subsystem, "at", w.At.Format("15:04:05"))
	}
}
