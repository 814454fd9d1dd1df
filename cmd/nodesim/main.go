//go:build !rp2040 && !rp2350

// nodesim runs node scenarios on host fakes:
//
//	go run ./cmd/nodesim services/sim/testdata/*.yaml
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"strconv"

	"hazardnode-go/services/diag"
	"hazardnode-go/services/sim"
)

func main() {
	verbose := flag.Bool("v", false, "show node and aggregator log lines")
	flag.Parse()
	if flag.NArg() == 0 {
		println("usage: nodesim [-v] scenario.yaml...")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out := diag.New("nodesim")
	var sink io.Writer = io.Discard
	if *verbose {
		sink = os.Stdout
	}

	failed := 0
	for _, path := range flag.Args() {
		sc, err := sim.Load(path)
		if err != nil {
			report(out, path, err)
			failed++
			continue
		}
		diag.SetSink(sink)
		rep, err := sim.Run(ctx, sc)
		diag.SetSink(os.Stdout)
		if err != nil {
			report(out, sc.Name, err)
			failed++
			continue
		}
		out.Info("PASS", sc.Name, "verdicts="+strconv.Itoa(len(rep.Verdicts)),
			"signals="+strconv.Itoa(rep.Signals), "state="+rep.State.String())
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func report(l diag.Logger, name string, err error) {
	diag.SetSink(os.Stdout)
	l.Error("FAIL", name, err)
}
