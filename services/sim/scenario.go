//go:build !rp2040 && !rp2350

package sim

import (
	"bytes"
	"errors"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario is one simulator run, usually loaded from YAML:
//
//	name: seismic burst
//	node: seismic
//	steps:
//	  - accel 0 0 0.5
//	  - accel 0 0 2.1
//	  - trigger high
//	  - await signals 1
//	  - trigger low
//	  - expect signals 1
type Scenario struct {
	Name string `yaml:"name"`
	Node string `yaml:"node"`

	// DeviceID overrides the accelerometer identity register.
	DeviceID *uint8 `yaml:"devid,omitempty"`
	// Timeout bounds each await step (default 2s).
	Timeout time.Duration `yaml:"timeout,omitempty"`
	// Hold is the aggregator's acknowledge pulse (default 5ms).
	Hold time.Duration `yaml:"hold,omitempty"`
	// Silent leaves warnings unanswered: the acknowledger is not started.
	Silent bool `yaml:"silent,omitempty"`

	Steps []string `yaml:"steps"`
}

var ErrNoSteps = errors.New("sim: scenario has no steps")

// Parse decodes a YAML scenario. Unknown keys are rejected.
func Parse(b []byte) (*Scenario, error) {
	return Decode(bytes.NewReader(b))
}

func Decode(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, err
	}
	if len(sc.Steps) == 0 {
		return nil, ErrNoSteps
	}
	if sc.Name == "" {
		sc.Name = sc.Node
	}
	return &sc, nil
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}
