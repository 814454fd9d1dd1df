package config

import (
	"errors"
	"testing"
	"time"

	"hazardnode-go/types"
)

func TestSetupsValidate(t *testing.T) {
	for name := range Setups {
		cfg, err := Lookup(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if cfg.Name != name {
			t.Fatalf("%s: name %q", name, cfg.Name)
		}
	}
}

func TestWiring(t *testing.T) {
	s := Seismic()
	if s.Pins.Ack != 2 || s.Pins.Warning != 3 || s.Pins.Trigger != 10 || s.Pins.LED != 25 {
		t.Fatalf("seismic pins %+v", s.Pins)
	}
	if s.I2C.Addr != 0x53 || s.I2C.Hz != 400_000 || s.I2C.SDA != 4 || s.I2C.SCL != 5 {
		t.Fatalf("seismic bus %+v", s.I2C)
	}
	if s.Policy.MagnitudeLimitG != 2.0 || s.Policy.MagnitudeBurst != 200 {
		t.Fatalf("seismic policy %+v", s.Policy)
	}

	soil := Soil()
	if soil.UART.Baud != 9600 || soil.Wake.Mode != types.WakeAlarm || soil.Wake.Interval != 10*time.Second {
		t.Fatalf("soil %+v %+v", soil.UART, soil.Wake)
	}
	if soil.Policy.MoistureLimit != 50 || soil.Policy.MoistureBurst != 10 {
		t.Fatalf("soil policy %+v", soil.Policy)
	}

	if r := Rain(); r.Policy.WakeLimit != 2 || r.Wake.Mode != types.WakeLevelHigh {
		t.Fatalf("rain %+v", r)
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, err := Lookup("wind"); !errors.Is(err, ErrUnknownSetup) {
		t.Fatalf("err = %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*types.NodeConfig){
		"shared lines": func(c *types.NodeConfig) { c.Pins.Ack = c.Pins.Warning },
		"pin range":    func(c *types.NodeConfig) { c.Pins.Warning = 40 },
		"no trigger":   func(c *types.NodeConfig) { c.Pins.Trigger = -1 },
		"bus too fast": func(c *types.NodeConfig) { c.I2C.Hz = 5_000_000 },
		"no address":   func(c *types.NodeConfig) { c.I2C.Addr = 0 },
		"zero limit":   func(c *types.NodeConfig) { c.Policy.MagnitudeLimitG = 0 },
		"empty burst":  func(c *types.NodeConfig) { c.Policy.MagnitudeBurst = 0 },
		"unknown wake": func(c *types.NodeConfig) { c.Wake.Mode = "never" },
		"unknown role": func(c *types.NodeConfig) { c.Subsystem = "wind" },
	}
	for name, mut := range cases {
		cfg := Seismic()
		mut(&cfg)
		if err := Validate(cfg); !errors.Is(err, ErrInvalid) {
			t.Fatalf("%s: err = %v", name, err)
		}
	}

	soil := Soil()
	soil.Wake.Interval = 0
	if err := Validate(soil); !errors.Is(err, ErrInvalid) {
		t.Fatalf("soil zero interval: %v", err)
	}
	soil = Soil()
	soil.Policy.MoistureBurst = 0
	if err := Validate(soil); !errors.Is(err, ErrInvalid) {
		t.Fatalf("soil empty burst: %v", err)
	}
	rain := Rain()
	rain.Wake = types.WakeConfig{Mode: types.WakeAlarm, Interval: time.Second}
	if err := Validate(rain); !errors.Is(err, ErrInvalid) {
		t.Fatalf("rain on alarm: %v", err)
	}
}

func TestZeroWiring(t *testing.T) {
	z := Zero()
	if len(z.Lines) != 3 || z.Hold != time.Second || z.Poll != time.Second {
		t.Fatalf("zero %+v", z)
	}
	seen := map[int]bool{}
	for _, l := range z.Lines {
		if _, ok := Setups[l.Name]; !ok {
			t.Fatalf("line %q has no node setup", l.Name)
		}
		for _, n := range []int{l.Warning, l.Ack} {
			if seen[n] {
				t.Fatalf("pin %d used twice", n)
			}
			seen[n] = true
		}
	}
}
