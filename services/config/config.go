// Package config holds the compiled-in node setups. Thresholds and pin roles
// are fixed at deployment; firmware picks one setup by name at build time.
package config

import (
	"errors"
	"time"

	"hazardnode-go/drivers/adxl343"
	"hazardnode-go/drivers/soilsense"
	"hazardnode-go/services/indicator"
	"hazardnode-go/services/threshold"
	"hazardnode-go/types"
	"hazardnode-go/x/mathx"
)

// -----------------------------------------------------------------------------
// Board wiring shared by all subsystems (Pico GP numbering)
// -----------------------------------------------------------------------------

const (
	pinAck     = 2
	pinWarning = 3
	pinBusSDA  = 4 // I2C0 SDA / UART1 TX
	pinBusSCL  = 5 // I2C0 SCL / UART1 RX
	pinTrigger = 10
	pinLED     = 25

	busHz = 400_000
)

var (
	ErrUnknownSetup = errors.New("config: unknown setup")
	ErrInvalid      = errors.New("config: invalid setup")
)

func timing() types.TimingConfig {
	return types.TimingConfig{
		PendingHalf: indicator.PendingHalf,
		FlashHalf:   indicator.FlashHalf,
		FaultHalf:   indicator.FaultHalf,
		SensorBoot:  2 * time.Second,
		SensorQuery: 100 * time.Millisecond,
	}
}

// Seismic: ADXL343 on I2C0, woken by the vibration switch on the trigger line.
func Seismic() types.NodeConfig {
	return types.NodeConfig{
		Name:      "seismic",
		Subsystem: types.SubsystemSeismic,
		Pins:      types.PinRoles{Warning: pinWarning, Ack: pinAck, Trigger: pinTrigger, LED: pinLED},
		I2C: types.I2CPlan{
			ID: "i2c0", SDA: pinBusSDA, SCL: pinBusSCL, Hz: busHz,
			AddrBits: 7, Addr: adxl343.AddressDefault,
		},
		UART: types.UARTPlan{},
		Policy: types.PolicyConfig{
			MagnitudeLimitG: threshold.DefaultMagnitudeLimitG,
			MagnitudeBurst:  threshold.DefaultMagnitudeBurst,
		},
		Wake:   types.WakeConfig{Mode: types.WakeLevelHigh},
		Timing: timing(),
	}
}

// Rain: tipping-bucket switch on the trigger line; no bus.
func Rain() types.NodeConfig {
	return types.NodeConfig{
		Name:      "rain",
		Subsystem: types.SubsystemRain,
		Pins:      types.PinRoles{Warning: pinWarning, Ack: pinAck, Trigger: pinTrigger, LED: pinLED},
		Policy:    types.PolicyConfig{WakeLimit: threshold.DefaultWakeLimit},
		Wake:      types.WakeConfig{Mode: types.WakeLevelHigh},
		Timing:    timing(),
	}
}

// Soil: UART sensor on UART1, woken by the RTC alarm.
func Soil() types.NodeConfig {
	return types.NodeConfig{
		Name:      "soil",
		Subsystem: types.SubsystemSoil,
		Pins:      types.PinRoles{Warning: pinWarning, Ack: pinAck, Trigger: -1, LED: pinLED},
		UART: types.UARTPlan{
			ID: "uart1", TX: pinBusSDA, RX: pinBusSCL, Baud: soilsense.Baud,
			Path: "/dev/serial0",
		},
		Policy: types.PolicyConfig{
			MoistureLimit: threshold.DefaultMoistureLimit,
			MoistureBurst: threshold.DefaultMoistureBurst,
		},
		Wake:   types.WakeConfig{Mode: types.WakeAlarm, Interval: 10 * time.Second},
		Timing: timing(),
	}
}

// Setups are the deployable configurations by name.
var Setups = map[string]func() types.NodeConfig{
	"seismic": Seismic,
	"rain":    Rain,
	"soil":    Soil,
}

// Lookup returns a validated copy of the named setup.
func Lookup(name string) (types.NodeConfig, error) {
	mk, ok := Setups[name]
	if !ok {
		return types.NodeConfig{}, ErrUnknownSetup
	}
	cfg := mk()
	if err := Validate(cfg); err != nil {
		return types.NodeConfig{}, err
	}
	return cfg, nil
}

// Validate checks a setup for values no node could run with.
func Validate(cfg types.NodeConfig) error {
	p := cfg.Pins
	for _, n := range []int{p.Warning, p.Ack} {
		if !mathx.Between(n, 0, 29) {
			return ErrInvalid
		}
	}
	if p.Warning == p.Ack {
		return ErrInvalid
	}
	if p.LED >= 0 && !mathx.Between(p.LED, 0, 29) {
		return ErrInvalid
	}

	switch cfg.Wake.Mode {
	case types.WakeLevelHigh:
		if !mathx.Between(p.Trigger, 0, 29) {
			return ErrInvalid
		}
	case types.WakeAlarm:
		if cfg.Wake.Interval < time.Second {
			return ErrInvalid
		}
	default:
		return ErrInvalid
	}

	switch cfg.Subsystem {
	case types.SubsystemSeismic:
		if cfg.I2C.Addr == 0 || !mathx.Between(cfg.I2C.Hz, 100_000, 1_000_000) {
			return ErrInvalid
		}
		if !mathx.Between(cfg.Policy.MagnitudeLimitG, 0.1, 16) || !mathx.Between(cfg.Policy.MagnitudeBurst, 1, 10_000) {
			return ErrInvalid
		}
	case types.SubsystemRain:
		if cfg.Wake.Mode != types.WakeLevelHigh || cfg.Policy.WakeLimit < 1 {
			return ErrInvalid
		}
	case types.SubsystemSoil:
		if cfg.UART.Baud == 0 {
			return ErrInvalid
		}
		if !mathx.Between(cfg.Policy.MoistureLimit, 0, 999) || !mathx.Between(cfg.Policy.MoistureBurst, 1, 1000) {
			return ErrInvalid
		}
	default:
		return ErrInvalid
	}
	return nil
}

// Zero is the aggregator wiring (BCM numbering) and timing.
func Zero() types.AggregatorConfig {
	return types.AggregatorConfig{
		Lines: []types.AckLineConfig{
			{Name: "rain", Warning: 16, Ack: 8},
			{Name: "seismic", Warning: 20, Ack: 7},
			{Name: "soil", Warning: 21, Ack: 1},
		},
		Hold: time.Second,
		Poll: time.Second,
	}
}
