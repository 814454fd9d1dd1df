package node

import (
	"hazardnode-go/drivers/adxl343"
	"hazardnode-go/drivers/soilsense"
	"hazardnode-go/drivers/transport"
	"hazardnode-go/errcode"
	"hazardnode-go/services/alert"
	"hazardnode-go/services/hal/halcore"
	"hazardnode-go/services/indicator"
	"hazardnode-go/services/power"
	"hazardnode-go/services/threshold"
	"hazardnode-go/types"
)

// NewSeismic builds an accelerometer node.
func NewSeismic(cfg types.NodeConfig, res halcore.Resources) (*Node, error) {
	if res.I2C == nil {
		return nil, errcode.UnknownBus
	}
	led, err := ledFor(res, cfg.Pins.LED)
	if err != nil {
		return nil, err
	}
	h := transport.NewI2C(res.I2C, cfg.I2C)
	s := NewAccelerometer(adxl343.New(h, cfg.I2C.Addr), led)
	return assemble(cfg, res, s, led)
}

// NewRain builds a rain-trigger node.
func NewRain(cfg types.NodeConfig, res halcore.Resources) (*Node, error) {
	trig, err := pinFor(res, cfg.Pins.Trigger)
	if err != nil {
		return nil, err
	}
	led, err := ledFor(res, cfg.Pins.LED)
	if err != nil {
		return nil, err
	}
	s := NewRainGauge(trig, led, cfg.Timing.FlashHalf)
	return assemble(cfg, res, s, led)
}

// NewSoil builds a soil-moisture node.
func NewSoil(cfg types.NodeConfig, res halcore.Resources) (*Node, error) {
	if res.Stream == nil {
		return nil, errcode.UnknownBus
	}
	led, err := ledFor(res, cfg.Pins.LED)
	if err != nil {
		return nil, err
	}
	h := transport.NewStream(res.Stream, cfg.UART)
	dev := soilsense.New(h, soilsense.Config{BootDelay: cfg.Timing.SensorBoot, QueryDelay: cfg.Timing.SensorQuery})
	return assemble(cfg, res, NewSoilSensor(dev, led), led)
}

// Build dispatches on cfg.Subsystem.
func Build(cfg types.NodeConfig, res halcore.Resources) (*Node, error) {
	switch cfg.Subsystem {
	case types.SubsystemSeismic:
		return NewSeismic(cfg, res)
	case types.SubsystemRain:
		return NewRain(cfg, res)
	case types.SubsystemSoil:
		return NewSoil(cfg, res)
	default:
		return nil, errcode.Unsupported
	}
}

func assemble(cfg types.NodeConfig, res halcore.Resources, s Sensor, led *indicator.LED) (*Node, error) {
	p, err := threshold.FromConfig(cfg.Subsystem, cfg.Policy)
	if err != nil {
		return nil, err
	}
	warn, err := pinFor(res, cfg.Pins.Warning)
	if err != nil {
		return nil, err
	}
	ack, err := pinFor(res, cfg.Pins.Ack)
	if err != nil {
		return nil, err
	}
	var trig halcore.GPIOPin
	if cfg.Wake.Mode == types.WakeLevelHigh {
		if trig, err = pinFor(res, cfg.Pins.Trigger); err != nil {
			return nil, err
		}
	}
	pc, err := power.New(res.Dormancy, cfg.Wake, trig)
	if err != nil {
		return nil, err
	}
	hs := alert.New(alert.Channel{Warning: warn, Ack: ack}, led, cfg.Timing.PendingHalf)
	return New(cfg.Name, s, p, pc, hs, led), nil
}

func pinFor(res halcore.Resources, n int) (halcore.GPIOPin, error) {
	if n < 0 || res.Pins == nil {
		return nil, errcode.UnknownPin
	}
	p, ok := res.Pins.ByNumber(n)
	if !ok {
		return nil, errcode.UnknownPin
	}
	return p, nil
}

// ledFor returns the indicator; an unwired LED (negative pin) is allowed.
func ledFor(res halcore.Resources, n int) (*indicator.LED, error) {
	if n < 0 {
		return indicator.New(nil), nil
	}
	p, err := pinFor(res, n)
	if err != nil {
		return nil, err
	}
	return indicator.New(p), nil
}
