package node

import (
	"time"

	"hazardnode-go/drivers/adxl343"
	"hazardnode-go/drivers/soilsense"
	"hazardnode-go/services/hal/halcore"
	"hazardnode-go/services/indicator"
	"hazardnode-go/types"
	"hazardnode-go/x/timex"
)

// Sensor is the node's single acquisition capability.
type Sensor interface {
	Setup() error
	Acquire() (types.Sample, error)
}

// ---- accelerometer ----

// Accelerometer toggles led on every sample, so a burst shows as a rapid
// flash. led may be nil.
type Accelerometer struct {
	dev *adxl343.Device
	led *indicator.LED
}

func NewAccelerometer(dev *adxl343.Device, led *indicator.LED) *Accelerometer {
	if led == nil {
		led = indicator.New(nil)
	}
	return &Accelerometer{dev: dev, led: led}
}

func (s *Accelerometer) Setup() error { return s.dev.Configure() }

func (s *Accelerometer) Acquire() (types.Sample, error) {
	s.led.Toggle()
	g, err := s.dev.Magnitude()
	if err != nil {
		return types.Sample{}, err
	}
	log.Info("acceleration", g, "g")
	return types.MagnitudeSample(g, timex.NowMs()), nil
}

// ---- rain trigger ----

// RainGauge samples the trigger line and then rapid-flashes the indicator
// until the line falls, so one tip of the bucket is one acquisition.
type RainGauge struct {
	trigger halcore.GPIOPin
	led     *indicator.LED
	half    time.Duration
}

func NewRainGauge(trigger halcore.GPIOPin, led *indicator.LED, flashHalf time.Duration) *RainGauge {
	if flashHalf <= 0 {
		flashHalf = indicator.FlashHalf
	}
	return &RainGauge{trigger: trigger, led: led, half: flashHalf}
}

func (s *RainGauge) Setup() error { return s.trigger.ConfigureInput(halcore.PullNone) }

func (s *RainGauge) Acquire() (types.Sample, error) {
	smp := types.LevelSample(s.trigger.Get(), timex.NowMs())
	s.led.FlashWhile(s.half, s.trigger.Get)
	return smp, nil
}

// ---- soil moisture ----

// SoilSensor toggles led on every query, like Accelerometer.
type SoilSensor struct {
	dev *soilsense.Device
	led *indicator.LED
}

func NewSoilSensor(dev *soilsense.Device, led *indicator.LED) *SoilSensor {
	if led == nil {
		led = indicator.New(nil)
	}
	return &SoilSensor{dev: dev, led: led}
}

func (s *SoilSensor) Setup() error {
	s.dev.Configure()
	return nil
}

func (s *SoilSensor) Acquire() (types.Sample, error) {
	s.led.Toggle()
	v, err := s.dev.Read()
	if err != nil {
		return types.Sample{}, err
	}
	log.Info("moisture", v)
	return types.MoistureSample(v, timex.NowMs()), nil
}
