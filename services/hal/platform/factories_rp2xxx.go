// services/hal/platform/factories_rp2xxx.go
//go:build rp2040 || rp2350

package platform

import (
	"context"
	"machine"
	"time"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"hazardnode-go/errcode"
	"hazardnode-go/services/hal/halcore"
	"hazardnode-go/types"
)

// Open configures the buses named by cfg and returns the node's resources.
// Only the bus the subsystem uses is touched; on the Pico the accelerometer
// and the soil sensor share GP4/GP5.
func Open(cfg types.NodeConfig) (halcore.Resources, error) {
	res := halcore.Resources{Pins: rp2PinFactory{}, Dormancy: rp2Dormancy{}}

	switch cfg.Subsystem {
	case types.SubsystemSeismic:
		bus, err := openI2C(cfg.I2C)
		if err != nil {
			return res, err
		}
		res.I2C = bus
	case types.SubsystemSoil:
		s, err := openUART(cfg.UART)
		if err != nil {
			return res, err
		}
		res.Stream = s
	}
	return res, nil
}

// ---- I²C ----

func openI2C(p types.I2CPlan) (*machine.I2C, error) {
	var hw *machine.I2C
	switch p.ID {
	case "i2c0":
		hw = machine.I2C0
	case "i2c1":
		hw = machine.I2C1
	default:
		return nil, errcode.UnknownBus
	}
	hz := p.Hz
	if hz == 0 {
		hz = 400 * machine.KHz
	}
	if err := hw.Configure(machine.I2CConfig{
		Frequency: hz,
		SDA:       machine.Pin(p.SDA),
		SCL:       machine.Pin(p.SCL),
	}); err != nil {
		return nil, err
	}
	return hw, nil
}

// ---- UART ----

func openUART(p types.UARTPlan) (*rp2Stream, error) {
	var hw *uartx.UART
	switch p.ID {
	case "uart0":
		hw = uartx.UART0
	case "uart1":
		hw = uartx.UART1
	default:
		return nil, errcode.UnknownBus
	}
	if err := hw.Configure(uartx.UARTConfig{
		BaudRate: p.Baud,
		TX:       machine.Pin(p.TX),
		RX:       machine.Pin(p.RX),
	}); err != nil {
		return nil, err
	}
	return &rp2Stream{u: hw}, nil
}

// rp2Stream adapts uartx to single-byte reads and writes.
type rp2Stream struct {
	u   *uartx.UART
	one [1]byte
}

func (s *rp2Stream) WriteByte(b byte) error {
	s.one[0] = b
	_, err := s.u.Write(s.one[:])
	return err
}

func (s *rp2Stream) ReadByte() (byte, error) {
	var b [1]byte
	for {
		n, err := s.u.RecvSomeContext(context.Background(), b[:])
		if err != nil {
			return 0, err
		}
		if n == 1 {
			return b[0], nil
		}
	}
}

// ---- GPIO ----

type rp2PinFactory struct{}

func (rp2PinFactory) ByNumber(n int) (halcore.GPIOPin, bool) {
	// Constrain to RP2's user GPIOs (GP0..GP29).
	if n < 0 || n > 29 {
		return nil, false
	}
	return &rp2Pin{p: machine.Pin(n), n: n}, true
}

type rp2Pin struct {
	p machine.Pin
	n int
}

func (r *rp2Pin) ConfigureInput(pull halcore.Pull) error {
	mode := machine.PinInput
	switch pull {
	case halcore.PullUp:
		mode = machine.PinInputPullup
	case halcore.PullDown:
		mode = machine.PinInputPulldown
	}
	r.p.Configure(machine.PinConfig{Mode: mode})
	return nil
}

func (r *rp2Pin) ConfigureOutput(initial bool) error {
	r.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	r.p.Set(initial)
	return nil
}

func (r *rp2Pin) Set(level bool) { r.p.Set(level) }
func (r *rp2Pin) Get() bool      { return r.p.Get() }
func (r *rp2Pin) Number() int    { return r.n }

func (r *rp2Pin) SetIRQ(edge halcore.Edge, handler func()) error {
	return r.p.SetInterrupt(toPinChange(edge), func(machine.Pin) { handler() })
}

func (r *rp2Pin) ClearIRQ() error {
	var zero machine.PinChange
	return r.p.SetInterrupt(zero, nil)
}

func toPinChange(e halcore.Edge) machine.PinChange {
	switch e {
	case halcore.EdgeRising:
		return machine.PinRising
	case halcore.EdgeFalling:
		return machine.PinFalling
	case halcore.EdgeBoth:
		return machine.PinToggle
	default:
		var zero machine.PinChange
		return zero
	}
}

// ---- Dormancy ----

// rp2Dormancy waits for the trigger interrupt or for the alarm time. The
// scheduler idles the core between events; ctx is ignored on the MCU.
type rp2Dormancy struct{}

func (rp2Dormancy) UntilLevelHigh(_ context.Context, pin halcore.GPIOPin) error {
	if err := pin.ConfigureInput(halcore.PullNone); err != nil {
		return err
	}
	irq, ok := pin.(halcore.IRQPin)
	if !ok {
		for !pin.Get() {
			time.Sleep(10 * time.Millisecond)
		}
		return nil
	}
	log.Info("gpio", pin.Number(), "wake on", halcore.EdgeToString(wakeEdge), "edge")
	rose := make(chan struct{}, 1)
	if err := irq.SetIRQ(wakeEdge, func() {
		select {
		case rose <- struct{}{}:
		default:
		}
	}); err != nil {
		return err
	}
	defer irq.ClearIRQ()
	for !pin.Get() {
		<-rose
	}
	return nil
}

func (rp2Dormancy) UntilAlarm(_ context.Context, now, alarm time.Time, onWake func()) error {
	if d := alarm.Sub(now); d > 0 {
		time.Sleep(d)
	}
	if onWake != nil {
		onWake()
	}
	return nil
}
