// services/hal/periphhal/periphhal.go
//go:build linux && !baremetal

// Package periphhal backs the node and the aggregator with a Linux board
// (Raspberry Pi) through periph.io: GPIO lines by BCM number, the I²C bus,
// and a tty for the soil sensor.
package periphhal

import (
	"bufio"
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"hazardnode-go/errcode"
	"hazardnode-go/services/diag"
	"hazardnode-go/services/hal/halcore"
	"hazardnode-go/types"
)

var log = diag.New("periph")

// edgePoll bounds each WaitForEdge so cancellation is noticed.
const edgePoll = 250 * time.Millisecond

// Init loads the periph host drivers. It may be called more than once.
func Init() error {
	_, err := host.Init()
	return err
}

// Pins returns the board's GPIO factory.
func Pins() (halcore.PinFactory, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	return pinFactory{}, nil
}

// Open prepares everything cfg's subsystem needs. The returned close
// function releases the buses.
func Open(cfg types.NodeConfig) (halcore.Resources, func() error, error) {
	var res halcore.Resources
	var closers []func() error
	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}

	pins, err := Pins()
	if err != nil {
		return res, closeAll, err
	}
	res.Pins = pins
	res.Dormancy = dormancy{}

	switch cfg.Subsystem {
	case types.SubsystemSeismic:
		b, err := openI2C(cfg.I2C)
		if err != nil {
			return res, closeAll, err
		}
		closers = append(closers, b.Close)
		res.I2C = b
	case types.SubsystemSoil:
		s, err := openTTY(cfg.UART)
		if err != nil {
			return res, closeAll, err
		}
		closers = append(closers, s.f.Close)
		res.Stream = s
	}
	return res, closeAll, nil
}

// ---- I²C ----

// busName maps plan IDs to periph names: "i2c1" -> "1"; an empty name
// selects the first bus.
func busName(id string) string {
	return strings.TrimPrefix(id, "i2c")
}

func openI2C(p types.I2CPlan) (i2c.BusCloser, error) {
	b, err := i2creg.Open(busName(p.ID))
	if err != nil {
		return nil, errcode.Wrap(errcode.UnknownBus, "i2c_open", err)
	}
	if p.Hz != 0 {
		if err := b.SetSpeed(physic.Frequency(p.Hz) * physic.Hertz); err != nil {
			// The kernel driver usually fixes the clock; keep going.
			log.Warn("i2c speed not set:", err)
		}
	}
	return b, nil
}

// ---- tty ----

// tty is the soil sensor's serial device. Line settings (9600 8N1, raw) are
// applied outside the process, e.g. by stty or the board's overlay.
type tty struct {
	f *os.File
	r *bufio.Reader
}

func openTTY(p types.UARTPlan) (*tty, error) {
	if p.Path == "" {
		return nil, errcode.UnknownBus
	}
	f, err := os.OpenFile(p.Path, os.O_RDWR, 0)
	if err != nil {
		return nil, errcode.Wrap(errcode.UnknownBus, "tty_open", err)
	}
	return &tty{f: f, r: bufio.NewReader(f)}, nil
}

func (t *tty) WriteByte(b byte) error {
	_, err := t.f.Write([]byte{b})
	return err
}

func (t *tty) ReadByte() (byte, error) { return t.r.ReadByte() }

// ---- GPIO ----

type pinFactory struct{}

func (pinFactory) ByNumber(n int) (halcore.GPIOPin, bool) {
	if n < 0 {
		return nil, false
	}
	p := gpioreg.ByName("GPIO" + strconv.Itoa(n))
	if p == nil {
		return nil, false
	}
	return &pin{p: p, n: n}, true
}

type pin struct {
	p gpio.PinIO
	n int
}

func toPull(p halcore.Pull) gpio.Pull {
	switch p {
	case halcore.PullUp:
		return gpio.PullUp
	case halcore.PullDown:
		return gpio.PullDown
	default:
		return gpio.Float
	}
}

func (r *pin) ConfigureInput(pull halcore.Pull) error {
	return r.p.In(toPull(pull), gpio.NoEdge)
}

func (r *pin) ConfigureOutput(initial bool) error {
	return r.p.Out(gpio.Level(initial))
}

func (r *pin) Set(level bool) {
	if err := r.p.Out(gpio.Level(level)); err != nil {
		log.Warn("gpio", r.n, "set:", err)
	}
}

func (r *pin) Get() bool   { return r.p.Read() == gpio.High }
func (r *pin) Number() int { return r.n }

// ---- Dormancy ----

// dormancy blocks the process; the board stays powered.
type dormancy struct{}

func (dormancy) UntilLevelHigh(ctx context.Context, p halcore.GPIOPin) error {
	pp, ok := p.(*pin)
	if !ok {
		return errcode.Unsupported
	}
	if err := pp.p.In(gpio.Float, gpio.RisingEdge); err != nil {
		return err
	}
	for !pp.Get() {
		if err := ctx.Err(); err != nil {
			return err
		}
		pp.p.WaitForEdge(edgePoll)
	}
	return nil
}

func (dormancy) UntilAlarm(ctx context.Context, now, alarm time.Time, onWake func()) error {
	t := time.NewTimer(alarm.Sub(now))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
	}
	if onWake != nil {
		onWake()
	}
	return nil
}
