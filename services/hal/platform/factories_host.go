// services/hal/platform/factories_host.go
//go:build !rp2040 && !rp2350

package platform

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"hazardnode-go/drivers/adxl343"
	"hazardnode-go/services/hal/halcore"
	"hazardnode-go/types"
)

var errNack = errors.New("host i2c: nack")

// Host bundles in-memory fakes for one node plus its aggregator side.
type Host struct {
	Pins     *HostPinFactory
	I2C      *HostI2C
	Stream   *HostStream
	Dormancy *HostDormancy
}

// NewHost returns fakes with an ADXL343 at rest (1 g on z) and a soil sensor
// that reads 0 until frames are queued.
func NewHost() *Host {
	return &Host{
		Pins:     &HostPinFactory{pins: make(map[int]*FakePin)},
		I2C:      NewHostI2C(adxl343.AddressDefault),
		Stream:   NewHostStream(),
		Dormancy: &HostDormancy{},
	}
}

func (h *Host) Resources() halcore.Resources {
	return halcore.Resources{Pins: h.Pins, I2C: h.I2C, Stream: h.Stream, Dormancy: h.Dormancy}
}

// Open returns host fakes; cfg is accepted for parity with MCU builds.
func Open(_ types.NodeConfig) (halcore.Resources, error) {
	return NewHost().Resources(), nil
}

// ----------------------------- I²C (host) ------------------------------------

// HostI2C emulates an ADXL343 register file on a tinygo drivers.I2C.
// Reads of the data registers pop queued axis triples, or return Rest when
// the queue is empty.
type HostI2C struct {
	mu   sync.Mutex
	addr uint16
	regs [64]byte
	axes [][3]int16
	nack bool
	txs  int

	Rest [3]int16
}

func NewHostI2C(addr uint16) *HostI2C {
	h := &HostI2C{addr: addr, Rest: [3]int16{0, 0, adxl343.Counts(1)}}
	h.regs[0x00] = adxl343.DeviceID
	return h
}

func (h *HostI2C) Tx(addr uint16, w, r []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.txs++
	if h.nack || addr != h.addr {
		return errNack
	}
	if len(w) == 0 {
		return nil
	}
	ptr := int(w[0]) % len(h.regs)
	if len(w) > 1 {
		copy(h.regs[ptr:], w[1:])
	}
	if len(r) == 0 {
		return nil
	}
	if ptr == 0x32 && len(r) >= 6 {
		a := h.Rest
		if len(h.axes) > 0 {
			a = h.axes[0]
			h.axes = h.axes[1:]
		}
		for i, v := range a {
			r[2*i] = byte(uint16(v))
			r[2*i+1] = byte(uint16(v) >> 8)
		}
		return nil
	}
	copy(r, h.regs[ptr:])
	return nil
}

// SetDeviceID overrides the identity register.
func (h *HostI2C) SetDeviceID(id byte) {
	h.mu.Lock()
	h.regs[0x00] = id
	h.mu.Unlock()
}

// SetNack makes every transfer fail.
func (h *HostI2C) SetNack(on bool) {
	h.mu.Lock()
	h.nack = on
	h.mu.Unlock()
}

// PushAxes queues one raw reading.
func (h *HostI2C) PushAxes(x, y, z int16) {
	h.mu.Lock()
	h.axes = append(h.axes, [3]int16{x, y, z})
	h.mu.Unlock()
}

// PushG queues one reading given in g per axis.
func (h *HostI2C) PushG(x, y, z float64) {
	h.PushAxes(adxl343.Counts(x), adxl343.Counts(y), adxl343.Counts(z))
}

// Reg returns the current value of a register.
func (h *HostI2C) Reg(r byte) byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.regs[int(r)%len(h.regs)]
}

// Pending is the number of queued readings not yet consumed.
func (h *HostI2C) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.axes)
}

// ----------------------------- Stream (host) ---------------------------------

// HostStream emulates the soil sensor on a byte stream: every 'w' queues the
// next frame (or Default) for reading. ReadByte blocks until a byte exists.
type HostStream struct {
	mu     sync.Mutex
	frames []string
	sent   []byte
	rx     chan byte

	Default string
}

func NewHostStream() *HostStream {
	return &HostStream{rx: make(chan byte, 512), Default: "=0\n"}
}

func (s *HostStream) WriteByte(b byte) error {
	s.mu.Lock()
	s.sent = append(s.sent, b)
	var reply string
	if b == 'w' {
		reply = s.Default
		if len(s.frames) > 0 {
			reply = s.frames[0]
			s.frames = s.frames[1:]
		}
	}
	s.mu.Unlock()

	for i := 0; i < len(reply); i++ {
		select {
		case s.rx <- reply[i]:
		default:
			return errors.New("host stream: rx overflow")
		}
	}
	return nil
}

func (s *HostStream) ReadByte() (byte, error) {
	return <-s.rx, nil
}

// PushFrame queues a raw reply.
func (s *HostStream) PushFrame(f string) {
	s.mu.Lock()
	s.frames = append(s.frames, f)
	s.mu.Unlock()
}

// PushMoisture queues a well-formed reply for v.
func (s *HostStream) PushMoisture(v int) {
	s.PushFrame("=" + strconv.Itoa(v) + "\n")
}

// Sent returns a copy of every byte written by the node.
func (s *HostStream) Sent() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.sent...)
}

// Pending is the number of queued frames not yet requested.
func (s *HostStream) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// ----------------------------- Dormancy (host) -------------------------------

// HostDormancy suspends on goroutine primitives. Level waits use the pin's
// rising-edge IRQ when it has one. Scheduled waits end when Fire is called;
// with Realtime set they also end when the programmed alarm time passes.
type HostDormancy struct {
	mu       sync.Mutex
	alarm    chan struct{}
	suspends int

	Realtime bool
}

func (d *HostDormancy) alarmCh() chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.alarm == nil {
		d.alarm = make(chan struct{}, 1)
	}
	return d.alarm
}

func (d *HostDormancy) enter() {
	d.mu.Lock()
	d.suspends++
	d.mu.Unlock()
}

// Suspends counts entries into suspension.
func (d *HostDormancy) Suspends() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.suspends
}

// Fire raises the alarm once. It does not block.
func (d *HostDormancy) Fire() {
	select {
	case d.alarmCh() <- struct{}{}:
	default:
	}
}

func (d *HostDormancy) UntilLevelHigh(ctx context.Context, pin halcore.GPIOPin) error {
	d.enter()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := pin.ConfigureInput(halcore.PullNone); err != nil {
		return err
	}
	irq, ok := pin.(halcore.IRQPin)
	if !ok {
		t := time.NewTicker(time.Millisecond)
		defer t.Stop()
		for !pin.Get() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
			}
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
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-rose:
		}
	}
	return nil
}

func (d *HostDormancy) UntilAlarm(ctx context.Context, now, alarm time.Time, onWake func()) error {
	d.enter()
	if err := ctx.Err(); err != nil {
		return err
	}
	var timeout <-chan time.Time
	if d.Realtime {
		t := time.NewTimer(alarm.Sub(now))
		defer t.Stop()
		timeout = t.C
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-d.alarmCh():
	case <-timeout:
	}
	if onWake != nil {
		onWake()
	}
	return nil
}

// ----------------------------- GPIO (host) -----------------------------------

// FakePin implements GPIOPin and IRQPin for host-side tests. Set on an input
// pin models the far end driving the line. Switching an output back to an
// input lets the line settle to its bias: the pull if one is selected,
// otherwise the float level (low by default, as with a pull-down at the far
// end).
type FakePin struct {
	mu         sync.RWMutex
	number     int
	level      bool
	modeOut    bool
	floatLevel bool
	irqEdge    halcore.Edge
	irqFunc    func()
}

func (p *FakePin) ConfigureInput(pull halcore.Pull) error {
	p.mu.Lock()
	if p.modeOut {
		switch pull {
		case halcore.PullUp:
			p.level = true
		case halcore.PullDown:
			p.level = false
		default:
			p.level = p.floatLevel
		}
	}
	p.modeOut = false
	p.mu.Unlock()
	return nil
}

func (p *FakePin) ConfigureOutput(initial bool) error {
	p.mu.Lock()
	p.modeOut = true
	p.level = initial
	p.mu.Unlock()
	return nil
}

func (p *FakePin) Set(level bool) {
	p.mu.Lock()
	old := p.level
	p.level = level
	irq := p.irqFunc
	want := irqWanted(p.irqEdge, edgeFrom(old, level))
	p.mu.Unlock()
	if want && irq != nil {
		irq()
	}
}

func (p *FakePin) Get() bool {
	p.mu.RLock()
	v := p.level
	p.mu.RUnlock()
	return v
}

func (p *FakePin) Number() int { return p.number }

// IsOutput reports the current direction.
func (p *FakePin) IsOutput() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.modeOut
}

// SetFloatLevel sets the level an unbiased input settles to.
func (p *FakePin) SetFloatLevel(v bool) {
	p.mu.Lock()
	p.floatLevel = v
	p.mu.Unlock()
}

func (p *FakePin) SetIRQ(edge halcore.Edge, handler func()) error {
	p.mu.Lock()
	p.irqEdge = edge
	p.irqFunc = handler
	p.mu.Unlock()
	return nil
}

func (p *FakePin) ClearIRQ() error {
	p.mu.Lock()
	p.irqEdge = halcore.EdgeNone
	p.irqFunc = nil
	p.mu.Unlock()
	return nil
}

func edgeFrom(old, new bool) halcore.Edge {
	switch {
	case !old && new:
		return halcore.EdgeRising
	case old && !new:
		return halcore.EdgeFalling
	default:
		return halcore.EdgeNone
	}
}

func irqWanted(cfg, seen halcore.Edge) bool {
	switch cfg {
	case halcore.EdgeBoth:
		return seen == halcore.EdgeRising || seen == halcore.EdgeFalling
	default:
		return seen != halcore.EdgeNone && cfg == seen
	}
}

// HostPinFactory returns stable *FakePin instances per number, so a node and
// an aggregator built on the same factory share their lines.
type HostPinFactory struct {
	mu   sync.Mutex
	pins map[int]*FakePin
}

func (f *HostPinFactory) ByNumber(n int) (halcore.GPIOPin, bool) {
	return f.Pin(n), true
}

// Pin exposes the underlying *FakePin (e.g. to drive IRQ edges).
func (f *HostPinFactory) Pin(n int) *FakePin {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pins == nil {
		f.pins = make(map[int]*FakePin)
	}
	p, ok := f.pins[n]
	if !ok {
		p = &FakePin{number: n}
		f.pins[n] = p
	}
	return p
}
