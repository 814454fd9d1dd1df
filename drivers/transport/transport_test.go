package transport

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"hazardnode-go/errcode"
	"hazardnode-go/services/diag"
	"hazardnode-go/types"
)

type txCall struct {
	addr uint16
	w    []byte
	rn   int
}

// fakeBus records transactions and serves reads from a fixed reply.
type fakeBus struct {
	calls []txCall
	reply []byte
	err   error
}

func (f *fakeBus) Tx(addr uint16, w, r []byte) error {
	f.calls = append(f.calls, txCall{addr: addr, w: append([]byte(nil), w...), rn: len(r)})
	if f.err != nil {
		return f.err
	}
	copy(r, f.reply)
	return nil
}

func TestRegisterWritePrependsRegister(t *testing.T) {
	bus := &fakeBus{}
	h := NewI2C(bus, types.I2CPlan{ID: "i2c0"})

	if err := h.RegisterWrite(0x53, 0x2D, []byte{0x08}); err != nil {
		t.Fatalf("RegisterWrite: %v", err)
	}
	if len(bus.calls) != 1 {
		t.Fatalf("want 1 transaction, got %d", len(bus.calls))
	}
	c := bus.calls[0]
	if c.addr != 0x53 || !bytes.Equal(c.w, []byte{0x2D, 0x08}) || c.rn != 0 {
		t.Fatalf("unexpected transaction: %+v", c)
	}
}

func TestRegisterReadReturnsExactCount(t *testing.T) {
	bus := &fakeBus{reply: []byte{1, 2, 3, 4, 5, 6}}
	h := NewI2C(bus, types.I2CPlan{})

	got, err := h.RegisterRead(0x53, 0x32, 6)
	if err != nil {
		t.Fatalf("RegisterRead: %v", err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3, 4, 5, 6}) {
		t.Fatalf("got %v", got)
	}
	c := bus.calls[0]
	if !bytes.Equal(c.w, []byte{0x32}) || c.rn != 6 {
		t.Fatalf("read must be a single write+read transaction, got %+v", c)
	}
}

func TestEmptyPayloadRejectedWithoutBusActivity(t *testing.T) {
	bus := &fakeBus{}
	h := NewI2C(bus, types.I2CPlan{})

	if err := h.RegisterWrite(0x53, 0x2D, nil); !errors.Is(err, errcode.EmptyPayload) {
		t.Fatalf("RegisterWrite(nil) err = %v, want EmptyPayload", err)
	}
	if _, err := h.RegisterRead(0x53, 0x00, 0); !errors.Is(err, errcode.EmptyPayload) {
		t.Fatalf("RegisterRead(0) err = %v, want EmptyPayload", err)
	}
	if len(bus.calls) != 0 {
		t.Fatalf("no bus activity expected, got %d", len(bus.calls))
	}
}

func TestBusFailureIsNack(t *testing.T) {
	cause := errors.New("i2c: no ack")
	bus := &fakeBus{err: cause}
	h := NewI2C(bus, types.I2CPlan{})

	err := h.RegisterWrite(0x53, 0x2D, []byte{0x08})
	if !errors.Is(err, errcode.BusNack) || !errors.Is(err, cause) {
		t.Fatalf("write err = %v, want BusNack wrapping cause", err)
	}
	if _, err := h.RegisterRead(0x53, 0x32, 6); !errors.Is(err, errcode.BusNack) {
		t.Fatalf("read err = %v, want BusNack", err)
	}
	if len(bus.calls) != 2 {
		t.Fatalf("transport must not retry, got %d transactions", len(bus.calls))
	}
}

// loopPort is a byte stream backed by buffers.
type loopPort struct {
	in  *bytes.Buffer
	out bytes.Buffer
}

func (p *loopPort) ReadByte() (byte, error) { return p.in.ReadByte() }
func (p *loopPort) WriteByte(b byte) error  { return p.out.WriteByte(b) }

func TestStreamSendReceive(t *testing.T) {
	p := &loopPort{in: bytes.NewBufferString("=4")}
	h := NewStream(p, types.UARTPlan{Baud: 9600})

	h.Send('w')
	if p.out.String() != "w" {
		t.Fatalf("sent %q", p.out.String())
	}
	if b := h.Receive(); b != '=' {
		t.Fatalf("Receive = %q", b)
	}
	if b := h.Receive(); b != '4' {
		t.Fatalf("Receive = %q", b)
	}
	if h.Plan().Baud != 9600 {
		t.Fatalf("plan not kept")
	}
}

// idlePort reports io.EOF a fixed number of times before each byte.
type idlePort struct {
	idle  int
	data  []byte
	reads int
}

func (p *idlePort) ReadByte() (byte, error) {
	p.reads++
	if p.idle > 0 {
		p.idle--
		return 0, io.EOF
	}
	b := p.data[0]
	p.data = p.data[1:]
	return b, nil
}
func (p *idlePort) WriteByte(byte) error { return nil }

func TestReceiveBacksOffOnIdleReads(t *testing.T) {
	var buf bytes.Buffer
	old := diag.SetSink(&buf)
	defer diag.SetSink(old)

	p := &idlePort{idle: 5, data: []byte("7")}
	h := NewStream(p, types.UARTPlan{})
	var slept []time.Duration
	h.Sleep = func(d time.Duration) { slept = append(slept, d) }

	if b := h.Receive(); b != '7' {
		t.Fatalf("Receive = %q", b)
	}
	if p.reads != 6 || len(slept) != 5 || slept[0] != ReceiveBackoff {
		t.Fatalf("reads=%d sleeps=%v", p.reads, slept)
	}
	if n := strings.Count(buf.String(), "stream receive failed"); n != 1 {
		t.Fatalf("failure logged %d times:\n%s", n, buf.String())
	}
}
