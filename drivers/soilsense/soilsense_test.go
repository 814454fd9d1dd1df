package soilsense

import (
	"errors"
	"io"
	"strconv"
	"testing"
	"time"

	"hazardnode-go/drivers/transport"
	"hazardnode-go/errcode"
	"hazardnode-go/types"
)

// sensorFake answers each 'w' with the next queued frame.
type sensorFake struct {
	frames []string
	rx     []byte
	sent   []byte
}

func (p *sensorFake) WriteByte(b byte) error {
	p.sent = append(p.sent, b)
	if b == cmdQuery && len(p.frames) > 0 {
		p.rx = append(p.rx, p.frames[0]...)
		p.frames = p.frames[1:]
	}
	return nil
}

func (p *sensorFake) ReadByte() (byte, error) {
	if len(p.rx) == 0 {
		return 0, io.EOF
	}
	b := p.rx[0]
	p.rx = p.rx[1:]
	return b, nil
}

func newDevice(p *sensorFake) *Device {
	s := transport.NewStream(p, types.UARTPlan{ID: "uart1", Baud: Baud})
	return New(s, Config{BootDelay: time.Microsecond, QueryDelay: time.Microsecond})
}

func TestParseFrameCases(t *testing.T) {
	cases := []struct {
		in       string
		want     int
		consumed int
	}{
		{"X=7\n", 7, 4},
		{"X=42\n", 42, 5},
		{"=123\n", 123, 5},
		{"=50\r\n", 50, 5},
		{"=100\n", 100, 4}, // stops on the trailing '0'
		{"=40\n", 40, 4},
		{"ab=9\n", 9, 5},
		{"=\r\n", 0, 3}, // no digits reads as 0
		{"= 7\n", 7, 4},
		{"=ab\n", 0, 4},
		{"=-5\n", -5, 4},
	}
	for _, c := range cases {
		v, n, err := ParseFrame([]byte(c.in))
		if err != nil {
			t.Fatalf("%q: unexpected err %v", c.in, err)
		}
		if v != c.want || n != c.consumed {
			t.Fatalf("%q: got (%d, %d) want (%d, %d)", c.in, v, n, c.want, c.consumed)
		}
	}
}

func TestParseFrameMalformed(t *testing.T) {
	for _, in := range []string{"=1234\n", "=12", "no delimiter"} {
		if _, _, err := ParseFrame([]byte(in)); !errors.Is(err, errcode.MalformedFrame) {
			t.Fatalf("%q: want malformed_frame, got %v", in, err)
		}
	}
}

func TestFrameRoundTrip(t *testing.T) {
	for v := 0; v <= 999; v++ {
		in := "=" + strconv.Itoa(v) + "\n"
		got, _, err := ParseFrame([]byte(in))
		if err != nil || got != v {
			t.Fatalf("%q: got %d err %v", in, got, err)
		}
	}
}

func TestConfigureSendsInit(t *testing.T) {
	p := &sensorFake{}
	d := newDevice(p)
	d.Configure()
	if string(p.sent) != "l" {
		t.Fatalf("sent %q, want \"l\"", p.sent)
	}
}

func TestReadQueriesAndParses(t *testing.T) {
	p := &sensorFake{frames: []string{"\x00boot=35\n", "=55\n"}}
	d := newDevice(p)

	for _, want := range []int{35, 55} {
		v, err := d.Read()
		if err != nil || v != want {
			t.Fatalf("Read = (%d, %v), want %d", v, err, want)
		}
	}
	if string(p.sent) != "ww" {
		t.Fatalf("sent %q", p.sent)
	}
}

func TestReadMalformedLeavesTailForNextQuery(t *testing.T) {
	p := &sensorFake{frames: []string{"=1234\n", "=12\n"}}
	d := newDevice(p)

	if _, err := d.Read(); !errors.Is(err, errcode.MalformedFrame) {
		t.Fatalf("want malformed_frame, got %v", err)
	}
	v, err := d.Read()
	if err != nil || v != 12 {
		t.Fatalf("retry Read = (%d, %v), want 12", v, err)
	}
}

func TestDefaultsApplied(t *testing.T) {
	d := New(nil, Config{})
	if d.cfg.BootDelay != 2*time.Second || d.cfg.QueryDelay != 100*time.Millisecond {
		t.Fatalf("defaults not applied: %+v", d.cfg)
	}
}
