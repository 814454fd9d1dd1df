// Package diag is the node's human-readable status side channel.
//
// Lines look like "Info: seismic: acceleration 1.254 g". They are
// diagnostic only; nothing in the alert protocol depends on them. The
// formatter handles the handful of value kinds the services emit and avoids
// fmt, which is costly on TinyGo.
package diag

import (
	"io"
	"sync"

	"hazardnode-go/x/conv"
)

var (
	mu sync.Mutex
	// Sink receives every line when set (host simulator, tests). When nil,
	// lines go out through println, which TinyGo routes to the default
	// UART / USB CDC console.
	Sink io.Writer
)

// SetSink swaps the output and returns the previous one.
func SetSink(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	old := Sink
	Sink = w
	return old
}

// Logger prefixes lines with a component name.
type Logger struct{ name string }

func New(name string) Logger { return Logger{name: name} }

func (l Logger) Info(a ...any)  { l.log("Info:", a) }
func (l Logger) Warn(a ...any)  { l.log("Warn:", a) }
func (l Logger) Error(a ...any) { l.log("Error:", a) }

func (l Logger) log(level string, a []any) {
	var b line
	b.str(level)
	b.byte(' ')
	if l.name != "" {
		b.str(l.name)
		b.str(": ")
	}
	for i, v := range a {
		if i > 0 {
			b.byte(' ')
		}
		b.any(v)
	}

	mu.Lock()
	defer mu.Unlock()
	if Sink != nil {
		b.byte('\n')
		_, _ = Sink.Write(b.buf)
		return
	}
	println(string(b.buf))
}

// ---- formatter ----

type line struct{ buf []byte }

func (b *line) byte(c byte)  { b.buf = append(b.buf, c) }
func (b *line) str(s string) { b.buf = append(b.buf, s...) }

func (b *line) any(v any) {
	switch x := v.(type) {
	case string:
		b.str(x)
	case []byte:
		b.quote(x)
	case error:
		b.str(x.Error())
	case interface{ String() string }:
		b.str(x.String())
	case bool:
		if x {
			b.str("true")
		} else {
			b.str("false")
		}
	case int:
		b.int(int64(x))
	case int16:
		b.int(int64(x))
	case int32:
		b.int(int64(x))
	case int64:
		b.int(x)
	case uint8:
		b.uint(uint64(x))
	case uint16:
		b.uint(uint64(x))
	case uint32:
		b.uint(uint64(x))
	case uint64:
		b.uint(x)
	case float32:
		b.float(float64(x))
	case float64:
		b.float(x)
	case nil:
		b.str("<nil>")
	default:
		b.str("<?>")
	}
}

func (b *line) int(i int64)     { b.buf = conv.AppendInt(b.buf, i) }
func (b *line) uint(u uint64)   { b.buf = conv.AppendUint(b.buf, u) }
func (b *line) float(f float64) { b.buf = conv.AppendFixed3(b.buf, f) }

// quote renders raw bus bytes, escaping control characters.
func (b *line) quote(p []byte) {
	b.byte('"')
	for _, c := range p {
		switch {
		case c == '\n':
			b.str(`\n`)
		case c == '\r':
			b.str(`\r`)
		case c == '"' || c == '\\':
			b.byte('\\')
			b.byte(c)
		case c < 0x20 || c >= 0x7f:
			b.str(`\x`)
			b.buf = conv.AppendHex8(b.buf, c)
		default:
			b.byte(c)
		}
	}
	b.byte('"')
}
