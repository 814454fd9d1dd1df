// Package soilsense drives a UART soil-moisture sensor that answers a 'w'
// query with an ASCII frame "...=<value>\n".
//
//	d := soilsense.New(stream, soilsense.Config{})
//	d.Configure()        // boot settle, then 'l'
//	v, err := d.Read()   // errcode.MalformedFrame => query again
package soilsense

import (
	"time"

	"hazardnode-go/drivers/transport"
)

// Line settings.
const Baud = 9600

// Commands.
const (
	cmdInit  = 'l'
	cmdQuery = 'w'
)

// Config controls timing. All fields are optional.
type Config struct {
	// BootDelay is waited before the init command. Default 2 s.
	BootDelay time.Duration
	// QueryDelay is waited between the query and reading the reply.
	// Default 100 ms.
	QueryDelay time.Duration
}

// Device is the sensor behind a byte-stream transport.
type Device struct {
	s   *transport.StreamHandle
	cfg Config
	p   Parser
}

func New(s *transport.StreamHandle, cfg Config) *Device {
	if cfg.BootDelay <= 0 {
		cfg.BootDelay = 2 * time.Second
	}
	if cfg.QueryDelay <= 0 {
		cfg.QueryDelay = 100 * time.Millisecond
	}
	return &Device{s: s, cfg: cfg}
}

// Configure waits for the sensor to boot and sends the init command.
func (d *Device) Configure() {
	time.Sleep(d.cfg.BootDelay)
	d.s.Send(cmdInit)
}

// Read queries one value. On a malformed frame the caller must query again;
// the rest of the frame is left in the stream and discarded by the next
// delimiter search.
func (d *Device) Read() (int, error) {
	d.s.Send(cmdQuery)
	time.Sleep(d.cfg.QueryDelay)

	d.p.Reset()
	for !d.p.Feed(d.s.Receive()) {
	}
	return d.p.Result()
}
