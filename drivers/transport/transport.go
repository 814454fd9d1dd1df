// Package transport moves bytes over the node's two buses: register
// transfers on the addressed (I2C) bus and single-byte transfers on the byte
// stream (UART). Register transfers are never retried; retry policy belongs
// to the callers. A byte-stream read waits until a byte arrives.
package transport

import (
	"time"

	"hazardnode-go/errcode"
	"hazardnode-go/services/diag"
	"hazardnode-go/services/hal/halcore"
	"hazardnode-go/types"
)

var log = diag.New("transport")

// maxPayload bounds a register write; the sensors here never need more.
const maxPayload = 16

// ReceiveBackoff is the pause between failed byte-stream reads.
const ReceiveBackoff = 10 * time.Millisecond

// I2CHandle is exclusive ownership of one configured addressed bus. The node
// is single-threaded, so no locking is done.
type I2CHandle struct {
	bus  halcore.I2C
	plan types.I2CPlan

	// Fixed buffers to avoid per-call heap allocations.
	w [maxPayload + 1]byte
}

// NewI2C wraps a bus that the platform has already configured per plan.
func NewI2C(bus halcore.I2C, plan types.I2CPlan) *I2CHandle {
	return &I2CHandle{bus: bus, plan: plan}
}

func (h *I2CHandle) Plan() types.I2CPlan { return h.plan }

// RegisterWrite writes p to register reg of the device at addr as one
// transaction: [reg, p...].
func (h *I2CHandle) RegisterWrite(addr uint16, reg byte, p []byte) error {
	if len(p) < 1 {
		return errcode.Wrap(errcode.EmptyPayload, "register_write", nil)
	}
	if len(p) > maxPayload {
		return errcode.Wrap(errcode.InvalidParams, "register_write", nil)
	}
	h.w[0] = reg
	n := copy(h.w[1:], p)
	if err := h.bus.Tx(addr, h.w[:n+1], nil); err != nil {
		log.Error("write reg", reg, "of device", addr, "failed:", err)
		return errcode.Wrap(errcode.MapDriverErr(err), "register_write", err)
	}
	return nil
}

// RegisterRead reads n bytes starting at register reg of the device at
// addr. The register pointer write and the read share one transaction
// (repeated start). On success exactly n bytes are returned.
func (h *I2CHandle) RegisterRead(addr uint16, reg byte, n int) ([]byte, error) {
	if n < 1 {
		return nil, errcode.Wrap(errcode.EmptyPayload, "register_read", nil)
	}
	buf := make([]byte, n)
	if err := h.ReadInto(addr, reg, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadInto is RegisterRead into a caller-owned buffer.
func (h *I2CHandle) ReadInto(addr uint16, reg byte, buf []byte) error {
	if len(buf) < 1 {
		return errcode.Wrap(errcode.EmptyPayload, "register_read", nil)
	}
	h.w[0] = reg
	if err := h.bus.Tx(addr, h.w[:1], buf); err != nil {
		log.Error("read reg", reg, "of device", addr, "failed:", err)
		return errcode.Wrap(errcode.MapDriverErr(err), "register_read", err)
	}
	return nil
}

// StreamHandle is exclusive ownership of one configured byte-stream bus.
type StreamHandle struct {
	port halcore.Stream
	plan types.UARTPlan

	// Sleep paces read retries; tests replace it.
	Sleep func(time.Duration)
}

func NewStream(port halcore.Stream, plan types.UARTPlan) *StreamHandle {
	return &StreamHandle{port: port, plan: plan, Sleep: time.Sleep}
}

func (h *StreamHandle) Plan() types.UARTPlan { return h.plan }

// Send writes one byte. The port is assumed available once configured; a
// platform error is logged and otherwise ignored.
func (h *StreamHandle) Send(b byte) {
	if err := h.port.WriteByte(b); err != nil {
		log.Warn("stream send failed:", err)
	}
}

// Receive blocks until one byte arrives. A failed read (a tty with VMIN=0
// returns io.EOF while idle) is retried every ReceiveBackoff; only the first
// failure of a run is logged.
func (h *StreamHandle) Receive() byte {
	failing := false
	for {
		b, err := h.port.ReadByte()
		if err == nil {
			if failing {
				log.Info("stream receive recovered")
			}
			return b
		}
		if !failing {
			log.Warn("stream receive failed:", err)
			failing = true
		}
		h.Sleep(ReceiveBackoff)
	}
}
