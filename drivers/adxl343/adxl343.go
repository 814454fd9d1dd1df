// Package adxl343 provides a driver for the ADXL343 3-axis accelerometer.
//
//	d := adxl343.New(h, adxl343.AddressDefault)
//	if err := d.Configure(); err != nil { ... } // identity check + measure mode
//	g, err := d.Magnitude()
//
// Configure refuses to continue with a device that does not identify as an
// ADXL343; callers treat that as fatal.
package adxl343

import (
	"math"

	"hazardnode-go/drivers/transport"
	"hazardnode-go/errcode"
)

// Device is an ADXL343 behind a register transport.
type Device struct {
	regs *transport.I2CHandle
	addr uint16

	buf [6]byte
}

// New creates the device object; it does not touch the bus.
func New(regs *transport.I2CHandle, addr uint16) *Device {
	if addr == 0 {
		addr = AddressDefault
	}
	return &Device{regs: regs, addr: addr}
}

// Configure verifies DEVID and sets the Measure bit in POWER_CTL.
// A failed or wrong identity read returns errcode.IdentityMismatch.
func (d *Device) Configure() error {
	if err := d.regs.ReadInto(d.addr, regDevID, d.buf[:1]); err != nil {
		return &errcode.E{C: errcode.IdentityMismatch, Op: "adxl343_configure", Msg: "devid unreadable", Err: err}
	}
	if d.buf[0] != DeviceID {
		return &errcode.E{C: errcode.IdentityMismatch, Op: "adxl343_configure", Msg: "unexpected devid"}
	}
	return d.modify(regPowerCtl, powerCtlMeasure, 0)
}

// ReadAxes performs one 6-byte burst from DATAX0 and returns raw counts.
func (d *Device) ReadAxes() (x, y, z int16, err error) {
	if err = d.regs.ReadInto(d.addr, regDataX0, d.buf[:6]); err != nil {
		return 0, 0, 0, err
	}
	// Little-endian: LOW then HIGH.
	x = int16(uint16(d.buf[0]) | uint16(d.buf[1])<<8)
	y = int16(uint16(d.buf[2]) | uint16(d.buf[3])<<8)
	z = int16(uint16(d.buf[4]) | uint16(d.buf[5])<<8)
	return x, y, z, nil
}

// Magnitude returns |a| in g from one burst read.
func (d *Device) Magnitude() (float32, error) {
	x, y, z, err := d.ReadAxes()
	if err != nil {
		return 0, err
	}
	return MagnitudeG(x, y, z), nil
}

// MagnitudeG scales raw counts to g and returns the Euclidean norm.
func MagnitudeG(x, y, z int16) float32 {
	fx := float64(x) / lsbPerG
	fy := float64(y) / lsbPerG
	fz := float64(z) / lsbPerG
	return float32(math.Sqrt(fx*fx + fy*fy + fz*fz))
}

// Counts converts g to raw counts (rounded), the inverse of the per-axis
// scaling. Used by emulators and tests.
func Counts(g float64) int16 {
	return int16(math.Round(g * lsbPerG))
}

// Generic read-modify-write for 8-bit registers with bitmasks.
func (d *Device) modify(reg byte, set, clear byte) error {
	if err := d.regs.ReadInto(d.addr, reg, d.buf[:1]); err != nil {
		return err
	}
	d.buf[1] = (d.buf[0] | set) &^ clear
	return d.regs.RegisterWrite(d.addr, reg, d.buf[1:2])
}
