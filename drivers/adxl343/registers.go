package adxl343

const (
	// 7-bit I2C address with ALT ADDRESS tied low.
	AddressDefault = 0x53

	// Expected DEVID contents.
	DeviceID = 0xE5

	// --- Register sub-addresses ---
	regDevID    = 0x00 // R
	regPowerCtl = 0x2D // R/W
	regDataX0   = 0x32 // R, 6 bytes: X0 X1 Y0 Y1 Z0 Z1

	// --- POWER_CTL bits ---
	powerCtlMeasure = 1 << 3

	// ±2 g range, 10-bit: 256 LSB per g.
	lsbPerG = 256
)
