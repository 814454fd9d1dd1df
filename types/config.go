package types

import "time"

// Node configuration is fixed at deployment; see services/config for the
// compiled-in setups.

// Subsystem names the sensing role of a node.
type Subsystem string

const (
	SubsystemSeismic Subsystem = "seismic"
	SubsystemRain    Subsystem = "rain"
	SubsystemSoil    Subsystem = "soil"
)

type NodeConfig struct {
	Name      string
	Subsystem Subsystem
	Pins      PinRoles
	I2C       I2CPlan  // seismic only
	UART      UARTPlan // soil only
	Policy    PolicyConfig
	Wake      WakeConfig
	Timing    TimingConfig
}

// PinRoles are GPIO numbers (Pico GP numbering / BCM on Linux).
// A negative number means "not wired".
type PinRoles struct {
	Warning int // output to aggregator, floated when idle
	Ack     int // input from aggregator
	Trigger int // wake line (level-triggered nodes)
	LED     int // status indicator
}

// I2CPlan describes the addressed bus owned by the sensor driver.
type I2CPlan struct {
	ID       string // e.g. "i2c0"; Linux: periph bus name, e.g. "1"
	SDA      int
	SCL      int
	Hz       uint32
	AddrBits uint8  // device address width, 7
	Addr     uint16 // device address
}

// UARTPlan describes the byte-stream bus owned by the sensor driver.
type UARTPlan struct {
	ID   string // e.g. "uart1"
	TX   int
	RX   int
	Baud uint32
	Path string // Linux tty path; baud is set outside the process
}

type PolicyConfig struct {
	MagnitudeLimitG float32 // seismic: hazard iff sample > limit
	MagnitudeBurst  int     // seismic: samples per wake
	WakeLimit       int     // rain: hazard iff wake count > limit
	MoistureLimit   int     // soil: hazard iff reading > limit
	MoistureBurst   int     // soil: attempts per wake
}

type WakeConfig struct {
	Mode     WakeMode
	Interval time.Duration // WakeAlarm only
}

type TimingConfig struct {
	PendingHalf time.Duration // handshake slow pulse half-period
	FlashHalf   time.Duration // sampling rapid flash half-period
	FaultHalf   time.Duration // fault fast pulse half-period
	SensorBoot  time.Duration // soil sensor boot settle before 'l'
	SensorQuery time.Duration // soil sensor settle after 'w'
}

// AckLineConfig is one subsystem's signal pair as seen from the aggregator.
type AckLineConfig struct {
	Name    string
	Warning int // input, pulled down
	Ack     int // output
}

type AggregatorConfig struct {
	Lines []AckLineConfig // scanned in order; first high warning wins
	Hold  time.Duration   // ack high time
	Poll  time.Duration   // scan period
}
