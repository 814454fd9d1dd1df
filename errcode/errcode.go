package errcode

// Code is a stable error identifier shared by drivers and services.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK            Code = "ok"
	InvalidParams Code = "invalid_params"
	Unsupported   Code = "unsupported"
	UnknownPin    Code = "unknown_pin"
	UnknownBus    Code = "unknown_bus"
	Timeout       Code = "timeout"

	// Transport
	BusNack      Code = "bus_nack"
	EmptyPayload Code = "empty_payload"

	// Sensors
	MalformedFrame   Code = "malformed_frame"
	IdentityMismatch Code = "identity_mismatch"

	// Node state
	InvalidTransition Code = "invalid_transition"
	Fault             Code = "fault"

	Error Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, errcode.X) match a wrapped code.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Wrap returns an *E carrying code c for operation op.
func Wrap(c Code, op string, err error) *E {
	return &E{C: c, Op: op, Err: err}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}

// MapDriverErr maps low-level bus errors to a Code. Any failed transfer on
// the addressed bus is reported as a NACK; there is no finer signal from the
// platform I2C implementations.
func MapDriverErr(err error) Code {
	if err == nil {
		return OK
	}
	if c := Of(err); c != Error {
		return c
	}
	return BusNack
}
