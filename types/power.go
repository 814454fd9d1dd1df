package types

// ------------------------
// Power states
// ------------------------

// PowerState is the node's current power mode. Exactly one is current.
type PowerState uint8

const (
	PowerActive PowerState = iota
	PowerAwaitingLevelTrigger
	PowerAwaitingScheduledWake
	PowerFault // terminal; no outgoing transition
)

func (s PowerState) String() string {
	switch s {
	case PowerActive:
		return "active"
	case PowerAwaitingLevelTrigger:
		return "awaiting_level_trigger"
	case PowerAwaitingScheduledWake:
		return "awaiting_scheduled_wake"
	case PowerFault:
		return "fault"
	default:
		return "unknown"
	}
}

// WakeMode selects how a node leaves deep suspension.
type WakeMode string

const (
	WakeLevelHigh WakeMode = "level_high" // trigger line rises
	WakeAlarm     WakeMode = "alarm"      // real-time clock alarm
)
