package types

// ------------------------
// Samples
// ------------------------

// SampleKind names the physical quantity a Sample carries.
type SampleKind uint8

const (
	SampleNone      SampleKind = iota
	SampleMagnitude            // acceleration magnitude, g
	SampleMoisture             // soil moisture, sensor units 0..99
	SampleLevel                // digital trigger level
)

func (k SampleKind) String() string {
	switch k {
	case SampleMagnitude:
		return "magnitude"
	case SampleMoisture:
		return "moisture"
	case SampleLevel:
		return "level"
	default:
		return "none"
	}
}

// Sample is one typed reading. It is immutable once captured and consumed
// exactly once by an evaluator.
type Sample struct {
	Kind     SampleKind
	G        float32 // SampleMagnitude
	Moisture int     // SampleMoisture
	Level    bool    // SampleLevel
	TsMs     int64   // capture time (ms)
}

func MagnitudeSample(g float32, tsMs int64) Sample {
	return Sample{Kind: SampleMagnitude, G: g, TsMs: tsMs}
}

func MoistureSample(v int, tsMs int64) Sample {
	return Sample{Kind: SampleMoisture, Moisture: v, TsMs: tsMs}
}

func LevelSample(high bool, tsMs int64) Sample {
	return Sample{Kind: SampleLevel, Level: high, TsMs: tsMs}
}

// ------------------------
// Verdicts
// ------------------------

// HazardVerdict is the outcome of one evaluation cycle.
// Trigger is the sample that crossed the threshold (Kind == SampleNone when
// no hazard was found). Attempts counts the burst slots consumed.
type HazardVerdict struct {
	Hazard   bool
	Trigger  Sample
	Attempts int
}

func (v HazardVerdict) HasTrigger() bool { return v.Trigger.Kind != SampleNone }
