// Package threshold turns a burst of samples into a hazard verdict.
//
// Three policies exist, one per sensing role:
//
//	InstantMagnitude  hazard on the first sample above a limit (seismic)
//	WakeCounter       hazard once enough wakes have accumulated (rain)
//	BoundedRetry      like InstantMagnitude, but frames that fail to parse
//	                  are retried without using up an attempt (soil)
package threshold

import (
	"errors"

	"hazardnode-go/errcode"
	"hazardnode-go/services/diag"
	"hazardnode-go/types"
)

var log = diag.New("threshold")

// Deployment values used by the fixed setups in services/config.
const (
	DefaultMagnitudeLimitG = 2.0
	DefaultMagnitudeBurst  = 200
	DefaultWakeLimit       = 2
	DefaultMoistureLimit   = 50
	DefaultMoistureBurst   = 10
)

// Source yields one sample per call.
type Source interface {
	Acquire() (types.Sample, error)
}

// Policy evaluates one wake's worth of samples.
type Policy interface {
	Evaluate(src Source) (types.HazardVerdict, error)
}

// FromConfig builds the policy for a subsystem. Limits and burst sizes are
// used exactly as configured; config.Validate is where bad values are refused.
func FromConfig(sub types.Subsystem, p types.PolicyConfig) (Policy, error) {
	switch sub {
	case types.SubsystemSeismic:
		return &InstantMagnitude{LimitG: p.MagnitudeLimitG, Burst: p.MagnitudeBurst}, nil
	case types.SubsystemRain:
		return &WakeCounter{Limit: p.WakeLimit}, nil
	case types.SubsystemSoil:
		return &BoundedRetry{Limit: p.MoistureLimit, Attempts: p.MoistureBurst}, nil
	default:
		return nil, errcode.Unsupported
	}
}

// ---- instant magnitude ----

// InstantMagnitude declares a hazard when a magnitude sample is strictly
// above LimitG. At most Burst samples are taken; a failed acquisition uses
// up its slot.
type InstantMagnitude struct {
	LimitG float32
	Burst  int
}

func (p *InstantMagnitude) Evaluate(src Source) (types.HazardVerdict, error) {
	for i := 1; i <= p.Burst; i++ {
		s, err := src.Acquire()
		if err != nil {
			log.Warn("sample", i, "dropped:", err)
			continue
		}
		if s.G > p.LimitG {
			log.Info("magnitude", s.G, "g above", p.LimitG, "at sample", i)
			return types.HazardVerdict{Hazard: true, Trigger: s, Attempts: i}, nil
		}
	}
	return types.HazardVerdict{Attempts: p.Burst}, nil
}

// ---- wake counter ----

// WakeCounter takes one sample per wake and declares a hazard once the
// number of wakes exceeds Limit. The count goes back to zero only when a
// hazard is declared.
type WakeCounter struct {
	Limit int
	count int
}

// Count is the number of wakes since the last hazard.
func (p *WakeCounter) Count() int { return p.count }

func (p *WakeCounter) Evaluate(src Source) (types.HazardVerdict, error) {
	s, err := src.Acquire()
	if err != nil {
		return types.HazardVerdict{Attempts: 1}, err
	}
	p.count++
	log.Info("wake count", p.count)
	if p.count > p.Limit {
		p.count = 0
		return types.HazardVerdict{Hazard: true, Trigger: s, Attempts: 1}, nil
	}
	return types.HazardVerdict{Attempts: 1}, nil
}

// ---- bounded retry ----

// BoundedRetry reads up to Attempts values and declares a hazard on the
// first one strictly above Limit. A reading that fails with
// errcode.MalformedFrame is repeated and does not count as an attempt; any
// other error ends the burst.
type BoundedRetry struct {
	Limit    int
	Attempts int
}

func (p *BoundedRetry) Evaluate(src Source) (types.HazardVerdict, error) {
	used := 0
	for used < p.Attempts {
		s, err := src.Acquire()
		if errors.Is(err, errcode.MalformedFrame) {
			log.Warn("malformed reading, retrying")
			continue
		}
		if err != nil {
			return types.HazardVerdict{Attempts: used}, err
		}
		used++
		if s.Moisture > p.Limit {
			log.Info("moisture", s.Moisture, "above", p.Limit, "at reading", used)
			return types.HazardVerdict{Hazard: true, Trigger: s, Attempts: used}, nil
		}
	}
	return types.HazardVerdict{Attempts: used}, nil
}
