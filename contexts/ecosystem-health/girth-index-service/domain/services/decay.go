package services

import (
	"time"

	"girthgov/contexts/ecosystem-health/girth-index-service/domain/entities"
)

const (
	DecayStaleAfter     = 60 * time.Second
	DecayStep           = 0.5
	DecayStabilityFloor = 15.0
)

// NeedsDecay reports whether an idle index is stale enough to decay.
func NeedsDecay(idx entities.GirthIndex, now time.Time) bool {
	return now.Sub(idx.LastUpdated) > DecayStaleAfter
}

// Decay lowers resonance one step. Below the floor, stability slips one tier.
func Decay(idx entities.GirthIndex, now time.Time) entities.GirthIndex {
	next := idx
	next.Resonance = ClampResonance(idx.Resonance - DecayStep)
	if next.Resonance < DecayStabilityFloor {
		next.OracleStability = idx.OracleStability.Downgrade()
	}
	next.LastUpdated = now
	return next
}
