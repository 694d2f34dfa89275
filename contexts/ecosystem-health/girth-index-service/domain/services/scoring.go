package services

import (
	"math"
	"time"

	"girthgov/contexts/ecosystem-health/girth-index-service/domain/entities"
)

const (
	ResonanceMin = 0.0
	ResonanceMax = 100.0

	moraleBaselineTapsPerMinute = 60.0
	freshActivityMinutes        = 2.0
)

// ScoringInput is everything one scoring pass looks at.
type ScoringInput struct {
	Player    PlayerActivity
	HasPlayer bool
	Community CommunityActivity
	// BatchSize is how many events this pass claimed.
	BatchSize int
}

// Breakdown exposes raw scores behind the tiers.
type Breakdown struct {
	Resonance float64 `json:"resonance"`
	Morale    float64 `json:"morale"`
	Stability float64 `json:"stability"`
}

// Score recomputes the index from activity. Version is left to the caller.
func Score(prev entities.GirthIndex, in ScoringInput, now time.Time) (entities.GirthIndex, Breakdown) {
	breakdown := Breakdown{
		Resonance: ResonanceScore(in),
		Morale:    MoraleScore(in),
		Stability: StabilityScore(in),
	}
	next := entities.GirthIndex{
		Resonance:       breakdown.Resonance,
		TapSurge:        TapSurgeTierFor(in.Player.TapsPerMinute),
		LegionMorale:    MoraleTierFor(breakdown.Morale),
		OracleStability: StabilityTierFor(breakdown.Stability),
		LastUpdated:     now,
		Version:         prev.Version,
	}
	return next, breakdown
}

// TapSurgeTierFor maps taps/minute onto the seven surge tiers.
func TapSurgeTierFor(tapsPerMinute float64) entities.TapSurgeTier {
	switch {
	case tapsPerMinute >= 300:
		return entities.TapSurgeGiga
	case tapsPerMinute >= 200:
		return entities.TapSurgeMega
	case tapsPerMinute >= 120:
		return entities.TapSurgeSurging
	case tapsPerMinute >= 60:
		return entities.TapSurgePumping
	case tapsPerMinute >= 30:
		return entities.TapSurgeSteady
	case tapsPerMinute >= 10:
		return entities.TapSurgeTrickle
	default:
		return entities.TapSurgeDormant
	}
}

func ResonanceScore(in ScoringInput) float64 {
	p := in.Player
	c := in.Community
	score := 50.0
	if in.HasPlayer {
		score += math.Min(25, p.TapsPerMinute/12)
		score += math.Min(20, float64(p.Achievements*4+p.Upgrades*2+p.MegaSlaps*3))
		score += math.Min(15, float64(p.EvolutionLevel*3))
		score += math.Min(10, p.SessionMinutes/3)
		score -= math.Min(30, p.MinutesSinceLast*1.5)
	} else {
		score -= 30
	}
	score += math.Min(10, c.TapsPerMinute/30)
	score += math.Min(5, float64(c.UniqueWallets)/4)
	score += sentimentShift(c.Sentiment, 5)
	return ClampResonance(score)
}

func MoraleScore(in ScoringInput) float64 {
	p := in.Player
	score := 50.0
	if in.HasPlayer {
		performance := (p.TapsPerMinute/moraleBaselineTapsPerMinute - 1) * 15
		score += clamp(performance, -15, 15)
		score += math.Min(8, float64(p.Achievements)*2)
		score += math.Min(5, float64(p.Upgrades))
		score += math.Min(6, float64(p.EvolutionLevel)*1.5)
		score += math.Min(6, float64(p.MegaSlaps)*2)
		score += math.Min(6, p.SessionMinutes/5)
		score -= math.Min(25, p.MinutesSinceLast*1.25)
	} else {
		score -= 25
	}
	score += sentimentShift(in.Community.Sentiment, 8)
	return clamp(score, 0, 100)
}

func StabilityScore(in ScoringInput) float64 {
	c := in.Community
	score := 80.0
	score -= math.Min(30, c.TapsPerMinute/20)
	score -= math.Min(15, float64(in.BatchSize)/100)
	if total := c.Positive + c.Negative; total > 0 {
		score -= math.Min(20, float64(c.Negative)/float64(total)*40)
	}
	if in.HasPlayer {
		score += math.Min(10, in.Player.SessionMinutes/6)
		if in.Player.MinutesSinceLast < freshActivityMinutes {
			score += 5
		}
	}
	return clamp(score, 0, 100)
}

// MoraleTierFor bands a morale score. Non-finite input clamps first.
func MoraleTierFor(score float64) entities.LegionMoraleTier {
	score = clamp(score, 0, 100)
	switch {
	case score < 15:
		return entities.MoraleRouted
	case score < 30:
		return entities.MoraleDemoralized
	case score < 45:
		return entities.MoraleWavering
	case score < 55:
		return entities.MoraleSteadfast
	case score < 65:
		return entities.MoraleResolute
	case score < 75:
		return entities.MoraleEmboldened
	case score < 88:
		return entities.MoraleValiant
	default:
		return entities.MoraleLegendary
	}
}

// StabilityTierFor bands a stability score into exactly one tier for every
// float64 input, including NaN and infinities.
func StabilityTierFor(score float64) entities.OracleStabilityTier {
	score = clamp(score, 0, 100)
	switch {
	case score >= 90:
		return entities.StabilityPristine
	case score >= 75:
		return entities.StabilityStable
	case score >= 60:
		return entities.StabilityFlickering
	case score >= 40:
		return entities.StabilityUnstable
	case score >= 20:
		return entities.StabilityFractured
	default:
		return entities.StabilityShattered
	}
}

func ClampResonance(value float64) float64 {
	return clamp(value, ResonanceMin, ResonanceMax)
}

func sentimentShift(sentiment Sentiment, weight float64) float64 {
	switch sentiment {
	case SentimentPositive:
		return weight
	case SentimentNegative:
		return -weight
	default:
		return 0
	}
}

// clamp maps NaN to lo.
func clamp(value float64, lo float64, hi float64) float64 {
	if math.IsNaN(value) || value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
