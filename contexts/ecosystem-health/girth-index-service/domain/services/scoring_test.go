package services

import (
	"math"
	"testing"
	"time"

	"girthgov/contexts/ecosystem-health/girth-index-service/domain/entities"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scoringNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func TestTapSurgeTierBoundaries(t *testing.T) {
	assert.Equal(t, entities.TapSurgeMega, TapSurgeTierFor(250), "250 taps/min is the second-highest tier")
	assert.Equal(t, entities.TapSurgeGiga, TapSurgeTierFor(350))
	assert.Equal(t, entities.TapSurgeGiga, TapSurgeTierFor(300))
	assert.Equal(t, entities.TapSurgeDormant, TapSurgeTierFor(0))
	assert.Equal(t, entities.TapSurgeTrickle, TapSurgeTierFor(10))
	assert.Equal(t, entities.TapSurgeSurging, TapSurgeTierFor(199.9))
}

func TestDecayDowngradesStabilityBelowFloor(t *testing.T) {
	idx := entities.GirthIndex{
		Resonance:       10,
		OracleStability: entities.StabilityPristine,
		LastUpdated:     scoringNow.Add(-2 * time.Minute),
		Version:         4,
	}
	require.True(t, NeedsDecay(idx, scoringNow))

	next := Decay(idx, scoringNow)
	assert.InDelta(t, 9.5, next.Resonance, 1e-9)
	assert.Equal(t, entities.StabilityStable, next.OracleStability)
	assert.Equal(t, scoringNow, next.LastUpdated)
	assert.Equal(t, int64(4), next.Version, "decay leaves versioning to the repository write")
}

func TestDecayFloorsAtZeroAndShattered(t *testing.T) {
	idx := entities.GirthIndex{Resonance: 0.2, OracleStability: entities.StabilityShattered}
	next := Decay(idx, scoringNow)
	assert.Equal(t, 0.0, next.Resonance)
	assert.Equal(t, entities.StabilityShattered, next.OracleStability)
}

func TestDecayKeepsStabilityAboveFloor(t *testing.T) {
	idx := entities.GirthIndex{Resonance: 40, OracleStability: entities.StabilityStable, LastUpdated: scoringNow.Add(-30 * time.Second)}
	assert.False(t, NeedsDecay(idx, scoringNow))
	next := Decay(idx, scoringNow)
	assert.Equal(t, entities.StabilityStable, next.OracleStability)
}

func TestClassifySentiment(t *testing.T) {
	assert.Equal(t, SentimentNeutral, ClassifySentiment(0, 0))
	assert.Equal(t, SentimentPositive, ClassifySentiment(3, 0))
	assert.Equal(t, SentimentPositive, ClassifySentiment(3, 2))
	assert.Equal(t, SentimentNeutral, ClassifySentiment(2, 2))
	assert.Equal(t, SentimentNegative, ClassifySentiment(2, 3))
	assert.Equal(t, SentimentNegative, ClassifySentiment(0, 1))
}

func TestBuildPlayerActivityPicksBusiestSession(t *testing.T) {
	events := []entities.GameEvent{
		{Wallet: "w1", SessionID: "s1", Type: entities.EventTap, Taps: 100, OccurredAt: scoringNow.Add(-20 * time.Minute)},
		{Wallet: "w1", SessionID: "s1", Type: entities.EventAchievementUnlocked, OccurredAt: scoringNow.Add(-15 * time.Minute)},
		{Wallet: "w1", SessionID: "s1", Type: entities.EventTap, Taps: 900, EvolutionLevel: 3, OccurredAt: scoringNow.Add(-10 * time.Minute)},
		{Wallet: "w2", SessionID: "s2", Type: entities.EventTap, Taps: 5000, OccurredAt: scoringNow.Add(-1 * time.Minute)},
		{Wallet: "w3", SessionID: "s3", Type: entities.EventTap, Taps: 50, OccurredAt: scoringNow.Add(-45 * time.Minute)},
		{Wallet: "w3", SessionID: "s3", Type: entities.EventTap, Taps: 50, OccurredAt: scoringNow.Add(-44 * time.Minute)},
		{Wallet: "w3", SessionID: "s3", Type: entities.EventTap, Taps: 50, OccurredAt: scoringNow.Add(-43 * time.Minute)},
		{Wallet: "w3", SessionID: "s3", Type: entities.EventTap, Taps: 50, OccurredAt: scoringNow.Add(-42 * time.Minute)},
	}

	activity, ok := BuildPlayerActivity(events, scoringNow)
	require.True(t, ok)
	assert.Equal(t, "s1", activity.SessionID, "s3 is outside the 30 minute window")
	assert.Equal(t, 3, activity.Events)
	assert.Equal(t, 1000, activity.Taps)
	assert.InDelta(t, 10.0, activity.SessionMinutes, 1e-9)
	assert.InDelta(t, 100.0, activity.TapsPerMinute, 1e-9)
	assert.Equal(t, 1, activity.Achievements)
	assert.Equal(t, 3, activity.EvolutionLevel)
	assert.InDelta(t, 10.0, activity.MinutesSinceLast, 1e-9)
}

func TestBuildCommunityActivity(t *testing.T) {
	events := []entities.GameEvent{
		{Wallet: "w1", Type: entities.EventTap, Taps: 600, OccurredAt: scoringNow.Add(-5 * time.Minute)},
		{Wallet: "w2", Type: entities.EventRageQuit, OccurredAt: scoringNow.Add(-10 * time.Minute)},
		{Wallet: "w2", Type: entities.EventErrorReported, OccurredAt: scoringNow.Add(-11 * time.Minute)},
		{Wallet: "w3", Type: entities.EventMegaSlap, OccurredAt: scoringNow.Add(-12 * time.Minute)},
		{Wallet: "w4", Type: entities.EventTap, Taps: 999, OccurredAt: scoringNow.Add(-2 * time.Hour)},
	}
	community := BuildCommunityActivity(events, scoringNow)
	assert.Equal(t, 4, community.Events)
	assert.Equal(t, 3, community.UniqueWallets)
	assert.InDelta(t, 10.0, community.TapsPerMinute, 1e-9)
	assert.Equal(t, SentimentNegative, community.Sentiment)
}

func TestScoreIdleEcosystemIsDistressed(t *testing.T) {
	next, breakdown := Score(entities.InitialGirthIndex(scoringNow), ScoringInput{}, scoringNow)
	assert.InDelta(t, 20.0, breakdown.Resonance, 1e-9)
	assert.Equal(t, entities.MoraleDemoralized, next.LegionMorale)
	assert.Equal(t, entities.StabilityStable, next.OracleStability)
	assert.Equal(t, entities.TapSurgeDormant, next.TapSurge)
}

func TestScoreActivePlayerRaisesResonance(t *testing.T) {
	in := ScoringInput{
		HasPlayer: true,
		Player: PlayerActivity{
			TapsPerMinute:  240,
			SessionMinutes: 30,
			Achievements:   3,
			Upgrades:       2,
			EvolutionLevel: 5,
		},
		Community: CommunityActivity{TapsPerMinute: 300, UniqueWallets: 20, Positive: 10, Sentiment: SentimentPositive},
		BatchSize: 50,
	}
	next, breakdown := Score(entities.InitialGirthIndex(scoringNow), in, scoringNow)
	assert.Equal(t, 100.0, breakdown.Resonance)
	assert.Equal(t, entities.TapSurgeMega, next.TapSurge)
	assert.Equal(t, entities.MoraleLegendary, next.LegionMorale)
	assert.Equal(t, entities.StabilityFlickering, next.OracleStability)
}

func TestEscalationsFireOnTransitionsOnly(t *testing.T) {
	prev := entities.GirthIndex{Resonance: 30, OracleStability: entities.StabilityStable, LegionMorale: entities.MoraleResolute, TapSurge: entities.TapSurgeMega}
	next := entities.GirthIndex{Resonance: 12, OracleStability: entities.StabilityShattered, LegionMorale: entities.MoraleRouted, TapSurge: entities.TapSurgeGiga}

	escalations := Escalations(prev, next)
	severities := map[string]int{}
	for _, e := range escalations {
		severities[e.Type] = e.Severity
	}
	assert.Equal(t, map[string]int{
		entities.ContextStabilityCollapse: 9,
		entities.ContextMoraleCollapse:    8,
		entities.ContextResonanceFade:     7,
		entities.ContextTapSurgePeak:      5,
	}, severities)

	assert.Empty(t, Escalations(next, next))

	recovering := next
	recovering.OracleStability = entities.StabilityFractured
	assert.Empty(t, Escalations(next, recovering), "climbing out of shattered is not an escalation")
}

func TestResonanceStaysInRangeProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("resonance is clamped to [0,100] after scoring and decay", prop.ForAll(
		func(tpm float64, counts []int, minutes float64, wallets int, batch int) bool {
			player := PlayerActivity{TapsPerMinute: tpm, SessionMinutes: minutes, MinutesSinceLast: minutes / 2}
			if len(counts) > 0 {
				player.Achievements = counts[0]
			}
			if len(counts) > 1 {
				player.MegaSlaps = counts[1]
			}
			if len(counts) > 2 {
				player.EvolutionLevel = counts[2]
			}
			in := ScoringInput{
				HasPlayer: tpm > 5,
				Player:    player,
				Community: CommunityActivity{TapsPerMinute: tpm * 3, UniqueWallets: wallets, Positive: wallets, Negative: batch % 7, Sentiment: ClassifySentiment(wallets, batch%7)},
				BatchSize: batch,
			}
			next, _ := Score(entities.InitialGirthIndex(scoringNow), in, scoringNow)
			decayed := Decay(next, scoringNow.Add(time.Hour))
			return next.Resonance >= 0 && next.Resonance <= 100 &&
				decayed.Resonance >= 0 && decayed.Resonance <= 100
		},
		gen.Float64Range(0, 1e6),
		gen.SliceOfN(3, gen.IntRange(0, 10000)),
		gen.Float64Range(0, 10000),
		gen.IntRange(0, 100000),
		gen.IntRange(0, 100000),
	))

	properties.TestingRun(t)
}

func TestStabilityTierIsTotalAndMonotoneProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	valid := map[entities.OracleStabilityTier]bool{}
	for _, tier := range entities.AllOracleStabilityTiers() {
		valid[tier] = true
	}

	properties.Property("every score maps to exactly one known tier", prop.ForAll(
		func(score float64) bool {
			tier := StabilityTierFor(score)
			return valid[tier] && tier == StabilityTierFor(score)
		},
		gen.Float64(),
	))
	properties.Property("higher scores never yield lower tiers", prop.ForAll(
		func(a float64, b float64) bool {
			if a > b {
				a, b = b, a
			}
			return StabilityTierFor(a) <= StabilityTierFor(b)
		},
		gen.Float64Range(-50, 150),
		gen.Float64Range(-50, 150),
	))

	properties.TestingRun(t)

	assert.Equal(t, entities.StabilityShattered, StabilityTierFor(math.NaN()))
	assert.Equal(t, entities.StabilityPristine, StabilityTierFor(math.Inf(1)))
}

func TestTierParsingRoundTrips(t *testing.T) {
	for _, tier := range entities.AllTapSurgeTiers() {
		parsed, err := entities.ParseTapSurgeTier(tier.String())
		require.NoError(t, err)
		assert.Equal(t, tier, parsed)
	}
	for _, tier := range entities.AllLegionMoraleTiers() {
		parsed, err := entities.ParseLegionMoraleTier(tier.String())
		require.NoError(t, err)
		assert.Equal(t, tier, parsed)
	}
	for _, tier := range entities.AllOracleStabilityTiers() {
		parsed, err := entities.ParseOracleStabilityTier(tier.String())
		require.NoError(t, err)
		assert.Equal(t, tier, parsed)
	}
	_, err := entities.ParseOracleStabilityTier("wobbly")
	assert.Error(t, err)
}
