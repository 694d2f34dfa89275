package entities

import "fmt"

// Tier enums are closed, ordered from weakest to strongest. Persisted and
// wire forms use String(); ParseX rejects anything else.

type TapSurgeTier int

const (
	TapSurgeDormant TapSurgeTier = iota
	TapSurgeTrickle
	TapSurgeSteady
	TapSurgePumping
	TapSurgeSurging
	TapSurgeMega
	TapSurgeGiga
)

var tapSurgeNames = [...]string{"dormant", "trickle", "steady", "pumping", "surging", "mega_surge", "giga_surge"}

func (t TapSurgeTier) String() string {
	if t < TapSurgeDormant || t > TapSurgeGiga {
		return fmt.Sprintf("tap_surge(%d)", int(t))
	}
	return tapSurgeNames[t]
}

func AllTapSurgeTiers() []TapSurgeTier {
	return []TapSurgeTier{TapSurgeDormant, TapSurgeTrickle, TapSurgeSteady, TapSurgePumping, TapSurgeSurging, TapSurgeMega, TapSurgeGiga}
}

func ParseTapSurgeTier(value string) (TapSurgeTier, error) {
	for i, name := range tapSurgeNames {
		if name == value {
			return TapSurgeTier(i), nil
		}
	}
	return 0, fmt.Errorf("unknown tap surge tier %q", value)
}

type LegionMoraleTier int

const (
	MoraleRouted LegionMoraleTier = iota
	MoraleDemoralized
	MoraleWavering
	MoraleSteadfast
	MoraleResolute
	MoraleEmboldened
	MoraleValiant
	MoraleLegendary
)

var moraleNames = [...]string{"routed", "demoralized", "wavering", "steadfast", "resolute", "emboldened", "valiant", "legendary"}

func (t LegionMoraleTier) String() string {
	if t < MoraleRouted || t > MoraleLegendary {
		return fmt.Sprintf("legion_morale(%d)", int(t))
	}
	return moraleNames[t]
}

func AllLegionMoraleTiers() []LegionMoraleTier {
	return []LegionMoraleTier{MoraleRouted, MoraleDemoralized, MoraleWavering, MoraleSteadfast, MoraleResolute, MoraleEmboldened, MoraleValiant, MoraleLegendary}
}

func ParseLegionMoraleTier(value string) (LegionMoraleTier, error) {
	for i, name := range moraleNames {
		if name == value {
			return LegionMoraleTier(i), nil
		}
	}
	return 0, fmt.Errorf("unknown legion morale tier %q", value)
}

type OracleStabilityTier int

const (
	StabilityShattered OracleStabilityTier = iota
	StabilityFractured
	StabilityUnstable
	StabilityFlickering
	StabilityStable
	StabilityPristine
)

var stabilityNames = [...]string{"shattered", "fractured", "unstable", "flickering", "stable", "pristine"}

func (t OracleStabilityTier) String() string {
	if t < StabilityShattered || t > StabilityPristine {
		return fmt.Sprintf("oracle_stability(%d)", int(t))
	}
	return stabilityNames[t]
}

// Downgrade moves one notch toward Shattered; Shattered is the floor.
func (t OracleStabilityTier) Downgrade() OracleStabilityTier {
	if t <= StabilityShattered {
		return StabilityShattered
	}
	return t - 1
}

func AllOracleStabilityTiers() []OracleStabilityTier {
	return []OracleStabilityTier{StabilityShattered, StabilityFractured, StabilityUnstable, StabilityFlickering, StabilityStable, StabilityPristine}
}

func ParseOracleStabilityTier(value string) (OracleStabilityTier, error) {
	for i, name := range stabilityNames {
		if name == value {
			return OracleStabilityTier(i), nil
		}
	}
	return 0, fmt.Errorf("unknown oracle stability tier %q", value)
}
