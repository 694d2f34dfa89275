package services

import "girthgov/contexts/ecosystem-health/girth-index-service/domain/entities"

// Escalation is a tier transition worth a governance look.
type Escalation struct {
	Type     string
	Severity int
	From     string
	To       string
}

// Escalations lists transitions from prev into distressed (or peak) tiers.
// Staying in a tier never escalates again.
func Escalations(prev entities.GirthIndex, next entities.GirthIndex) []Escalation {
	var out []Escalation
	if next.OracleStability != prev.OracleStability {
		switch next.OracleStability {
		case entities.StabilityShattered:
			out = append(out, Escalation{Type: entities.ContextStabilityCollapse, Severity: 9, From: prev.OracleStability.String(), To: next.OracleStability.String()})
		case entities.StabilityFractured:
			if prev.OracleStability > entities.StabilityFractured {
				out = append(out, Escalation{Type: entities.ContextStabilityCollapse, Severity: 7, From: prev.OracleStability.String(), To: next.OracleStability.String()})
			}
		}
	}
	if next.LegionMorale != prev.LegionMorale {
		switch next.LegionMorale {
		case entities.MoraleRouted:
			out = append(out, Escalation{Type: entities.ContextMoraleCollapse, Severity: 8, From: prev.LegionMorale.String(), To: next.LegionMorale.String()})
		case entities.MoraleDemoralized:
			if prev.LegionMorale > entities.MoraleDemoralized {
				out = append(out, Escalation{Type: entities.ContextMoraleCollapse, Severity: 6, From: prev.LegionMorale.String(), To: next.LegionMorale.String()})
			}
		}
	}
	if prev.Resonance >= DecayStabilityFloor && next.Resonance < DecayStabilityFloor {
		out = append(out, Escalation{Type: entities.ContextResonanceFade, Severity: 7})
	}
	if next.TapSurge == entities.TapSurgeGiga && prev.TapSurge != entities.TapSurgeGiga {
		out = append(out, Escalation{Type: entities.ContextTapSurgePeak, Severity: 5, From: prev.TapSurge.String(), To: next.TapSurge.String()})
	}
	return out
}
