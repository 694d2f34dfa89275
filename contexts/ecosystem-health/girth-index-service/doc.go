// Package girthindex implements the ecosystem-health scoring pipeline.
//
// Gameplay events are ingested over HTTP and folded by the scoring engine into
// the single GirthIndex (resonance plus three tiers). The metric aggregator
// samples wider telemetry into smoothed ecosystem metrics. Both workers write
// decision contexts when something crosses an escalation threshold; the
// governance decision engine consumes those.
package girthindex
