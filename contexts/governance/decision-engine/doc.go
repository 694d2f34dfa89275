// Package decisionengine implements autonomous governance.
//
// Escalations raised by the ecosystem-health context are turned into decisions
// by the synthesizer. PollForge classifies each decision's autonomy and either
// executes it silently or opens a community poll. The completion watcher closes
// polls at the end of voting and the arbiter scores their outcome. The learning
// scribe reviews a week of outcomes and nudges the governance settings through
// typed, bounded config changes. Admins can pause, cancel, or modify polls and
// hold the whole pipeline with the emergency brake.
package decisionengine
