package services

import "girthgov/contexts/governance/decision-engine/domain/entities"

// autonomyTable holds one level per severity band: 0-6, 7-8, 9-10.
var autonomyTable = map[entities.Category][3]entities.AutonomyLevel{
	entities.CategoryEconomy:   {entities.AutonomyAdminNotified, entities.AutonomyAdminApproval, entities.AutonomyAdminApproval},
	entities.CategorySecurity:  {entities.AutonomyAdminNotified, entities.AutonomyAdminApproval, entities.AutonomyAdminApproval},
	entities.CategoryRewards:   {entities.AutonomyFull, entities.AutonomyAdminApproval, entities.AutonomyAdminApproval},
	entities.CategoryGameplay:  {entities.AutonomyFull, entities.AutonomyAdminNotified, entities.AutonomyAdminApproval},
	entities.CategoryCommunity: {entities.AutonomyFull, entities.AutonomyAdminNotified, entities.AutonomyAdminApproval},
	entities.CategoryTechnical: {entities.AutonomyFull, entities.AutonomyAdminNotified, entities.AutonomyAdminApproval},
}

// AutonomyFor resolves the autonomy level for a category and severity.
// Unknown categories are treated as gameplay.
func AutonomyFor(category entities.Category, severity int) entities.AutonomyLevel {
	levels, ok := autonomyTable[category]
	if !ok {
		levels = autonomyTable[entities.CategoryGameplay]
	}
	return levels[severityBand(severity)]
}

func severityBand(severity int) int {
	switch {
	case severity >= 9:
		return 2
	case severity >= 7:
		return 1
	default:
		return 0
	}
}
