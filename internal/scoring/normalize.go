package scoring

import (
	"math"

	"pathfinder-service/internal/domain"
)

// DefaultCeilings are the raw totals that map to 100.
var DefaultCeilings = map[domain.Trait]int{
	domain.TraitTeamwork:      6,
	domain.TraitEmpathy:       6,
	domain.TraitCommunication: 8,
	domain.TraitLogic:         6,
	domain.TraitCreativity:    6,
}

const (
	problemSolvingCeiling = 10
	// DefaultFocus is shown when the cognitive game produced no score.
	DefaultFocus = 75
)

// Percent scales val against max and clamps to [0, 100].
func Percent(val, max int) int {
	if max <= 0 {
		return 0
	}
	p := int(math.Round(float64(val) / float64(max) * 100))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Normalize maps every trait to 0-100 using ceilings. Traits without a
// ceiling are omitted.
func Normalize(raw domain.Subscores, ceilings map[domain.Trait]int) map[domain.Trait]int {
	out := make(map[domain.Trait]int, len(domain.Traits))
	for _, trait := range domain.Traits {
		max, ok := ceilings[trait]
		if !ok {
			continue
		}
		out[trait] = Percent(raw[trait], max)
	}
	return out
}

// Skills builds the competency chart.
func Skills(raw domain.Subscores, focus int, ceilings map[domain.Trait]int) []domain.SkillScore {
	return []domain.SkillScore{
		{Skill: "Logic", Score: Percent(raw[domain.TraitLogic], ceilings[domain.TraitLogic])},
		{Skill: "Creativity", Score: Percent(raw[domain.TraitCreativity], ceilings[domain.TraitCreativity])},
		{Skill: "Communication", Score: Percent(raw[domain.TraitCommunication], ceilings[domain.TraitCommunication])},
		{Skill: "Focus", Score: focus},
		{Skill: "Problem Solving", Score: Percent(raw[domain.TraitLogic]+raw[domain.TraitTeamwork], problemSolvingCeiling)},
	}
}
