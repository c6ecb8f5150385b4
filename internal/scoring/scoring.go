// Package scoring holds the per-block heuristics that turn one answer into
// trait deltas, and the normalization used by the results screen.
//
// Every function here is pure: same item and answer, same delta.
package scoring

import (
	"math"
	"strings"
	"unicode/utf8"

	"pathfinder-service/internal/domain"
)

// Scorer converts one finalized answer into trait deltas.
type Scorer interface {
	Score(item domain.Item, answer domain.Answer) domain.Subscores
}

// ForBlock returns the heuristic used by block.
func ForBlock(block domain.Block) Scorer {
	if block == domain.BlockAcademic {
		return AcademicScorer{}
	}
	return CareerScorer{}
}

type keywordRule struct {
	keywords []string
	delta    domain.Subscores
}

// careerRules are checked in order; the first match wins.
var careerRules = []keywordRule{
	{keywords: []string{"help"}, delta: domain.Subscores{domain.TraitTeamwork: 2, domain.TraitEmpathy: 2, domain.TraitCommunication: 1}},
	{keywords: []string{"acknowledge"}, delta: domain.Subscores{domain.TraitTeamwork: 1, domain.TraitEmpathy: 1, domain.TraitCommunication: 2}},
	{keywords: []string{"leader", "notify"}, delta: domain.Subscores{domain.TraitTeamwork: 1, domain.TraitEmpathy: 0, domain.TraitCommunication: 1}},
	{keywords: []string{"wait", "ignore"}, delta: domain.Subscores{domain.TraitTeamwork: 0, domain.TraitEmpathy: 0, domain.TraitCommunication: 0}},
	{keywords: []string{"advice", "advise"}, delta: domain.Subscores{domain.TraitTeamwork: 1, domain.TraitEmpathy: 1, domain.TraitCommunication: 1}},
}

var careerDefault = domain.Subscores{domain.TraitTeamwork: 1, domain.TraitEmpathy: 1, domain.TraitCommunication: 1}

// CareerScorer scores behavioral choices and spoken responses.
type CareerScorer struct{}

func (CareerScorer) Score(_ domain.Item, answer domain.Answer) domain.Subscores {
	switch a := answer.(type) {
	case domain.ChoiceAnswer:
		return CareerChoice(a.Option)
	case domain.MediaAnswer:
		return CareerMedia(a.Sentiment)
	default:
		return domain.Subscores{}
	}
}

// CareerChoice matches option text against the behavioral keyword rules.
func CareerChoice(option string) domain.Subscores {
	lower := strings.ToLower(option)
	for _, rule := range careerRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.delta.Clone()
			}
		}
	}
	return careerDefault.Clone()
}

// CareerMedia adds round(3*s) communication when the transcript was
// classified positive with confidence s.
func CareerMedia(sentiment []domain.SentimentScore) domain.Subscores {
	s, ok := PositiveConfidence(sentiment)
	if !ok {
		return domain.Subscores{}
	}
	boost := int(math.Round(s * 3))
	if boost <= 0 {
		return domain.Subscores{}
	}
	return domain.Subscores{domain.TraitCommunication: boost}
}

// PositiveConfidence returns the score of the first positive label.
func PositiveConfidence(sentiment []domain.SentimentScore) (float64, bool) {
	for _, s := range sentiment {
		if strings.Contains(strings.ToUpper(s.Label), "POSITIVE") {
			return s.Score, true
		}
	}
	return 0, false
}

// AcademicScorer scores logic questions and open-ended creativity prompts.
type AcademicScorer struct{}

func (AcademicScorer) Score(item domain.Item, answer domain.Answer) domain.Subscores {
	switch a := answer.(type) {
	case domain.ChoiceAnswer:
		return AcademicChoice(item, a.Option)
	case domain.TextAnswer:
		return AcademicText(a.Text)
	default:
		return domain.Subscores{}
	}
}

// AcademicChoice awards 2 logic for the designated correct option.
func AcademicChoice(item domain.Item, option string) domain.Subscores {
	correct, ok := item.CorrectOption()
	if ok && option == correct {
		return domain.Subscores{domain.TraitLogic: 2}
	}
	return domain.Subscores{domain.TraitLogic: 0}
}

// AcademicText awards 1 creativity plus one per 60 trimmed characters, capped at 3.
func AcademicText(text string) domain.Subscores {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	bonus := n / 60
	if bonus > 3 {
		bonus = 3
	}
	return domain.Subscores{domain.TraitCreativity: 1 + bonus}
}
