package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"pathfinder-service/internal/domain"
)

func TestCareerChoiceHelpWinsOverOtherKeywords(t *testing.T) {
	options := []string{
		"Offer to help with specific tasks",
		"HELP them, then notify the leader",
		"Help and acknowledge, but wait and ignore advice",
	}
	want := domain.Subscores{domain.TraitTeamwork: 2, domain.TraitEmpathy: 2, domain.TraitCommunication: 1}
	for _, option := range options {
		require.Equal(t, want, CareerChoice(option), option)
	}
}

func TestCareerChoiceRuleOrder(t *testing.T) {
	cases := map[string]domain.Subscores{
		"Acknowledge and invite feedback":    {domain.TraitTeamwork: 1, domain.TraitEmpathy: 1, domain.TraitCommunication: 2},
		"Notify the team leader":             {domain.TraitTeamwork: 1, domain.TraitEmpathy: 0, domain.TraitCommunication: 1},
		"Tell the Leader":                    {domain.TraitTeamwork: 1, domain.TraitEmpathy: 0, domain.TraitCommunication: 1},
		"Wait to see if they can handle it":  {domain.TraitTeamwork: 0, domain.TraitEmpathy: 0, domain.TraitCommunication: 0},
		"Ignore it":                          {domain.TraitTeamwork: 0, domain.TraitEmpathy: 0, domain.TraitCommunication: 0},
		"Provide time management advice":     {domain.TraitTeamwork: 1, domain.TraitEmpathy: 1, domain.TraitCommunication: 1},
		"Move discussion forward":            {domain.TraitTeamwork: 1, domain.TraitEmpathy: 1, domain.TraitCommunication: 1},
		"acknowledge, then wait for a reply": {domain.TraitTeamwork: 1, domain.TraitEmpathy: 1, domain.TraitCommunication: 2},
	}
	for option, want := range cases {
		require.Equal(t, want, CareerChoice(option), option)
	}
}

func TestCareerChoiceReturnsIndependentMaps(t *testing.T) {
	first := CareerChoice("help")
	first[domain.TraitTeamwork] = 100
	require.Equal(t, 2, CareerChoice("help")[domain.TraitTeamwork])
}

func TestCareerMediaSentiment(t *testing.T) {
	require.Equal(t, domain.Subscores{domain.TraitCommunication: 3}, CareerMedia([]domain.SentimentScore{
		{Label: "NEGATIVE", Score: 0.02},
		{Label: "POSITIVE", Score: 0.91},
	}))
	require.Equal(t, domain.Subscores{domain.TraitCommunication: 2}, CareerMedia([]domain.SentimentScore{{Label: "positive", Score: 0.5}}))
	require.Empty(t, CareerMedia([]domain.SentimentScore{{Label: "NEGATIVE", Score: 0.99}}))
	require.Empty(t, CareerMedia(nil))
	require.Empty(t, CareerMedia([]domain.SentimentScore{{Label: "POSITIVE", Score: 0.1}}))
}

func TestCareerScorerIgnoresText(t *testing.T) {
	require.Empty(t, CareerScorer{}.Score(domain.Item{Type: domain.ItemText}, domain.TextAnswer{Text: "help"}))
}

func TestAcademicChoice(t *testing.T) {
	item := domain.Item{
		Type:    domain.ItemMCQ,
		Options: []string{"Rabbits increase", "Plants decrease", "Owls increase"},
	}
	require.Equal(t, domain.Subscores{domain.TraitLogic: 2}, AcademicChoice(item, "Rabbits increase"))
	require.Equal(t, domain.Subscores{domain.TraitLogic: 0}, AcademicChoice(item, "Plants decrease"))
	require.Equal(t, domain.Subscores{domain.TraitLogic: 0}, AcademicChoice(item, "Owls increase"))

	item.CorrectIndex = 2
	require.Equal(t, domain.Subscores{domain.TraitLogic: 2}, AcademicChoice(item, "Owls increase"))
}

func TestAcademicText(t *testing.T) {
	require.Equal(t, domain.Subscores{domain.TraitCreativity: 3}, AcademicText(strings.Repeat("a", 150)))
	require.Equal(t, domain.Subscores{domain.TraitCreativity: 3}, AcademicText("   "+strings.Repeat("b", 150)+"\n\t"))
	require.Equal(t, domain.Subscores{domain.TraitCreativity: 1}, AcademicText(strings.Repeat("c", 59)))
	require.Equal(t, domain.Subscores{domain.TraitCreativity: 4}, AcademicText(strings.Repeat("d", 1000)))
}

func TestForBlock(t *testing.T) {
	require.IsType(t, CareerScorer{}, ForBlock(domain.BlockCareer))
	require.IsType(t, AcademicScorer{}, ForBlock(domain.BlockAcademic))
}

func TestNormalizeAndSkills(t *testing.T) {
	raw := domain.Subscores{
		domain.TraitTeamwork:      3,
		domain.TraitEmpathy:       12,
		domain.TraitCommunication: 4,
		domain.TraitLogic:         2,
		domain.TraitCreativity:    -1,
	}
	norm := Normalize(raw, DefaultCeilings)
	require.Equal(t, 50, norm[domain.TraitTeamwork])
	require.Equal(t, 100, norm[domain.TraitEmpathy])
	require.Equal(t, 50, norm[domain.TraitCommunication])
	require.Equal(t, 33, norm[domain.TraitLogic])
	require.Equal(t, 0, norm[domain.TraitCreativity])

	skills := Skills(raw, 67, DefaultCeilings)
	require.Len(t, skills, 5)
	require.Equal(t, domain.SkillScore{Skill: "Focus", Score: 67}, skills[3])
	require.Equal(t, domain.SkillScore{Skill: "Problem Solving", Score: 50}, skills[4])
}
