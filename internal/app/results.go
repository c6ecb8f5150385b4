package app

import (
	"context"
	"log"

	"pathfinder-service/internal/domain"
	"pathfinder-service/internal/scoring"
)

// StaticRecommendations is shown when the recommendation service is absent
// or fails.
var StaticRecommendations = domain.Recommendations{
	Careers: []domain.Career{
		{Title: "UX/UI Designer", Match: 94, Description: "Your creativity and communication skills align perfectly with user experience design.", Category: "Design & Creative"},
		{Title: "Product Manager", Match: 89, Description: "Strong problem-solving and teamwork make you ideal for product management.", Category: "Business & Management"},
		{Title: "Data Analyst", Match: 85, Description: "Logical thinking and attention to detail suit analytical roles.", Category: "Technology & Analytics"},
	},
	Majors: []string{
		"Human-Computer Interaction",
		"Business Administration with Tech Focus",
		"Psychology with Design Thinking",
		"Information Systems",
	},
}

// Results derives the report from an aggregate.
type Results struct {
	recommender Recommender
	ceilings    map[domain.Trait]int
}

// NewResults builds a Results view. recommender may be nil.
func NewResults(recommender Recommender) *Results {
	return &Results{recommender: recommender, ceilings: scoring.DefaultCeilings}
}

// Build normalizes the aggregate and makes a single best-effort
// recommendation call.
func (r *Results) Build(ctx context.Context, agg domain.Aggregate) domain.Report {
	raw := agg.Subscores()
	normalized := scoring.Normalize(raw, r.ceilings)

	focus := scoring.DefaultFocus
	if agg.CognitivePlayed {
		focus = agg.CognitiveScore
	}

	report := domain.Report{
		Normalized:     normalized,
		Skills:         scoring.Skills(raw, focus, r.ceilings),
		CognitiveScore: agg.CognitiveScore,
	}

	recs, ok := r.recommend(ctx, normalized)
	if !ok {
		recs = cloneRecommendations(StaticRecommendations)
	}
	report.Careers = recs.Careers
	report.Majors = recs.Majors
	report.Dynamic = ok
	return report
}

func (r *Results) recommend(ctx context.Context, normalized map[domain.Trait]int) (domain.Recommendations, bool) {
	if r.recommender == nil {
		return domain.Recommendations{}, false
	}
	scores := make(map[domain.Trait]float64, len(normalized))
	for trait, v := range normalized {
		scores[trait] = float64(v)
	}
	recs, err := r.recommender.Recommend(ctx, scores)
	if err != nil {
		log.Printf("results: recommendations: %v", err)
		return domain.Recommendations{}, false
	}
	if len(recs.Careers) == 0 && len(recs.Majors) == 0 {
		return domain.Recommendations{}, false
	}
	return recs, true
}

func cloneRecommendations(in domain.Recommendations) domain.Recommendations {
	out := domain.Recommendations{
		Careers: make([]domain.Career, len(in.Careers)),
		Majors:  make([]string, len(in.Majors)),
	}
	copy(out.Careers, in.Careers)
	copy(out.Majors, in.Majors)
	return out
}
