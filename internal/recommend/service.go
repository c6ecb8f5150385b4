// Package recommend maps trait scores to occupations and majors, optionally
// enriching occupation descriptions from the O*NET web service.
package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"

	"pathfinder-service/internal/domain"
)

const (
	DefaultOnetBaseURL = "https://services.onetcenter.org"
	descriptionLimit   = 180
	topCareers         = 3
	maxMajors          = 4
)

type occupation struct {
	title    string
	category string
	code     string
	// weights over analytical, people and creative composites
	weights [3]float64
}

var occupations = []occupation{
	{title: "UX/UI Designer", category: "Design & Creative", code: "15-1255.01", weights: [3]float64{0.2, 0.2, 0.6}},
	{title: "Product Manager", category: "Business & Management", code: "11-2021.00", weights: [3]float64{0.4, 0.4, 0.2}},
	{title: "Data Analyst", category: "Technology & Analytics", code: "15-2051.00", weights: [3]float64{0.7, 0.2, 0.1}},
	{title: "Community Manager", category: "Marketing & Communications", code: "11-2033.00", weights: [3]float64{0.2, 0.6, 0.2}},
}

// Composites are the weighted profiles careers and majors are ranked on.
type Composites struct {
	Analytical float64
	People     float64
	Creative   float64
}

func ComputeComposites(scores map[domain.Trait]float64) Composites {
	logic := scores[domain.TraitLogic]
	creativity := scores[domain.TraitCreativity]
	empathy := scores[domain.TraitEmpathy]
	communication := scores[domain.TraitCommunication]
	return Composites{
		Analytical: 0.6*logic + 0.4*communication,
		People:     0.5*empathy + 0.5*communication,
		Creative:   0.7*creativity + 0.3*communication,
	}
}

type Service struct {
	client *resty.Client
	apiKey string
}

// NewService builds a recommender. Enrichment runs only when apiKey is set.
func NewService(apiKey, baseURL string, timeout time.Duration) *Service {
	if baseURL == "" {
		baseURL = DefaultOnetBaseURL
	}
	if timeout <= 0 {
		timeout = 3500 * time.Millisecond
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Service{client: client, apiKey: apiKey}
}

func (s *Service) Recommend(ctx context.Context, scores map[domain.Trait]float64) (domain.Recommendations, error) {
	c := ComputeComposites(scores)

	type ranked struct {
		occupation
		score float64
	}
	all := make([]ranked, len(occupations))
	maxScore := 0.0
	for i, o := range occupations {
		score := o.weights[0]*c.Analytical + o.weights[1]*c.People + o.weights[2]*c.Creative
		all[i] = ranked{occupation: o, score: score}
		maxScore = math.Max(maxScore, score)
	}
	if maxScore == 0 {
		maxScore = 1
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })
	all = all[:topCareers]

	careers := make([]domain.Career, len(all))
	for i, r := range all {
		careers[i] = domain.Career{
			Title:       r.title,
			Match:       int(math.Round(100 * r.score / maxScore)),
			Description: fmt.Sprintf("Match to %s based on your profile (code %s).", r.title, r.code),
			Category:    r.category,
		}
	}

	if s.apiKey != "" {
		for i, r := range all {
			summary, err := s.describe(ctx, r.code)
			if err != nil {
				log.Printf("recommend: onet %s: %v", r.code, err)
				break
			}
			if summary != "" {
				careers[i].Description = truncate(summary, descriptionLimit)
			}
		}
	}

	return domain.Recommendations{Careers: careers, Majors: Majors(c)}, nil
}

// describe fetches an occupation summary. Non-200 replies yield "".
func (s *Service) describe(ctx context.Context, code string) (string, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(s.apiKey).
		Get("/ws/online/occupations/" + code)
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != http.StatusOK {
		return "", nil
	}
	var body struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", fmt.Errorf("decode occupation: %w", err)
	}
	return strings.TrimSpace(body.Description), nil
}

// Majors suggests up to four majors by which composite dominates.
func Majors(c Composites) []string {
	var majors []string
	if c.Creative >= c.Analytical && c.Creative >= c.People {
		majors = append(majors, "Human-Computer Interaction", "Digital Media Design", "Psychology with Design Thinking")
	}
	if c.Analytical >= c.People {
		majors = append(majors, "Information Systems", "Data Science", "Industrial Engineering")
	}
	if c.People >= c.Analytical {
		majors = append(majors, "Business Administration", "Communications")
	}

	seen := make(map[string]bool, len(majors))
	out := make([]string, 0, maxMajors)
	for _, m := range majors {
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
		if len(out) == maxMajors {
			break
		}
	}
	return out
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "…"
}
