package recommend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pathfinder-service/internal/domain"
)

func TestRecommendRanksAndScalesMatches(t *testing.T) {
	svc := NewService("", "", time.Second)
	recs, err := svc.Recommend(context.Background(), map[domain.Trait]float64{
		domain.TraitLogic:         100,
		domain.TraitCommunication: 50,
		domain.TraitEmpathy:       0,
		domain.TraitCreativity:    0,
	})
	require.NoError(t, err)
	require.Len(t, recs.Careers, 3)

	require.Equal(t, "Data Analyst", recs.Careers[0].Title)
	require.Equal(t, 100, recs.Careers[0].Match)
	require.Equal(t, "Product Manager", recs.Careers[1].Title)
	require.Equal(t, "Match to Data Analyst based on your profile (code 15-2051.00).", recs.Careers[0].Description)
	require.Equal(t, "Technology & Analytics", recs.Careers[0].Category)
	require.Equal(t, []string{"Information Systems", "Data Science", "Industrial Engineering"}, recs.Majors)
}

func TestRecommendAllZero(t *testing.T) {
	recs, err := NewService("", "", time.Second).Recommend(context.Background(), nil)
	require.NoError(t, err)
	for _, c := range recs.Careers {
		require.Zero(t, c.Match)
	}
	// All composites tie, so every rule fires and the list is capped.
	require.Equal(t, []string{"Human-Computer Interaction", "Digital Media Design", "Psychology with Design Thinking", "Information Systems"}, recs.Majors)
}

func TestMajorsPeopleDominant(t *testing.T) {
	require.Equal(t, []string{"Business Administration", "Communications"}, Majors(Composites{Analytical: 1, People: 5, Creative: 2}))
}

func TestRecommendEnrichesFromOnet(t *testing.T) {
	long := strings.Repeat("d", 200)
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		require.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/ws/online/occupations/15-1255.01":
			_, _ = w.Write([]byte(`{"description":"  Design digital interfaces.  "}`))
		case "/ws/online/occupations/11-2021.00":
			_, _ = w.Write([]byte(`{"description":"` + long + `"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	svc := NewService("key-1", srv.URL, time.Second)
	recs, err := svc.Recommend(context.Background(), map[domain.Trait]float64{domain.TraitCreativity: 100})
	require.NoError(t, err)
	require.EqualValues(t, 3, atomic.LoadInt32(&calls))

	byTitle := map[string]domain.Career{}
	for _, c := range recs.Careers {
		byTitle[c.Title] = c
	}
	require.Equal(t, "Design digital interfaces.", byTitle["UX/UI Designer"].Description)
	require.Equal(t, strings.Repeat("d", 180)+"…", byTitle["Product Manager"].Description)
	require.Contains(t, recs.Careers[2].Description, "based on your profile")
}

func TestRecommendEnrichmentFailureIsSoft(t *testing.T) {
	svc := NewService("key-1", "http://127.0.0.1:1", 200*time.Millisecond)
	recs, err := svc.Recommend(context.Background(), map[domain.Trait]float64{domain.TraitEmpathy: 80})
	require.NoError(t, err)
	require.Len(t, recs.Careers, 3)
	require.Equal(t, "Community Manager", recs.Careers[0].Title)
}
