package adaptive

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pathfinder-service/internal/domain"
)

func TestClientRoundTrips(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(PathStartSession, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		_, _ = w.Write([]byte(`{"session_id":"s-1"}`))
	})
	mux.HandleFunc(PathNextItem, func(w http.ResponseWriter, r *http.Request) {
		var req NextItemRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "s-1", req.SessionID)
		require.Equal(t, domain.BlockCareer, req.Block)
		_, _ = w.Write([]byte(`{"item":{"id":"c1","type":"mcq","question":"Q?","options":["a","b"],"difficulty":3}}`))
	})
	mux.HandleFunc(PathSubmit, func(w http.ResponseWriter, r *http.Request) {
		var req SubmitRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "c1", req.ItemID)
		require.Equal(t, "a", req.Response.Answer)
		_, _ = w.Write([]byte(`{"updated_theta":0.4,"next_recommended_block":"academic"}`))
	})
	mux.HandleFunc(PathFinalize, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"subscores":{"logic":1.8}}`))
	})
	mux.HandleFunc(PathRecommendations, func(w http.ResponseWriter, r *http.Request) {
		var req RecommendRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, 40.0, req.Subscores[domain.TraitLogic])
		_, _ = w.Write([]byte(`{"careers":[{"title":"Data Analyst","match":100}],"majors":["Data Science"]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	c := NewClient(srv.URL+"/", time.Second)

	sid, err := c.StartSession(ctx)
	require.NoError(t, err)
	require.Equal(t, "s-1", sid)

	item, err := c.NextItem(ctx, sid, domain.BlockCareer)
	require.NoError(t, err)
	require.Equal(t, "c1", item.ID)
	require.Equal(t, domain.BlockCareer, item.Block)
	require.Equal(t, []string{"a", "b"}, item.Options)

	res, err := c.SubmitResponse(ctx, sid, domain.BlockCareer, "c1", domain.ResponsePayload{Answer: "a"})
	require.NoError(t, err)
	require.Equal(t, 0.4, res.UpdatedTheta)
	require.Equal(t, "academic", res.NextRecommendedBlock)

	scores, err := c.Finalize(ctx, sid)
	require.NoError(t, err)
	require.Equal(t, 1.8, scores[domain.TraitLogic])

	recs, err := c.Recommend(ctx, map[domain.Trait]float64{domain.TraitLogic: 40})
	require.NoError(t, err)
	require.Equal(t, "Data Analyst", recs.Careers[0].Title)
	require.Equal(t, []string{"Data Science"}, recs.Majors)
}

func TestClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"No items available"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).NextItem(context.Background(), "s-1", domain.BlockAcademic)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, PathNextItem, statusErr.Path)
	require.Equal(t, http.StatusNotFound, statusErr.Status)
	require.Contains(t, statusErr.Body, "No items available")
}

func TestClientTransportError(t *testing.T) {
	_, err := NewClient("http://127.0.0.1:1", 200*time.Millisecond).StartSession(context.Background())
	require.Error(t, err)
}
