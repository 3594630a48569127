package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPlayer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/players/42":
			assert.Equal(t, "secret", r.URL.Query().Get("api_key"))
			w.Header().Set("X-Rate-Limit-Remaining-Minute", "57")
			w.Header().Set("X-Rate-Limit-Remaining-Day", "1999")
			_, _ = w.Write([]byte(`{"profile":{"account_id":42,"personaname":"Yair","name":null},"rank_tier":54,"leaderboard_rank":null}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewOpenDotaClientWithBaseURL(srv.URL, "secret")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.GetPlayer(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), resp.Profile.AccountID)
	assert.Equal(t, "Yair", resp.DisplayName())
	require.NotNil(t, resp.RankTier)
	assert.Equal(t, 54, *resp.RankTier)
	assert.Nil(t, resp.LeaderboardRank)

	info := client.GetRateLimitInfo()
	assert.Equal(t, 57, info.RemainingMinute)
	assert.Equal(t, 1999, info.RemainingDay)

	_, err = client.GetPlayer(ctx, 7)
	assert.ErrorContains(t, err, "API error: 404")
}
