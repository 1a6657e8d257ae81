package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mlbb-arena/arena-backend/twitch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStreamServiceWithHelix(t *testing.T, helixCalls *int64, helix http.HandlerFunc) *streamService {
	t.Helper()

	authServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "app-token",
			"expires_in":   3600,
		})
	}))
	t.Cleanup(authServer.Close)

	helixServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(helixCalls, 1)
		helix(w, r)
	}))
	t.Cleanup(helixServer.Close)

	client := twitch.NewClientWithURLs("test-id", "test-secret", authServer.URL, helixServer.URL)
	return &streamService{
		client: client,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
}

func TestStreamService_GetListing_FiltersAllowList(t *testing.T) {
	var helixCalls int64
	service := newStreamServiceWithHelix(t, &helixCalls, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/streams", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"id": "s1", "user_login": "mlbb_cis", "viewer_count": 100},
				{"id": "s2", "user_login": "random_mlbb_fan", "viewer_count": 9000},
				{"id": "s3", "user_login": "syberia_gaming", "viewer_count": 350},
			},
		})
	})

	listing, err := service.GetListing(context.Background())

	require.NoError(t, err)
	assert.True(t, listing.Live)
	require.Len(t, listing.Items, 2)
	// Сортировка по зрителям, чужие каналы отброшены
	assert.Equal(t, "syberia_gaming", listing.Items[0].Channel)
	assert.Equal(t, "mlbb_cis", listing.Items[1].Channel)
}

func TestStreamService_GetListing_FallsBackToArchive(t *testing.T) {
	var helixCalls int64
	published := time.Date(2025, 6, 10, 18, 0, 0, 0, time.UTC)
	service := newStreamServiceWithHelix(t, &helixCalls, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/streams":
			json.NewEncoder(w).Encode(map[string]interface{}{"data": []interface{}{}})
		case "/users":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": []map[string]interface{}{{"id": "42"}},
			})
		case "/videos":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": []map[string]interface{}{
					{"id": "v1", "title": "Playoffs Day 1", "published_at": published.Format(time.RFC3339)},
				},
			})
		default:
			t.Errorf("unexpected helix path %s", r.URL.Path)
		}
	})

	listing, err := service.GetListing(context.Background())

	require.NoError(t, err)
	assert.False(t, listing.Live)
	require.NotEmpty(t, listing.Items)
	assert.False(t, listing.Items[0].Live)
	assert.LessOrEqual(t, len(listing.Items), maxStreamItems)
}

func TestStreamService_GetListing_UsesCache(t *testing.T) {
	var helixCalls int64
	service := newStreamServiceWithHelix(t, &helixCalls, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"id": "s1", "user_login": "mlbb_cis", "viewer_count": 100},
			},
		})
	})

	for i := 0; i < 5; i++ {
		_, err := service.GetListing(context.Background())
		require.NoError(t, err)
	}

	// Один запрос к /streams, остальные ответы из кэша
	assert.Equal(t, int64(1), atomic.LoadInt64(&helixCalls))
}
