package travel

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tutorroute/models"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	home   = models.Location{Lat: 0, Lng: 0}
	campus = models.Location{Lat: 0, Lng: 0.1}
)

func TestHaversine(t *testing.T) {
	assert.InDelta(t, 11.1195, Haversine(home, campus), 0.001)
	assert.Zero(t, Haversine(campus, campus))
	assert.InDelta(t, Haversine(home, campus), Haversine(campus, home), 1e-9)
}

func TestEstimate(t *testing.T) {
	walk := Estimate(home, campus, models.ModeWalking)
	assert.True(t, walk.Estimated)
	assert.Equal(t, 11119, walk.DistanceMeters)
	assert.Equal(t, 8007, walk.DurationSeconds)

	drive := Estimate(home, campus, models.ModeDriving)
	assert.Equal(t, 1001, drive.DurationSeconds)

	unknown := Estimate(home, campus, models.TravelMode("hover"))
	assert.Equal(t, drive.DurationSeconds, unknown.DurationSeconds)
}

func distanceMatrixServer(t *testing.T, status, elementStatus string) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "0.000000,0.000000", r.URL.Query().Get("origins"))
		assert.Equal(t, "0.000000,0.100000", r.URL.Query().Get("destinations"))
		assert.Equal(t, "bicycling", r.URL.Query().Get("mode"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": status,
			"rows": []interface{}{map[string]interface{}{
				"elements": []interface{}{map[string]interface{}{
					"status":   elementStatus,
					"duration": map[string]int{"value": 2580},
					"distance": map[string]int{"value": 11500},
				}},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestGoogleProviderLeg(t *testing.T) {
	srv, calls := distanceMatrixServer(t, "OK", "OK")
	p := NewGoogleProvider("test-key", 100, time.Second, zap.NewNop())
	p.BaseURL = srv.URL

	leg, err := p.Leg(context.Background(), home, campus, models.ModeBicycling)
	require.NoError(t, err)
	assert.Equal(t, Leg{DurationSeconds: 2580, DistanceMeters: 11500}, leg)
	assert.Equal(t, 1, *calls)
}

func TestGoogleProviderNoRoute(t *testing.T) {
	srv, _ := distanceMatrixServer(t, "OK", "ZERO_RESULTS")
	p := NewGoogleProvider("test-key", 100, time.Second, zap.NewNop())
	p.BaseURL = srv.URL

	_, err := p.Leg(context.Background(), home, campus, models.ModeBicycling)
	assert.ErrorIs(t, err, ErrNoRoute)
}

func TestGoogleProviderErrors(t *testing.T) {
	srv, _ := distanceMatrixServer(t, "OVER_QUERY_LIMIT", "OK")
	p := NewGoogleProvider("test-key", 100, time.Second, zap.NewNop())
	p.BaseURL = srv.URL
	_, err := p.Leg(context.Background(), home, campus, models.ModeBicycling)
	assert.ErrorContains(t, err, "OVER_QUERY_LIMIT")

	p.APIKey = ""
	_, err = p.Leg(context.Background(), home, campus, models.ModeBicycling)
	assert.Error(t, err)

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()
	p = NewGoogleProvider("test-key", 100, time.Second, zap.NewNop())
	p.BaseURL = failing.URL
	_, err = p.Leg(context.Background(), home, campus, models.ModeBicycling)
	assert.ErrorContains(t, err, "unexpected status 500")
}

// memoryStore is an in-memory stand-in for the Redis client.
type memoryStore struct {
	values  map[string]string
	readErr error
}

func (m *memoryStore) Get(ctx context.Context, key string) *redis.StringCmd {
	if m.readErr != nil {
		return redis.NewStringResult("", m.readErr)
	}
	v, ok := m.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memoryStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.values[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func countingProvider(leg Leg, err error) (Provider, *int) {
	calls := 0
	return ProviderFunc(func(context.Context, models.Location, models.Location, models.TravelMode) (Leg, error) {
		calls++
		return leg, err
	}), &calls
}

func TestCachedProviderMemoizesLegs(t *testing.T) {
	next, calls := countingProvider(Leg{DurationSeconds: 600, DistanceMeters: 4000}, nil)
	store := &memoryStore{values: map[string]string{}}
	c := &CachedProvider{Next: next, Store: store, TTL: time.Hour, Logger: zap.NewNop()}

	for i := 0; i < 3; i++ {
		leg, err := c.Leg(context.Background(), home, campus, models.ModeTransit)
		require.NoError(t, err)
		assert.Equal(t, 600, leg.DurationSeconds)
	}
	assert.Equal(t, 1, *calls)
	assert.Contains(t, store.values, "travel:transit:0.00000,0.00000:0.00000,0.10000")

	// The reverse direction is a different key.
	_, err := c.Leg(context.Background(), campus, home, models.ModeTransit)
	require.NoError(t, err)
	assert.Equal(t, 2, *calls)
}

func TestCachedProviderSkipsEstimatesAndErrors(t *testing.T) {
	next, calls := countingProvider(Leg{DurationSeconds: 600, Estimated: true}, nil)
	store := &memoryStore{values: map[string]string{}}
	c := &CachedProvider{Next: next, Store: store, Logger: zap.NewNop()}

	_, err := c.Leg(context.Background(), home, campus, models.ModeTransit)
	require.NoError(t, err)
	assert.Empty(t, store.values)

	failing, _ := countingProvider(Leg{}, ErrNoRoute)
	c.Next = failing
	_, err = c.Leg(context.Background(), home, campus, models.ModeTransit)
	assert.ErrorIs(t, err, ErrNoRoute)
	assert.Equal(t, 1, *calls)
}

func TestCachedProviderSurvivesCacheOutage(t *testing.T) {
	next, calls := countingProvider(Leg{DurationSeconds: 900}, nil)
	store := &memoryStore{values: map[string]string{}, readErr: errors.New("connection refused")}
	c := &CachedProvider{Next: next, Store: store, Logger: zap.NewNop()}

	leg, err := c.Leg(context.Background(), home, campus, models.ModeDriving)
	require.NoError(t, err)
	assert.Equal(t, 900, leg.DurationSeconds)
	assert.Equal(t, 1, *calls)
}
