package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "tutorroute", cfg.DatabaseName)
	assert.Equal(t, 4, cfg.HorizonWeekdays)
	assert.Equal(t, 60, cfg.MaxWalkingLegMinutes)
	assert.Equal(t, 10, cfg.SlotUnitMinutes)
	assert.Equal(t, "09:00", cfg.DefaultWindowStart)
	assert.Equal(t, "17:00", cfg.DefaultWindowEnd)
	assert.Equal(t, 24*time.Hour, cfg.TravelCacheTTL())
	assert.Equal(t, 5*time.Second, cfg.TravelTimeout())
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("HORIZON_WEEKDAYS", "2")
	t.Setenv("MAX_WALKING_LEG_MINUTES", "45")
	t.Setenv("TRAVEL_REQUESTS_PER_SEC", "2.5")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1,10.0.0.2")

	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.HorizonWeekdays)
	assert.Equal(t, 45, cfg.MaxWalkingLegMinutes)
	assert.Equal(t, 2.5, cfg.TravelRequestsPerSec)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.TrustedProxies)
}

func TestLocationFallsBack(t *testing.T) {
	assert.Equal(t, time.Local, Config{}.Location())
	assert.Equal(t, time.Local, Config{RoomTimezone: "Not/AZone"}.Location())
	assert.Equal(t, time.UTC, Config{RoomTimezone: "UTC"}.Location())
}
