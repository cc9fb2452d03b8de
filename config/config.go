package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	// Proxies allowed to set X-Forwarded-For; empty trusts every peer.
	TrustedProxies []string `mapstructure:"TRUSTED_PROXIES"`

	// MongoDB.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Google Maps API Key.
	GoogleAPIKey          string  `mapstructure:"GOOGLE_API_KEY"`
	TravelCacheTTLMinutes int     `mapstructure:"TRAVEL_CACHE_TTL_MINUTES"`
	TravelRequestsPerSec  float64 `mapstructure:"TRAVEL_REQUESTS_PER_SEC"`
	TravelTimeoutSeconds  int     `mapstructure:"TRAVEL_TIMEOUT_SECONDS"`

	// Scheduling.
	RoomTimezone         string `mapstructure:"ROOM_TIMEZONE"`
	HorizonWeekdays      int    `mapstructure:"HORIZON_WEEKDAYS"`
	MaxWalkingLegMinutes int    `mapstructure:"MAX_WALKING_LEG_MINUTES"`
	SlotUnitMinutes      int    `mapstructure:"SLOT_UNIT_MINUTES"`
	// Weekday window used for members without usable availability.
	DefaultWindowStart string `mapstructure:"DEFAULT_WINDOW_START"`
	DefaultWindowEnd   string `mapstructure:"DEFAULT_WINDOW_END"`
}

var AppConfig Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	v.SetDefault("TRUSTED_PROXIES", []string{})
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "tutorroute")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_CACHE_DB", 0)
	v.SetDefault("REDIS_QUEUE_DB", 1)
	v.SetDefault("GOOGLE_API_KEY", "")
	v.SetDefault("TRAVEL_CACHE_TTL_MINUTES", 24*60)
	v.SetDefault("TRAVEL_REQUESTS_PER_SEC", 10)
	v.SetDefault("TRAVEL_TIMEOUT_SECONDS", 5)
	v.SetDefault("ROOM_TIMEZONE", "Africa/Nairobi")
	v.SetDefault("HORIZON_WEEKDAYS", 4)
	v.SetDefault("MAX_WALKING_LEG_MINUTES", 60)
	v.SetDefault("SLOT_UNIT_MINUTES", 10)
	v.SetDefault("DEFAULT_WINDOW_START", "09:00")
	v.SetDefault("DEFAULT_WINDOW_END", "17:00")
}

// Load reads configuration from config.yaml (in . or ./config) and the
// environment into a Config.
func Load(v *viper.Viper) (Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	// Automatically use environment variables where available.
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig populates AppConfig from the global viper instance.
func LoadConfig() {
	cfg, err := Load(viper.GetViper())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	AppConfig = cfg
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// TravelCacheTTL is how long resolved legs stay in Redis.
func (c Config) TravelCacheTTL() time.Duration {
	return time.Duration(c.TravelCacheTTLMinutes) * time.Minute
}

// TravelTimeout bounds a single provider request.
func (c Config) TravelTimeout() time.Duration {
	return time.Duration(c.TravelTimeoutSeconds) * time.Second
}

// Location resolves ROOM_TIMEZONE, falling back to the process zone.
func (c Config) Location() *time.Location {
	if c.RoomTimezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.RoomTimezone)
	if err != nil {
		log.Printf("Unknown ROOM_TIMEZONE %q, using local time: %v", c.RoomTimezone, err)
		return time.Local
	}
	return loc
}
