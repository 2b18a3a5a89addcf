package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Geocoding GeocodingConfig
	Events    EventsConfig
	Search    SearchConfig
	Client    ClientConfig
	OTEL      OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Environment string
	Level       string
}

// DatabaseConfig holds database configuration. The database only backs
// search analytics, so it is off unless explicitly enabled.
type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// GeocodingConfig holds Nominatim configuration
type GeocodingConfig struct {
	Provider          string
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	SearchCacheTTL    time.Duration
	ReverseCacheTTL   time.Duration
}

// EventsConfig holds Ticketmaster Discovery configuration
type EventsConfig struct {
	Provider       string
	BaseURL        string
	APIKey         string
	PageSize       int
	Timeout        time.Duration
	SearchCacheTTL time.Duration
	DetailCacheTTL time.Duration
}

// SearchConfig holds the radius bounds and suggestion limits shared by
// the server and the client.
type SearchConfig struct {
	MinRadiusKm     int
	MaxRadiusKm     int
	DefaultRadiusKm int
	SuggestionLimit int
	MinQueryLength  int
	DefaultLat      float64
	DefaultLon      float64
	DefaultName     string
}

// ClientConfig holds timings for the interactive client
type ClientConfig struct {
	ServerURL          string
	StorePath          string
	SuggestDebounce    time.Duration
	QueryDebounce      time.Duration
	GeolocationTimeout time.Duration
	GeolocationMaxAge  time.Duration
	PulseDuration      time.Duration
	ScrollDelay        time.Duration
	DeviceLat          float64
	DeviceLon          float64
	DeviceLocation     bool
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 0),
		},
		Log: LogConfig{
			Environment: getEnv("ENV", "development"),
			Level:       getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Enabled:  getEnvAsBool("DB_ENABLED", false),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "eventfinder"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Geocoding: GeocodingConfig{
			Provider:          getEnv("GEOCODING_PROVIDER", "nominatim"),
			BaseURL:           getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
			UserAgent:         getEnv("NOMINATIM_USER_AGENT", "EventFinder/1.0"),
			Timeout:           getEnvAsDuration("NOMINATIM_TIMEOUT", 10*time.Second),
			RequestsPerSecond: getEnvAsFloat("NOMINATIM_RPS", 1),
			SearchCacheTTL:    getEnvAsDuration("NOMINATIM_SEARCH_CACHE_TTL", time.Hour),
			ReverseCacheTTL:   getEnvAsDuration("NOMINATIM_REVERSE_CACHE_TTL", 24*time.Hour),
		},
		Events: EventsConfig{
			Provider:       getEnv("EVENTS_PROVIDER", "ticketmaster"),
			BaseURL:        getEnv("TICKETMASTER_URL", "https://app.ticketmaster.com"),
			APIKey:         getEnv("TICKETMASTER_API_KEY", ""),
			PageSize:       getEnvAsInt("TICKETMASTER_PAGE_SIZE", 20),
			Timeout:        getEnvAsDuration("TICKETMASTER_TIMEOUT", 10*time.Second),
			SearchCacheTTL: getEnvAsDuration("TICKETMASTER_SEARCH_CACHE_TTL", 5*time.Minute),
			DetailCacheTTL: getEnvAsDuration("TICKETMASTER_DETAIL_CACHE_TTL", 15*time.Minute),
		},
		Search: SearchConfig{
			MinRadiusKm:     getEnvAsInt("SEARCH_MIN_RADIUS_KM", 1),
			MaxRadiusKm:     getEnvAsInt("SEARCH_MAX_RADIUS_KM", 160),
			DefaultRadiusKm: getEnvAsInt("SEARCH_DEFAULT_RADIUS_KM", 40),
			SuggestionLimit: getEnvAsInt("SEARCH_SUGGESTION_LIMIT", 10),
			MinQueryLength:  getEnvAsInt("SEARCH_MIN_QUERY_LENGTH", 2),
			DefaultLat:      getEnvAsFloat("SEARCH_DEFAULT_LAT", 52.3676),
			DefaultLon:      getEnvAsFloat("SEARCH_DEFAULT_LON", 4.9041),
			DefaultName:     getEnv("SEARCH_DEFAULT_NAME", "Amsterdam"),
		},
		Client: ClientConfig{
			ServerURL:          getEnv("FINDER_SERVER_URL", "http://localhost:8080"),
			StorePath:          getEnv("FINDER_STORE_PATH", ""),
			SuggestDebounce:    getEnvAsDuration("FINDER_SUGGEST_DEBOUNCE", 500*time.Millisecond),
			QueryDebounce:      getEnvAsDuration("FINDER_QUERY_DEBOUNCE", 300*time.Millisecond),
			GeolocationTimeout: getEnvAsDuration("FINDER_GEOLOCATION_TIMEOUT", 10*time.Second),
			GeolocationMaxAge:  getEnvAsDuration("FINDER_GEOLOCATION_MAX_AGE", time.Minute),
			PulseDuration:      getEnvAsDuration("FINDER_PULSE_DURATION", 2*time.Second),
			ScrollDelay:        getEnvAsDuration("FINDER_SCROLL_DELAY", 100*time.Millisecond),
			DeviceLat:          getEnvAsFloat("FINDER_DEVICE_LAT", 0),
			DeviceLon:          getEnvAsFloat("FINDER_DEVICE_LON", 0),
			DeviceLocation:     os.Getenv("FINDER_DEVICE_LAT") != "" && os.Getenv("FINDER_DEVICE_LON") != "",
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "eventfinder-api"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if err := cfg.Search.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the radius bounds are usable
func (c *SearchConfig) Validate() error {
	if c.MinRadiusKm < 1 {
		return fmt.Errorf("config: SEARCH_MIN_RADIUS_KM must be at least 1, got %d", c.MinRadiusKm)
	}
	if c.MaxRadiusKm < c.MinRadiusKm {
		return fmt.Errorf("config: SEARCH_MAX_RADIUS_KM (%d) is below SEARCH_MIN_RADIUS_KM (%d)", c.MaxRadiusKm, c.MinRadiusKm)
	}
	if c.DefaultRadiusKm < c.MinRadiusKm || c.DefaultRadiusKm > c.MaxRadiusKm {
		return fmt.Errorf("config: SEARCH_DEFAULT_RADIUS_KM (%d) outside [%d, %d]", c.DefaultRadiusKm, c.MinRadiusKm, c.MaxRadiusKm)
	}
	if c.SuggestionLimit < 1 {
		return fmt.Errorf("config: SEARCH_SUGGESTION_LIMIT must be positive")
	}
	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Addr returns the listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
