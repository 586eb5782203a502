package config

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/busnow/api/internal/upstream"
)

// DefaultUserAgent is sent to the Gyeonggi feed, which rejects Go's default
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// gyeonggiHeaders complete the browser identity the Gyeonggi feed expects
var gyeonggiHeaders = map[string]string{
	"Accept":          "application/json, text/xml, */*",
	"Accept-Language": "ko-KR,ko;q=0.9,en;q=0.8",
	"Cache-Control":   "no-cache",
}

// Placeholder values shipped in .env.example; treated as unset
var placeholderKeys = map[string]bool{
	"your-decoded-api-key-here": true,
	"your-encoded-api-key-here": true,
}

// Config holds all configuration for the API service
type Config struct {
	// Server
	Port               string   `validate:"required,numeric"`
	StaticDir          string   `validate:"omitempty,dir"`
	CORSAllowedOrigins []string `validate:"dive,required"`
	Environment        string   `validate:"required"`
	Debug              bool

	// Database: Postgres when DatabaseURL is set, SQLite otherwise
	DatabasePath string `validate:"required_without=DatabaseURL"`
	DatabaseURL  string `validate:"omitempty,url"`

	// data.go.kr service keys
	DecodedAPIKey string
	EncodedAPIKey string

	// Upstream feeds
	SeoulRoutesURL     string        `validate:"required,url"`
	SeoulArrivalsURL   string        `validate:"required,url"`
	GyeonggiArrivalURL string        `validate:"required,url"`
	UpstreamTimeout    time.Duration `validate:"min=1s"`

	// Gyeonggi transport workaround
	GyeonggiForcePlaintext     bool
	GyeonggiInsecureSkipVerify bool
	GyeonggiUserAgent          string

	// Proximity search
	NearbyRadiusMeters float64 `validate:"gt=0"`
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		// Server
		Port:               getEnv("PORT", "8081"),
		StaticDir:          getEnv("STATIC_DIR", ""),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		Environment:        getEnv("ENVIRONMENT", "development"),
		Debug:              getEnvBool("DEBUG", false),

		// Database
		DatabasePath: getEnv("SQLITE_DATABASE", "./data/stations.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		// data.go.kr service keys
		DecodedAPIKey: getEnv("DECODED_DATA_API_KEY", ""),
		EncodedAPIKey: getEnv("ENCODED_DATA_API_KEY", ""),

		// Upstream feeds
		SeoulRoutesURL:     getEnv("SEL_ROUTES_URL", "http://ws.bus.go.kr/api/rest/stationinfo/getRouteByStation"),
		SeoulArrivalsURL:   getEnv("SEL_ARRIVALS_URL", "http://ws.bus.go.kr/api/rest/stationinfo/getStationByUid"),
		GyeonggiArrivalURL: getEnv("KYG_ARRIVALS_URL", "https://apis.data.go.kr/6410000/busarrivalservice/v2/getBusArrivalListv2"),
		UpstreamTimeout:    time.Duration(getEnvInt("UPSTREAM_TIMEOUT_SECONDS", 10)) * time.Second,

		// Gyeonggi transport workaround
		GyeonggiForcePlaintext:     getEnvBool("KYG_FORCE_PLAINTEXT", true),
		GyeonggiInsecureSkipVerify: getEnvBool("KYG_INSECURE_SKIP_VERIFY", true),
		GyeonggiUserAgent:          getEnv("KYG_USER_AGENT", DefaultUserAgent),

		// Proximity search
		NearbyRadiusMeters: getEnvFloat("NEARBY_RADIUS_METERS", 300),
	}
}

// Validate checks the loaded values
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ServiceKey returns the key to send as the serviceKey query parameter.
// The decoded key is preferred since the query encoder escapes it; the
// encoded form is unescaped as a fallback.
func (c *Config) ServiceKey() string {
	if isConfigured(c.DecodedAPIKey) {
		return c.DecodedAPIKey
	}
	if isConfigured(c.EncodedAPIKey) {
		if decoded, err := url.QueryUnescape(c.EncodedAPIKey); err == nil {
			return decoded
		}
		return c.EncodedAPIKey
	}
	return ""
}

// GyeonggiTransport returns the transport workaround for the Gyeonggi feed
func (c *Config) GyeonggiTransport() *upstream.LegacyTransport {
	header := make(http.Header, len(gyeonggiHeaders))
	for k, v := range gyeonggiHeaders {
		header.Set(k, v)
	}
	return &upstream.LegacyTransport{
		ForcePlaintext:     c.GyeonggiForcePlaintext,
		InsecureSkipVerify: c.GyeonggiInsecureSkipVerify,
		UserAgent:          c.GyeonggiUserAgent,
		Header:             header,
	}
}

// DatabaseDriver names the station store in use
func (c *Config) DatabaseDriver() string {
	if c.DatabaseURL != "" {
		return "postgres"
	}
	return "sqlite"
}

// KeyStatus reports which data.go.kr keys are configured
type KeyStatus struct {
	AvailableKeys   map[string]bool `json:"availableKeys"`
	MissingKeys     []string        `json:"missingKeys"`
	TotalConfigured int             `json:"totalConfigured"`
	TotalRequired   int             `json:"totalRequired"`
}

// Status is the body of the config status endpoint. It never includes key values.
type Status struct {
	Environment string    `json:"environment"`
	Debug       bool      `json:"debug"`
	Database    string    `json:"database"`
	APIKeys     KeyStatus `json:"apiKeys"`
}

// Status summarizes the configuration for the config status endpoint
func (c *Config) Status() Status {
	keys := []struct {
		name  string
		value string
	}{
		{"DECODED_DATA_API_KEY", c.DecodedAPIKey},
		{"ENCODED_DATA_API_KEY", c.EncodedAPIKey},
	}

	ks := KeyStatus{
		AvailableKeys: make(map[string]bool, len(keys)),
		MissingKeys:   []string{},
		TotalRequired: len(keys),
	}
	for _, k := range keys {
		ok := isConfigured(k.value)
		ks.AvailableKeys[k.name] = ok
		if ok {
			ks.TotalConfigured++
		} else {
			ks.MissingKeys = append(ks.MissingKeys, k.name)
		}
	}

	return Status{
		Environment: c.Environment,
		Debug:       c.Debug,
		Database:    c.DatabaseDriver(),
		APIKeys:     ks,
	}
}

func isConfigured(key string) bool {
	key = strings.TrimSpace(key)
	return key != "" && !placeholderKeys[key]
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
