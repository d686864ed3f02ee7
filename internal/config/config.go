// Package config loads server and client settings from the environment.
// A .env file in the working directory is read first when present; real
// environment variables take precedence over it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Server holds the backend's settings.
type Server struct {
	Addr          string
	DBPath        string
	JWTSecret     string
	TokenDuration time.Duration
	// AllowedOrigin is sent in CORS responses; empty disables CORS.
	AllowedOrigin string
}

// Client holds the offline client's settings.
type Client struct {
	ServerURL      string
	DataPath       string
	FetchTimeout   time.Duration
	PrefetchPacing time.Duration
	ProbeInterval  time.Duration
	ScanEndpoint   string
	ScanDailyLimit int
	// PredictEndpoint suggests expense categories; empty disables it.
	PredictEndpoint string
}

// LoadEnvFile reads path (".env" when empty) into the process environment
// without overriding variables that are already set. A missing file is
// not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// LoadServer reads the server settings.
func LoadServer() (*Server, error) {
	if err := LoadEnvFile(os.Getenv("ENV_FILE")); err != nil {
		return nil, err
	}
	cfg := &Server{
		Addr:          getEnv("ADDR", ":8080"),
		DBPath:        getEnv("DB_PATH", "./data/verdant.db"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		AllowedOrigin: os.Getenv("CORS_ORIGIN"),
	}
	var err error
	if cfg.TokenDuration, err = getDuration("TOKEN_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required")
	}
	return cfg, nil
}

// LoadClient reads the client settings.
func LoadClient() (*Client, error) {
	if err := LoadEnvFile(os.Getenv("ENV_FILE")); err != nil {
		return nil, err
	}
	cfg := &Client{
		ServerURL:       getEnv("VERDANT_SERVER", "http://localhost:8080"),
		DataPath:        getEnv("VERDANT_DATA", defaultDataPath()),
		ScanEndpoint:    os.Getenv("SCAN_ENDPOINT"),
		PredictEndpoint: os.Getenv("PREDICT_ENDPOINT"),
	}
	var err error
	if cfg.FetchTimeout, err = getDuration("FETCH_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.PrefetchPacing, err = getDuration("PREFETCH_PACING", 100*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.ProbeInterval, err = getDuration("PROBE_INTERVAL", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.ScanDailyLimit, err = getInt("SCAN_DAILY_LIMIT", 3); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultDataPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "./verdant-local.db"
	}
	return dir + "/verdant/local.db"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: invalid number %q", key, v)
	}
	return n, nil
}
