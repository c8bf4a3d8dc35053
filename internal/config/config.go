package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the backend proxy configuration.
type Config struct {
	Port         string
	GeminiAPIKey string
	TextModel    string
	ImageModel   string
	VideoModel   string
	LogFile      string
	LogLevel     string
	// ClientCacheSize bounds the provider clients kept for caller keys.
	ClientCacheSize int
	// VideoJobTTL bounds how long finished or abandoned video jobs are kept.
	VideoJobTTL time.Duration
}

func Load() Config {
	return Config{
		Port:         getenv("PORT", "5000"),
		GeminiAPIKey: getenv("GEMINI_API_KEY", getenv("API_KEY", "")),
		TextModel:    getenv("TEXT_MODEL", "gemini-3-flash-preview"),
		ImageModel:   getenv("IMAGE_MODEL", "gemini-2.5-flash-image"),
		VideoModel:   getenv("VIDEO_MODEL", "veo-3.1-fast-generate-preview"),
		LogFile:      getenv("LOG_FILE", ""),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		VideoJobTTL:  getduration("VIDEO_JOB_TTL", time.Hour),

		ClientCacheSize: getint("GEMINI_CLIENT_CACHE", 64),
	}
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getint(k string, d int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil && n > 0 {
		return n
	}
	return d
}

func getduration(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if p, err := time.ParseDuration(v); err == nil {
		return p
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return d
}
