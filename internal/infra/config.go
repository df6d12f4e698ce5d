package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"garmentedit/internal/domain"
	"garmentedit/internal/imaging"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	OpenAIOrg          string
	VisionModel        string
	ImageModel         string
	ImageSize          string
	ImageWidth         int
	ImageHeight        int
	UpstreamTimeout    time.Duration
	OutputDir          string
	PublicBaseURL      string
	MaxUploadBytes     int64
	APIKey             string
	CORSAllowedOrigins []string
	RateLimitPerMin    int
	DatabaseURL        string
	GeoIPDBPath        string
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "3000")
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               port,
		OpenAIAPIKey:       strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:          os.Getenv("OPENAI_ORG"),
		VisionModel:        getEnv("VISION_MODEL", "gpt-4o-mini"),
		ImageModel:         getEnv("IMAGE_MODEL", "dall-e-3"),
		ImageSize:          getEnv("IMAGE_SIZE", "1024x1024"),
		UpstreamTimeout:    time.Second * time.Duration(getEnvInt("UPSTREAM_TIMEOUT_SECONDS", 120)),
		OutputDir:          getEnv("OUTPUT_DIR", "./outputs"),
		PublicBaseURL:      strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:"+port), "/"),
		MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_MB", 20)) << 20,
		APIKey:             strings.TrimSpace(os.Getenv("API_KEY")),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 180)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY is required", domain.ErrConfig)
	}

	w, h, err := imaging.ParseSize(cfg.ImageSize)
	if err != nil {
		return nil, fmt.Errorf("IMAGE_SIZE: %w", err)
	}
	cfg.ImageWidth, cfg.ImageHeight = w, h

	if cfg.UpstreamTimeout <= 0 {
		return nil, fmt.Errorf("%w: UPSTREAM_TIMEOUT_SECONDS must be positive", domain.ErrConfig)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
