package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/ZanzyTHEbar/profile-insights/internal/adapters"
	"github.com/ZanzyTHEbar/profile-insights/internal/errors"
)

// AnalyticsConfig locates the upstream analytics service
type AnalyticsConfig struct {
	BaseURL   string        `validate:"required,url"`
	APIPrefix string        `validate:"omitempty,startswith=/"`
	Timeout   time.Duration `validate:"min=1s"`
}

type ServerConfig struct {
	Port        string   `validate:"required,numeric"`
	GinMode     string   `validate:"oneof=debug release test"`
	LogLevel    string   `validate:"oneof=debug info warn error"`
	CORSOrigins []string `validate:"min=1,dive,required"`
	EnableHSTS  bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int `validate:"min=0,max=15"`
}

type RateLimitConfig struct {
	ProfilePerMin int `validate:"min=1"`
	ComparePerMin int `validate:"min=1"`
}

type Config struct {
	Analytics AnalyticsConfig
	Server    ServerConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
}

// Load reads the environment, after merging a .env file when one exists.
// Variables already set in the environment win over the file.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !stderrors.Is(err, os.ErrNotExist) {
		return nil, errors.NewConfigurationError("failed to load .env file", err)
	}
	return FromEnv()
}

// FromEnv builds and validates the configuration from the environment only
func FromEnv() (*Config, error) {
	timeout, err := getDurationOrDefault("ANALYTICS_TIMEOUT", adapters.DefaultTimeout)
	if err != nil {
		return nil, err
	}
	redisDB, err := getIntOrDefault("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	profileRate, err := getIntOrDefault("PROFILE_RATE_PER_MIN", 10)
	if err != nil {
		return nil, err
	}
	compareRate, err := getIntOrDefault("COMPARE_RATE_PER_MIN", 5)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Analytics: AnalyticsConfig{
			BaseURL:   strings.TrimRight(getEnvOrDefault("ANALYTICS_BASE_URL", adapters.DefaultBaseURL), "/"),
			APIPrefix: getEnvOrDefault("ANALYTICS_API_PREFIX", adapters.DefaultAPIPrefix),
			Timeout:   timeout,
		},
		Server: ServerConfig{
			Port:        getEnvOrDefault("PORT", "8080"),
			GinMode:     getEnvOrDefault("GIN_MODE", "release"),
			LogLevel:    strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
			CORSOrigins: splitList(getEnvOrDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")),
			EnableHSTS:  strings.EqualFold(os.Getenv("ENABLE_HSTS"), "true"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		RateLimit: RateLimitConfig{
			ProfilePerMin: profileRate,
			ComparePerMin: compareRate,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and reports every violation at once
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.NewConfigurationError("invalid configuration", err)
	}

	problems := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		problems[fe.Namespace()] = fmt.Sprintf("failed %q", fe.Tag())
	}
	return errors.NewConfigurationErrorWithMap(problems, err)
}

// Address is the listen address for the HTTP server
func (c *Config) Address() string {
	return ":" + c.Server.Port
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) (int, error) {
	raw := getEnvOrDefault(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewConfigurationError(fmt.Sprintf("%s must be an integer", key), err)
	}
	return v, nil
}

// getDurationOrDefault accepts Go durations ("30s") or plain seconds ("30")
func getDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnvOrDefault(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errors.NewConfigurationError(fmt.Sprintf("%s must be a duration", key), err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
