package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis" validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth" validate:"required"`
	LLM       LLMConfig       `mapstructure:"llm" validate:"required"`
	Cache     CacheConfig     `mapstructure:"cache" validate:"required"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port           int      `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel       string   `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig contains the durable store connection settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// RedisConfig points at the shared cache and rate-limit service.
type RedisConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains identity token validation settings.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName    string `mapstructure:"model_name" validate:"required"`
	MaxRetries   int    `mapstructure:"max_retries" validate:"gte=0,lte=5"`
	// BreakerMaxFailures consecutive failures open the circuit.
	BreakerMaxFailures  uint32 `mapstructure:"breaker_max_failures" validate:"gt=0"`
	BreakerResetSeconds int    `mapstructure:"breaker_reset_seconds" validate:"gt=0"`
}

// BreakerTimeout is how long the circuit stays open before probing again.
func (c LLMConfig) BreakerTimeout() time.Duration {
	return time.Duration(c.BreakerResetSeconds) * time.Second
}

// CacheConfig holds the per-use-case TTLs. The TTL of a namespace is also
// the maximum staleness a reader can observe if an invalidation is lost.
type CacheConfig struct {
	CourseDetailTTLSeconds int `mapstructure:"course_detail_ttl_seconds" validate:"gte=0"`
	CourseListTTLSeconds   int `mapstructure:"course_list_ttl_seconds" validate:"gte=0"`
	LessonListTTLSeconds   int `mapstructure:"lesson_list_ttl_seconds" validate:"gte=0"`
	ProgressTTLSeconds     int `mapstructure:"progress_ttl_seconds" validate:"gte=0"`
}

// CourseDetailTTL returns the course detail TTL as a duration.
func (c CacheConfig) CourseDetailTTL() time.Duration {
	return time.Duration(c.CourseDetailTTLSeconds) * time.Second
}

// CourseListTTL returns the course listing TTL as a duration.
func (c CacheConfig) CourseListTTL() time.Duration {
	return time.Duration(c.CourseListTTLSeconds) * time.Second
}

// LessonListTTL returns the lesson listing TTL as a duration.
func (c CacheConfig) LessonListTTL() time.Duration {
	return time.Duration(c.LessonListTTLSeconds) * time.Second
}

// ProgressTTL returns the course progress TTL as a duration.
func (c CacheConfig) ProgressTTL() time.Duration {
	return time.Duration(c.ProgressTTLSeconds) * time.Second
}

// RateLimitConfig holds one window policy per protected action.
type RateLimitConfig struct {
	LessonGeneration       WindowConfig `mapstructure:"lesson_generation" validate:"required"`
	PresentationGeneration WindowConfig `mapstructure:"presentation_generation" validate:"required"`
}

// WindowConfig is a sliding window ceiling.
type WindowConfig struct {
	Limit         int `mapstructure:"limit" validate:"gt=0"`
	WindowSeconds int `mapstructure:"window_seconds" validate:"gt=0"`
}

// Window returns the window length as a duration.
func (w WindowConfig) Window() time.Duration {
	return time.Duration(w.WindowSeconds) * time.Second
}
