package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage providers supported for resume uploads.
const (
	StorageCloudinary = "cloudinary"
	StorageMinio      = "minio"
	StorageNone       = "none"
)

// AI providers.
const (
	AIProviderGemini = "gemini"
	AIProviderOpenAI = "openai"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName   string
	AppEnv    string
	AppPort   string
	LogLevel  string
	LogFormat string

	CORSOrigins string
	MetricsPath string

	DatabaseURL string
	RedisURL    string
	NATSURL     string

	JWTSecret        string
	JWTRefreshSecret string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	SessionCookie    string
	SecureCookies    bool

	AIProvider       string
	AIModel          string
	AIRequestTimeout time.Duration
	OpenAIAPIKey     string
	GeminiProject    string
	GeminiLocation   string
	GeminiCredsFile  string

	MinResumeChars int
	DemoDelay      time.Duration
	AnalyzeLimit   int
	AnalyzeWindow  time.Duration
	MaxResumeBytes int64
	JobCacheTTL    time.Duration

	StorageProvider     string
	StorageTimeout      time.Duration
	ResumeBucket        string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	MinioEndpoint       string
	MinioAccessKey      string
	MinioSecretKey      string
	MinioUseSSL         bool
	MinioPublicBaseURL  string

	DockerHost       string
	SandboxEnabled   bool
	SandboxTimeout   time.Duration
	SandboxMemoryMB  int
	SandboxCPUShares int
	EventBufferSize  int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GCC_PULSE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "GCC-Pulse API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("http.cors_origins", "*")
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("database.url", "sqlite:file:gcc_pulse.db?_foreign_keys=on")
	v.SetDefault("session.access_ttl", "1h")
	v.SetDefault("session.refresh_ttl", "168h")
	v.SetDefault("session.cookie", "gcc_session")
	v.SetDefault("ai.provider", AIProviderGemini)
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.request_timeout", "60s")
	v.SetDefault("gemini.location", "us-central1")
	v.SetDefault("analysis.min_resume_chars", 50)
	v.SetDefault("analysis.demo_delay", "2s")
	v.SetDefault("analysis.rate_limit", 10)
	v.SetDefault("analysis.rate_window", "1m")
	v.SetDefault("analysis.max_file_bytes", 10*1024*1024)
	v.SetDefault("cache.jobs_ttl", "2m")
	v.SetDefault("storage.provider", StorageCloudinary)
	v.SetDefault("storage.timeout", "30s")
	v.SetDefault("storage.bucket", "resumes")
	v.SetDefault("sandbox.enabled", false)
	v.SetDefault("sandbox.timeout", "5s")
	v.SetDefault("sandbox.memory_mb", 256)
	v.SetDefault("sandbox.cpu_shares", 512)
	v.SetDefault("events.buffer", 32)

	durations := map[string]time.Duration{}
	for _, key := range []string{
		"session.access_ttl",
		"session.refresh_ttl",
		"ai.request_timeout",
		"analysis.demo_delay",
		"analysis.rate_window",
		"cache.jobs_ttl",
		"storage.timeout",
		"sandbox.timeout",
	} {
		parsed, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid duration for %s: %w", key, err)
		}
		durations[key] = parsed
	}

	cfg := Config{
		AppName:   v.GetString("app.name"),
		AppEnv:    v.GetString("app.env"),
		AppPort:   v.GetString("app.port"),
		LogLevel:  strings.ToLower(v.GetString("logging.level")),
		LogFormat: strings.ToLower(v.GetString("logging.format")),

		CORSOrigins: v.GetString("http.cors_origins"),
		MetricsPath: v.GetString("metrics.path"),

		DatabaseURL: v.GetString("database.url"),
		RedisURL:    v.GetString("redis.url"),
		NATSURL:     v.GetString("nats.url"),

		JWTSecret:        v.GetString("jwt.secret"),
		JWTRefreshSecret: v.GetString("jwt.refresh_secret"),
		AccessTokenTTL:   durations["session.access_ttl"],
		RefreshTokenTTL:  durations["session.refresh_ttl"],
		SessionCookie:    v.GetString("session.cookie"),

		AIProvider:       strings.ToLower(v.GetString("ai.provider")),
		AIModel:          v.GetString("ai.model"),
		AIRequestTimeout: durations["ai.request_timeout"],
		OpenAIAPIKey:     v.GetString("openai.api_key"),
		GeminiProject:    v.GetString("gemini.project"),
		GeminiLocation:   v.GetString("gemini.location"),
		GeminiCredsFile:  v.GetString("gemini.credentials_file"),

		MinResumeChars: v.GetInt("analysis.min_resume_chars"),
		DemoDelay:      durations["analysis.demo_delay"],
		AnalyzeLimit:   v.GetInt("analysis.rate_limit"),
		AnalyzeWindow:  durations["analysis.rate_window"],
		MaxResumeBytes: v.GetInt64("analysis.max_file_bytes"),
		JobCacheTTL:    durations["cache.jobs_ttl"],

		StorageProvider:     strings.ToLower(v.GetString("storage.provider")),
		StorageTimeout:      durations["storage.timeout"],
		ResumeBucket:        v.GetString("storage.bucket"),
		CloudinaryCloudName: v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:    v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret: v.GetString("cloudinary.api_secret"),
		MinioEndpoint:       v.GetString("minio.endpoint"),
		MinioAccessKey:      v.GetString("minio.access_key"),
		MinioSecretKey:      v.GetString("minio.secret_key"),
		MinioUseSSL:         v.GetBool("minio.use_ssl"),
		MinioPublicBaseURL:  v.GetString("minio.public_base_url"),

		DockerHost:       v.GetString("docker_host"),
		SandboxEnabled:   v.GetBool("sandbox.enabled"),
		SandboxTimeout:   durations["sandbox.timeout"],
		SandboxMemoryMB:  v.GetInt("sandbox.memory_mb"),
		SandboxCPUShares: v.GetInt("sandbox.cpu_shares"),
		EventBufferSize:  v.GetInt("events.buffer"),
	}
	cfg.SecureCookies = cfg.IsProduction()

	if cfg.JWTSecret == "" || cfg.JWTRefreshSecret == "" {
		return Config{}, fmt.Errorf("jwt secrets must be provided")
	}

	switch cfg.StorageProvider {
	case StorageCloudinary, StorageMinio, StorageNone:
	default:
		return Config{}, fmt.Errorf("unsupported storage provider %q", cfg.StorageProvider)
	}

	switch cfg.AIProvider {
	case AIProviderGemini, AIProviderOpenAI:
	default:
		return Config{}, fmt.Errorf("unsupported ai provider %q", cfg.AIProvider)
	}

	if cfg.MinResumeChars <= 0 {
		cfg.MinResumeChars = 50
	}
	if cfg.MaxResumeBytes <= 0 {
		cfg.MaxResumeBytes = 10 * 1024 * 1024
	}
	if cfg.SandboxMemoryMB <= 0 {
		cfg.SandboxMemoryMB = 256
	}
	if cfg.SandboxCPUShares <= 0 {
		cfg.SandboxCPUShares = 512
	}
	if cfg.EventBufferSize <= 0 {
		cfg.EventBufferSize = 32
	}
	cfg.MetricsPath = strings.TrimSpace(cfg.MetricsPath)
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	if !strings.HasPrefix(cfg.MetricsPath, "/") {
		cfg.MetricsPath = "/" + cfg.MetricsPath
	}
	if strings.HasPrefix(cfg.MetricsPath, "/api/") {
		return Config{}, fmt.Errorf("metrics path %q collides with the api prefix", cfg.MetricsPath)
	}

	return cfg, nil
}
