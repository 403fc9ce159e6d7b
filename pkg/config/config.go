package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Simulation SimulationConfig
	Analysis   AnalysisConfig
	Narrator   NarratorConfig
	Directives DirectivesConfig
	Redis      RedisConfig
	NATS       NATSConfig
	CloudWatch CloudWatchConfig
	Archive    ArchiveConfig
	Security   SecurityConfig
	RateLimit  RateLimitConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type SimulationConfig struct {
	TickInterval   time.Duration
	WindowCapacity int
	UnitEnergyCost float64
	CurrencyRate   float64
	ProfileFile    string
}

type AnalysisConfig struct {
	Interval        time.Duration
	PeriodicSample  int
	OnDemandSample  int
	MinReadings     int
	StrictFreshness bool
}

type NarratorConfig struct {
	Enabled      bool
	BaseURL      string
	Model        string
	APIKey       string
	Timeout      time.Duration
	Temperature  float64
	PlantContext string
	CacheTTL     time.Duration
}

type DirectivesConfig struct {
	SeedFile string
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type NATSConfig struct {
	Enabled bool
	URL     string
}

type CloudWatchConfig struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string

	MetricsEnabled           bool
	MetricsNamespace         string
	MetricsDimensions        map[string]string
	MetricsBufferSize        int
	MetricsFlushInterval     time.Duration
	MetricsStorageResolution int32

	LogsEnabled       bool
	LogGroupName      string
	LogStreamName     string
	LogsBufferSize    int
	LogsFlushInterval time.Duration
}

type ArchiveConfig struct {
	Enabled         bool
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	KeyPrefix       string
}

type SecurityConfig struct {
	AllowedOrigins []string
	AuthEnabled    bool
	AuthToken      string
}

type RateLimitConfig struct {
	CommandsPerMinute int
	Burst             int
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	tickInterval, err := parseDuration(getEnv("SIMULATION_TICK_INTERVAL", "4s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SIMULATION_TICK_INTERVAL: %w", err)
	}

	windowCapacity, err := strconv.Atoi(getEnv("SIMULATION_WINDOW_CAPACITY", "24"))
	if err != nil {
		return nil, fmt.Errorf("invalid SIMULATION_WINDOW_CAPACITY: %w", err)
	}

	unitEnergyCost, err := strconv.ParseFloat(getEnv("SIMULATION_UNIT_ENERGY_COST", "0.085"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SIMULATION_UNIT_ENERGY_COST: %w", err)
	}

	currencyRate, err := strconv.ParseFloat(getEnv("SIMULATION_CURRENCY_RATE", "83"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SIMULATION_CURRENCY_RATE: %w", err)
	}

	analysisInterval, err := parseDuration(getEnv("ANALYSIS_INTERVAL", "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid ANALYSIS_INTERVAL: %w", err)
	}

	periodicSample, err := strconv.Atoi(getEnv("ANALYSIS_PERIODIC_SAMPLE", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid ANALYSIS_PERIODIC_SAMPLE: %w", err)
	}

	onDemandSample, err := strconv.Atoi(getEnv("ANALYSIS_ON_DEMAND_SAMPLE", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid ANALYSIS_ON_DEMAND_SAMPLE: %w", err)
	}

	minReadings, err := strconv.Atoi(getEnv("ANALYSIS_MIN_READINGS", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid ANALYSIS_MIN_READINGS: %w", err)
	}

	narratorTimeout, err := parseDuration(getEnv("NARRATOR_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid NARRATOR_TIMEOUT: %w", err)
	}

	narratorTemperature, err := strconv.ParseFloat(getEnv("NARRATOR_TEMPERATURE", "0.2"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid NARRATOR_TEMPERATURE: %w", err)
	}

	narratorCacheTTL, err := parseDuration(getEnv("NARRATOR_CACHE_TTL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid NARRATOR_CACHE_TTL: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	metricsBufferSize, err := strconv.Atoi(getEnv("CLOUDWATCH_METRICS_BUFFER_SIZE", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLOUDWATCH_METRICS_BUFFER_SIZE: %w", err)
	}

	metricsFlushInterval, err := parseDuration(getEnv("CLOUDWATCH_METRICS_FLUSH_INTERVAL", "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLOUDWATCH_METRICS_FLUSH_INTERVAL: %w", err)
	}

	storageResolution, err := strconv.Atoi(getEnv("CLOUDWATCH_METRICS_STORAGE_RESOLUTION", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLOUDWATCH_METRICS_STORAGE_RESOLUTION: %w", err)
	}

	logsBufferSize, err := strconv.Atoi(getEnv("CLOUDWATCH_LOGS_BUFFER_SIZE", "50"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLOUDWATCH_LOGS_BUFFER_SIZE: %w", err)
	}

	logsFlushInterval, err := parseDuration(getEnv("CLOUDWATCH_LOGS_FLUSH_INTERVAL", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLOUDWATCH_LOGS_FLUSH_INTERVAL: %w", err)
	}

	commandsPerMinute, err := strconv.Atoi(getEnv("RATE_LIMIT_COMMANDS_PER_MINUTE", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_COMMANDS_PER_MINUTE: %w", err)
	}

	commandBurst, err := strconv.Atoi(getEnv("RATE_LIMIT_COMMAND_BURST", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_COMMAND_BURST: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Simulation: SimulationConfig{
			TickInterval:   tickInterval,
			WindowCapacity: windowCapacity,
			UnitEnergyCost: unitEnergyCost,
			CurrencyRate:   currencyRate,
			ProfileFile:    getEnv("SIMULATION_PROFILE_FILE", ""),
		},
		Analysis: AnalysisConfig{
			Interval:        analysisInterval,
			PeriodicSample:  periodicSample,
			OnDemandSample:  onDemandSample,
			MinReadings:     minReadings,
			StrictFreshness: getEnvBool("ANALYSIS_STRICT_FRESHNESS", false),
		},
		Narrator: NarratorConfig{
			Enabled:      getEnvBool("NARRATOR_ENABLED", true),
			BaseURL:      getEnv("NARRATOR_BASE_URL", "https://generativelanguage.googleapis.com"),
			Model:        getEnv("NARRATOR_MODEL", "gemini-3-flash-preview"),
			APIKey:       getEnv("NARRATOR_API_KEY", os.Getenv("GEMINI_API_KEY")),
			Timeout:      narratorTimeout,
			Temperature:  narratorTemperature,
			PlantContext: getEnv("NARRATOR_PLANT_CONTEXT", "Operating 3 units at Bharat Energy Dynamics Plant A-4. PSU Standard Energy Audit in progress."),
			CacheTTL:     narratorCacheTTL,
		},
		Directives: DirectivesConfig{
			SeedFile: getEnv("DIRECTIVES_SEED_FILE", ""),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		NATS: NATSConfig{
			Enabled: getEnvBool("NATS_ENABLED", false),
			URL:     getEnv("NATS_URL", "nats://localhost:4222"),
		},
		CloudWatch: CloudWatchConfig{
			Region:                   getEnv("CLOUDWATCH_REGION", "us-east-1"),
			Endpoint:                 getEnv("CLOUDWATCH_ENDPOINT", ""),
			AccessKeyID:              getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:          getEnv("AWS_SECRET_ACCESS_KEY", ""),
			MetricsEnabled:           getEnvBool("CLOUDWATCH_METRICS_ENABLED", false),
			MetricsNamespace:         getEnv("CLOUDWATCH_METRICS_NAMESPACE", "CompressorConsole"),
			MetricsDimensions:        parseDimensions(getEnv("CLOUDWATCH_METRICS_DIMENSIONS", "Plant=A-4")),
			MetricsBufferSize:        metricsBufferSize,
			MetricsFlushInterval:     metricsFlushInterval,
			MetricsStorageResolution: int32(storageResolution),
			LogsEnabled:              getEnvBool("CLOUDWATCH_LOGS_ENABLED", false),
			LogGroupName:             getEnv("CLOUDWATCH_LOG_GROUP", "/compressor-console"),
			LogStreamName:            getEnv("CLOUDWATCH_LOG_STREAM", "console"),
			LogsBufferSize:           logsBufferSize,
			LogsFlushInterval:        logsFlushInterval,
		},
		Archive: ArchiveConfig{
			Enabled:         getEnvBool("ARCHIVE_ENABLED", false),
			Bucket:          getEnv("ARCHIVE_BUCKET", ""),
			Region:          getEnv("ARCHIVE_REGION", "us-east-1"),
			Endpoint:        getEnv("ARCHIVE_ENDPOINT", ""),
			AccessKeyID:     getEnv("ARCHIVE_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("ARCHIVE_SECRET_ACCESS_KEY", ""),
			UsePathStyle:    getEnvBool("ARCHIVE_USE_PATH_STYLE", true),
			KeyPrefix:       getEnv("ARCHIVE_KEY_PREFIX", "handover"),
		},
		Security: SecurityConfig{
			AllowedOrigins: splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:8080,http://127.0.0.1:8080")),
			AuthEnabled:    getEnvBool("AUTH_ENABLED", false),
			AuthToken:      getEnv("AUTH_BEARER_TOKEN", ""),
		},
		RateLimit: RateLimitConfig{
			CommandsPerMinute: commandsPerMinute,
			Burst:             commandBurst,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет согласованность параметров
func (c *Config) Validate() error {
	if c.Security.AuthEnabled && c.Security.AuthToken == "" {
		return fmt.Errorf("AUTH_BEARER_TOKEN is required when AUTH_ENABLED=true")
	}
	if c.Simulation.TickInterval <= 0 {
		return fmt.Errorf("SIMULATION_TICK_INTERVAL must be positive")
	}
	if c.Simulation.WindowCapacity <= 0 {
		return fmt.Errorf("SIMULATION_WINDOW_CAPACITY must be positive")
	}
	if c.Analysis.Interval <= 0 {
		return fmt.Errorf("ANALYSIS_INTERVAL must be positive")
	}
	if c.Analysis.PeriodicSample <= 0 || c.Analysis.OnDemandSample <= 0 {
		return fmt.Errorf("analysis sample sizes must be positive")
	}
	if c.Archive.Enabled && c.Archive.Bucket == "" {
		return fmt.Errorf("ARCHIVE_BUCKET is required when ARCHIVE_ENABLED=true")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}

func splitCSV(raw string) []string {
	items := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if item := strings.TrimSpace(part); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// parseDimensions разбирает строку вида "Key1=Value1,Key2=Value2"
func parseDimensions(raw string) map[string]string {
	dims := make(map[string]string)
	for _, item := range splitCSV(raw) {
		key, value, ok := strings.Cut(item, "=")
		if !ok || key == "" {
			continue
		}
		dims[key] = value
	}
	return dims
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}
