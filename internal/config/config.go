package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	Redis        RedisConfig
	AI           AIConfig
	Storage      StorageConfig
	Tracing      TracingConfig      `mapstructure:"tracing"`
	CORS         CORSConfig         `mapstructure:"cors"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	Assessment   AssessmentConfig   `mapstructure:"assessment"`
	Interference InterferenceConfig `mapstructure:"interference"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"`
	MigrateOnly  bool `mapstructure:"-"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AIConfig 外部 AI 评分服务。超时内未返回即降级，绝不重试。
type AIConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

func (c AIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type StorageConfig struct {
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	MinioUseSSL   bool   `mapstructure:"minio_use_ssl"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

// PlacementBand 定级答对数 → CEFR 区间的映射行
type PlacementBand struct {
	MaxCorrect int    `mapstructure:"max_correct"`
	Bracket    string `mapstructure:"bracket"`
}

// AssessmentConfig 测评策略表。区间边界是策略而非算法约定，
// 调整时不需要改动状态机代码，支持热更新。
type AssessmentConfig struct {
	PlacementBands           []PlacementBand `mapstructure:"placement_bands"`
	SublevelCutoffs          []float64       `mapstructure:"sublevel_cutoffs"`
	ReviewRecomputeThreshold int             `mapstructure:"review_recompute_threshold"`
}

type InterferenceConfig struct {
	OvercomeStreak int `mapstructure:"overcome_streak"`
}

// BracketFor 根据答对数查策略表，返回 CEFR 区间
func (c AssessmentConfig) BracketFor(correct int) string {
	bands := make([]PlacementBand, len(c.PlacementBands))
	copy(bands, c.PlacementBands)
	sort.Slice(bands, func(i, j int) bool { return bands[i].MaxCorrect < bands[j].MaxCorrect })

	for _, b := range bands {
		if correct <= b.MaxCorrect {
			return b.Bracket
		}
	}
	if len(bands) > 0 {
		return bands[len(bands)-1].Bracket
	}
	return ""
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("ai.timeout_seconds", 3)
	viper.SetDefault("assessment.review_recompute_threshold", 20)
	viper.SetDefault("assessment.sublevel_cutoffs", []float64{0.4, 0.75})
	viper.SetDefault("interference.overcome_streak", 5)
	viper.SetDefault("rate_limit.max_requests", 100000)
	viper.SetDefault("rate_limit.window_minutes", 1)
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("LINGUA_EDU")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// AI 评分服务
	viper.BindEnv("ai.base_url", "AI_BASE_URL")
	viper.BindEnv("ai.api_key", "AI_API_KEY")
	viper.BindEnv("ai.model", "AI_MODEL")
	viper.BindEnv("ai.timeout_seconds", "AI_TIMEOUT_SECONDS")

	// Storage
	viper.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if len(cfg.Assessment.PlacementBands) == 0 {
		cfg.Assessment.PlacementBands = DefaultPlacementBands()
	}

	return &cfg, nil
}

// DefaultPlacementBands 默认定级区间表：低分段落在低区间，高分段落在高区间
func DefaultPlacementBands() []PlacementBand {
	return []PlacementBand{
		{MaxCorrect: 1, Bracket: "A1-A2"},
		{MaxCorrect: 2, Bracket: "A2-B1"},
		{MaxCorrect: 3, Bracket: "B1-B2"},
		{MaxCorrect: 4, Bracket: "B2-C1"},
		{MaxCorrect: 5, Bracket: "C1-C2"},
	}
}
