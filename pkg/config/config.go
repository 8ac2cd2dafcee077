package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env  string
	Port int

	TypeDB TypeDBConfig
	Redis  RedisConfig
	JWT    JWTConfig
	CORS   CORSConfig
	Log    LogConfig
	Sweeps SweepsConfig
	Invite InviteConfig
}

// TypeDBConfig holds the graph server connection and bootstrap settings.
type TypeDBConfig struct {
	ServerAddr      string
	Name            string
	Username        string
	DefaultPassword string
	NewPassword     string
	ResetDB         bool
	MaxAttempts     int
	InitialDelay    time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Enabled  bool
	CacheTTL time.Duration
}

type JWTConfig struct {
	SecretKey  string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SweepsConfig controls the periodic consensus sweeps (end-of-term reviews
// and auto-approvals). The sweeps stay idempotent; this only sets cadence.
type SweepsConfig struct {
	Enabled  bool
	Schedule string
}

// InviteConfig tunes invite key issuance.
type InviteConfig struct {
	TTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

	cfg.TypeDB = TypeDBConfig{
		ServerAddr:      v.GetString("TYPEDB_SERVER_ADDR"),
		Name:            v.GetString("TYPEDB_NAME"),
		Username:        v.GetString("TYPEDB_USERNAME"),
		DefaultPassword: v.GetString("TYPEDB_DEFAULT_PASSWORD"),
		NewPassword:     v.GetString("TYPEDB_NEW_PASSWORD"),
		ResetDB:         v.GetBool("RESET_DB"),
		MaxAttempts:     v.GetInt("TYPEDB_MAX_ATTEMPTS"),
		InitialDelay:    parseDuration(v.GetString("TYPEDB_INITIAL_DELAY"), 500*time.Millisecond),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		Enabled:  v.GetBool("ENABLE_REDIS_CACHE"),
		CacheTTL: parseDuration(v.GetString("PORTFOLIO_CACHE_TTL"), 10*time.Minute),
	}

	cfg.JWT = JWTConfig{
		SecretKey:  v.GetString("JWT_SECRET_KEY"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Sweeps = SweepsConfig{
		Enabled:  v.GetBool("ENABLE_CONSENSUS_SWEEPS"),
		Schedule: v.GetString("CONSENSUS_SWEEP_SCHEDULE"),
	}

	cfg.Invite = InviteConfig{
		TTL: parseDuration(v.GetString("INVITE_KEY_TTL"), 7*24*time.Hour),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)

	v.SetDefault("TYPEDB_SERVER_ADDR", "localhost:8000")
	v.SetDefault("TYPEDB_NAME", "skillmatch")
	v.SetDefault("TYPEDB_USERNAME", "admin")
	v.SetDefault("TYPEDB_DEFAULT_PASSWORD", "password")
	v.SetDefault("TYPEDB_NEW_PASSWORD", "password")
	v.SetDefault("RESET_DB", false)
	v.SetDefault("TYPEDB_MAX_ATTEMPTS", 10)
	v.SetDefault("TYPEDB_INITIAL_DELAY", "500ms")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ENABLE_REDIS_CACHE", false)
	v.SetDefault("PORTFOLIO_CACHE_TTL", "10m")

	v.SetDefault("JWT_SECRET_KEY", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CONSENSUS_SWEEPS", true)
	v.SetDefault("CONSENSUS_SWEEP_SCHEDULE", "@every 15m")

	v.SetDefault("INVITE_KEY_TTL", "168h")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
