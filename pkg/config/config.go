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
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Payroll  PayrollConfig
	Payout   PayoutConfig
	Exports  ExportsConfig
	Salaries SalariesConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// PayrollConfig carries the reconciliation constants that would otherwise
// live as module-level lookups. Passing them explicitly keeps per-teacher
// computations free of shared state.
type PayrollConfig struct {
	WorkingDaysPerMonth   int
	DefaultLatenessBase   int64
	DefaultAbsenceBase    int64
	NonTeachingWeekday    time.Weekday
	IncludeNonTeachingDay bool
}

// PayoutConfig configures the external payment gateway and its retry budget.
type PayoutConfig struct {
	ServerKey     string
	Production    bool
	Currency      string
	RetryAttempts int
	RetryBaseWait time.Duration
}

// ExportsConfig governs asynchronous payroll export generation.
type ExportsConfig struct {
	Enabled           bool
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

// SalariesConfig tunes the payroll query surface.
type SalariesConfig struct {
	CacheTTL time.Duration
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
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Payroll = PayrollConfig{
		WorkingDaysPerMonth:   v.GetInt("PAYROLL_WORKING_DAYS_PER_MONTH"),
		DefaultLatenessBase:   v.GetInt64("PAYROLL_DEFAULT_LATENESS_BASE"),
		DefaultAbsenceBase:    v.GetInt64("PAYROLL_DEFAULT_ABSENCE_BASE"),
		NonTeachingWeekday:    parseWeekday(v.GetString("PAYROLL_NON_TEACHING_WEEKDAY"), time.Sunday),
		IncludeNonTeachingDay: v.GetBool("PAYROLL_INCLUDE_NON_TEACHING_DAY"),
	}

	cfg.Payout = PayoutConfig{
		ServerKey:     v.GetString("PAYOUT_SERVER_KEY"),
		Production:    v.GetBool("PAYOUT_PRODUCTION"),
		Currency:      v.GetString("PAYOUT_CURRENCY"),
		RetryAttempts: v.GetInt("PAYOUT_RETRY_ATTEMPTS"),
		RetryBaseWait: parseDuration(v.GetString("PAYOUT_RETRY_BASE_WAIT"), time.Second),
	}

	cfg.Exports = ExportsConfig{
		Enabled:           v.GetBool("ENABLE_EXPORTS"),
		StorageDir:        v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		WorkerConcurrency: v.GetInt("EXPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("EXPORTS_WORKER_RETRIES"),
	}

	cfg.Salaries = SalariesConfig{
		CacheTTL: parseDuration(v.GetString("SALARIES_CACHE_TTL"), 10*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "tutorpay")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("PAYROLL_WORKING_DAYS_PER_MONTH", 26)
	v.SetDefault("PAYROLL_DEFAULT_LATENESS_BASE", 30)
	v.SetDefault("PAYROLL_DEFAULT_ABSENCE_BASE", 30)
	v.SetDefault("PAYROLL_NON_TEACHING_WEEKDAY", "SUNDAY")
	v.SetDefault("PAYROLL_INCLUDE_NON_TEACHING_DAY", false)

	v.SetDefault("PAYOUT_SERVER_KEY", "")
	v.SetDefault("PAYOUT_PRODUCTION", false)
	v.SetDefault("PAYOUT_CURRENCY", "IDR")
	v.SetDefault("PAYOUT_RETRY_ATTEMPTS", 3)
	v.SetDefault("PAYOUT_RETRY_BASE_WAIT", "1s")

	v.SetDefault("ENABLE_EXPORTS", false)
	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("EXPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("EXPORTS_WORKER_RETRIES", 3)

	v.SetDefault("SALARIES_CACHE_TTL", "10m")
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

func parseWeekday(raw string, fallback time.Weekday) time.Weekday {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "SUNDAY":
		return time.Sunday
	case "MONDAY":
		return time.Monday
	case "TUESDAY":
		return time.Tuesday
	case "WEDNESDAY":
		return time.Wednesday
	case "THURSDAY":
		return time.Thursday
	case "FRIDAY":
		return time.Friday
	case "SATURDAY":
		return time.Saturday
	default:
		return fallback
	}
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
