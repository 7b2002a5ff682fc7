package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreFile     = "file"
)

// Lock backends.
const (
	LockMemory = "memory"
	LockRedis  = "redis"
)

// Audit backends.
const (
	AuditMemory   = "memory"
	AuditPostgres = "postgres"
	AuditJSONL    = "jsonl"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Store      StoreConfig
	Lock       LockConfig
	Audit      AuditConfig
	Notify     NotifyConfig
	Sweeper    SweeperConfig
	Scheduling SchedulingConfig
}

type DatabaseConfig struct {
	Driver        string
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	MaxOpenConns  int
	MaxIdleConns  int
	MigrateOnBoot bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StoreConfig selects where group state lives.
type StoreConfig struct {
	Backend     string
	SnapshotDir string
}

// LockConfig selects the per-group writer lock.
type LockConfig struct {
	Backend      string
	TTL          time.Duration
	WaitTimeout  time.Duration
	PollInterval time.Duration
}

// AuditConfig configures the asynchronous audit sink.
type AuditConfig struct {
	Backend    string
	FilePath   string
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// NotifyConfig controls change fan-out to external subscribers.
type NotifyConfig struct {
	RedisChannel     string
	WebsocketEnabled bool
}

// SweeperConfig drives the periodic D+1 approval sweep.
type SweeperConfig struct {
	Enabled  bool
	Interval time.Duration
	Groups   []string
}

// SchedulingConfig holds the group rules shared by every group.
type SchedulingConfig struct {
	WindowBusinessDays       int
	DemandWindowBusinessDays int
	VirtualPerShift          int
	PresentialPerShift       int
	ActiveWeight             int
	BacklogWeight            int
	LevelMediumThreshold     int
	LevelHighThreshold       int
	Timezone                 string
}

// Location resolves the configured timezone, falling back to UTC.
func (s SchedulingConfig) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Driver:        v.GetString("DB_DRIVER"),
		Host:          v.GetString("DB_HOST"),
		Port:          v.GetInt("DB_PORT"),
		User:          v.GetString("DB_USER"),
		Password:      v.GetString("DB_PASSWORD"),
		Name:          v.GetString("DB_NAME"),
		SSLMode:       v.GetString("DB_SSL_MODE"),
		MaxOpenConns:  v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:  v.GetInt("DB_MAX_IDLE_CONNS"),
		MigrateOnBoot: v.GetBool("DB_MIGRATE_ON_BOOT"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Store = StoreConfig{
		Backend:     strings.ToLower(v.GetString("STORE_BACKEND")),
		SnapshotDir: v.GetString("STORE_SNAPSHOT_DIR"),
	}

	cfg.Lock = LockConfig{
		Backend:      strings.ToLower(v.GetString("LOCK_BACKEND")),
		TTL:          parseDuration(v.GetString("LOCK_TTL"), 30*time.Second),
		WaitTimeout:  parseDuration(v.GetString("LOCK_WAIT_TIMEOUT"), 10*time.Second),
		PollInterval: parseDuration(v.GetString("LOCK_POLL_INTERVAL"), 50*time.Millisecond),
	}

	cfg.Audit = AuditConfig{
		Backend:    strings.ToLower(v.GetString("AUDIT_BACKEND")),
		FilePath:   v.GetString("AUDIT_FILE"),
		Workers:    v.GetInt("AUDIT_WORKERS"),
		BufferSize: v.GetInt("AUDIT_BUFFER_SIZE"),
		MaxRetries: v.GetInt("AUDIT_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("AUDIT_RETRY_DELAY"), time.Second),
	}

	cfg.Notify = NotifyConfig{
		RedisChannel:     v.GetString("NOTIFY_REDIS_CHANNEL"),
		WebsocketEnabled: v.GetBool("ENABLE_WEBSOCKET"),
	}

	cfg.Sweeper = SweeperConfig{
		Enabled:  v.GetBool("ENABLE_SWEEPER"),
		Interval: parseDuration(v.GetString("SWEEP_INTERVAL"), time.Hour),
		Groups:   splitAndTrim(v.GetString("SWEEP_GROUPS")),
	}

	cfg.Scheduling = SchedulingConfig{
		WindowBusinessDays:       v.GetInt("SCHEDULING_WINDOW_DAYS"),
		DemandWindowBusinessDays: v.GetInt("SCHEDULING_DEMAND_WINDOW_DAYS"),
		VirtualPerShift:          v.GetInt("SCHEDULING_VIRTUAL_PER_SHIFT"),
		PresentialPerShift:       v.GetInt("SCHEDULING_PRESENTIAL_PER_SHIFT"),
		ActiveWeight:             v.GetInt("SCHEDULING_ACTIVE_WEIGHT"),
		BacklogWeight:            v.GetInt("SCHEDULING_BACKLOG_WEIGHT"),
		LevelMediumThreshold:     v.GetInt("SCHEDULING_LEVEL_MEDIUM"),
		LevelHighThreshold:       v.GetInt("SCHEDULING_LEVEL_HIGH"),
		Timezone:                 v.GetString("SCHEDULING_TIMEZONE"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "certisched")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_MIGRATE_ON_BOOT", false)

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("STORE_BACKEND", StoreMemory)
	v.SetDefault("STORE_SNAPSHOT_DIR", "./data/groups")

	v.SetDefault("LOCK_BACKEND", LockMemory)
	v.SetDefault("LOCK_TTL", "30s")
	v.SetDefault("LOCK_WAIT_TIMEOUT", "10s")
	v.SetDefault("LOCK_POLL_INTERVAL", "50ms")

	v.SetDefault("AUDIT_BACKEND", AuditJSONL)
	v.SetDefault("AUDIT_FILE", "./data/audit.jsonl")
	v.SetDefault("AUDIT_WORKERS", 1)
	v.SetDefault("AUDIT_BUFFER_SIZE", 256)
	v.SetDefault("AUDIT_MAX_RETRIES", 3)
	v.SetDefault("AUDIT_RETRY_DELAY", "1s")

	v.SetDefault("NOTIFY_REDIS_CHANNEL", "certisched:changes")
	v.SetDefault("ENABLE_WEBSOCKET", true)

	v.SetDefault("ENABLE_SWEEPER", false)
	v.SetDefault("SWEEP_INTERVAL", "1h")
	v.SetDefault("SWEEP_GROUPS", "")

	v.SetDefault("SCHEDULING_WINDOW_DAYS", 10)
	v.SetDefault("SCHEDULING_DEMAND_WINDOW_DAYS", 10)
	v.SetDefault("SCHEDULING_VIRTUAL_PER_SHIFT", 2)
	v.SetDefault("SCHEDULING_PRESENTIAL_PER_SHIFT", 3)
	v.SetDefault("SCHEDULING_ACTIVE_WEIGHT", 10)
	v.SetDefault("SCHEDULING_BACKLOG_WEIGHT", 1)
	v.SetDefault("SCHEDULING_LEVEL_MEDIUM", 40)
	v.SetDefault("SCHEDULING_LEVEL_HIGH", 100)
	v.SetDefault("SCHEDULING_TIMEZONE", "America/Sao_Paulo")
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
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
