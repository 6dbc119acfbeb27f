package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AppEnv    string `yaml:"app_env"`
	Port      string `yaml:"port"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	SentryDSN string `yaml:"sentry_dsn"`

	DB     DBConfig     `yaml:"db"`
	Redis  RedisConfig  `yaml:"redis"`
	Kafka  KafkaConfig  `yaml:"kafka"`
	JWT    JWTConfig    `yaml:"jwt"`
	Domain DomainConfig `yaml:"domain"`
	Jobs   JobsConfig   `yaml:"jobs"`

	AdminToken string `yaml:"admin_token"`
}

type DBConfig struct {
	Driver          string        `yaml:"driver"` // postgres | mysql | memory
	DSN             string        `yaml:"dsn"`
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type JWTConfig struct {
	AccessSecret  string        `yaml:"access_secret"`
	RefreshSecret string        `yaml:"refresh_secret"`
	AccessTTL     time.Duration `yaml:"access_ttl"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl"`
}

type DomainConfig struct {
	SignupBonus                    int64 `yaml:"signup_bonus"`
	EnforceCommunityMembershipGate bool  `yaml:"enforce_community_membership_gate"`
	PostsDefaultLimit              int   `yaml:"posts_default_limit"`
	PostsMaxLimit                  int   `yaml:"posts_max_limit"`
	// Timezone 解析不带时区的活动时间，IANA 名称，空或 Local 表示服务器时区
	Timezone string `yaml:"timezone"`
}

type JobsConfig struct {
	OutboxInterval    time.Duration `yaml:"outbox_interval"`
	OutboxBatch       int           `yaml:"outbox_batch"`
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
	ReconcileBatch    int           `yaml:"reconcile_batch"`
}

// Load 默认值 -> CONFIG_FILE(yaml) -> .env -> 环境变量，后者覆盖前者
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Defaults() *Config {
	return &Config{
		AppEnv:    "development",
		Port:      "8080",
		LogLevel:  "info",
		LogFormat: "text",
		DB: DBConfig{
			Driver:          "postgres",
			Host:            "localhost",
			Port:            "5432",
			User:            "postgres",
			Name:            "community",
			SSLMode:         "disable",
			MaxOpenConns:    50,
			MaxIdleConns:    25,
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{Topic: "community-events"},
		JWT: JWTConfig{
			AccessSecret:  "dev-access-secret",
			RefreshSecret: "dev-refresh-secret",
			AccessTTL:     30 * time.Minute,
			RefreshTTL:    24 * time.Hour,
		},
		Domain: DomainConfig{
			SignupBonus:                    100,
			EnforceCommunityMembershipGate: true,
			PostsDefaultLimit:              50,
			PostsMaxLimit:                  200,
			Timezone:                       "Local",
		},
		Jobs: JobsConfig{
			OutboxInterval:    time.Second,
			OutboxBatch:       200,
			ReconcileInterval: 5 * time.Minute,
			ReconcileBatch:    500,
		},
	}
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err = yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.AppEnv = getEnv("APP_ENV", c.AppEnv)
	c.Port = getEnv("PORT", c.Port)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.SentryDSN = getEnv("SENTRY_DSN", c.SentryDSN)
	c.AdminToken = getEnv("ADMIN_TOKEN", c.AdminToken)

	c.DB.Driver = getEnv("DB_DRIVER", c.DB.Driver)
	c.DB.DSN = getEnv("DB_DSN", c.DB.DSN)
	c.DB.Host = getEnv("DB_HOST", c.DB.Host)
	c.DB.Port = getEnv("DB_PORT", c.DB.Port)
	c.DB.User = getEnv("DB_USER", c.DB.User)
	c.DB.Password = getEnv("DB_PASSWORD", c.DB.Password)
	c.DB.Name = getEnv("DB_NAME", c.DB.Name)
	c.DB.SSLMode = getEnv("DB_SSLMODE", c.DB.SSLMode)
	c.DB.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", c.DB.MaxOpenConns)
	c.DB.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", c.DB.MaxIdleConns)
	c.DB.ConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", c.DB.ConnMaxLifetime)
	c.DB.ConnMaxIdleTime = getEnvDuration("DB_CONN_MAX_IDLE_TIME", c.DB.ConnMaxIdleTime)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("REDIS_DB", c.Redis.DB)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		c.Kafka.Brokers = splitList(brokers)
	}
	c.Kafka.Topic = getEnv("KAFKA_TOPIC", c.Kafka.Topic)

	c.JWT.AccessSecret = getEnv("JWT_ACCESS_SECRET", c.JWT.AccessSecret)
	c.JWT.RefreshSecret = getEnv("JWT_REFRESH_SECRET", c.JWT.RefreshSecret)
	c.JWT.AccessTTL = getEnvDuration("ACCESS_TTL", c.JWT.AccessTTL)
	c.JWT.RefreshTTL = getEnvDuration("REFRESH_TTL", c.JWT.RefreshTTL)

	c.Domain.SignupBonus = int64(getEnvInt("SIGNUP_BONUS", int(c.Domain.SignupBonus)))
	c.Domain.EnforceCommunityMembershipGate = getEnvBool("ENFORCE_COMMUNITY_MEMBERSHIP_GATE", c.Domain.EnforceCommunityMembershipGate)
	c.Domain.PostsDefaultLimit = getEnvInt("POSTS_DEFAULT_LIMIT", c.Domain.PostsDefaultLimit)
	c.Domain.PostsMaxLimit = getEnvInt("POSTS_MAX_LIMIT", c.Domain.PostsMaxLimit)
	c.Domain.Timezone = getEnv("TIMEZONE", c.Domain.Timezone)

	c.Jobs.OutboxInterval = getEnvDuration("OUTBOX_INTERVAL", c.Jobs.OutboxInterval)
	c.Jobs.OutboxBatch = getEnvInt("OUTBOX_BATCH", c.Jobs.OutboxBatch)
	c.Jobs.ReconcileInterval = getEnvDuration("RECONCILE_INTERVAL", c.Jobs.ReconcileInterval)
	c.Jobs.ReconcileBatch = getEnvInt("RECONCILE_BATCH", c.Jobs.ReconcileBatch)
}

// Validate 检查驱动、密钥和分页上限
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "postgres", "mysql", "memory":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.IsProduction() {
		if c.JWT.AccessSecret == "" || c.JWT.AccessSecret == Defaults().JWT.AccessSecret ||
			c.JWT.RefreshSecret == "" || c.JWT.RefreshSecret == Defaults().JWT.RefreshSecret {
			return fmt.Errorf("JWT secrets must be set in production")
		}
	}
	if c.Domain.PostsDefaultLimit <= 0 || c.Domain.PostsMaxLimit < c.Domain.PostsDefaultLimit {
		return fmt.Errorf("invalid posts limits: default %d, max %d", c.Domain.PostsDefaultLimit, c.Domain.PostsMaxLimit)
	}
	if c.Domain.SignupBonus < 0 {
		return fmt.Errorf("SIGNUP_BONUS must be >= 0")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Domain.Timezone, err)
	}
	return nil
}

// Location 活动时间的默认时区
func (c *Config) Location() (*time.Location, error) {
	if c.Domain.Timezone == "" || c.Domain.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Domain.Timezone)
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// DSN 未显式配置 DB_DSN 时按驱动拼接
func (c *Config) DSN() string {
	if c.DB.DSN != "" {
		return c.DB.DSN
	}
	if c.DB.Driver == "mysql" {
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC&clientFoundRows=true",
			c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
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
