package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all service configuration. Every key has a default and
// can be overridden through the environment (dots become underscores,
// e.g. ENGINE_MAXATTEMPTS for engine.maxattempts).
type Config struct {
	App    AppConfig
	MySQL  MySQLConfig
	Redis  RedisConfig
	Engine EngineConfig
	Render RenderConfig
	Log    LogConfig
}

type AppConfig struct {
	Name string
	Env  string
	Port string
}

type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

type EngineConfig struct {
	MaxAttempts      uint64
	AllocMaxAttempts uint64
	InitialBackoff   time.Duration
	MaxBackoff       time.Duration
	QueueSize        int
}

type RenderConfig struct {
	Workers   int
	OutputDir string
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the environment with defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.name", "inventory-sale")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", ":8080")

	v.SetDefault("mysql.dsn", "root:root@tcp(localhost:3306)/inventory?parseTime=true")
	v.SetDefault("mysql.maxopenconns", 50)
	v.SetDefault("mysql.maxidleconns", 25)
	v.SetDefault("mysql.connmaxlifetime", 5*time.Minute)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.poolsize", 100)

	v.SetDefault("engine.maxattempts", 5)
	v.SetDefault("engine.allocmaxattempts", 5)
	v.SetDefault("engine.initialbackoff", 20*time.Millisecond)
	v.SetDefault("engine.maxbackoff", 500*time.Millisecond)
	v.SetDefault("engine.queuesize", 1024)

	v.SetDefault("render.workers", 4)
	v.SetDefault("render.outputdir", "receipts")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Engine.MaxAttempts == 0 {
		return nil, fmt.Errorf("engine.maxattempts must be at least 1")
	}
	return &cfg, nil
}
