package bootstrap

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

// Config 结构体用于存储从环境变量或 .env 文件加载的配置
type Config struct {
	DBDriver   string `envconfig:"DB_DRIVER" default:"mysql"`
	DBUser     string `envconfig:"DB_USER"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBHost     string `envconfig:"DB_HOST"`
	DBPort     string `envconfig:"DB_PORT"`
	DBName     string `envconfig:"DB_NAME"`

	RedisAddr     string `envconfig:"REDIS_ADDR" required:"true"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	KeyPrefix     string `envconfig:"REDIS_KEY_PREFIX" default:"pw:"`

	JWTSecret      string `envconfig:"JWT_SECRET" required:"true"`
	JWTExpiryHours int    `envconfig:"JWT_EXPIRY_HOURS" default:"24"`

	ServerPort        string `envconfig:"SERVER_PORT" default:"8080"`
	LogLevel          string `envconfig:"LOG_LEVEL" default:"info"`
	AppEnv            string `envconfig:"APP_ENV" default:"development"`
	CORSAllowedOrigin string `envconfig:"CORS_ALLOWED_ORIGIN" default:"http://localhost:3000"`

	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"100"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1s"`
	SpinRateLimit   int           `envconfig:"SPIN_RATE_LIMIT" default:"5"`
	SpinRateWindow  time.Duration `envconfig:"SPIN_RATE_WINDOW" default:"1s"`
	SpinMaxAttempts int           `envconfig:"SPIN_MAX_ATTEMPTS" default:"5"`

	ResyncSchedule string `envconfig:"RESYNC_SCHEDULE" default:"@every 1m"`

	SeedDemo      bool   `envconfig:"SEED_DEMO" default:"false"`
	AdminUsername string `envconfig:"ADMIN_USERNAME"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`
}

// LoadConfig 先加载 .env（如果存在），再从环境变量解析配置
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // 忽略错误，允许只使用环境变量

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("environment variable REDIS_ADDR must be set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("environment variable JWT_SECRET must be set")
	}
	switch cfg.DBDriver {
	case "mysql", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (want mysql or sqlite)", cfg.DBDriver)
	}
	if cfg.SpinMaxAttempts <= 0 {
		return nil, fmt.Errorf("SPIN_MAX_ATTEMPTS must be positive, got %d", cfg.SpinMaxAttempts)
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}
	return &cfg, nil
}

// NewLogger 按配置创建 logger：生产环境输出 JSON，其余输出带完整时间戳的文本
func NewLogger(cfg *Config) *logrus.Logger {
	log := logrus.New()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}
