// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"storefront/internal/pkg/database"
)

// Config 是一个服务的全部配置。先读 YAML 文件，再用环境变量覆盖。
type Config struct {
	App      AppConfig       `yaml:"app"`
	Database database.Config `yaml:"database"`
	Redis    RedisConfig     `yaml:"redis"`
	Kafka    KafkaConfig     `yaml:"kafka"`
	Jaeger   JaegerConfig    `yaml:"jaeger"`
	Nacos    NacosConfig     `yaml:"nacos"`
	Security SecurityConfig  `yaml:"security"`
	Order    OrderConfig     `yaml:"order"`
}

type AppConfig struct {
	Name            string        `yaml:"name"`
	HTTPAddr        string        `yaml:"http_addr"`
	LogLevel        string        `yaml:"log_level"`
	LogFile         string        `yaml:"log_file"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
}

type RedisConfig struct {
	Addrs          string        `yaml:"addrs"` // 逗号分隔，为空时关闭幂等键
	IdempotencyTTL time.Duration `yaml:"idempotency_ttl"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"` // 为空时不发布/消费事件
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
}

type JaegerConfig struct {
	Endpoint string `yaml:"endpoint"`
}

type NacosConfig struct {
	ServerAddrs string `yaml:"server_addrs"` // 为空时不注册
	Namespace   string `yaml:"namespace"`
	Group       string `yaml:"group"`
}

type SecurityConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type OrderConfig struct {
	DefaultPageSize int           `yaml:"default_page_size"`
	MaxPageSize     int           `yaml:"max_page_size"`
	TxTimeout       time.Duration `yaml:"tx_timeout"`
}

// DefaultConfig 返回本地开发可用的默认值
func DefaultConfig(service string) *Config {
	return &Config{
		App: AppConfig{
			Name:            service,
			HTTPAddr:        ":8080",
			LogLevel:        "info",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: database.Config{
			Driver:          database.DriverMySQL,
			MaxOpenConns:    20,
			MaxIdleConns:    10,
			ConnMaxLifetime: time.Hour,
			LogLevel:        "warn",
		},
		Redis: RedisConfig{IdempotencyTTL: 24 * time.Hour},
		Kafka: KafkaConfig{Topic: "order-events", GroupID: service},
		Nacos: NacosConfig{Group: "DEFAULT_GROUP"},
		Order: OrderConfig{DefaultPageSize: 10, MaxPageSize: 100, TxTimeout: 5 * time.Second},
	}
}

// LoadConfig 读取 CONFIG_PATH（默认 configs/<service>.yaml）并应用环境变量覆盖。
// 未显式指定 CONFIG_PATH 且默认文件不存在时只使用默认值和环境变量。
func LoadConfig(service string) (*Config, error) {
	cfg := DefaultConfig(service)

	path, explicit := os.LookupEnv("CONFIG_PATH")
	if !explicit {
		path = "configs/" + service + ".yaml"
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.App.HTTPAddr = getEnv("HTTP_ADDR", c.App.HTTPAddr)
	c.App.LogLevel = getEnv("LOG_LEVEL", c.App.LogLevel)
	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.DSN = getEnv("MYSQL_DSN", c.Database.DSN)
	c.Redis.Addrs = getEnv("REDIS_ADDRS", c.Redis.Addrs)
	if v := getEnv("KAFKA_BROKERS", ""); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	c.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", c.Jaeger.Endpoint)
	c.Nacos.ServerAddrs = getEnv("NACOS_SERVER_ADDRS", c.Nacos.ServerAddrs)
	c.Nacos.Namespace = getEnv("NACOS_NAMESPACE", c.Nacos.Namespace)
	c.Nacos.Group = getEnv("NACOS_GROUP", c.Nacos.Group)
	c.Security.JWTSecret = getEnv("JWT_SECRET", c.Security.JWTSecret)
}

// Validate 拒绝无法启动的配置
func (c *Config) Validate() error {
	var errs []error
	if c.App.Name == "" {
		errs = append(errs, errors.New("app.name is required"))
	}
	if c.App.HTTPAddr == "" {
		errs = append(errs, errors.New("app.http_addr is required"))
	}
	if c.App.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("app.shutdown_timeout must be positive"))
	}
	switch c.Database.Driver {
	case database.DriverMySQL, database.DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not supported", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	if c.Security.JWTSecret == "" {
		errs = append(errs, errors.New("security.jwt_secret is required"))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("kafka.topic is required when brokers are set"))
	}
	if c.Order.DefaultPageSize < 1 || c.Order.MaxPageSize < c.Order.DefaultPageSize {
		errs = append(errs, errors.New("order page sizes must satisfy 1 <= default_page_size <= max_page_size"))
	}
	return errors.Join(errs...)
}

// getEnv 从环境变量中读取配置，未设置时返回 fallback
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
