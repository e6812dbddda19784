// internal/pkg/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	gosqlmysql "github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
)

// Config 是 order-service 的全部运行时配置。
// 来源优先级: 环境变量 > YAML 配置文件 > 默认值。
type Config struct {
	Service ServiceConfig `yaml:"service"`
	MySQL   MySQLConfig   `yaml:"mysql"`
	Redis   RedisConfig   `yaml:"redis"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	Jaeger  JaegerConfig  `yaml:"jaeger"`
	Admin   AdminConfig   `yaml:"admin"`
}

type ServiceConfig struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

type RedisConfig struct {
	Addr string `yaml:"addr"`
	DB   int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	// Enabled 为 false 时事件只走进程内的 websocket 推送，不落 Kafka。
	Enabled bool `yaml:"enabled"`
}

type JaegerConfig struct {
	Endpoint string `yaml:"endpoint"`
}

// AdminConfig 聚合报表与库存告警相关的配置。
type AdminConfig struct {
	// DashboardCacheTTL 仪表盘聚合结果在 Redis 中的缓存时间。
	DashboardCacheTTL Duration `yaml:"dashboardCacheTTL"`
	// StockAlertRules 低库存告警的 CEL 规则表达式，任一命中即告警。
	StockAlertRules []string `yaml:"stockAlertRules"`
}

// Duration 让时长可以用 "30s" 这种形式写在 YAML 里，
// yaml.v3 自己不认 time.Duration 的字符串格式。
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	dur, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(dur)
	return nil
}

// Std 转回标准库类型。
func (d Duration) Std() time.Duration { return time.Duration(d) }

// DSN 用官方 mysql 驱动的 Config 拼接 gorm 所需的连接串，
// 避免手写转义出错。
func (m MySQLConfig) DSN() string {
	c := gosqlmysql.NewConfig()
	c.User = m.User
	c.Passwd = m.Password
	c.Net = "tcp"
	c.Addr = fmt.Sprintf("%s:%d", m.Host, m.Port)
	c.DBName = m.DBName
	c.ParseTime = true
	c.Loc = time.UTC
	return c.FormatDSN()
}

// Default 返回本地开发可直接跑起来的默认配置。
func Default() *Config {
	return &Config{
		Service: ServiceConfig{Name: "order-service", Port: 8081},
		MySQL:   MySQLConfig{Host: "localhost", Port: 3306, User: "root", Password: "root", DBName: "emporium"},
		Redis:   RedisConfig{Addr: "localhost:6379", DB: 0},
		Kafka:   KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "order-events", Enabled: true},
		Jaeger:  JaegerConfig{Endpoint: "http://localhost:14268/api/traces"},
		Admin: AdminConfig{
			DashboardCacheTTL: Duration(30 * time.Second),
			StockAlertRules:   []string{"stock < 10"},
		},
	}
}

// Load 读取 YAML 配置文件并套用环境变量覆盖。
// path 为空或文件不存在时只使用默认值加环境变量。
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.Service.Name = getEnv("SERVICE_NAME", cfg.Service.Name)
	cfg.Service.Port = getEnvInt("SERVICE_PORT", cfg.Service.Port)
	cfg.MySQL.Host = getEnv("MYSQL_HOST", cfg.MySQL.Host)
	cfg.MySQL.Port = getEnvInt("MYSQL_PORT", cfg.MySQL.Port)
	cfg.MySQL.User = getEnv("MYSQL_USER", cfg.MySQL.User)
	cfg.MySQL.Password = getEnv("MYSQL_PASSWORD", cfg.MySQL.Password)
	cfg.MySQL.DBName = getEnv("MYSQL_DBNAME", cfg.MySQL.DBName)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", cfg.Jaeger.Endpoint)
	if v, ok := os.LookupEnv("KAFKA_BROKERS"); ok && v != "" {
		cfg.Kafka.Brokers = []string{v}
	}
	cfg.Kafka.Topic = getEnv("KAFKA_TOPIC", cfg.Kafka.Topic)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
