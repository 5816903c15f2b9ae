package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Драйверы хранилища
const (
	StorageMongo    = "mongodb"
	StoragePostgres = "postgres"
)

// Config содержит все настройки Catalog Service
type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	Mongo      MongoConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	JWT        JWTConfig
	Pagination PaginationConfig
	RateLimit  RateLimitConfig
	CORS       CORSConfig
	Stats      StatsConfig
	Log        LogConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Host            string
	Port            string
	ShutdownTimeout time.Duration
	// TrustedProxies - IP/CIDR прокси, которым разрешено передавать X-Forwarded-For
	// Пустой список: заголовок игнорируется, клиент определяется по адресу соединения
	TrustedProxies  []string
}

// StorageConfig - выбор хранилища: mongodb (основное) или postgres
type StorageConfig struct {
	Driver string
}

// MongoConfig - настройки MongoDB
type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// DatabaseConfig - настройки PostgreSQL (альтернативное хранилище)
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig - кеш страниц списков категорий и подкатегорий
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

// KafkaConfig - события изменения каталога
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// JWTConfig - секрет для проверки токенов (выдает их сервис авторизации)
type JWTConfig struct {
	Secret string
}

// PaginationConfig - максимальный размер страницы для каждой сущности
type PaginationConfig struct {
	MaxCategories    int
	MaxSubcategories int
	MaxProducts      int
}

// RateLimitConfig - лимит запросов на IP клиента
// RPS <= 0 отключает ограничение
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// CORSConfig - разрешенные источники для браузерной админки
type CORSConfig struct {
	AllowedOrigins []string
}

// StatsConfig - cron сбора статистики каталога
type StatsConfig struct {
	Enabled  bool
	Schedule string
}

// LogConfig - уровень логирования и адрес Logstash (опционально)
type LogConfig struct {
	Level            string
	LogstashAddr     string
	LogstashProtocol string
}

// Load загружает конфигурацию из переменных окружения
// Если рядом лежит .env, значения из него подхватываются (переменные окружения важнее)
func Load() (*Config, error) {
	_ = godotenv.Load()

	p := &parser{}

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnv("SERVER_PORT", "8081"),
			ShutdownTimeout: p.duration("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),
			TrustedProxies:  p.proxies("TRUSTED_PROXIES"),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(getEnv("STORAGE_DRIVER", StorageMongo)),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DATABASE", "pepagora_catalog"),
			Timeout:  p.duration("MONGO_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "pepagora_catalog"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  p.bool("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       p.int("REDIS_DB", 0),
			TTL:      p.duration("CACHE_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Enabled: p.bool("KAFKA_ENABLED", true),
			Brokers: splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Topic:   getEnv("KAFKA_TOPIC", "catalog_events"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key-change-this-in-production"),
		},
		Pagination: PaginationConfig{
			MaxCategories:    p.int("PAGINATION_MAX_CATEGORIES", 100),
			MaxSubcategories: p.int("PAGINATION_MAX_SUBCATEGORIES", 1000),
			MaxProducts:      p.int("PAGINATION_MAX_PRODUCTS", 100),
		},
		RateLimit: RateLimitConfig{
			RPS:   p.float("RATE_LIMIT_RPS", 20),
			Burst: p.int("RATE_LIMIT_BURST", 40),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Stats: StatsConfig{
			Enabled:  p.bool("STATS_ENABLED", true),
			Schedule: getEnv("STATS_SCHEDULE", "@every 5m"),
		},
		Log: LogConfig{
			Level:            getEnv("LOG_LEVEL", "info"),
			LogstashAddr:     getEnv("LOGSTASH_ADDR", ""),
			LogstashProtocol: getEnv("LOGSTASH_PROTOCOL", "tcp"),
		},
	}

	if p.err != nil {
		return nil, p.err
	}

	if cfg.Storage.Driver != StorageMongo && cfg.Storage.Driver != StoragePostgres {
		return nil, fmt.Errorf("invalid STORAGE_DRIVER value: %q", cfg.Storage.Driver)
	}

	return cfg, nil
}

// DSN возвращает строку подключения к PostgreSQL в формате libpq
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Address возвращает адрес сервера в формате host:port
func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

// Address возвращает адрес Redis в формате host:port
func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

// parser запоминает первую ошибку разбора, чтобы не проверять каждое поле отдельно
type parser struct {
	err error
}

func (p *parser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
}

func (p *parser) int(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		p.fail(key, value, err)
		return defaultValue
	}
	return n
}

func (p *parser) float(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		p.fail(key, value, err)
		return defaultValue
	}
	return f
}

func (p *parser) bool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		p.fail(key, value, err)
		return defaultValue
	}
	return b
}

func (p *parser) duration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		p.fail(key, value, err)
		return defaultValue
	}
	return d
}

// proxies разбирает список IP или CIDR через запятую
func (p *parser) proxies(key string) []string {
	value := os.Getenv(key)
	items := splitList(value)
	for _, item := range items {
		if net.ParseIP(item) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(item); err != nil {
			p.fail(key, value, err)
			return nil
		}
	}
	return items
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// splitList разбирает список через запятую, пустые элементы пропускаются
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
