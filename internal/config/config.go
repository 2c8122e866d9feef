package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server    ServerConfig
	App       AppConfig
	Database  DatabaseConfig
	Kafka     KafkaConfig
	Inventory InventoryConfig
	Cache     CacheConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"laklak-api"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
}

// DatabaseConfig holds relational store settings.
type DatabaseConfig struct {
	Type string `envconfig:"DB_TYPE" default:"sqlite"` // sqlite or mysql
	Path string `envconfig:"DB_PATH" default:"./data/laklak.db"`
	// MySQL settings
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"3306"`
	Name     string `envconfig:"DB_NAME" default:"laklak"`
	User     string `envconfig:"DB_USER" default:"root"`
	Password string `envconfig:"DB_PASS" default:""`
}

// KafkaConfig holds event bus settings. Topic names default to the five
// logical inventory topics; the consumer group is derived per topic.
type KafkaConfig struct {
	BusType     string `envconfig:"BUS_TYPE" default:"kafka"` // kafka, memory, or nop
	Brokers     string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	GroupPrefix string `envconfig:"KAFKA_GROUP_PREFIX" default:"inventory-processor"`

	TopicInventoryUpdates string `envconfig:"KAFKA_TOPIC_INVENTORY_UPDATES" default:"inventory-updates"`
	TopicLowStockAlerts   string `envconfig:"KAFKA_TOPIC_LOW_STOCK_ALERTS" default:"low-stock-alerts"`
	TopicPriceChanges     string `envconfig:"KAFKA_TOPIC_PRICE_CHANGES" default:"product-price-changes"`
	TopicProductCreated   string `envconfig:"KAFKA_TOPIC_PRODUCT_CREATED" default:"product-created"`
	TopicProductDeleted   string `envconfig:"KAFKA_TOPIC_PRODUCT_DELETED" default:"product-deleted"`
}

// InventoryConfig holds inventory pipeline tuning.
type InventoryConfig struct {
	LowStockThreshold int64         `envconfig:"LOW_STOCK_THRESHOLD" default:"10"`
	DedupWindow       time.Duration `envconfig:"DEDUP_WINDOW" default:"5m"`
}

// CacheConfig holds read-side cache settings.
type CacheConfig struct {
	Type         string        `envconfig:"CACHE_TYPE" default:"memory"` // memory or redis
	DashboardTTL time.Duration `envconfig:"DASHBOARD_CACHE_TTL" default:"5m"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DSN returns the MySQL data source name.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// BrokerList splits the comma-separated broker addresses.
func (k *KafkaConfig) BrokerList() []string {
	parts := strings.Split(k.Brokers, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

// Topics returns every topic the processor consumes.
func (k *KafkaConfig) Topics() []string {
	return []string{
		k.TopicInventoryUpdates,
		k.TopicLowStockAlerts,
		k.TopicPriceChanges,
		k.TopicProductCreated,
		k.TopicProductDeleted,
	}
}

// KnownTopic reports whether name is one of the configured topics.
func (k *KafkaConfig) KnownTopic(name string) bool {
	for _, t := range k.Topics() {
		if t == name {
			return true
		}
	}
	return false
}

// GroupID returns the consumer group for a topic.
func (k *KafkaConfig) GroupID(topic string) string {
	return fmt.Sprintf("%s-%s", k.GroupPrefix, topic)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
