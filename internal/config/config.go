package config

import (
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the service configuration. Values come from the YAML file,
// then from the environment.
type Config struct {
	HTTPAddr       string   `yaml:"http_addr"`
	LogLevel       string   `yaml:"log_level"`
	MySQLDSN       string   `yaml:"mysql_dsn"`
	OrderShardDSNs []string `yaml:"order_shard_dsns"`
	RedisAddr      string   `yaml:"redis_addr"`
	KafkaBrokers   []string `yaml:"kafka_brokers"`
	JWTSecret      string   `yaml:"jwt_secret"`

	Topics         Topics          `yaml:"topics"`
	Split          SplitConfig     `yaml:"split"`
	Limits         LimitsConfig    `yaml:"limits"`
	PaymentMethods []PaymentMethod `yaml:"payment_methods"`
	ProductCache   time.Duration   `yaml:"product_cache_ttl"`
	IdempotencyTTL time.Duration   `yaml:"idempotency_ttl"`
}

type Topics struct {
	Orders        string `yaml:"orders"`
	Products      string `yaml:"products"`
	ConsumerGroup string `yaml:"consumer_group"`
}

type SplitConfig struct {
	Threshold      int64  `yaml:"threshold"`
	MaxQtyPerOrder int64  `yaml:"max_qty_per_order"`
	CarrierCode    string `yaml:"carrier_code"`
	MethodCode     string `yaml:"method_code"`
	// PricePerUnit is the flat shipping rate charged per unit.
	PricePerUnit string `yaml:"price_per_unit"`
}

// LimitsConfig selects the limiter backend and its settings.
type LimitsConfig struct {
	// Backend is "memory" or "redis".
	Backend    string      `yaml:"backend"`
	Processing LimitConfig `yaml:"processing"`
	Saving     LimitConfig `yaml:"saving"`
}

type LimitConfig struct {
	// Rate is requests per second for the memory backend.
	Rate  float64 `yaml:"rate"`
	Burst int     `yaml:"burst"`
	// Window and Max configure the redis fixed window.
	Window time.Duration `yaml:"window"`
	Max    int64         `yaml:"max"`
}

type PaymentMethod struct {
	Code  string `yaml:"code"`
	Title string `yaml:"title"`
}

func Default() Config {
	return Config{
		HTTPAddr:       ":8084",
		LogLevel:       "info",
		MySQLDSN:       "root:@tcp(127.0.0.1:3306)/checkout-db?parseTime=true",
		OrderShardDSNs: []string{"root:@tcp(127.0.0.1:3306)/order-db?parseTime=true"},
		RedisAddr:      "localhost:6379",
		KafkaBrokers:   []string{"localhost:9092", "localhost:9093", "localhost:9094"},
		JWTSecret:      "secret",
		Topics: Topics{
			Orders:        "order-topic",
			Products:      "product-topic",
			ConsumerGroup: "checkout-service-group",
		},
		Split: SplitConfig{
			Threshold:      5,
			MaxQtyPerOrder: 4,
			CarrierCode:    "flatrate",
			MethodCode:     "flatrate",
			PricePerUnit:   "5",
		},
		Limits: LimitsConfig{
			Backend:    "memory",
			Processing: LimitConfig{Rate: 1, Burst: 25, Window: time.Minute, Max: 100},
			Saving:     LimitConfig{Rate: 1, Burst: 5, Window: time.Minute, Max: 20},
		},
		PaymentMethods: []PaymentMethod{
			{Code: "checkmo", Title: "Check / Money order"},
			{Code: "banktransfer", Title: "Bank Transfer Payment"},
			{Code: "cashondelivery", Title: "Cash On Delivery"},
		},
		ProductCache:   10 * time.Minute,
		IdempotencyTTL: 24 * time.Hour,
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path or a missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.HTTPAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("MYSQL_DSN"); v != "" {
		c.MySQLDSN = v
	}
	if v := os.Getenv("ORDER_SHARD_DSNS"); v != "" {
		c.OrderShardDSNs = splitList(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.KafkaBrokers = splitList(v)
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("SPLIT_THRESHOLD"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("SPLIT_THRESHOLD: %w", err)
		}
		c.Split.Threshold = n
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (c Config) Validate() error {
	if c.Split.Threshold < 0 {
		return fmt.Errorf("split.threshold must not be negative")
	}
	if c.Split.MaxQtyPerOrder <= 0 {
		return fmt.Errorf("split.max_qty_per_order must be positive")
	}
	if len(c.OrderShardDSNs) == 0 {
		return fmt.Errorf("at least one order shard DSN is required")
	}
	switch c.Limits.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown limits.backend %q", c.Limits.Backend)
	}
	if err := c.checkProcessingCapacity(); err != nil {
		return err
	}
	if len(c.PaymentMethods) == 0 {
		return fmt.Errorf("at least one payment method is required")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// MinSplitOrders is the number of orders the smallest split cart produces.
func (c Config) MinSplitOrders() int64 {
	if c.Split.MaxQtyPerOrder <= 0 {
		return 0
	}
	return (c.Split.Threshold + c.Split.MaxQtyPerOrder) / c.Split.MaxQtyPerOrder
}

// checkProcessingCapacity rejects processing limits that cannot admit every
// order of one split request, since each split order is charged separately.
func (c Config) checkProcessingCapacity() error {
	p := c.Limits.Processing
	need := c.MinSplitOrders()
	switch c.Limits.Backend {
	case "memory":
		if p.Rate > 0 && int64(p.Burst) < need {
			return fmt.Errorf("limits.processing.burst %d cannot admit a split into %d orders", p.Burst, need)
		}
	case "redis":
		if p.Max > 0 && p.Max < need {
			return fmt.Errorf("limits.processing.max %d cannot admit a split into %d orders", p.Max, need)
		}
	}
	return nil
}

// Level is the configured zerolog level.
func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
