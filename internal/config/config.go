package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/shopspring/decimal"
	"github.com/tewans-kitchen/pos/internal/ledger"
	"github.com/tewans-kitchen/pos/internal/menu"
	"go.uber.org/multierr"
)

// EnvPrefix marks environment overrides. A double underscore separates
// levels: POS_SERVER__PORT sets server.port.
const EnvPrefix = "POS_"

var DefaultConfig = []byte(`
application: "tewans-kitchen-pos"

is_prod_mode: false

logger:
  level: "info"

server:
  port: 8081
  allowed_origins:
    - "http://localhost:5173"
  shutdown_timeout: "15s"

floor:
  tables: 12
  timezone: "Asia/Bangkok"

pricing:
  currency: "THB"
  tax_rate: 7
  service_rate: 10
  discount_rate: 0

menu:
  - { id: 1, name: "Pork Rad Na", price: 45, category: "Main Dish" }
  - { id: 2, name: "Chicken Rad Na", price: 45, category: "Main Dish" }
  - { id: 3, name: "Fried Egg", price: 15, category: "Side Dish" }
  - { id: 4, name: "Pork Fried Rice", price: 50, category: "Main Dish" }
  - { id: 5, name: "Beef Fried Rice", price: 60, category: "Main Dish" }
  - { id: 6, name: "Water", price: 10, category: "Beverage" }
  - { id: 7, name: "Soft Drink", price: 20, category: "Beverage" }

export:
  workers: 2
  queue_size: 256
  overflow_size: 16
  timeout: "10s"
  webhook:
    url: ""
    secret: ""
    token_ttl: "5m"
  postgres:
    url: ""
  rabbitmq:
    url: ""
    exchange: "pos.transactions"
  mongo:
    uri: ""
    database: "pos"
    collection: "transactions"
  kafka:
    brokers: []
    topic: "pos-transactions"
    client_id: "tewans-kitchen-pos"
  redis:
    addr: ""
    password: ""
    db: 0
    ttl: "168h"
`)

type Config struct {
	Application string     `koanf:"application"`
	IsProdMode  bool       `koanf:"is_prod_mode"`
	Logger      Logger     `koanf:"logger"`
	Server      Server     `koanf:"server"`
	Floor       Floor      `koanf:"floor"`
	Pricing     Pricing    `koanf:"pricing"`
	Menu        []MenuItem `koanf:"menu"`
	Export      Export     `koanf:"export"`
}

type Logger struct {
	Level string `koanf:"level"`
}

type Server struct {
	Port            int           `koanf:"port"`
	AllowedOrigins  []string      `koanf:"allowed_origins"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type Floor struct {
	Tables   int    `koanf:"tables"`
	Timezone string `koanf:"timezone"`
}

type Pricing struct {
	Currency     string  `koanf:"currency"`
	TaxRate      float64 `koanf:"tax_rate"`
	ServiceRate  float64 `koanf:"service_rate"`
	DiscountRate float64 `koanf:"discount_rate"`
}

type MenuItem struct {
	ID       int     `koanf:"id"`
	Name     string  `koanf:"name"`
	Price    float64 `koanf:"price"`
	Category string  `koanf:"category"`
}

type Export struct {
	Workers      int           `koanf:"workers"`
	QueueSize    int           `koanf:"queue_size"`
	OverflowSize int           `koanf:"overflow_size"`
	Timeout      time.Duration `koanf:"timeout"`
	Webhook      Webhook       `koanf:"webhook"`
	Postgres     Postgres      `koanf:"postgres"`
	RabbitMQ     RabbitMQ      `koanf:"rabbitmq"`
	Mongo        Mongo         `koanf:"mongo"`
	Kafka        Kafka         `koanf:"kafka"`
	Redis        Redis         `koanf:"redis"`
}

type Webhook struct {
	URL      string        `koanf:"url"`
	Secret   string        `koanf:"secret"`
	TokenTTL time.Duration `koanf:"token_ttl"`
}

type Postgres struct {
	URL string `koanf:"url"`
}

type RabbitMQ struct {
	URL      string `koanf:"url"`
	Exchange string `koanf:"exchange"`
}

type Mongo struct {
	URI        string `koanf:"uri"`
	Database   string `koanf:"database"`
	Collection string `koanf:"collection"`
}

type Kafka struct {
	Brokers  []string `koanf:"brokers"`
	Topic    string   `koanf:"topic"`
	ClientID string   `koanf:"client_id"`
}

type Redis struct {
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	TTL      time.Duration `koanf:"ttl"`
}

// Load reads the defaults, then the YAML file at path if it exists, then
// the environment. The returned koanf instance holds the merged keys.
func Load(path string) (*Config, *koanf.Koanf, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(DefaultConfig), yaml.Parser()); err != nil {
		return nil, nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		err := k.Load(file.Provider(path), yaml.Parser())
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, nil, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, k, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate reports every invalid value at once.
func (c *Config) Validate() error {
	var err error
	invalid := func(field, msg string) {
		err = multierr.Append(err, fmt.Errorf("%s: %s", field, msg))
	}

	if c.Application == "" {
		invalid("application", "cannot be empty")
	}
	if c.Logger.Level == "" {
		invalid("logger.level", "cannot be empty")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		invalid("server.port", "must be between 1 and 65535")
	}
	if c.Floor.Tables <= 0 {
		invalid("floor.tables", "must be > 0")
	}
	if _, lerr := time.LoadLocation(c.Floor.Timezone); lerr != nil {
		invalid("floor.timezone", lerr.Error())
	}
	if _, perr := c.LedgerPricing(); perr != nil {
		invalid("pricing", perr.Error())
	}
	if _, cerr := c.Catalog(); cerr != nil {
		invalid("menu", cerr.Error())
	}
	if c.Export.Workers <= 0 {
		invalid("export.workers", "must be > 0")
	}
	if c.Export.QueueSize <= 0 {
		invalid("export.queue_size", "must be > 0")
	}
	if c.Export.OverflowSize <= 0 {
		invalid("export.overflow_size", "must be > 0")
	}
	if c.Export.Timeout <= 0 {
		invalid("export.timeout", "must be > 0")
	}
	if c.Export.RabbitMQ.URL != "" && c.Export.RabbitMQ.Exchange == "" {
		invalid("export.rabbitmq.exchange", "cannot be empty")
	}
	if c.Export.Mongo.URI != "" && (c.Export.Mongo.Database == "" || c.Export.Mongo.Collection == "") {
		invalid("export.mongo", "database and collection cannot be empty")
	}
	if len(c.Export.Kafka.Brokers) > 0 && c.Export.Kafka.Topic == "" {
		invalid("export.kafka.topic", "cannot be empty")
	}

	return err
}

// Location is the floor's timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Floor.Timezone)
}

// LedgerPricing converts the configured rates.
func (c *Config) LedgerPricing() (ledger.Pricing, error) {
	return ledger.NewPricing(
		decimal.NewFromFloat(c.Pricing.TaxRate),
		decimal.NewFromFloat(c.Pricing.ServiceRate),
		decimal.NewFromFloat(c.Pricing.DiscountRate),
	)
}

// Catalog builds the menu.
func (c *Config) Catalog() (*menu.Catalog, error) {
	items := make([]menu.Item, len(c.Menu))
	for i, m := range c.Menu {
		items[i] = menu.Item{
			ID:       m.ID,
			Name:     m.Name,
			Price:    decimal.NewFromFloat(m.Price),
			Category: m.Category,
		}
	}
	return menu.NewCatalog(items)
}
