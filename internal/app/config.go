package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (ORDER_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (ORDER_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	CatalogFile string `usage:"Optional product catalog JSON file (plain or gzip)" flag:"catalog-file"`
	NATS        NATSConfig
	Rules       RulesConfig
	Processing  ProcessingConfig
	Graceful    GracefulConfig
}

// NATSConfig controls the NATS Streaming connection and the order event
// subscription.
type NATSConfig struct {
	URL        string        `default:"nats://127.0.0.1:4222" usage:"NATS server URL"`
	ClusterID  string        `default:"order-cluster" usage:"NATS Streaming cluster ID" flag:"nats-cluster"`
	ClientID   string        `usage:"NATS Streaming client ID (generated when empty)" flag:"nats-client"`
	Subject    string        `default:"orders" usage:"Subject for order events"`
	QueueGroup string        `default:"order-workers" usage:"Queue group for the order consumer" flag:"nats-queue"`
	Durable    string        `default:"order-engine" usage:"Durable subscription name" flag:"nats-durable"`
	AckWait    time.Duration `default:"30s" usage:"Redelivery window for unacked messages" flag:"nats-ack-wait"`
}

// RulesConfig controls the cross-cutting order rules. Thresholds are decimal
// strings to avoid float drift in money comparisons.
type RulesConfig struct {
	HighValueThreshold  string  `default:"10000" usage:"Order total above which the order is flagged high value" flag:"high-value-threshold"`
	FraudCheckThreshold string  `default:"20000" usage:"Order total above which the fraud check runs" flag:"fraud-check-threshold"`
	FraudProbability    float64 `default:"0.05" usage:"Probability the fraud check trips" flag:"fraud-probability"`
	PaymentFailureRate  float64 `default:"0.02" usage:"Probability of a simulated payment failure" flag:"payment-failure-rate"`
}

// ProcessingConfig controls per-processor limits.
type ProcessingConfig struct {
	CreditLimit            string `default:"100000" usage:"Corporate credit limit per customer" flag:"credit-limit"`
	ApprovalThreshold      string `default:"50000" usage:"Corporate total requiring manual approval" flag:"approval-threshold"`
	MaxActiveSubscriptions int    `default:"5" usage:"Active subscription cap per customer" flag:"max-subscriptions"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and command-line flags, then applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(os.Args[1:])
}

func loadConfig(args []string) (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "ORDER",
		Args:      args,
		Files:     []string{"config.yaml", "/etc/order-engine/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set ORDER_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables that use
// standard names like DATABASE_URL and PORT to the application's ORDER_-
// prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
