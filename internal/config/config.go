// Package config loads service configuration: defaults, then an optional
// YAML file, then environment variables (optionally seeded from a .env file).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"solana-blog-pass/internal/address"
)

// DefaultProgramID is the program the blog records are derived under.
const DefaultProgramID = "2KH5fQNCT2BNLqcdVDzi4kCjWhBW9Js4VXXWEjjYt4xu"

// Config is the service configuration.
type Config struct {
	ProgramID string        `yaml:"program_id"`
	HTTP      HTTPConfig    `yaml:"http"`
	Log       LogConfig     `yaml:"log"`
	Storage   StorageConfig `yaml:"storage"`
	Solana    SolanaConfig  `yaml:"solana"`
	Faucet    FaucetConfig  `yaml:"faucet"`
	RateLimit RateConfig    `yaml:"rate_limit"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// SignatureWindow bounds the drift of a signed request's timestamp.
	SignatureWindow time.Duration `yaml:"signature_window"`

	// AllowedOrigins lists the Origin values accepted on the event stream.
	// Empty accepts only the request's own host; "*" accepts any origin and
	// is meant for local development.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LogConfig configures logrus.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or text
}

// StorageConfig selects the read-model and event stores.
type StorageConfig struct {
	UseMemory     bool   `yaml:"use_memory"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickHouseDSN string `yaml:"clickhouse_dsn"` // optional analytics sink
}

// SolanaConfig points at a cluster used to calibrate rent.
type SolanaConfig struct {
	RPCEndpoint   string `yaml:"rpc_endpoint"`
	CalibrateRent bool   `yaml:"calibrate_rent"`
}

// FaucetConfig controls the airdrop endpoint.
type FaucetConfig struct {
	Enabled     bool   `yaml:"enabled"`
	MaxLamports uint64 `yaml:"max_lamports"`
}

// RateConfig limits mint requests per signer.
type RateConfig struct {
	MintPerSecond float64 `yaml:"mint_per_second"`
	MintBurst     int     `yaml:"mint_burst"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ProgramID: DefaultProgramID,
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			SignatureWindow: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Storage: StorageConfig{
			UseMemory: true,
		},
		Faucet: FaucetConfig{
			Enabled:     true,
			MaxLamports: 10_000_000_000,
		},
		RateLimit: RateConfig{
			MintPerSecond: 5,
			MintBurst:     10,
		},
	}
}

// Load builds the configuration. envFile and path are optional; a missing
// envFile is ignored, a missing path is an error.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from environment variables.
func (c *Config) applyEnv() error {
	setString(&c.ProgramID, "BLOG_PROGRAM_ID")
	setString(&c.HTTP.Addr, "BLOG_HTTP_ADDR")
	setString(&c.Log.Level, "BLOG_LOG_LEVEL")
	setString(&c.Log.Format, "BLOG_LOG_FORMAT")
	setString(&c.Storage.PostgresDSN, "POSTGRES_DSN")
	setString(&c.Storage.ClickHouseDSN, "CLICKHOUSE_DSN")
	setString(&c.Solana.RPCEndpoint, "SOLANA_RPC_ENDPOINT")

	if c.Storage.PostgresDSN != "" {
		c.Storage.UseMemory = false
	}
	if v, ok := os.LookupEnv("BLOG_ALLOWED_ORIGINS"); ok {
		c.HTTP.AllowedOrigins = splitList(v)
	}
	if v, ok := os.LookupEnv("BLOG_SIGNATURE_WINDOW"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("BLOG_SIGNATURE_WINDOW: %w", err)
		}
		c.HTTP.SignatureWindow = d
	}

	if err := setBool(&c.Storage.UseMemory, "BLOG_USE_MEMORY"); err != nil {
		return err
	}
	if err := setBool(&c.Solana.CalibrateRent, "BLOG_CALIBRATE_RENT"); err != nil {
		return err
	}
	if err := setBool(&c.Faucet.Enabled, "BLOG_FAUCET_ENABLED"); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("BLOG_FAUCET_MAX_LAMPORTS"); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("BLOG_FAUCET_MAX_LAMPORTS: %w", err)
		}
		c.Faucet.MaxLamports = n
	}
	if v, ok := os.LookupEnv("BLOG_MINT_RATE"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("BLOG_MINT_RATE: %w", err)
		}
		c.RateLimit.MintPerSecond = f
	}
	if v, ok := os.LookupEnv("BLOG_MINT_BURST"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BLOG_MINT_BURST: %w", err)
		}
		c.RateLimit.MintBurst = n
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func setBool(dst *bool, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if _, err := address.Parse(c.ProgramID); err != nil {
		return fmt.Errorf("program_id: %w", err)
	}
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if c.HTTP.SignatureWindow <= 0 {
		return errors.New("http.signature_window must be positive")
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	if !c.Storage.UseMemory && c.Storage.PostgresDSN == "" {
		return errors.New("storage.postgres_dsn is required unless storage.use_memory is set")
	}
	if c.Solana.CalibrateRent && c.Solana.RPCEndpoint == "" {
		return errors.New("solana.rpc_endpoint is required for rent calibration")
	}
	if c.RateLimit.MintPerSecond <= 0 || c.RateLimit.MintBurst <= 0 {
		return errors.New("rate_limit: mint_per_second and mint_burst must be positive")
	}
	return nil
}

// ParsedProgramID returns the program ID as a key.
func (c *Config) ParsedProgramID() address.Pubkey {
	return address.MustParse(c.ProgramID)
}

// NewLogger builds a logrus logger from the log section.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if level, err := logrus.ParseLevel(c.Log.Level); err == nil {
		logger.SetLevel(level)
	}
	if c.Log.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}
