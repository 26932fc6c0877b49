package kiosk

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml/v2"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type Config struct {
	Log    LogConfig    `toml:"log"`
	DB     DBConfig     `toml:"db"`
	Ledger LedgerConfig `toml:"ledger"`
	Kiosk  KioskConfig  `toml:"kiosk"`
	Web    WebConfig    `toml:"web"`
	Mongo  MongoConfig  `toml:"mongo"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type DBConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	PoolSize int    `toml:"pool_size"`
}

// LedgerConfig points the engine at the external redemption ledger API.
type LedgerConfig struct {
	BaseURL         string `toml:"base_url"`
	APIKey          string `toml:"api_key"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	CacheSize       int    `toml:"cache_size"`
	CacheTTLSeconds int    `toml:"cache_ttl_seconds"`
}

// KioskConfig tunes the dispenser engine itself.
type KioskConfig struct {
	PublicURL        string `toml:"public_url"`
	ClaimBaseURL     string `toml:"claim_base_url"`
	GraceSeconds     int    `toml:"grace_seconds"`
	TestGraceSeconds int    `toml:"test_grace_seconds"`
	ReconcileSeconds int    `toml:"reconcile_seconds"`
	MaxInProgress    int    `toml:"max_in_progress"`
	RetryTimes       int    `toml:"retry_times"`
	RetryCooldownSec int    `toml:"retry_cooldown_seconds"`
}

type WebConfig struct {
	Addr            string `toml:"addr"`
	RateLimit       int    `toml:"rate_limit"`
	RateWindowSec   int    `toml:"rate_window_seconds"`
	TrustProxyChain bool   `toml:"trust_proxy_chain"`
	// VerifierKey authenticates the external human-verification service
	// posting proof results. Empty disables the webhook.
	VerifierKey string `toml:"verifier_key"`
}

// MongoConfig is only used by the legacy import tool.
type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}
