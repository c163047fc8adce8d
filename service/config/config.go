package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// Default swap program ids recognized as buys. These match the reference
// deployment: Jupiter v4 and Raydium AMM v4.
const (
	DefaultJupiterProgramID = "JUP4Fb2cqiRUcaTHdrPC8h2gNsA2ETXiPDD33WcGuJB"
	DefaultRaydiumProgramID = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
)

// Config holds all application configuration loaded from environment variables.
// All required fields are validated at startup to ensure fail-fast behavior.
type Config struct {
	// Server configuration
	ServerAddr string
	LogLevel   string

	// Helius / Solana RPC configuration
	HeliusAPIKey string
	SolanaRPCURL string
	Commitment   string

	// Operator signing key, parsed once at startup and immutable thereafter.
	SigningKey solanago.PrivateKey

	// Jupiter aggregator configuration
	JupiterBaseURL      string
	QuoteAmountLamports uint64
	SlippagePct         float64

	// Buy detection: program ids whose presence in a transaction's top-level
	// instructions marks it as a buy.
	SwapProgramIDs []string

	// Side-effect sinks
	TradeLogPath string
	NATSURL      string // empty disables the NATS publisher

	// Timeouts
	HTTPTimeout         time.Duration
	ConfirmTimeout      time.Duration
	ConfirmPollInterval time.Duration
}

// Load reads configuration from environment variables and validates all
// required fields. Returns an error if any required configuration is missing
// or invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	var errs []error

	// Server configuration
	cfg.ServerAddr = getEnvOrDefault("SERVER_ADDR", ":3000")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	// Helius configuration
	cfg.HeliusAPIKey = os.Getenv("HELIUS_API_KEY")
	if cfg.HeliusAPIKey == "" {
		errs = append(errs, fmt.Errorf("HELIUS_API_KEY is required"))
	}

	// RPC endpoint defaults to Helius mainnet with the API key in the URL.
	cfg.SolanaRPCURL = os.Getenv("SOLANA_RPC_URL")
	if cfg.SolanaRPCURL == "" && cfg.HeliusAPIKey != "" {
		cfg.SolanaRPCURL = fmt.Sprintf("https://mainnet.helius-rpc.com/?api-key=%s", cfg.HeliusAPIKey)
	}

	cfg.Commitment = getEnvOrDefault("COMMITMENT", "confirmed")

	// Signing key
	secretKey := os.Getenv("SECRET_KEY")
	if secretKey == "" {
		errs = append(errs, fmt.Errorf("SECRET_KEY is required"))
	} else {
		key, err := ParsePrivateKey(secretKey)
		if err != nil {
			errs = append(errs, fmt.Errorf("SECRET_KEY: %w", err))
		} else {
			cfg.SigningKey = key
		}
	}

	// Jupiter configuration
	cfg.JupiterBaseURL = getEnvOrDefault("JUPITER_BASE_URL", "https://quote-api.jup.ag/v4")

	amount, err := parseUint("QUOTE_AMOUNT_LAMPORTS", 1_000_000)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.QuoteAmountLamports = amount
	}

	slippage, err := parseFloat("SLIPPAGE_PCT", 0.5)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.SlippagePct = slippage
	}

	// Buy detection
	cfg.SwapProgramIDs = parseList("SWAP_PROGRAM_IDS", []string{
		DefaultJupiterProgramID,
		DefaultRaydiumProgramID,
	})

	// Sinks
	cfg.TradeLogPath = getEnvOrDefault("TRADE_LOG_PATH", "/var/log/mimic-trades.log")
	cfg.NATSURL = os.Getenv("NATS_URL")

	// Timeouts
	httpTimeout, err := parseDuration("HTTP_TIMEOUT", "15s")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.HTTPTimeout = httpTimeout
	}

	confirmTimeout, err := parseDuration("CONFIRM_TIMEOUT", "60s")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.ConfirmTimeout = confirmTimeout
	}

	pollInterval, err := parseDuration("CONFIRM_POLL_INTERVAL", "2s")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.ConfirmPollInterval = pollInterval
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
// Useful for server initialization where misconfiguration should halt startup.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid.
// This is useful for testing configuration without loading from env.
func (c *Config) Validate() error {
	var errs []error

	if c.HeliusAPIKey == "" {
		errs = append(errs, fmt.Errorf("HeliusAPIKey is required"))
	}

	if c.SolanaRPCURL == "" {
		errs = append(errs, fmt.Errorf("SolanaRPCURL is required"))
	}

	if len(c.SigningKey) == 0 {
		errs = append(errs, fmt.Errorf("SigningKey is required"))
	}

	if c.JupiterBaseURL == "" {
		errs = append(errs, fmt.Errorf("JupiterBaseURL is required"))
	}

	if c.QuoteAmountLamports == 0 {
		errs = append(errs, fmt.Errorf("QuoteAmountLamports must be positive"))
	}

	if c.SlippagePct <= 0 {
		errs = append(errs, fmt.Errorf("SlippagePct must be positive"))
	}

	if len(c.SwapProgramIDs) == 0 {
		errs = append(errs, fmt.Errorf("SwapProgramIDs must not be empty"))
	}

	switch c.Commitment {
	case "processed", "confirmed", "finalized":
	default:
		errs = append(errs, fmt.Errorf("Commitment must be one of processed, confirmed, finalized (got %q)", c.Commitment))
	}

	if c.ConfirmPollInterval >= c.ConfirmTimeout {
		errs = append(errs, fmt.Errorf("ConfirmPollInterval (%v) must be less than ConfirmTimeout (%v)",
			c.ConfirmPollInterval, c.ConfirmTimeout))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

// ParsePrivateKey parses an ed25519 signing key from either a JSON byte array
// (the solana-keygen file format, e.g. "[12,34,...]") or a base58 string.
func ParsePrivateKey(s string) (solanago.PrivateKey, error) {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "[") {
		var raw []byte
		if err := json.Unmarshal([]byte(s), &raw); err != nil {
			return nil, fmt.Errorf("invalid JSON byte array: %w", err)
		}
		if len(raw) != 64 {
			return nil, fmt.Errorf("expected 64-byte keypair, got %d bytes", len(raw))
		}
		return solanago.PrivateKey(raw), nil
	}

	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base58 key: %w", err)
	}
	if len(raw) != 64 {
		return nil, fmt.Errorf("expected 64-byte keypair, got %d bytes", len(raw))
	}
	return solanago.PrivateKey(raw), nil
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration from an environment variable or uses a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return duration, nil
}

// parseUint parses an unsigned integer from an environment variable or uses a default.
func parseUint(key string, defaultValue uint64) (uint64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, value, err)
	}
	return result, nil
}

// parseFloat parses a float from an environment variable or uses a default.
func parseFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid float %q: %w", key, value, err)
	}
	return result, nil
}

// parseList parses a comma-separated list from an environment variable or uses a default.
func parseList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
