package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	ntsolana "github.com/web-developer77/nifty-tunes-nft/pkg/solana"
)

const (
	MigrateModeAuto  = "auto"
	MigrateModeFiles = "files"
	MigrateModeNone  = "none"
)

// Config is the process configuration read from the environment
type Config struct {
	DBDriver   string
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBPath     string

	RabbitMQHost     string
	RabbitMQPort     string
	RabbitMQUser     string
	RabbitMQPassword string

	Port           string
	AllowedOrigins []string

	ProgramID         solana.PublicKey
	MetadataProgramID solana.PublicKey

	MigrateMode    string
	RateLimitRPS   float64
	RateLimitBurst int
	SignatureTTL   time.Duration
	SweepCron      string
	SweepInProcess bool
	KeystoreDir    string
}

// Load reads .env (when present) and the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("Failed to load .env file: %v", err)
	}

	cfg := &Config{
		DBDriver:         getEnv("DB_DRIVER", "postgres"),
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBUser:           os.Getenv("DB_USER"),
		DBPassword:       os.Getenv("DB_PASSWORD"),
		DBName:           getEnv("DB_NAME", "nft_market"),
		DBPort:           getEnv("DB_PORT", "5432"),
		DBPath:           getEnv("DB_PATH", "nft_market.db"),
		RabbitMQHost:     os.Getenv("RABBITMQ_HOST"),
		RabbitMQPort:     getEnv("RABBITMQ_PORT", "5672"),
		RabbitMQUser:     getEnv("RABBITMQ_USER", "guest"),
		RabbitMQPassword: getEnv("RABBITMQ_PASSWORD", "guest"),
		Port:             getEnv("PORT", "8080"),
		AllowedOrigins:   splitList(os.Getenv("ALLOWED_ORIGINS")),
		MigrateMode:      getEnv("MIGRATE_MODE", MigrateModeAuto),
		SweepCron:        getEnv("SWEEP_CRON", "*/15 * * * * *"),
		KeystoreDir:      getEnv("KEYSTORE_DIR", ntsolana.DefaultKeystoreDir),
	}

	var err error
	if cfg.ProgramID, err = publicKeyEnv("PROGRAM_ID", ntsolana.MARKET_PROGRAM_ID); err != nil {
		return nil, err
	}
	if cfg.MetadataProgramID, err = publicKeyEnv("METADATA_PROGRAM_ID", ntsolana.MPL_TOKEN_METADATA_PROGRAM_ID); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS, err = strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "20"), 64); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(getEnv("RATE_LIMIT_BURST", "40")); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}
	if cfg.SignatureTTL, err = time.ParseDuration(getEnv("SIGNATURE_TTL", "2m")); err != nil {
		return nil, fmt.Errorf("invalid SIGNATURE_TTL: %w", err)
	}
	if cfg.SweepInProcess, err = strconv.ParseBool(getEnv("SWEEP_IN_PROCESS", "true")); err != nil {
		return nil, fmt.Errorf("invalid SWEEP_IN_PROCESS: %w", err)
	}

	switch cfg.MigrateMode {
	case MigrateModeAuto, MigrateModeFiles, MigrateModeNone:
	default:
		return nil, fmt.Errorf("invalid MIGRATE_MODE %q", cfg.MigrateMode)
	}
	return cfg, nil
}

// RabbitMQEnabled reports whether a broker is configured
func (c *Config) RabbitMQEnabled() bool {
	return c.RabbitMQHost != ""
}

// Deriver builds the derived-address calculator for the configured programs
func (c *Config) Deriver() (*ntsolana.Deriver, error) {
	return ntsolana.NewDeriver(c.ProgramID, c.MetadataProgramID)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func publicKeyEnv(key string, fallback solana.PublicKey) (solana.PublicKey, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	pk, err := solana.PublicKeyFromBase58(v)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return pk, nil
}

// splitList parses a comma-separated list, e.g. "http://localhost:3000,http://localhost:3001"
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
