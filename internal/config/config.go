// Package config resolves the tubeauth-server runtime configuration from
// defaults, an optional YAML file, an optional .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	tubeAuth "github.com/MrEthical07/tubeAuth"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendMongo = "mongo"
	BackendRedis = "redis"
)

// Config is the resolved server configuration.
type Config struct {
	Port           int
	CORSOrigin     string
	LogLevel       string
	ProductionMode bool

	Backend         string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	RedisURL        string
	RedisPrefix     string

	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
	Issuer        string
	Audience      string

	PasswordAlgorithm string
	BcryptCost        int

	CookieDomain   string
	CookieSameSite string

	AuditEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	ShutdownTimeout time.Duration
}

// configFile mirrors the YAML schema of configs/tubeauth.yaml.
type configFile struct {
	Server struct {
		Port       int    `yaml:"port"`
		CORSOrigin string `yaml:"cors_origin"`
		LogLevel   string `yaml:"log_level"`
		Production bool   `yaml:"production"`
	} `yaml:"server"`
	Store struct {
		Backend         string `yaml:"backend"`
		MongoURI        string `yaml:"mongo_uri"`
		MongoDatabase   string `yaml:"mongo_database"`
		MongoCollection string `yaml:"mongo_collection"`
		RedisURL        string `yaml:"redis_url"`
		RedisPrefix     string `yaml:"redis_prefix"`
	} `yaml:"store"`
	Tokens struct {
		AccessTTL  string `yaml:"access_ttl"`
		RefreshTTL string `yaml:"refresh_ttl"`
		Issuer     string `yaml:"issuer"`
		Audience   string `yaml:"audience"`
	} `yaml:"tokens"`
	Password struct {
		Algorithm  string `yaml:"algorithm"`
		BcryptCost int    `yaml:"bcrypt_cost"`
	} `yaml:"password"`
	Cookie struct {
		Domain   string `yaml:"domain"`
		SameSite string `yaml:"same_site"`
	} `yaml:"cookie"`
	Audit struct {
		Enabled      bool     `yaml:"enabled"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
		KafkaTopic   string   `yaml:"kafka_topic"`
	} `yaml:"audit"`
}

func defaults() Config {
	return Config{
		Port:              8000,
		LogLevel:          "info",
		Backend:           BackendMongo,
		MongoDatabase:     "videotube",
		MongoCollection:   "users",
		RedisPrefix:       "tubeauth",
		AccessTTL:         15 * time.Minute,
		RefreshTTL:        10 * 24 * time.Hour,
		Issuer:            "tubeauth",
		PasswordAlgorithm: "argon2id",
		BcryptCost:        10,
		CookieSameSite:    "lax",
		ShutdownTimeout:   15 * time.Second,
	}
}

// Load resolves configuration in priority order: defaults, YAML file, .env
// file, environment. Missing files are skipped. Variables already set in the
// environment win over the .env file.
func Load(path, envFile string) (Config, error) {
	cfg := defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := applyFile(&cfg, raw); err != nil {
				return Config{}, err
			}
		case !errors.Is(err, os.ErrNotExist):
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func applyFile(cfg *Config, raw []byte) error {
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if f.Server.Port > 0 {
		cfg.Port = f.Server.Port
	}
	cfg.CORSOrigin = firstNonEmpty(f.Server.CORSOrigin, cfg.CORSOrigin)
	cfg.LogLevel = firstNonEmpty(f.Server.LogLevel, cfg.LogLevel)
	cfg.ProductionMode = cfg.ProductionMode || f.Server.Production

	cfg.Backend = firstNonEmpty(f.Store.Backend, cfg.Backend)
	cfg.MongoURI = firstNonEmpty(f.Store.MongoURI, cfg.MongoURI)
	cfg.MongoDatabase = firstNonEmpty(f.Store.MongoDatabase, cfg.MongoDatabase)
	cfg.MongoCollection = firstNonEmpty(f.Store.MongoCollection, cfg.MongoCollection)
	cfg.RedisURL = firstNonEmpty(f.Store.RedisURL, cfg.RedisURL)
	cfg.RedisPrefix = firstNonEmpty(f.Store.RedisPrefix, cfg.RedisPrefix)

	var err error
	if cfg.AccessTTL, err = durationOr(f.Tokens.AccessTTL, cfg.AccessTTL); err != nil {
		return fmt.Errorf("tokens.access_ttl: %w", err)
	}
	if cfg.RefreshTTL, err = durationOr(f.Tokens.RefreshTTL, cfg.RefreshTTL); err != nil {
		return fmt.Errorf("tokens.refresh_ttl: %w", err)
	}
	cfg.Issuer = firstNonEmpty(f.Tokens.Issuer, cfg.Issuer)
	cfg.Audience = firstNonEmpty(f.Tokens.Audience, cfg.Audience)

	cfg.PasswordAlgorithm = firstNonEmpty(f.Password.Algorithm, cfg.PasswordAlgorithm)
	if f.Password.BcryptCost > 0 {
		cfg.BcryptCost = f.Password.BcryptCost
	}

	cfg.CookieDomain = firstNonEmpty(f.Cookie.Domain, cfg.CookieDomain)
	cfg.CookieSameSite = firstNonEmpty(f.Cookie.SameSite, cfg.CookieSameSite)

	cfg.AuditEnabled = cfg.AuditEnabled || f.Audit.Enabled
	if len(f.Audit.KafkaBrokers) > 0 {
		cfg.KafkaBrokers = f.Audit.KafkaBrokers
	}
	cfg.KafkaTopic = firstNonEmpty(f.Audit.KafkaTopic, cfg.KafkaTopic)
	return nil
}

func applyEnv(cfg *Config) error {
	var err error

	if cfg.Port, err = envInt("PORT", cfg.Port); err != nil {
		return err
	}
	cfg.CORSOrigin = envOrDefault("CORS_ORIGIN", cfg.CORSOrigin)
	cfg.LogLevel = envOrDefault("LOG_LEVEL", cfg.LogLevel)
	if cfg.ProductionMode, err = envBool("PRODUCTION_MODE", cfg.ProductionMode); err != nil {
		return err
	}

	cfg.Backend = strings.ToLower(envOrDefault("STORE_BACKEND", cfg.Backend))
	cfg.MongoURI = envOrDefault("MONGODB_URI", cfg.MongoURI)
	cfg.MongoDatabase = envOrDefault("DB_NAME", cfg.MongoDatabase)
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)

	cfg.AccessSecret = envOrDefault("ACCESS_TOKEN_SECRET", cfg.AccessSecret)
	cfg.RefreshSecret = envOrDefault("REFRESH_TOKEN_SECRET", cfg.RefreshSecret)
	if cfg.AccessTTL, err = durationOr(os.Getenv("ACCESS_TOKEN_EXPIRY"), cfg.AccessTTL); err != nil {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRY: %w", err)
	}
	if cfg.RefreshTTL, err = durationOr(os.Getenv("REFRESH_TOKEN_EXPIRY"), cfg.RefreshTTL); err != nil {
		return fmt.Errorf("REFRESH_TOKEN_EXPIRY: %w", err)
	}

	cfg.PasswordAlgorithm = envOrDefault("PASSWORD_ALGORITHM", cfg.PasswordAlgorithm)
	if cfg.BcryptCost, err = envInt("BCRYPT_COST", cfg.BcryptCost); err != nil {
		return err
	}
	cfg.CookieDomain = envOrDefault("COOKIE_DOMAIN", cfg.CookieDomain)
	cfg.CookieSameSite = envOrDefault("COOKIE_SAMESITE", cfg.CookieSameSite)

	if cfg.AuditEnabled, err = envBool("AUDIT_ENABLED", cfg.AuditEnabled); err != nil {
		return err
	}
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaTopic = envOrDefault("KAFKA_AUDIT_TOPIC", cfg.KafkaTopic)
	return nil
}

// Validate checks server-level settings. Engine settings are validated by
// tubeAuth.Config.Validate at build time.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.Backend {
	case BackendMongo:
		if c.MongoURI == "" {
			return errors.New("MONGODB_URI is required for the mongo backend")
		}
	case BackendRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Backend)
	}
	if c.AccessSecret == "" || c.RefreshSecret == "" {
		return errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET are required")
	}
	if _, err := parseSameSite(c.CookieSameSite); err != nil {
		return err
	}
	if strings.TrimSpace(c.CORSOrigin) == "*" {
		return errors.New(`CORS_ORIGIN "*" is not allowed with credentialed requests; name the browser origin`)
	}
	return nil
}

// EngineConfig maps the server configuration onto the engine configuration.
func (c Config) EngineConfig() tubeAuth.Config {
	ec := tubeAuth.DefaultConfig()
	ec.JWT.AccessSecret = []byte(c.AccessSecret)
	ec.JWT.RefreshSecret = []byte(c.RefreshSecret)
	ec.JWT.AccessTTL = c.AccessTTL
	ec.JWT.RefreshTTL = c.RefreshTTL
	ec.JWT.Issuer = c.Issuer
	ec.JWT.Audience = c.Audience

	ec.Password.Algorithm = c.PasswordAlgorithm
	ec.Password.BcryptCost = c.BcryptCost
	if c.PasswordAlgorithm == "bcrypt" {
		ec.Password.MaxLength = 72
	}

	ec.Cookie.Domain = c.CookieDomain
	ec.Cookie.SameSite, _ = parseSameSite(c.CookieSameSite)

	ec.Audit.Enabled = c.AuditEnabled
	ec.Security.ProductionMode = c.ProductionMode
	return ec
}

func parseSameSite(v string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("invalid cookie same-site %q", v)
	}
}

// ParseDuration accepts Go durations ("15m", "1h30m") and whole days ("10d").
func ParseDuration(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if days, ok := strings.CutSuffix(v, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid duration %q", v)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	return d, nil
}

func durationOr(raw string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	return ParseDuration(raw)
}

func firstNonEmpty(v, fallback string) string {
	if strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func envOrDefault(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func envCSV(key string, fallback []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
