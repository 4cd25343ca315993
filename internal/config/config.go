// Package config loads MailBeacon's configuration: hardcoded defaults,
// overridden by a discovered TOML file, overridden by environment
// variables — the same precedence order the teacher's env-only loader
// used, generalized to a file layer.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
)

// Config is the full, validated configuration surface: the teacher's
// ambient server/logging block plus every discovery option from the
// spec's configuration table.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Logging LoggingConfig `toml:"logging"`

	MaxConcurrency int `toml:"max_concurrency"`

	RequestTimeoutSeconds int `toml:"request_timeout"`
	SMTPTimeoutSeconds    int `toml:"smtp_timeout"`
	DNSTimeoutSeconds     int `toml:"dns_timeout"`

	MinSleepBetweenRequestsMs int `toml:"min_sleep_between_requests_ms"`
	MaxSleepBetweenRequestsMs int `toml:"max_sleep_between_requests_ms"`

	CommonPagesToScrape []string `toml:"common_pages_to_scrape"`
	UserAgent           string   `toml:"user_agent"`
	MaxRedirects        int      `toml:"max_redirects"`

	DNSServers []string `toml:"dns_servers"`

	SMTPSenderEmail         string `toml:"smtp_sender_email"`
	SMTPHeloName            string `toml:"smtp_helo_name"`
	MaxVerificationAttempts int    `toml:"max_verification_attempts"`

	ConfidenceThreshold        int `toml:"confidence_threshold"`
	GenericConfidenceThreshold int `toml:"generic_confidence_threshold"`
	MaxAlternatives            int `toml:"max_alternatives"`

	GenericEmailPrefixes []string `toml:"generic_email_prefixes"`
	EmailRegexPattern    string   `toml:"email_regex_pattern"`

	RequestTimeout     time.Duration `toml:"-"`
	SMTPTimeout        time.Duration `toml:"-"`
	DNSTimeout         time.Duration `toml:"-"`
	MinSleepBetween    time.Duration `toml:"-"`
	MaxSleepBetween    time.Duration `toml:"-"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port string `toml:"port"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultCommonPages mirrors the original's DEFAULT_COMMON_PAGES,
// including the German-market paths the distilled spec dropped.
var DefaultCommonPages = []string{
	"/contact", "/contact-us", "/about", "/about-us", "/team", "/staff",
	"/company", "/people", "/leadership",
	"/kontakt", "/impressum", "/ueber-uns", "/ueber_uns", "/karriere", "/datenschutz",
}

// DefaultGenericPrefixes mirrors DEFAULT_GENERIC_PREFIXES, including the
// German terms the distilled spec dropped.
var DefaultGenericPrefixes = []string{
	"info", "sales", "contact", "support", "admin", "hello", "office",
	"hr", "jobs", "careers", "press", "media", "marketing", "help",
	"service", "billing", "legal", "privacy", "webmaster", "postmaster",
	"kontakt", "hallo", "hilfe", "buero", "vertrieb", "presse",
	"karriere", "datenschutz", "recht", "allgemein", "anfragen", "post",
}

var DefaultDNSServers = []string{"8.8.8.8", "8.8.4.4", "1.1.1.1", "1.0.0.1"}

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const DefaultEmailRegex = `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`

func defaults() *Config {
	return &Config{
		Server:  ServerConfig{Host: "0.0.0.0", Port: "8080"},
		Logging: LoggingConfig{Level: "info", Format: "json"},

		MaxConcurrency: 10,

		RequestTimeoutSeconds: 15,
		SMTPTimeoutSeconds:    20,
		DNSTimeoutSeconds:     5,

		MinSleepBetweenRequestsMs: 300,
		MaxSleepBetweenRequestsMs: 1200,

		CommonPagesToScrape: append([]string{}, DefaultCommonPages...),
		UserAgent:           DefaultUserAgent,
		MaxRedirects:        5,

		DNSServers: append([]string{}, DefaultDNSServers...),

		SMTPSenderEmail:         "verify@mailbeacon.local",
		SMTPHeloName:            "localhost",
		MaxVerificationAttempts: 2,

		ConfidenceThreshold:        3,
		GenericConfidenceThreshold: 6,
		MaxAlternatives:            5,

		GenericEmailPrefixes: append([]string{}, DefaultGenericPrefixes...),
		EmailRegexPattern:    DefaultEmailRegex,
	}
}

// Load discovers and parses configuration: defaults, then the first
// existing TOML file among the candidate paths (or the path named by
// MAILBEACON_CONFIG_FILE, which takes priority over all three), then
// MAILBEACON_-prefixed environment variables, applying validation at
// the end.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path := findConfigFile(); path != "" {
		if err := loadTOML(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)
	validate(cfg)

	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	cfg.SMTPTimeout = time.Duration(cfg.SMTPTimeoutSeconds) * time.Second
	cfg.DNSTimeout = time.Duration(cfg.DNSTimeoutSeconds) * time.Second
	cfg.MinSleepBetween = time.Duration(cfg.MinSleepBetweenRequestsMs) * time.Millisecond
	cfg.MaxSleepBetween = time.Duration(cfg.MaxSleepBetweenRequestsMs) * time.Millisecond

	return cfg, nil
}

func findConfigFile() string {
	if explicit := os.Getenv("MAILBEACON_CONFIG_FILE"); explicit != "" {
		if fileExists(explicit) {
			return explicit
		}
	}

	candidates := []string{"./mailbeacon.toml", "./config.toml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "mailbeacon.toml"))
	}
	for _, c := range candidates {
		if fileExists(c) {
			return c
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func loadTOML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return toml.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) {
	if v := getEnv("MAILBEACON_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := getEnv("MAILBEACON_SERVER_PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := getEnv("MAILBEACON_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := getEnv("MAILBEACON_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v, ok := getEnvInt("MAILBEACON_MAX_CONCURRENCY"); ok {
		cfg.MaxConcurrency = v
	}
	if v, ok := getEnvInt("MAILBEACON_REQUEST_TIMEOUT"); ok {
		cfg.RequestTimeoutSeconds = v
	}
	if v, ok := getEnvInt("MAILBEACON_SMTP_TIMEOUT"); ok {
		cfg.SMTPTimeoutSeconds = v
	}
	if v, ok := getEnvInt("MAILBEACON_DNS_TIMEOUT"); ok {
		cfg.DNSTimeoutSeconds = v
	}
	if v := getEnv("MAILBEACON_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := getEnv("MAILBEACON_DNS_SERVERS"); v != "" {
		cfg.DNSServers = strings.Split(v, ",")
	}
	if v := getEnv("MAILBEACON_SMTP_SENDER_EMAIL"); v != "" {
		cfg.SMTPSenderEmail = v
	}
	if v, ok := getEnvInt("MAILBEACON_MAX_VERIFICATION_ATTEMPTS"); ok {
		cfg.MaxVerificationAttempts = v
	}
	if v, ok := getEnvInt("MAILBEACON_CONFIDENCE_THRESHOLD"); ok {
		cfg.ConfidenceThreshold = v
	}
	if v, ok := getEnvInt("MAILBEACON_GENERIC_CONFIDENCE_THRESHOLD"); ok {
		cfg.GenericConfidenceThreshold = v
	}
	if v, ok := getEnvInt("MAILBEACON_MAX_ALTERNATIVES"); ok {
		cfg.MaxAlternatives = v
	}
	if v := getEnv("MAILBEACON_EMAIL_REGEX_PATTERN"); v != "" {
		cfg.EmailRegexPattern = v
	}
}

func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func getEnvInt(key string) (int, bool) {
	raw := getEnv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// validate clamps thresholds, coerces relative bounds, and defaults an
// empty DNS server list, per the original's final-validation block.
func validate(cfg *Config) {
	cfg.ConfidenceThreshold = clamp(cfg.ConfidenceThreshold, 0, 10)
	cfg.GenericConfidenceThreshold = clamp(cfg.GenericConfidenceThreshold, 0, 10)
	if cfg.GenericConfidenceThreshold < cfg.ConfidenceThreshold {
		cfg.GenericConfidenceThreshold = cfg.ConfidenceThreshold
	}
	if cfg.MaxSleepBetweenRequestsMs < cfg.MinSleepBetweenRequestsMs {
		cfg.MaxSleepBetweenRequestsMs = cfg.MinSleepBetweenRequestsMs
	}
	if len(cfg.DNSServers) == 0 {
		cfg.DNSServers = append([]string{}, DefaultDNSServers...)
	}
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = 1
	}
	if cfg.MaxVerificationAttempts < 1 {
		cfg.MaxVerificationAttempts = 1
	}
	if cfg.MaxAlternatives < 0 {
		cfg.MaxAlternatives = 0
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// GetLogger builds a zap.Logger from the Logging block, kept verbatim
// from the teacher's config.GetLogger.
func (c *Config) GetLogger() (*zap.Logger, error) {
	var zcfg zap.Config

	if c.Logging.Format == "json" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	switch c.Logging.Level {
	case "debug":
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zcfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zcfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	return zcfg.Build()
}
