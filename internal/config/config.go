package config

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/air-gapped/enml/internal/fetch"
)

// Config holds all runtime configuration for enml.
type Config struct {
	Listen           string
	CacheTTL         time.Duration
	CacheMaxSize     int64
	FetchTimeout     time.Duration
	MaxFileSize      int64
	AllowedUpstreams string
	Allowlist        *fetch.Allowlist
	AllowPrivate     bool
	TLSSkipVerify    bool

	Proxy fetch.Proxy

	NoteTitle string
	NoteTags  string
	Notebook  string

	LogFormat string
	LogLevel  slog.Level

	// One-shot conversion. Serving is skipped when Input is set.
	Input  string
	Attach []string
	Output string
}

// FetchOptions returns the source fetcher options for this configuration.
func (c *Config) FetchOptions() fetch.Options {
	return fetch.Options{
		Timeout:       c.FetchTimeout,
		MaxFileSize:   c.MaxFileSize,
		Proxy:         c.Proxy,
		Allowlist:     c.Allowlist,
		AllowPrivate:  c.AllowPrivate,
		TLSSkipVerify: c.TLSSkipVerify,
	}
}

// stringList is a repeatable flag. Each use may also carry a comma-separated list.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			*s = append(*s, p)
		}
	}
	return nil
}

// Parse reads configuration from CLI flags with environment variable fallback.
func Parse(args []string) (*Config, error) {
	fs := flag.NewFlagSet("enml", flag.ContinueOnError)

	cfg := &Config{}

	fs.StringVar(&cfg.Listen, "listen", envOr("ENML_LISTEN", "127.0.0.1:8080"), "Listen address")
	fs.DurationVar(&cfg.CacheTTL, "cache-ttl", envDurationOr("ENML_CACHE_TTL", 5*time.Minute), "Conversion cache TTL")
	cacheMaxSize := fs.String("cache-max-size", envOr("ENML_CACHE_MAX_SIZE", "64MB"), "Max conversion cache size (e.g. 64MB)")
	fs.DurationVar(&cfg.FetchTimeout, "fetch-timeout", envDurationOr("ENML_FETCH_TIMEOUT", 30*time.Second), "Source fetch timeout")
	maxFileSize := fs.String("max-file-size", envOr("ENML_MAX_FILE_SIZE", "25MB"), "Max export file size (e.g. 25MB)")
	fs.StringVar(&cfg.AllowedUpstreams, "allowed-upstreams", envOr("ENML_ALLOWED_UPSTREAMS", ""), "Comma-separated source hosts, *.wildcards or CIDRs")
	fs.BoolVar(&cfg.AllowPrivate, "allow-private", envBoolOr("ENML_ALLOW_PRIVATE", false), "Allow fetching from private and loopback addresses")
	fs.BoolVar(&cfg.TLSSkipVerify, "tls-skip-verify", envBoolOr("ENML_TLS_SKIP_VERIFY", false), "Disable TLS certificate verification for source fetches")

	fs.StringVar(&cfg.Proxy.Host, "proxy-host", envOr("ENML_PROXY_HOST", ""), "HTTP proxy host")
	proxyPort := fs.String("proxy-port", envOr("ENML_PROXY_PORT", ""), "HTTP proxy port")
	fs.StringVar(&cfg.Proxy.User, "proxy-user", envOr("ENML_PROXY_USER", ""), "HTTP proxy user")
	fs.StringVar(&cfg.Proxy.Password, "proxy-password", envOr("ENML_PROXY_PASSWORD", ""), "HTTP proxy password")

	fs.StringVar(&cfg.NoteTitle, "note-title", envOr("ENML_NOTE_TITLE", ""), "Note title (default: derived from content)")
	fs.StringVar(&cfg.NoteTags, "note-tags", envOr("ENML_NOTE_TAGS", ""), "Comma-separated note tags")
	fs.StringVar(&cfg.Notebook, "notebook", envOr("ENML_NOTEBOOK", ""), "Target notebook GUID")

	fs.StringVar(&cfg.LogFormat, "log-format", envOr("ENML_LOG_FORMAT", "json"), "Log format: json or text")
	logLevel := fs.String("log-level", envOr("ENML_LOG_LEVEL", "info"), "Log level: debug, info, warn or error")

	fs.StringVar(&cfg.Input, "input", "", "Convert this file or URL once and exit")
	attach := stringList{}
	fs.Var(&attach, "attach", "Attachment file for --input (repeatable)")
	fs.StringVar(&cfg.Output, "output", "", "Write the converted note here instead of stdout")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.Attach = attach

	var err error
	cfg.CacheMaxSize, err = parseByteSize(*cacheMaxSize)
	if err != nil {
		return nil, fmt.Errorf("parse cache-max-size: %w", err)
	}

	cfg.MaxFileSize, err = parseByteSize(*maxFileSize)
	if err != nil {
		return nil, fmt.Errorf("parse max-file-size: %w", err)
	}

	cfg.Allowlist, err = fetch.ParseAllowlist(cfg.AllowedUpstreams)
	if err != nil {
		return nil, fmt.Errorf("parse allowed-upstreams: %w", err)
	}

	if *proxyPort != "" {
		cfg.Proxy.Port, err = strconv.Atoi(*proxyPort)
		if err != nil || cfg.Proxy.Port < 1 || cfg.Proxy.Port > 65535 {
			return nil, fmt.Errorf("invalid proxy-port %q", *proxyPort)
		}
	}
	if cfg.Proxy.Host == "" && (cfg.Proxy.Port != 0 || cfg.Proxy.User != "") {
		return nil, fmt.Errorf("proxy-port and proxy-user require proxy-host")
	}

	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, fmt.Errorf("invalid log-format %q: must be json or text", cfg.LogFormat)
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(*logLevel)); err != nil {
		return nil, fmt.Errorf("parse log-level: %w", err)
	}

	if len(cfg.Attach) > 0 && cfg.Input == "" {
		return nil, fmt.Errorf("attach requires input")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		return v == "1" || v == "true" || v == "yes"
	}
	return fallback
}

// parseByteSize parses a human-readable byte size like "64MB", "512KB", "1GB".
func parseByteSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	i := 0
	for i < len(s) && ((s[i] >= '0' && s[i] <= '9') || s[i] == '.') {
		i++
	}

	num, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}

	var multiplier int64
	switch strings.ToUpper(strings.TrimSpace(s[i:])) {
	case "", "B":
		multiplier = 1
	case "KB", "K":
		multiplier = 1 << 10
	case "MB", "M":
		multiplier = 1 << 20
	case "GB", "G":
		multiplier = 1 << 30
	default:
		return 0, fmt.Errorf("unknown size unit %q in %q", s[i:], s)
	}

	return int64(num * float64(multiplier)), nil
}
