// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/danielhkuo/quickly-vote/db"
)

const (
	defaultPort      = 3318
	defaultSQLiteURL = "quickly-vote.db"
	defaultRateLimit = 10
	defaultRateBurst = 20
)

type Config struct {
	Port           int
	DatabaseURL    string
	DatabaseType   string
	IdentitySecret string
	LogLevel       slog.Level
	RateLimit      float64 // requests per second per client, 0 disables
	RateBurst      int
	CORSOrigins    []string
	TrustedProxies []netip.Prefix // peers whose X-Forwarded-For is believed
}

// Dialect returns the parsed database type. ParseFlags has already
// validated it.
func (c Config) Dialect() db.Dialect {
	return db.Dialect(c.DatabaseType)
}

// ParseFlags resolves configuration from flags, then the environment (after
// loading the env file if present), then defaults.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var logLevel, envFile string
	var trustedProxies []string

	flags := pflag.NewFlagSet("quickly-vote", pflag.ContinueOnError)

	flags.IntVarP(&cfg.Port, "port", "p", defaultPort, "Server port")
	flags.StringVarP(&cfg.DatabaseURL, "database-url", "d", "", "Database URL or sqlite file")
	flags.StringVarP(&cfg.DatabaseType, "database-type", "t", string(db.DialectSQLite), "Database type (sqlite or postgres)")
	flags.StringVar(&cfg.IdentitySecret, "identity-secret", "", "Secret shared with the auth provider (prefer env)")
	flags.StringVarP(&logLevel, "log-level", "l", "info", "Log level (debug, info, warn, error)")
	flags.Float64Var(&cfg.RateLimit, "rate-limit", defaultRateLimit, "Requests per second per client, 0 to disable")
	flags.IntVar(&cfg.RateBurst, "rate-burst", defaultRateBurst, "Burst size for the rate limiter")
	flags.StringSliceVar(&cfg.CORSOrigins, "cors-origin", nil, "Allowed CORS origin (repeatable)")
	flags.StringSliceVar(&trustedProxies, "trusted-proxy", nil, "Reverse proxy IP or CIDR allowed to set X-Forwarded-For (repeatable)")
	flags.StringVar(&envFile, "env-file", ".env", "File with environment overrides")

	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	if !flags.Changed("port") {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		}
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid port %d", cfg.Port)
	}

	if !flags.Changed("database-type") {
		if v := os.Getenv("DATABASE_TYPE"); v != "" {
			cfg.DatabaseType = v
		}
	}
	dialect, err := db.ParseDialect(cfg.DatabaseType)
	if err != nil {
		return Config{}, err
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		if dialect != db.DialectSQLite {
			return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
		}
		cfg.DatabaseURL = defaultSQLiteURL
	}

	// Secrets - MUST be provided
	if cfg.IdentitySecret == "" {
		cfg.IdentitySecret = os.Getenv("IDENTITY_SECRET")
	}
	if cfg.IdentitySecret == "" {
		return Config{}, errors.New("IDENTITY_SECRET required")
	}

	if !flags.Changed("log-level") {
		if v := os.Getenv("LOG_LEVEL"); v != "" {
			logLevel = v
		}
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(logLevel)); err != nil {
		return Config{}, fmt.Errorf("invalid log level %q", logLevel)
	}

	if !flags.Changed("rate-limit") {
		if v := os.Getenv("RATE_LIMIT"); v != "" {
			limit, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return Config{}, errors.New("invalid RATE_LIMIT env variable")
			}
			cfg.RateLimit = limit
		}
	}
	if !flags.Changed("rate-burst") {
		if v := os.Getenv("RATE_BURST"); v != "" {
			burst, err := strconv.Atoi(v)
			if err != nil {
				return Config{}, errors.New("invalid RATE_BURST env variable")
			}
			cfg.RateBurst = burst
		}
	}
	if cfg.RateLimit < 0 || cfg.RateBurst < 0 {
		return Config{}, errors.New("rate limit and burst must not be negative")
	}

	if len(cfg.CORSOrigins) == 0 {
		if v := os.Getenv("CORS_ORIGINS"); v != "" {
			for _, origin := range strings.Split(v, ",") {
				if origin = strings.TrimSpace(origin); origin != "" {
					cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
				}
			}
		}
	}

	if len(trustedProxies) == 0 {
		if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
			trustedProxies = strings.Split(v, ",")
		}
	}
	for _, entry := range trustedProxies {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		prefix, err := parseProxy(entry)
		if err != nil {
			return Config{}, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
		}
		cfg.TrustedProxies = append(cfg.TrustedProxies, prefix)
	}

	return cfg, nil
}

// parseProxy accepts a CIDR or a single address.
func parseProxy(s string) (netip.Prefix, error) {
	if strings.Contains(s, "/") {
		prefix, err := netip.ParsePrefix(s)
		if err != nil {
			return netip.Prefix{}, err
		}
		return prefix.Masked(), nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, err
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}
