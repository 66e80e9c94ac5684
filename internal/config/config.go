package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Config holds the runtime configuration read from the environment.
type Config struct {
	Env            string // application environment (dev, test, prod)
	Port           string // HTTP port to listen on
	LogLevel       string // zerolog level name
	DBUser         string
	DBPass         string // may be empty
	DBHost         string
	DBPort         string
	DBName         string
	AutoMigrate    bool // create missing tables at startup, best effort
	JWTSecret      string
	AccessTTLMin   int // access token lifetime in minutes
	RefreshTTLDays int // refresh token lifetime in days
	BcryptCost     int
}

// Lookup matches os.LookupEnv.
type Lookup func(key string) (string, bool)

// Parse builds a Config from lookup.  All missing required variables and
// malformed numbers are reported together.
func Parse(lookup Lookup) (Config, error) {
	p := parser{lookup: lookup}
	cfg := Config{
		Env:            p.str("APP_ENV", "dev"),
		Port:           p.str("APP_PORT", "1345"),
		LogLevel:       p.str("LOG_LEVEL", "info"),
		DBUser:         p.must("DB_USER"),
		DBPass:         p.str("DB_PASS", ""),
		DBHost:         p.must("DB_HOST"),
		DBPort:         p.str("DB_PORT", "3306"),
		DBName:         p.must("DB_NAME"),
		AutoMigrate:    p.flag("DB_AUTO_MIGRATE", true),
		JWTSecret:      p.must("JWT_SECRET"),
		AccessTTLMin:   p.number("ACCESS_TOKEN_TTL_MIN", 60),
		RefreshTTLDays: p.number("REFRESH_TOKEN_TTL_DAYS", 7),
		BcryptCost:     p.number("BCRYPT_COST", 12),
	}
	if cfg.AccessTTLMin < 1 {
		p.fail("ACCESS_TOKEN_TTL_MIN must be positive")
	}
	if cfg.RefreshTTLDays < 1 {
		p.fail("REFRESH_TOKEN_TTL_DAYS must be positive")
	}
	if len(p.errs) > 0 {
		return Config{}, fmt.Errorf("config: %s", strings.Join(p.errs, "; "))
	}
	return cfg, nil
}

// Load reads the process environment and exits when it is incomplete.
func Load() Config {
	cfg, err := Parse(os.LookupEnv)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	return cfg
}

type parser struct {
	lookup Lookup
	errs   []string
}

func (p *parser) fail(msg string) { p.errs = append(p.errs, msg) }

func (p *parser) str(key, def string) string {
	if v, ok := p.lookup(key); ok && v != "" {
		return v
	}
	return def
}

func (p *parser) must(key string) string {
	v, ok := p.lookup(key)
	if !ok || v == "" {
		p.fail("missing required env var: " + key)
	}
	return v
}

func (p *parser) number(key string, def int) int {
	v, ok := p.lookup(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(fmt.Sprintf("invalid int for %s: %q", key, v))
	}
	return n
}

func (p *parser) flag(key string, def bool) bool {
	v, ok := p.lookup(key)
	if !ok || v == "" {
		return def
	}
	b, ok := parseBool(v)
	if !ok {
		p.fail(fmt.Sprintf("invalid bool for %s: %q", key, v))
	}
	return b
}
