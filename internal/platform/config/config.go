package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	platformStrings "intentgate/pkg/platform/strings"
)

const devJWTSigningKey = "dev-secret-key-change-in-production"

// Config is the full process configuration, grouped by concern.
type Config struct {
	Server   Server
	Proxy    Proxy
	Postgres Postgres
	Redis    Redis
	Kafka    Kafka
	Signer   Signer
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	Environment     string
	JWTSigningKey   string
	JWTIssuer       string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// IsDev reports whether development defaults are allowed.
func (s Server) IsDev() bool {
	return s.Environment == "dev"
}

// Proxy identifies the governing account and the signer it delegates to.
type Proxy struct {
	OwnerID         string
	SignerServiceID string
	TxTimeout       time.Duration
}

// Postgres is enabled when URL is set. Otherwise stores are in-memory.
type Postgres struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Redis backs the pending-signature table when URL is set.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PendingTTL   time.Duration
}

// Kafka enables activity fan-out when Brokers is non-empty.
type Kafka struct {
	Brokers           []string
	Topic             string
	Partitions        int32
	ReplicationFactor int16
}

// Signer configures the outbound RPC and the optional result listener.
type Signer struct {
	RPCURL          string
	ListenerURL     string
	Timeout         time.Duration
	Deposit         string
	Gas             uint64
	BreakerFailures int
	BreakerCooldown time.Duration
}

// FromEnv builds the config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var p parser
	cfg := Config{
		Server: Server{
			Addr:            p.str("INTENTGATE_ADDR", ":8080"),
			Environment:     p.str("INTENTGATE_ENV", "dev"),
			JWTSigningKey:   p.str("JWT_SIGNING_KEY", ""),
			JWTIssuer:       p.str("JWT_ISSUER", "intentgate"),
			LogLevel:        p.str("LOG_LEVEL", "info"),
			LogFormat:       p.str("LOG_FORMAT", "json"),
			ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Proxy: Proxy{
			OwnerID:         p.str("PROXY_OWNER_ID", ""),
			SignerServiceID: p.str("SIGNER_SERVICE_ID", ""),
			TxTimeout:       p.duration("PROXY_TX_TIMEOUT", 5*time.Second),
		},
		Postgres: Postgres{
			URL:             p.str("DATABASE_URL", ""),
			MaxOpenConns:    p.int("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    p.int("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: p.duration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: Redis{
			URL:          p.str("REDIS_URL", ""),
			PoolSize:     p.int("REDIS_POOL_SIZE", 10),
			MinIdleConns: p.int("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  p.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  p.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: p.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PendingTTL:   p.duration("PENDING_SIGNATURE_TTL", 24*time.Hour),
		},
		Kafka: Kafka{
			Brokers:           p.list("KAFKA_BROKERS"),
			Topic:             p.str("KAFKA_ACTIVITY_TOPIC", "intentgate.activity"),
			Partitions:        int32(p.int("KAFKA_ACTIVITY_PARTITIONS", 3)),
			ReplicationFactor: int16(p.int("KAFKA_REPLICATION_FACTOR", 1)),
		},
		Signer: Signer{
			RPCURL:          p.str("SIGNER_RPC_URL", ""),
			ListenerURL:     p.str("SIGNER_WS_URL", ""),
			Timeout:         p.duration("SIGNER_TIMEOUT", 10*time.Second),
			Deposit:         p.str("SIGNER_DEPOSIT", ""),
			Gas:             p.uint("SIGNER_GAS", 0),
			BreakerFailures: p.int("SIGNER_BREAKER_FAILURES", 5),
			BreakerCooldown: p.duration("SIGNER_BREAKER_COOLDOWN", 30*time.Second),
		},
	}
	if p.err != nil {
		return Config{}, p.err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Proxy.OwnerID == "" {
		errs = append(errs, errors.New("PROXY_OWNER_ID is required"))
	}
	if c.Server.JWTSigningKey == "" {
		if c.Server.IsDev() {
			c.Server.JWTSigningKey = devJWTSigningKey
		} else {
			errs = append(errs, errors.New("JWT_SIGNING_KEY is required outside dev"))
		}
	}
	if !c.Server.IsDev() && (c.Signer.Deposit != "" || c.Signer.Gas != 0) {
		errs = append(errs, errors.New("SIGNER_DEPOSIT and SIGNER_GAS may only be overridden in dev"))
	}
	if c.Signer.RPCURL == "" {
		errs = append(errs, errors.New("SIGNER_RPC_URL is required"))
	}
	return errors.Join(errs...)
}

// parser accumulates the first malformed value so FromEnv reports it once.
type parser struct {
	err error
}

func (p *parser) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (p *parser) list(key string) []string {
	return platformStrings.SplitList(p.str(key, ""), ",")
}

func (p *parser) int(key string, def int) int {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return v
}

func (p *parser) uint(key string, def uint64) uint64 {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return v
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return v
}

func (p *parser) fail(key, raw string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s=%q: %w", key, raw, err)
	}
}
