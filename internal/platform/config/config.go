package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server captures HTTP server level configuration and the backends the
// gateway talks to.
type Server struct {
	Addr          string        `env:"EPP_GATEWAY_ADDR" envDefault:":8080"`
	Environment   string        `env:"EPP_GATEWAY_ENV" envDefault:"dev"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string        `env:"LOG_FORMAT" envDefault:"json"`
	JWTSigningKey string        `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer     string        `env:"JWT_ISSUER" envDefault:"epp-gateway"`
	JWTAudience   string        `env:"JWT_AUDIENCE" envDefault:"epp-gateway-api"`
	AuthDisabled  bool          `env:"AUTH_DISABLED" envDefault:"false"`
	ShutdownGrace time.Duration `env:"SHUTDOWN_GRACE" envDefault:"15s"`
	// TxLogAll records queries and refused commands in the transaction log
	// as well as state changes.
	TxLogAll bool `env:"TXLOG_ALL_CATEGORIES" envDefault:"true"`

	EPP      EPPConfig      `envPrefix:"EPP_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
	Postgres PostgresConfig `envPrefix:"POSTGRES_"`
	Kafka    KafkaConfig    `envPrefix:"KAFKA_"`
}

// EPPConfig locates the registry and sizes the session pool.
type EPPConfig struct {
	Host               string        `env:"HOST" envDefault:"localhost"`
	Port               int           `env:"PORT" envDefault:"700"`
	ClientID           string        `env:"CLIENT_ID"`
	Password           string        `env:"PASSWORD"`
	NewPassword        string        `env:"NEW_PASSWORD"`
	Lang               string        `env:"LANG" envDefault:"en"`
	CertFile           string        `env:"CERT_FILE"`
	KeyFile            string        `env:"KEY_FILE"`
	CAFile             string        `env:"CA_FILE"`
	ServerName         string        `env:"SERVER_NAME"`
	InsecureSkipVerify bool          `env:"INSECURE_SKIP_VERIFY" envDefault:"false"`
	PlainTCP           bool          `env:"PLAIN_TCP" envDefault:"false"`
	PoolSize           int32         `env:"POOL_SIZE" envDefault:"4"`
	ConnectTimeout     time.Duration `env:"CONNECT_TIMEOUT" envDefault:"30s"`
	CommandTimeout     time.Duration `env:"COMMAND_TIMEOUT" envDefault:"30s"`
	KeepAlive          time.Duration `env:"KEEP_ALIVE" envDefault:"5m"`
	TRIDPrefix         string        `env:"TRID_PREFIX" envDefault:"GW-"`
	BreakerFailures    int           `env:"BREAKER_FAILURES" envDefault:"5"`
	BreakerCooldown    time.Duration `env:"BREAKER_COOLDOWN" envDefault:"30s"`
	Currency           string        `env:"CURRENCY" envDefault:"USD"`
}

// Address returns host:port.
func (c EPPConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisConfig configures the check cache. An empty URL selects the
// in-memory cache.
type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
	CheckTTL     time.Duration `env:"CHECK_TTL" envDefault:"30s"`
}

// PostgresConfig configures the transaction log. An empty DSN selects the
// in-memory log.
type PostgresConfig struct {
	DSN          string        `env:"DSN"`
	MaxOpenConns int           `env:"MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLife  time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"30m"`
}

// KafkaConfig configures the transaction event publisher. No brokers
// disables publishing.
type KafkaConfig struct {
	Brokers       []string      `env:"BROKERS" envSeparator:","`
	Topic         string        `env:"TOPIC" envDefault:"epp.transactions"`
	BufferSize    int           `env:"BUFFER_SIZE" envDefault:"10000"`
	FlushInterval time.Duration `env:"FLUSH_INTERVAL" envDefault:"1s"`
	SampleRate    float64       `env:"SAMPLE_RATE" envDefault:"1"`
	// CreateTopic makes the gateway create Topic at start-up when missing.
	CreateTopic       bool  `env:"CREATE_TOPIC" envDefault:"false"`
	Partitions        int32 `env:"PARTITIONS" envDefault:"3"`
	ReplicationFactor int16 `env:"REPLICATION_FACTOR" envDefault:"1"`
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate checks settings that have no safe default.
func (s Server) Validate() error {
	var errs []error
	if s.EPP.ClientID == "" {
		errs = append(errs, errors.New("EPP_CLIENT_ID is required"))
	}
	if s.EPP.Password == "" {
		errs = append(errs, errors.New("EPP_PASSWORD is required"))
	}
	if s.EPP.PoolSize < 1 {
		errs = append(errs, errors.New("EPP_POOL_SIZE must be at least 1"))
	}
	if ka := s.EPP.KeepAlive; ka < 0 || (ka > 0 && ka < time.Second) {
		errs = append(errs, errors.New("EPP_KEEP_ALIVE must be 0 to disable or at least 1s"))
	}
	if s.Kafka.SampleRate < 0 || s.Kafka.SampleRate > 1 {
		errs = append(errs, errors.New("KAFKA_SAMPLE_RATE must be between 0 and 1"))
	}
	if s.Environment == "prod" && s.JWTSigningKey == "dev-secret-key-change-in-production" {
		errs = append(errs, errors.New("JWT_SIGNING_KEY must be set in prod"))
	}
	return errors.Join(errs...)
}

// EPPFromEnv reads only the EPP_ settings. Command line tools use it so they
// do not need the server's backends configured.
func EPPFromEnv() (EPPConfig, error) {
	var cfg EPPConfig
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "EPP_"}); err != nil {
		return EPPConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// JWTFromEnv reads the token signing settings shared with the server.
func JWTFromEnv() (JWTConfig, error) {
	var cfg JWTConfig
	if err := env.Parse(&cfg); err != nil {
		return JWTConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// JWTConfig holds the token signing settings.
type JWTConfig struct {
	SigningKey string `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	Issuer     string `env:"JWT_ISSUER" envDefault:"epp-gateway"`
	Audience   string `env:"JWT_AUDIENCE" envDefault:"epp-gateway-api"`
}
