package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cwrk-planet/chat-service/internal/pg"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. CHAT_SECURITY_JWT_SECRET.
const EnvPrefix = "CHAT"

// MaxHistoryLimit caps GET /messages.
const MaxHistoryLimit = 200

type HTTP struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

type GRPC struct {
	Addr string `yaml:"addr"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|stage|prod
	Service   string `yaml:"service"`   // chat-service
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	Level     string `yaml:"level"`     // debug|info|warn|error
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Postgres struct {
	DSN               string        `yaml:"dsn"`
	MaxConns          int32         `yaml:"maxConns"`
	MinConns          int32         `yaml:"minConns"`
	MaxConnLifetime   time.Duration `yaml:"maxConnLifetime"`
	MaxConnIdleTime   time.Duration `yaml:"maxConnIdleTime"`
	HealthCheckPeriod time.Duration `yaml:"healthCheckPeriod"`
	ApplicationName   string        `yaml:"applicationName"`
	Migrate           bool          `yaml:"migrate"`
}

func (p Postgres) Validate() error {
	if p.DSN == "" {
		return errors.New("storage.postgres.dsn is required")
	}
	if p.MinConns < 0 || (p.MaxConns > 0 && p.MinConns > p.MaxConns) {
		return errors.New("storage.postgres.minConns must be in [0..maxConns]")
	}

	return nil
}

func (p Postgres) ToPGConfig() pg.Config {
	return pg.Config{
		DSN:               p.DSN,
		MaxConns:          p.MaxConns,
		MinConns:          p.MinConns,
		MaxConnLifetime:   p.MaxConnLifetime,
		MaxConnIdleTime:   p.MaxConnIdleTime,
		HealthCheckPeriod: p.HealthCheckPeriod,
		ApplicationName:   p.ApplicationName,
	}
}

type Badger struct {
	Dir      string `yaml:"dir"`
	InMemory bool   `yaml:"inMemory"`
}

const (
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
	DriverMemory   = "memory"
)

type Storage struct {
	Driver   string   `yaml:"driver"` // postgres|badger|memory
	Postgres Postgres `yaml:"postgres"`
	Badger   Badger   `yaml:"badger"`
}

func (s *Storage) Validate() error {
	if s.Driver == "" {
		s.Driver = DriverPostgres
	}
	switch s.Driver {
	case DriverPostgres:
		return s.Postgres.Validate()
	case DriverBadger:
		if s.Badger.Dir == "" && !s.Badger.InMemory {
			return errors.New("storage.badger.dir is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("storage.driver %q is not supported", s.Driver)
	}

	return nil
}

type Password struct {
	MinLength  int `yaml:"minLength"`
	BcryptCost int `yaml:"bcryptCost"`
}

func (p *Password) Validate() error {
	if p.MinLength == 0 {
		p.MinLength = 6
	}
	if p.MinLength < 6 {
		return errors.New("security.password.minLength must be >= 6")
	}
	if p.BcryptCost != 0 && (p.BcryptCost < 4 || p.BcryptCost > 18) {
		return errors.New("security.password.bcryptCost must be in [4..18]")
	}

	return nil
}

type JWT struct {
	Secret    string        `yaml:"secret"` // обязательно, лучше через CHAT_SECURITY_JWT_SECRET
	Issuer    string        `yaml:"issuer"`
	TTL       time.Duration `yaml:"ttl"`       // напр. 1h
	ClockSkew time.Duration `yaml:"clockSkew"` // напр. 30s
}

func (j *JWT) Validate() error {
	if len(j.Secret) < 16 {
		return errors.New("security.jwt.secret must be at least 16 bytes")
	}
	if j.Issuer == "" {
		j.Issuer = "chat-service"
	}
	if j.TTL == 0 {
		j.TTL = time.Hour
	}
	if j.TTL < 0 {
		return errors.New("security.jwt.ttl must be > 0")
	}
	if j.ClockSkew < 0 || j.ClockSkew > time.Minute {
		return errors.New("security.jwt.clockSkew must be in [0..1m]")
	}

	return nil
}

type Security struct {
	Password Password `yaml:"password"`
	JWT      JWT      `yaml:"jwt"`
}

func (s *Security) Validate() error {
	if err := s.Password.Validate(); err != nil {
		return err
	}

	return s.JWT.Validate()
}

type Chat struct {
	HistoryLimit     int           `yaml:"historyLimit"`
	MaxTextLength    int           `yaml:"maxTextLength"`
	TypingTTL        time.Duration `yaml:"typingTTL"`
	TypingSweepEvery time.Duration `yaml:"typingSweepEvery"`
	OutboundQueue    int           `yaml:"outboundQueue"`
	PingEvery        time.Duration `yaml:"pingEvery"`
	HealthProbeEvery time.Duration `yaml:"healthProbeEvery"`
}

func (c *Chat) Validate() error {
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = MaxHistoryLimit
	}
	if c.HistoryLimit > MaxHistoryLimit {
		return fmt.Errorf("chat.historyLimit must be <= %d", MaxHistoryLimit)
	}
	if c.MaxTextLength <= 0 {
		c.MaxTextLength = 4000
	}
	if c.TypingTTL <= 0 {
		c.TypingTTL = 6 * time.Second
	}
	if c.TypingSweepEvery <= 0 {
		c.TypingSweepEvery = time.Second
	}
	if c.TypingSweepEvery > c.TypingTTL {
		return errors.New("chat.typingSweepEvery must be <= chat.typingTTL")
	}
	if c.OutboundQueue <= 0 {
		c.OutboundQueue = 64
	}
	if c.PingEvery <= 0 {
		c.PingEvery = 15 * time.Second
	}
	if c.HealthProbeEvery <= 0 {
		c.HealthProbeEvery = 10 * time.Second
	}

	return nil
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

type Tracing struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	HTTP     HTTP     `yaml:"http"`
	GRPC     GRPC     `yaml:"grpc"`
	Logging  Logging  `yaml:"logging"`
	Storage  Storage  `yaml:"storage"`
	Security Security `yaml:"security"`
	Chat     Chat     `yaml:"chat"`
	CORS     CORS     `yaml:"cors"`
	Tracing  Tracing  `yaml:"tracing"`
}

// Load reads an optional .env, then the YAML file at path (or CONFIG_PATH,
// or ./config/config.yaml), then applies CHAT_* environment overrides.
func Load(path ...string) (*Config, error) {
	_ = godotenv.Load()

	filename := os.Getenv("CONFIG_PATH")
	if len(path) > 0 && strings.TrimSpace(path[0]) != "" {
		filename = path[0]
	}
	if filename == "" {
		filename = "./config/config.yaml"
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Security.Validate(); err != nil {
		return err
	}
	if err := c.Chat.Validate(); err != nil {
		return err
	}

	// установка дефолтов, если значения не указаны
	c.HTTP.ReadTimeout = durationOr(c.HTTP.ReadTimeout, 10*time.Second)
	c.HTTP.WriteTimeout = durationOr(c.HTTP.WriteTimeout, 15*time.Second)
	c.HTTP.IdleTimeout = durationOr(c.HTTP.IdleTimeout, 60*time.Second)
	c.HTTP.RequestTimeout = durationOr(c.HTTP.RequestTimeout, 30*time.Second)
	c.HTTP.ShutdownTimeout = durationOr(c.HTTP.ShutdownTimeout, 10*time.Second)

	if c.Logging.Service == "" {
		c.Logging.Service = "chat-service"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}

	return nil
}

func durationOr(v, def time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return def
}
