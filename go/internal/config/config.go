// Package config loads client settings from a .env file, an optional YAML
// file and the environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/mcdev12/cardtable/go/internal/cache"
	"github.com/mcdev12/cardtable/go/internal/mirror"
	"github.com/mcdev12/cardtable/go/internal/session"
)

var (
	ErrMissingHost   = errors.New("server host is required")
	ErrMissingUserID = errors.New("user id is required")
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Auth       AuthConfig       `yaml:"auth"`
	Connection ConnectionConfig `yaml:"connection"`
	Reconnect  ReconnectConfig  `yaml:"reconnect"`
	Cache      CacheConfig      `yaml:"cache"`
	Mirror     MirrorConfig     `yaml:"mirror"`
	Log        LogConfig        `yaml:"log"`
}

type ServerConfig struct {
	Host   string `yaml:"host"`
	Secure bool   `yaml:"secure"`
}

type AuthConfig struct {
	UserID   uint64 `yaml:"user_id"`
	APIToken string `yaml:"api_token"`
}

type ConnectionConfig struct {
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	PingInterval     time.Duration `yaml:"ping_interval"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	MaxMessageSize   int64         `yaml:"max_message_size"`
	ReadBufferSize   int           `yaml:"read_buffer_size"`
	WriteBufferSize  int           `yaml:"write_buffer_size"`
}

type ReconnectConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
}

type CacheConfig struct {
	AccessThreshold int           `yaml:"access_threshold"`
	Jitter          int           `yaml:"jitter"`
	RefreshTimeout  time.Duration `yaml:"refresh_timeout"`
}

// MirrorConfig is disabled while NATSURL is empty.
type MirrorConfig struct {
	NATSURL       string `yaml:"nats_url"`
	Stream        string `yaml:"stream"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Default() *Config {
	conn := session.DefaultConnectionConfig()
	cc := cache.DefaultConfig()
	js := mirror.DefaultJetStreamConfig()
	return &Config{
		Server: ServerConfig{Host: "localhost:8080"},
		Connection: ConnectionConfig{
			WriteTimeout:     conn.WriteTimeout,
			ReadTimeout:      conn.ReadTimeout,
			PingInterval:     conn.PingInterval,
			HandshakeTimeout: conn.HandshakeTimeout,
			RequestTimeout:   conn.RequestTimeout,
			MaxMessageSize:   conn.MaxMessageSize,
			ReadBufferSize:   conn.ReadBufferSize,
			WriteBufferSize:  conn.WriteBufferSize,
		},
		Reconnect: ReconnectConfig{
			MaxAttempts: conn.Reconnect.MaxAttempts,
			BaseDelay:   conn.Reconnect.BaseDelay,
			MaxDelay:    conn.Reconnect.MaxDelay,
		},
		Cache: CacheConfig{
			AccessThreshold: cc.AccessThreshold,
			Jitter:          cc.Jitter,
			RefreshTimeout:  cc.RefreshTimeout,
		},
		Mirror: MirrorConfig{
			Stream:        js.StreamName,
			SubjectPrefix: js.SubjectPrefix,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load builds the configuration. path names an optional YAML file; when
// empty CARDTABLE_CONFIG is consulted.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	cfg := Default()
	if path == "" {
		path = getEnv("CARDTABLE_CONFIG", "")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnv("CARDTABLE_HOST", c.Server.Host)
	c.Server.Secure = getEnvAsBool("CARDTABLE_SECURE", c.Server.Secure)
	c.Auth.UserID = getEnvAsUint("CARDTABLE_USER_ID", c.Auth.UserID)
	c.Auth.APIToken = getEnv("CARDTABLE_API_TOKEN", c.Auth.APIToken)
	c.Log.Level = getEnv("CARDTABLE_LOG_LEVEL", c.Log.Level)
	c.Connection.RequestTimeout = getEnvAsDuration("CARDTABLE_REQUEST_TIMEOUT", c.Connection.RequestTimeout)
	c.Reconnect.MaxAttempts = getEnvAsInt("CARDTABLE_RECONNECT_ATTEMPTS", c.Reconnect.MaxAttempts)
	c.Cache.AccessThreshold = getEnvAsInt("CARDTABLE_CACHE_THRESHOLD", c.Cache.AccessThreshold)
	c.Cache.Jitter = getEnvAsInt("CARDTABLE_CACHE_JITTER", c.Cache.Jitter)
	c.Mirror.NATSURL = getEnv("NATS_URL", c.Mirror.NATSURL)
	c.Mirror.Stream = getEnv("CARDTABLE_MIRROR_STREAM", c.Mirror.Stream)
	c.Mirror.SubjectPrefix = getEnv("CARDTABLE_MIRROR_SUBJECT", c.Mirror.SubjectPrefix)
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Host) == "" {
		errs = append(errs, ErrMissingHost)
	}
	if c.Auth.UserID == 0 {
		errs = append(errs, ErrMissingUserID)
	}
	if c.Cache.Jitter < 0 || c.Cache.Jitter >= c.Cache.AccessThreshold {
		errs = append(errs, fmt.Errorf("cache jitter %d must be in [0, %d)", c.Cache.Jitter, c.Cache.AccessThreshold))
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log level: %w", err))
	}
	return errors.Join(errs...)
}

// APIBaseURL is the scheme and host of the REST API.
func (c *Config) APIBaseURL() string {
	if c.Server.Secure {
		return "https://" + c.Server.Host
	}
	return "http://" + c.Server.Host
}

func (c *Config) SessionConfig() session.ConnectionConfig {
	conn := session.DefaultConnectionConfig()
	conn.WriteTimeout = c.Connection.WriteTimeout
	conn.ReadTimeout = c.Connection.ReadTimeout
	conn.PingInterval = c.Connection.PingInterval
	conn.HandshakeTimeout = c.Connection.HandshakeTimeout
	conn.RequestTimeout = c.Connection.RequestTimeout
	conn.MaxMessageSize = c.Connection.MaxMessageSize
	conn.ReadBufferSize = c.Connection.ReadBufferSize
	conn.WriteBufferSize = c.Connection.WriteBufferSize
	conn.Reconnect = session.ReconnectConfig{
		MaxAttempts: c.Reconnect.MaxAttempts,
		BaseDelay:   c.Reconnect.BaseDelay,
		MaxDelay:    c.Reconnect.MaxDelay,
	}
	return conn
}

func (c *Config) CacheConfig() cache.Config {
	return cache.Config{
		AccessThreshold: c.Cache.AccessThreshold,
		Jitter:          c.Cache.Jitter,
		RefreshTimeout:  c.Cache.RefreshTimeout,
	}
}

// JetStreamConfig returns the mirror settings and whether mirroring is on.
func (c *Config) JetStreamConfig() (mirror.JetStreamConfig, bool) {
	js := mirror.DefaultJetStreamConfig()
	if c.Mirror.NATSURL == "" {
		return js, false
	}
	js.URL = c.Mirror.NATSURL
	js.StreamName = c.Mirror.Stream
	js.SubjectPrefix = c.Mirror.SubjectPrefix
	return js, true
}

// LogLevel parses Log.Level, falling back to info.
func (c *Config) LogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
