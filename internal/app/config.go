package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"agentlink/internal/protocol/channel"
	"agentlink/internal/protocol/handshake"
	"agentlink/internal/services/auth"
	"agentlink/internal/services/session"
)

// EnvPrefix prefixes every environment variable, e.g. AGENTLINK_SERVER.
const EnvPrefix = "AGENTLINK"

const defaultSweepInterval = time.Minute

// Configuration keys. Flags, env vars and config file entries share them.
const (
	KeyHome          = "home"
	KeyServer        = "server"
	KeyListen        = "listen"
	KeyMetricsListen = "metrics-listen"
	KeyMaxSessions   = "max-sessions"
	KeySessionMaxAge = "session-max-age"
	KeySweepInterval = "sweep-interval"
	KeyClockSkew     = "clock-skew"
	KeySuite         = "suite"
	KeyKDFLabel      = "kdf-label"
	KeyLogLevel      = "log-level"
	KeyDIDFile       = "did-file"
	KeyDID           = "did"
	KeyPassphrase    = "passphrase"
)

// Config holds runtime wiring options.
type Config struct {
	Home          string        // key directory, e.g. $HOME/.agentlink
	Server        string        // peer base URL, e.g. http://127.0.0.1:8080
	Listen        string        // agentd listen address
	MetricsListen string        // Prometheus listen address; empty disables
	MaxSessions   int           // session store capacity
	SessionMaxAge time.Duration // hard session TTL
	SweepInterval time.Duration // 0 disables background purging
	ClockSkew     time.Duration // envelope timestamp window
	Suite         string        // AEAD suite name
	KDFLabel      string        // handshake HKDF info
	LogLevel      string
	DIDFile       string // YAML DID directory; empty disables
	DID           string // this agent's DID; derived from the key when empty
	Passphrase    string
}

// SetDefaults installs the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyListen, ":8080")
	v.SetDefault(KeyMetricsListen, "")
	v.SetDefault(KeyMaxSessions, session.DefaultMaxSessions)
	v.SetDefault(KeySessionMaxAge, session.DefaultMaxAge)
	v.SetDefault(KeySweepInterval, defaultSweepInterval)
	v.SetDefault(KeyClockSkew, auth.DefaultSkew)
	v.SetDefault(KeySuite, string(channel.DefaultSuite))
	v.SetDefault(KeyKDFLabel, handshake.DefaultLabel)
	v.SetDefault(KeyLogLevel, "info")
}

// FromViper reads a Config from v. An empty home resolves to ~/.agentlink.
func FromViper(v *viper.Viper) (Config, error) {
	c := Config{
		Home:          v.GetString(KeyHome),
		Server:        v.GetString(KeyServer),
		Listen:        v.GetString(KeyListen),
		MetricsListen: v.GetString(KeyMetricsListen),
		MaxSessions:   v.GetInt(KeyMaxSessions),
		SessionMaxAge: v.GetDuration(KeySessionMaxAge),
		SweepInterval: v.GetDuration(KeySweepInterval),
		ClockSkew:     v.GetDuration(KeyClockSkew),
		Suite:         v.GetString(KeySuite),
		KDFLabel:      v.GetString(KeyKDFLabel),
		LogLevel:      v.GetString(KeyLogLevel),
		DIDFile:       v.GetString(KeyDIDFile),
		DID:           v.GetString(KeyDID),
		Passphrase:    v.GetString(KeyPassphrase),
	}
	if c.Home == "" {
		dir, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve home: %w", err)
		}
		c.Home = filepath.Join(dir, ".agentlink")
	}
	return c, nil
}

// Validate rejects settings no component can run with.
func (c Config) Validate() error {
	var errs []error
	if c.Home == "" {
		errs = append(errs, errors.New("home must be set"))
	}
	if c.MaxSessions <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %d", KeyMaxSessions, c.MaxSessions))
	}
	if c.SessionMaxAge <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %s", KeySessionMaxAge, c.SessionMaxAge))
	}
	if c.SweepInterval < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative, got %s", KeySweepInterval, c.SweepInterval))
	}
	if c.ClockSkew <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %s", KeyClockSkew, c.ClockSkew))
	}
	if c.KDFLabel == "" {
		errs = append(errs, fmt.Errorf("%s must not be empty", KeyKDFLabel))
	}
	if _, err := channel.ParseSuite(c.Suite); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// HandshakeOptions returns the handshake parameters for c.
func (c Config) HandshakeOptions() (handshake.Options, error) {
	suite, err := channel.ParseSuite(c.Suite)
	if err != nil {
		return handshake.Options{}, err
	}
	return handshake.Options{Label: c.KDFLabel, Suite: suite}, nil
}
