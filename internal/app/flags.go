package app

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"agentlink/internal/protocol/channel"
	"agentlink/internal/protocol/handshake"
	"agentlink/internal/services/auth"
	"agentlink/internal/services/session"
)

// KeyConfig names the optional config file flag.
const KeyConfig = "config"

// RegisterFlags adds every configuration key to fs. Defaults match
// SetDefaults.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(KeyConfig, "", flagInfo("configuration file (any viper format)", KeyConfig))
	fs.String(KeyHome, "", flagInfo("key directory (default ~/.agentlink)", KeyHome))
	fs.StringP(KeyPassphrase, "p", "", flagInfo("passphrase protecting the identity", KeyPassphrase))
	fs.String(KeyServer, "", flagInfo("peer base URL, e.g. http://127.0.0.1:8080", KeyServer))
	fs.String(KeyListen, ":8080", flagInfo("agentd listen address", KeyListen))
	fs.String(KeyMetricsListen, "", flagInfo("Prometheus listen address, empty disables", KeyMetricsListen))
	fs.Int(KeyMaxSessions, session.DefaultMaxSessions, flagInfo("session store capacity", KeyMaxSessions))
	fs.Duration(KeySessionMaxAge, session.DefaultMaxAge, flagInfo("hard session lifetime", KeySessionMaxAge))
	fs.Duration(KeySweepInterval, defaultSweepInterval, flagInfo("expiry sweep interval, 0 disables", KeySweepInterval))
	fs.Duration(KeyClockSkew, auth.DefaultSkew, flagInfo("accepted envelope clock skew", KeyClockSkew))
	fs.String(KeySuite, string(channel.DefaultSuite), flagInfo("AEAD suite: aes256gcm or chacha20poly1305", KeySuite))
	fs.String(KeyKDFLabel, handshake.DefaultLabel, flagInfo("handshake key derivation label", KeyKDFLabel))
	fs.String(KeyLogLevel, "info", flagInfo("log level", KeyLogLevel))
	fs.String(KeyDIDFile, "", flagInfo("YAML DID directory file", KeyDIDFile))
	fs.String(KeyDID, "", flagInfo("this agent's DID, derived from the key when empty", KeyDID))
}

// BindFlags binds fs and the AGENTLINK_* environment to v and installs the
// defaults.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v.BindPFlags(fs)
}

// ReadConfigFile reads the file named by the config key, if any.
func ReadConfigFile(v *viper.Viper) error {
	path := v.GetString(KeyConfig)
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// EnvName returns the environment variable bound to key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

func flagInfo(info, key string) string {
	return info + ", " + EnvName(key)
}
