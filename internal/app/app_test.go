package app_test

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"agentlink/internal/app"
	"agentlink/internal/domain"
	"agentlink/internal/protocol/channel"
	"agentlink/internal/protocol/handshake"
)

const pass = "Correct-Horse-9-Battery"

func config(t *testing.T, mutate func(v *viper.Viper)) app.Config {
	t.Helper()
	v := viper.New()
	app.SetDefaults(v)
	v.Set(app.KeyHome, t.TempDir())
	v.Set(app.KeyPassphrase, pass)
	if mutate != nil {
		mutate(v)
	}
	cfg, err := app.FromViper(v)
	require.NoError(t, err)
	return cfg
}

func TestConfigDefaults(t *testing.T) {
	cfg := config(t, nil)
	require.NoError(t, cfg.Validate())
	require.Equal(t, 100, cfg.MaxSessions)
	require.Equal(t, time.Hour, cfg.SessionMaxAge)
	require.Equal(t, time.Minute, cfg.SweepInterval)
	require.Equal(t, 5*time.Minute, cfg.ClockSkew)

	opts, err := cfg.HandshakeOptions()
	require.NoError(t, err)
	require.Equal(t, handshake.Options{Label: handshake.DefaultLabel, Suite: channel.AES256GCM}, opts)
}

func TestConfigValidate(t *testing.T) {
	for name, mutate := range map[string]func(v *viper.Viper){
		"capacity": func(v *viper.Viper) { v.Set(app.KeyMaxSessions, 0) },
		"ttl":      func(v *viper.Viper) { v.Set(app.KeySessionMaxAge, "-1s") },
		"sweep":    func(v *viper.Viper) { v.Set(app.KeySweepInterval, "-1m") },
		"skew":     func(v *viper.Viper) { v.Set(app.KeyClockSkew, 0) },
		"suite":    func(v *viper.Viper) { v.Set(app.KeySuite, "rot13") },
		"label":    func(v *viper.Viper) { v.Set(app.KeyKDFLabel, "") },
	} {
		t.Run(name, func(t *testing.T) {
			require.Error(t, config(t, mutate).Validate())
			_, err := app.NewWire(config(t, mutate), zerolog.Nop())
			require.Error(t, err)
		})
	}
}

func TestPublishToDIDFile(t *testing.T) {
	didFile := filepath.Join(t.TempDir(), "dids.yaml")
	cfg := config(t, func(v *viper.Viper) { v.Set(app.KeyDIDFile, didFile) })

	w, err := app.NewWire(cfg, zerolog.Nop())
	require.NoError(t, err)
	id, _, err := w.IDs.GenerateIdentity(pass, "did:agent:local:alice")
	require.NoError(t, err)
	require.NoError(t, w.Publish(context.Background(), id))

	// A fresh wire on the same file resolves the published record.
	other, err := app.NewWire(config(t, func(v *viper.Viper) { v.Set(app.KeyDIDFile, didFile) }), zerolog.Nop())
	require.NoError(t, err)
	rec, ok, err := other.Registry.Resolve(id.DID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, id.KEM.Public, rec.KEMKey)
}

func TestPublishNowhere(t *testing.T) {
	w, err := app.NewWire(config(t, nil), zerolog.Nop())
	require.NoError(t, err)
	id, _, err := w.IDs.GenerateIdentity(pass, "")
	require.NoError(t, err)
	require.ErrorIs(t, w.Publish(context.Background(), id), domain.ErrIdentity)

	_, err = w.Initiator(id)
	require.ErrorIs(t, err, domain.ErrTransport)
}

func TestServerRoundTrip(t *testing.T) {
	ctx := context.Background()

	srvWire, err := app.NewWire(config(t, func(v *viper.Viper) { v.Set(app.KeySuite, "chacha20poly1305") }), zerolog.Nop())
	require.NoError(t, err)
	srvID, _, err := srvWire.IDs.GenerateIdentity(pass, "did:agent:local:server")
	require.NoError(t, err)
	server := srvWire.NewServer(srvID, nil)
	handler, err := server.Router()
	require.NoError(t, err)
	ts := httptest.NewServer(handler)
	defer ts.Close()

	sw, err := server.Sweeper()
	require.NoError(t, err)
	sw.Start()
	defer sw.Stop()

	cliWire, err := app.NewWire(config(t, func(v *viper.Viper) {
		v.Set(app.KeyServer, ts.URL)
		v.Set(app.KeySuite, "chacha20poly1305")
	}), zerolog.Nop())
	require.NoError(t, err)
	cliID, _, err := cliWire.IDs.GenerateIdentity(pass, "did:agent:local:client")
	require.NoError(t, err)
	require.NoError(t, cliWire.Publish(ctx, cliID))

	unlocked, err := cliWire.Unlock()
	require.NoError(t, err)
	require.Equal(t, cliID.DID, unlocked.DID)

	in, err := cliWire.Initiator(unlocked)
	require.NoError(t, err)
	sid, err := in.Handshake(ctx, srvID.DID)
	require.NoError(t, err)

	reply, err := in.Send(ctx, sid, []byte("over the wire"))
	require.NoError(t, err)
	require.Equal(t, "over the wire", string(reply))
	require.Equal(t, 1, srvWire.Sessions.Count())
}

func TestServerSweeperDisabled(t *testing.T) {
	w, err := app.NewWire(config(t, func(v *viper.Viper) { v.Set(app.KeySweepInterval, 0) }), zerolog.Nop())
	require.NoError(t, err)
	id, _, err := w.IDs.GenerateIdentity(pass, "")
	require.NoError(t, err)
	_, err = w.NewServer(id, nil).Sweeper()
	require.Error(t, err)
}

func TestFlagsAndEnv(t *testing.T) {
	t.Setenv(app.EnvName(app.KeyMaxSessions), "7")
	t.Setenv("AGENTLINK_SESSION_MAX_AGE", "90s")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	app.RegisterFlags(fs)
	v := viper.New()
	require.NoError(t, app.BindFlags(v, fs))
	require.NoError(t, fs.Parse([]string{"--suite", "chacha20poly1305", "--home", t.TempDir()}))
	require.NoError(t, app.ReadConfigFile(v))

	cfg, err := app.FromViper(v)
	require.NoError(t, err)
	require.Equal(t, 7, cfg.MaxSessions)
	require.Equal(t, 90*time.Second, cfg.SessionMaxAge)
	require.Equal(t, "chacha20poly1305", cfg.Suite)
	require.Equal(t, handshake.DefaultLabel, cfg.KDFLabel)
	require.NoError(t, cfg.Validate())
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentlink.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max-sessions: 3\nclock-skew: 30s\n"), 0o600))

	v := viper.New()
	app.SetDefaults(v)
	v.Set(app.KeyConfig, path)
	v.Set(app.KeyHome, t.TempDir())
	require.NoError(t, app.ReadConfigFile(v))
	cfg, err := app.FromViper(v)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.MaxSessions)
	require.Equal(t, 30*time.Second, cfg.ClockSkew)
}
