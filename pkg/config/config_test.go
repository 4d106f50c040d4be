package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanremote/lanremote-go/pkg/discovery"
	"github.com/lanremote/lanremote-go/pkg/host"
	"github.com/lanremote/lanremote-go/pkg/pairing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "255.255.255.255:5001", cfg.Discovery.BroadcastAddr)
	assert.Equal(t, ":5002", cfg.Discovery.ReplyAddr)
	assert.Equal(t, ":5001", cfg.Host.DiscoveryAddr)
	assert.Equal(t, 5000, cfg.Host.CommandPort)
	assert.Equal(t, 3*time.Second, cfg.Discovery.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Host.ReplayWindow)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lanremote.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
discovery:
  method: mdns
  timeout: 5s
transport:
  reply_timeout: 1500ms
motion:
  sensitivity: 0.05
pairing:
  code: " 4821 "
  kdf: pbkdf2
  salt: living-room
host:
  command_port: 6000
  mdns: true
log:
  level: debug
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, MethodMDNS, cfg.Discovery.Method)
	assert.Equal(t, 5*time.Second, cfg.Discovery.Timeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.Transport.ReplyTimeout)
	assert.Equal(t, 0.05, cfg.Motion.Sensitivity)
	assert.Equal(t, 6000, cfg.Host.CommandPort)
	assert.True(t, cfg.Host.MDNS)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Untouched keys keep their defaults.
	assert.Equal(t, Default().Transport.DialTimeout, cfg.Transport.DialTimeout)
	assert.Equal(t, Default().Motion.MinInterval, cfg.Motion.MinInterval)

	svc := cfg.ServiceConfig(nil, nil)
	assert.Equal(t, pairing.Code("4821"), svc.PairingCode)
	assert.True(t, svc.MDNS)

	_, isBrowser := cfg.DiscoveryClient(nil, nil).(*discovery.MDNSBrowser)
	assert.True(t, isBrowser)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("discovery:\n  colour: blue\n"), 0o600))
	_, err = Load(unknown)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("discovery:\n  method: carrier-pigeon\n"), 0o600))
	_, err = Load(invalid)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"bad method", func(c *Config) { c.Discovery.Method = "sonar" }},
		{"zero discovery timeout", func(c *Config) { c.Discovery.Timeout = 0 }},
		{"bad broadcast addr", func(c *Config) { c.Discovery.BroadcastAddr = "255.255.255.255" }},
		{"bad reply addr", func(c *Config) { c.Discovery.ReplyAddr = "nowhere" }},
		{"zero dial timeout", func(c *Config) { c.Transport.DialTimeout = 0 }},
		{"zero message size", func(c *Config) { c.Transport.MaxMessageSize = 0 }},
		{"zero sensitivity", func(c *Config) { c.Motion.Sensitivity = 0 }},
		{"negative threshold", func(c *Config) { c.Motion.Threshold = -1 }},
		{"letters in code", func(c *Config) { c.Pairing.Code = "12ab" }},
		{"code too long", func(c *Config) { c.Pairing.Code = "1234567" }},
		{"unknown kdf", func(c *Config) { c.Pairing.KDF = "md5" }},
		{"pbkdf2 without salt", func(c *Config) { c.Pairing.KDF = KDFPBKDF2 }},
		{"port out of range", func(c *Config) { c.Host.CommandPort = 70000 }},
		{"bad listen ip", func(c *Config) { c.Host.ListenIP = "kitchen" }},
		{"bad advertise ip", func(c *Config) { c.Host.AdvertiseIP = "10.0.0" }},
		{"zero replay window", func(c *Config) { c.Host.ReplayWindow = 0 }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestPairingCode(t *testing.T) {
	cfg := Default()
	code, err := cfg.PairingCode()
	require.NoError(t, err)
	assert.Empty(t, code)

	cfg.Pairing.Code = " 4821 "
	code, err = cfg.PairingCode()
	require.NoError(t, err)
	assert.Equal(t, pairing.Code("4821"), code)

	cfg.Pairing.Code = "48a1"
	_, err = cfg.PairingCode()
	assert.ErrorIs(t, err, pairing.ErrCodeDigits)
	assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
}

func TestServiceConfigMoveInterval(t *testing.T) {
	cfg := Default()
	assert.Equal(t, host.DefaultMoveInterval, cfg.ServiceConfig(nil, nil).MoveInterval)

	cfg.Host.MoveInterval = -1
	assert.Equal(t, time.Duration(-1), cfg.ServiceConfig(nil, nil).MoveInterval)
}

func TestKeyDeriver(t *testing.T) {
	cfg := Default()
	code := pairing.Code("4821")

	plain := cfg.KeyDeriver()(code)
	want := pairing.Derive(code)
	assert.True(t, plain.Equal(&want))

	cfg.Pairing.KDF = KDFPBKDF2
	cfg.Pairing.Salt = "salt"
	cfg.Pairing.Iterations = 1000
	hardened := cfg.KeyDeriver()(code)
	wantHardened := pairing.DeriveHardened(code, []byte("salt"), 1000)
	assert.True(t, hardened.Equal(&wantHardened))
	assert.False(t, hardened.Equal(&plain))
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"debug", "INFO", "warn", "error"} {
		_, err := ParseLevel(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseLevel("chatty")
	assert.Error(t, err)
}
