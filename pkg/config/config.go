// Package config loads the YAML configuration shared by the lanremote
// binaries.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lanremote/lanremote-go/pkg/discovery"
	"github.com/lanremote/lanremote-go/pkg/host"
	"github.com/lanremote/lanremote-go/pkg/log"
	"github.com/lanremote/lanremote-go/pkg/motion"
	"github.com/lanremote/lanremote-go/pkg/pairing"
	"github.com/lanremote/lanremote-go/pkg/transport"
)

// Discovery methods.
const (
	MethodBroadcast = "broadcast"
	MethodMDNS      = "mdns"
)

// Key derivation functions.
const (
	KDFSHA256 = "sha256"
	KDFPBKDF2 = "pbkdf2"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config is the root of the configuration file.
type Config struct {
	Discovery DiscoveryConfig `yaml:"discovery"`
	Transport TransportConfig `yaml:"transport"`
	Motion    MotionConfig    `yaml:"motion"`
	Pairing   PairingConfig   `yaml:"pairing"`
	Host      HostConfig      `yaml:"host"`
	Log       LogConfig       `yaml:"log"`
}

// DiscoveryConfig selects and tunes host discovery.
type DiscoveryConfig struct {
	Method        string        `yaml:"method"`
	BroadcastAddr string        `yaml:"broadcast_addr"`
	ReplyAddr     string        `yaml:"reply_addr"`
	Timeout       time.Duration `yaml:"timeout"`
	Interface     string        `yaml:"interface"`
}

// TransportConfig tunes the client dispatcher.
type TransportConfig struct {
	DialTimeout    time.Duration `yaml:"dial_timeout"`
	ReplyTimeout   time.Duration `yaml:"reply_timeout"`
	MaxMessageSize uint32        `yaml:"max_message_size"`
}

// MotionConfig tunes pointer motion pacing.
type MotionConfig struct {
	Sensitivity float64       `yaml:"sensitivity"`
	Threshold   float64       `yaml:"threshold"`
	MinInterval time.Duration `yaml:"min_interval"`
}

// PairingConfig holds the pairing code and key derivation. Both peers must
// use the same KDF and salt.
type PairingConfig struct {
	Code       string `yaml:"code"`
	KDF        string `yaml:"kdf"`
	Salt       string `yaml:"salt"`
	Iterations int    `yaml:"iterations"`
}

// HostConfig configures lanremote-host.
type HostConfig struct {
	ListenIP      string        `yaml:"listen_ip"`
	CommandPort   int           `yaml:"command_port"`
	DiscoveryAddr string        `yaml:"discovery_addr"`
	AdvertiseIP   string        `yaml:"advertise_ip"`
	Hostname      string        `yaml:"hostname"`
	MDNS          bool          `yaml:"mdns"`
	ReplayWindow  time.Duration `yaml:"replay_window"`
	MoveInterval  time.Duration `yaml:"move_interval"` // negative disables
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	MetricsAddr   string        `yaml:"metrics_addr"`
}

// LogConfig configures operational and protocol logging.
type LogConfig struct {
	Level        string `yaml:"level"`
	ProtocolFile string `yaml:"protocol_file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Discovery: DiscoveryConfig{
			Method:        MethodBroadcast,
			BroadcastAddr: fmt.Sprintf("%s:%d", discovery.DefaultBroadcastAddr, discovery.DefaultDiscoveryPort),
			ReplyAddr:     fmt.Sprintf(":%d", discovery.DefaultReplyPort),
			Timeout:       discovery.DefaultTimeout,
		},
		Transport: TransportConfig{
			DialTimeout:    transport.DefaultDialTimeout,
			ReplyTimeout:   transport.DefaultReplyTimeout,
			MaxMessageSize: transport.DefaultMaxMessageSize,
		},
		Motion: MotionConfig{
			Sensitivity: motion.DefaultSensitivity,
			Threshold:   motion.DefaultThreshold,
			MinInterval: motion.DefaultMinInterval,
		},
		Pairing: PairingConfig{
			KDF: KDFSHA256,
		},
		Host: HostConfig{
			CommandPort:   discovery.DefaultCommandPort,
			DiscoveryAddr: fmt.Sprintf(":%d", discovery.DefaultDiscoveryPort),
			ReplayWindow:  host.DefaultReplayWindow,
			MoveInterval:  host.DefaultMoveInterval,
			IdleTimeout:   transport.DefaultIdleTimeout,
			MetricsAddr:   "127.0.0.1:9105",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.Parse(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over c and validates the result. Unknown keys are
// rejected.
func (c *Config) Parse(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config: %w", err)
	}
	return c.Validate()
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	switch c.Discovery.Method {
	case MethodBroadcast, MethodMDNS:
	default:
		add("discovery.method %q (want %s or %s)", c.Discovery.Method, MethodBroadcast, MethodMDNS)
	}
	if c.Discovery.Timeout <= 0 {
		add("discovery.timeout must be positive")
	}
	for name, addr := range map[string]string{
		"discovery.broadcast_addr": c.Discovery.BroadcastAddr,
		"discovery.reply_addr":     c.Discovery.ReplyAddr,
		"host.discovery_addr":      c.Host.DiscoveryAddr,
	} {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			add("%s %q: %v", name, addr, err)
		}
	}

	if c.Transport.DialTimeout <= 0 || c.Transport.ReplyTimeout <= 0 {
		add("transport timeouts must be positive")
	}
	if c.Transport.MaxMessageSize == 0 {
		add("transport.max_message_size must be positive")
	}

	if c.Motion.Sensitivity <= 0 {
		add("motion.sensitivity must be positive")
	}
	if c.Motion.Threshold < 0 {
		add("motion.threshold must not be negative")
	}
	if c.Motion.MinInterval < 0 {
		add("motion.min_interval must not be negative")
	}

	if _, err := c.PairingCode(); err != nil {
		add("pairing.code: %v", err)
	}
	switch c.Pairing.KDF {
	case KDFSHA256:
	case KDFPBKDF2:
		if c.Pairing.Salt == "" {
			add("pairing.salt is required for %s", KDFPBKDF2)
		}
		if c.Pairing.Iterations < 0 {
			add("pairing.iterations must not be negative")
		}
	default:
		add("pairing.kdf %q (want %s or %s)", c.Pairing.KDF, KDFSHA256, KDFPBKDF2)
	}

	if c.Host.CommandPort < 0 || c.Host.CommandPort > 65535 {
		add("host.command_port %d out of range", c.Host.CommandPort)
	}
	for name, ip := range map[string]string{
		"host.listen_ip":    c.Host.ListenIP,
		"host.advertise_ip": c.Host.AdvertiseIP,
	} {
		if ip != "" && net.ParseIP(ip) == nil {
			add("%s %q is not an IP address", name, ip)
		}
	}
	if c.Host.ReplayWindow <= 0 {
		add("host.replay_window must be positive")
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		add("log.level: %v", err)
	}
	return errors.Join(errs...)
}

// PairingCode parses the configured code. An empty code yields "" and no
// error.
func (c *Config) PairingCode() (pairing.Code, error) {
	if c.Pairing.Code == "" {
		return "", nil
	}
	return pairing.ParseCode(c.Pairing.Code)
}

// KeyDeriver returns the configured key derivation function.
func (c *Config) KeyDeriver() func(pairing.Code) pairing.Key {
	if c.Pairing.KDF == KDFPBKDF2 {
		salt := []byte(c.Pairing.Salt)
		iterations := c.Pairing.Iterations
		return func(code pairing.Code) pairing.Key {
			return pairing.DeriveHardened(code, salt, iterations)
		}
	}
	return pairing.Derive
}

// TrackerConfig returns the tracker configuration.
func (c *Config) TrackerConfig() motion.Config {
	return motion.Config{
		Sensitivity: c.Motion.Sensitivity,
		Threshold:   c.Motion.Threshold,
		MinInterval: c.Motion.MinInterval,
	}
}

// DiscoveryClient returns the configured Discoverer.
func (c *Config) DiscoveryClient(protocolLogger log.Logger, logger *slog.Logger) discovery.Discoverer {
	if c.Discovery.Method == MethodMDNS {
		return discovery.NewMDNSBrowser(discovery.BrowserConfig{
			Interface: c.Discovery.Interface,
			Timeout:   c.Discovery.Timeout,
			Logger:    logger,
		})
	}
	return discovery.NewClient(discovery.ClientConfig{
		BroadcastAddr:  c.Discovery.BroadcastAddr,
		ReplyAddr:      c.Discovery.ReplyAddr,
		Timeout:        c.Discovery.Timeout,
		ProtocolLogger: protocolLogger,
		Logger:         logger,
	})
}

// DispatcherConfig returns the client dispatcher configuration.
func (c *Config) DispatcherConfig(protocolLogger log.Logger, logger *slog.Logger) transport.DispatcherConfig {
	return transport.DispatcherConfig{
		DialTimeout:    c.Transport.DialTimeout,
		ReplyTimeout:   c.Transport.ReplyTimeout,
		MaxMessageSize: c.Transport.MaxMessageSize,
		ProtocolLogger: protocolLogger,
		Logger:         logger,
	}
}

// ServiceConfig returns the host service configuration. The pairing code
// must already be set.
func (c *Config) ServiceConfig(protocolLogger log.Logger, logger *slog.Logger) host.ServiceConfig {
	return host.ServiceConfig{
		PairingCode:    pairing.Code(strings.TrimSpace(c.Pairing.Code)),
		DeriveKey:      c.KeyDeriver(),
		ListenIP:       c.Host.ListenIP,
		CommandPort:    c.Host.CommandPort,
		DiscoveryAddr:  c.Host.DiscoveryAddr,
		AdvertiseIP:    c.Host.AdvertiseIP,
		Hostname:       c.Host.Hostname,
		MDNS:           c.Host.MDNS,
		MDNSInterface:  c.Discovery.Interface,
		ReplayWindow:   c.Host.ReplayWindow,
		MoveInterval:   c.Host.MoveInterval,
		IdleTimeout:    c.Host.IdleTimeout,
		ProtocolLogger: protocolLogger,
		Logger:         logger,
	}
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown level %q", s)
	}
	return level, nil
}
