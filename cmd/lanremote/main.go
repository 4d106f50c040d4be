// Command lanremote is the interactive remote-control client.
//
// It discovers a host on the local network, pairs with it using the code
// the host displays, and sends pointer, keyboard and media commands.
//
// Usage:
//
//	lanremote [flags]
//
// Flags:
//
//	-config string        Configuration file path
//	-code string          Pairing code (can also be entered with 'pair')
//	-host string          Host address, skips discovery (ip or ip:port)
//	-mdns                 Discover hosts over mDNS instead of broadcast
//	-protocol-log string  Write a protocol capture (.rlog) to this file
//	-log-level string     Log level: debug, info, warn, error (default "info")
//
// Examples:
//
//	# Discover a host and pair interactively
//	lanremote
//
//	# Connect straight to a known host
//	lanremote -host 192.168.1.40 -code 4821
//
//	# Capture the protocol exchange for lanremote-log
//	lanremote -protocol-log /tmp/session.rlog -log-level debug
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/lanremote/lanremote-go/cmd/lanremote/interactive"
	"github.com/lanremote/lanremote-go/pkg/config"
	"github.com/lanremote/lanremote-go/pkg/discovery"
	"github.com/lanremote/lanremote-go/pkg/log"
	"github.com/lanremote/lanremote-go/pkg/motion"
	"github.com/lanremote/lanremote-go/pkg/session"
	"github.com/lanremote/lanremote-go/pkg/transport"
	"github.com/lanremote/lanremote-go/pkg/wire"
)

var (
	configFile  string
	code        string
	hostAddr    string
	useMDNS     bool
	protocolLog string
	logLevel    string
)

func init() {
	flag.StringVar(&configFile, "config", "", "Configuration file path")
	flag.StringVar(&code, "code", "", "Pairing code (can also be entered with 'pair')")
	flag.StringVar(&hostAddr, "host", "", "Host address, skips discovery (ip or ip:port)")
	flag.BoolVar(&useMDNS, "mdns", false, "Discover hosts over mDNS instead of broadcast")
	flag.StringVar(&protocolLog, "protocol-log", "", "Write a protocol capture (.rlog) to this file")
	flag.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default \"info\")")
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "lanremote: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if protocolLog != "" {
		cfg.Log.ProtocolFile = protocolLog
	}
	if useMDNS {
		cfg.Discovery.Method = config.MethodMDNS
	}
	if code != "" {
		cfg.Pairing.Code = code
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The shell owns the terminal; logs go through it once it exists.
	out := &switchWriter{w: os.Stderr}
	logger, err := setupLogging(cfg.Log.Level, out)
	if err != nil {
		return err
	}

	var protocolLogger log.Logger
	if cfg.Log.ProtocolFile != "" {
		fl, err := log.NewFileLogger(cfg.Log.ProtocolFile)
		if err != nil {
			return fmt.Errorf("protocol log: %w", err)
		}
		defer fl.Close()
		protocolLogger = log.NewMultiLogger(fl, log.NewSlogAdapter(logger))
	}

	dispatcher := transport.NewDispatcher(cfg.DispatcherConfig(protocolLogger, logger))
	defer dispatcher.Close()

	sess, err := session.New(session.Config{
		Discoverer:     cfg.DiscoveryClient(protocolLogger, logger),
		Sender:         dispatcher,
		DeriveKey:      cfg.KeyDeriver(),
		ProtocolLogger: protocolLogger,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	pairingCode, err := cfg.PairingCode()
	if err != nil {
		return fmt.Errorf("pairing code: %w", err)
	}
	if pairingCode != "" {
		sess.SetPairingCode(pairingCode)
	}
	if hostAddr != "" {
		ep, err := parseEndpoint(hostAddr)
		if err != nil {
			return err
		}
		if err := sess.SetEndpoint(ep); err != nil {
			return err
		}
		if pairingCode != "" {
			if err := sess.Connect(ctx); err != nil {
				logger.Warn("connect failed", "host", ep.Addr(), "error", err)
			}
		}
	}

	shell, err := interactive.New(sess, motion.NewTracker(cfg.TrackerConfig()), cfg.Motion.MinInterval)
	if err != nil {
		return err
	}
	out.set(shell.Stdout())
	go shell.Run(ctx, cancel)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received signal", "signal", sig.String())
	case <-ctx.Done():
	}
	return nil
}

func setupLogging(level string, w io.Writer) (*slog.Logger, error) {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger, nil
}

// parseEndpoint accepts "ip" or "ip:port".
func parseEndpoint(s string) (wire.PeerEndpoint, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		host, portStr = s, strconv.Itoa(discovery.DefaultCommandPort)
	}
	if net.ParseIP(host) == nil {
		return wire.PeerEndpoint{}, fmt.Errorf("invalid host address %q", s)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil || port == 0 {
		return wire.PeerEndpoint{}, fmt.Errorf("invalid port in %q", s)
	}
	return wire.PeerEndpoint{Address: host, Port: uint16(port)}, nil
}
