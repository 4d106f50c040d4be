// Command lanremote-host is the reference remote-control host.
//
// It answers discovery probes, authenticates commands with the pairing
// code, and performs them through an executor. The reference executor only
// logs what it would do.
//
// Usage:
//
//	lanremote-host [flags]
//
// Flags:
//
//	-config string        Configuration file path
//	-code string          Pairing code (random 4-digit code if empty)
//	-port int             Command port for UDP and TCP (default 5000)
//	-mdns                 Also advertise over mDNS
//	-metrics string       Address for /metrics and /healthz ("" disables)
//	-protocol-log string  Write a protocol capture (.rlog) to this file
//	-log-level string     Log level: debug, info, warn, error (default "info")
//
// Examples:
//
//	# Start with a random pairing code
//	lanremote-host
//
//	# Fixed code, mDNS advertisement and debug logging
//	lanremote-host -code 4821 -mdns -log-level debug
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
	"syscall"
	"time"

	"github.com/lanremote/lanremote-go/pkg/config"
	"github.com/lanremote/lanremote-go/pkg/host"
	"github.com/lanremote/lanremote-go/pkg/log"
	"github.com/lanremote/lanremote-go/pkg/pairing"
	"github.com/lanremote/lanremote-go/pkg/version"
)

var (
	configFile  string
	code        string
	port        int
	useMDNS     bool
	metricsAddr string
	protocolLog string
	logLevel    string
)

func init() {
	flag.StringVar(&configFile, "config", "", "Configuration file path")
	flag.StringVar(&code, "code", "", "Pairing code (random 4-digit code if empty)")
	flag.IntVar(&port, "port", -1, "Command port for UDP and TCP (default 5000)")
	flag.BoolVar(&useMDNS, "mdns", false, "Also advertise over mDNS")
	flag.StringVar(&metricsAddr, "metrics", "-", "Address for /metrics and /healthz (\"\" disables)")
	flag.StringVar(&protocolLog, "protocol-log", "", "Write a protocol capture (.rlog) to this file")
	flag.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default \"info\")")
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "lanremote-host: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := setupLogging(cfg.Log.Level, os.Stderr)
	if err != nil {
		return err
	}

	generated := false
	if cfg.Pairing.Code == "" {
		c, err := pairing.GenerateCode(pairing.DefaultCodeLength)
		if err != nil {
			return err
		}
		cfg.Pairing.Code = string(c)
		generated = true
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

	svc, err := host.NewService(cfg.ServiceConfig(protocolLogger, logger))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	if generated {
		fmt.Printf("\n  Pairing code: %s\n\n", cfg.Pairing.Code)
	}

	if cfg.Host.MetricsAddr != "" {
		ln, err := net.Listen("tcp", cfg.Host.MetricsAddr)
		if err != nil {
			return fmt.Errorf("metrics listener: %w", err)
		}
		status := newStatusServer(svc, version.Build)
		go func() {
			if err := status.Serve(ln); err != nil {
				logger.Error("status server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			status.Shutdown(shutdownCtx)
		}()
		logger.Info("status server listening", "addr", ln.Addr().String())
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String())
	return nil
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if code != "" {
		cfg.Pairing.Code = code
	}
	if port >= 0 {
		cfg.Host.CommandPort = port
	}
	if useMDNS {
		cfg.Host.MDNS = true
	}
	if metricsAddr != "-" {
		cfg.Host.MetricsAddr = metricsAddr
	}
	if protocolLog != "" {
		cfg.Log.ProtocolFile = protocolLog
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
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
