// Package main is the entrypoint for hubd, the hub provisioning daemon.
//
// hubd exposes the provisioning pipeline over HTTP: a one-click web
// console, a streaming provisioning endpoint, session administration
// and Prometheus metrics. Hub credentials travel with each request;
// the daemon itself stores none.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"

	"github.com/hubward/hubward/internal/config"
	"github.com/hubward/hubward/internal/progress"
	"github.com/hubward/hubward/internal/provisioning"
	"github.com/hubward/hubward/internal/server"
	"github.com/hubward/hubward/internal/session"
	"github.com/hubward/hubward/internal/source"
	"github.com/hubward/hubward/web"
)

// Version is set at build time
var Version = "dev"

const shutdownGrace = 10 * time.Second

func main() {
	var (
		listenAddr string
		configPath string
	)

	flag.StringVar(&listenAddr, "listen", "", "The address the HTTP endpoint binds to. Overrides daemon.listen from the config.")
	flag.StringVar(&configPath, "config", "", "Path to a hubward.yaml providing source and setup defaults.")
	flag.Parse()

	logger, err := buildLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	setupLog := logger.WithName("setup")

	setupLog.Info("starting hubd", "version", Version)

	cfg, err := loadConfig(configPath)
	if err != nil {
		setupLog.Error(err, "unable to load config")
		os.Exit(1)
	}
	if listenAddr == "" {
		listenAddr = cfg.Daemon.Listen
	}

	src, err := buildSource(cfg)
	if err != nil {
		setupLog.Error(err, "unable to build archive source")
		os.Exit(1)
	}

	timeouts := config.LoadTimeouts()
	registry := session.NewRegistry(
		session.WithConnectAttempts(timeouts.ConnectAttempts),
		session.WithConnectDelay(timeouts.ConnectDelay),
	)

	runner := provisioning.NewRunner(
		server.InstrumentConnector(provisioning.RegistryConnector{Registry: registry}),
		src,
		provisioning.WithDefaultRef(source.Ref{
			Owner:  cfg.Source.Owner,
			Repo:   cfg.Source.Repo,
			Branch: cfg.Source.Branch,
		}),
		provisioning.WithTargetBasePath(cfg.Setup.TargetBasePath),
		provisioning.WithInstallAttempts(timeouts.InstallAttempts),
	)

	srv := server.NewServer(
		provisionService{runner: runner, dialTimeout: timeouts.Dial},
		registry,
		logger,
		server.WithStaticHandler(web.Handler()),
	)

	httpServer := &http.Server{
		Addr:              listenAddr,
		Handler:           srv.Router,
		ReadHeaderTimeout: 10 * time.Second,
		// No write timeout: provisioning streams stay open for the
		// length of a run.
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		setupLog.Info("listening", "addr", listenAddr)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			setupLog.Error(err, "http server failed")
			os.Exit(1)
		}
	case <-ctx.Done():
		setupLog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			setupLog.Error(err, "shutdown did not complete cleanly")
		}
		if err := registry.DisconnectAll(); err != nil {
			setupLog.Error(err, "failed to close hub sessions")
		}
	}
}

// provisionService adapts the pipeline runner for the HTTP layer,
// applying the daemon's dial timeout to requests that carry none.
type provisionService struct {
	runner      *provisioning.Runner
	dialTimeout time.Duration
}

func (s provisionService) Run(ctx context.Context, req provisioning.Request, sink progress.Sink) (provisioning.State, error) {
	if req.DialTimeout == 0 {
		req.DialTimeout = s.dialTimeout
	}
	return s.runner.Run(ctx, req, sink)
}

func buildLogger() (logr.Logger, error) {
	var (
		zl  *zap.Logger
		err error
	)
	if os.Getenv("DEBUG") == "true" {
		zl, err = zap.NewDevelopment()
	} else {
		zl, err = zap.NewProduction()
	}
	if err != nil {
		return logr.Logger{}, err
	}
	return zapr.NewLogger(zl), nil
}

// loadConfig reads the named config file, falls back to hubward.yaml in
// the working directory, and otherwise serves with defaults only. The
// daemon works without a file; requests then carry their own source
// coordinates.
func loadConfig(path string) (*config.Config, error) {
	switch {
	case path != "":
		return config.LoadFile(path)
	case fileOnDisk(config.DefaultFileName):
		return config.LoadFile(config.DefaultFileName)
	default:
		cfg := &config.Config{}
		cfg.ApplyDefaults()
		return cfg, nil
	}
}

func fileOnDisk(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// buildSource picks the archive source: object storage when configured,
// the public GitHub endpoints otherwise.
func buildSource(cfg *config.Config) (source.Source, error) {
	if cfg.Source.S3 == nil {
		return source.GitHub{}, nil
	}

	src, err := source.NewS3(source.S3Config{
		Endpoint:     cfg.Source.S3.Endpoint,
		Region:       cfg.Source.S3.Region,
		Bucket:       cfg.Source.S3.Bucket,
		AccessKey:    cfg.Source.S3.AccessKey,
		SecretKey:    cfg.Source.S3.SecretKey,
		UsePathStyle: cfg.Source.S3.UsePathStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize object storage source: %w", err)
	}
	return src, nil
}
