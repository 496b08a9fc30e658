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

	"github.com/iwvelando/emi-calculator/internal/config"
	"github.com/iwvelando/emi-calculator/internal/logging"
	"github.com/iwvelando/emi-calculator/internal/metrics"
	"github.com/iwvelando/emi-calculator/internal/server"
	"github.com/iwvelando/emi-calculator/internal/service"
	"github.com/iwvelando/emi-calculator/internal/session"
	"github.com/iwvelando/emi-calculator/pkg/constants"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	serverConfigLocation := flag.String("server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to calculator configuration file")
	address := flag.String("address", "", "listen address override (e.g. :8080)")
	maxBodySize := flag.String("max-body-size", "", "request body limit override (e.g. 64KB, 1MB)")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	serverConf, err := server.LoadConfig(*serverConfigLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *serverConfigLocation, err)
		os.Exit(1)
	}
	if *address != "" {
		serverConf.Address = *address
	}
	if *maxBodySize != "" {
		size, err := server.ParseSize(*maxBodySize)
		if err != nil {
			fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"invalid -max-body-size %s\", \"error\": \"%v\"}\n", *maxBodySize, err)
			os.Exit(1)
		}
		serverConf.SetBodySizeBytes(size)
	}

	logger, err := logging.New(serverConf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		logger.Fatal("failed to load configuration",
			zap.String("op", "main"),
			zap.String("path", *configLocation),
			zap.Error(err),
		)
	}
	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	store, closeStore, err := newSessionStore(serverConf.Session, logger)
	if err != nil {
		logger.Fatal("failed to initialize session store",
			zap.String("op", "main"),
			zap.String("backend", serverConf.Session.Backend),
			zap.Error(err),
		)
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	calc := service.NewCalculator(logger, conf, store, metrics.New(reg))
	handler := server.NewHandler(logger, calc, server.Options{
		MaxBodySize:    serverConf.BodySizeBytes(),
		Version:        version,
		AllowedOrigins: serverConf.AllowedOrigins,
		SessionTTL:     serverConf.Session.TTL(),
		SecureCookie:   serverConf.Session.SecureCookie,
		Gatherer:       reg,
	})

	srv := &http.Server{
		Addr:              serverConf.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			zap.String("op", "main"),
			zap.String("address", serverConf.Address),
			zap.String("version", version),
			zap.String("sessionBackend", serverConf.Session.Backend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		logger.Error("server failed",
			zap.String("op", "main"),
			zap.Error(err),
		)
		return
	case sig := <-quit:
		logger.Info("shutting down server",
			zap.String("op", "main"),
			zap.String("signal", sig.String()),
		)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("error during server shutdown",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	logger.Info("server exited", zap.String("op", "main"))
}

// newSessionStore builds the configured store and returns a cleanup func.
func newSessionStore(conf server.SessionConfig, logger *zap.Logger) (session.Store, func(), error) {
	switch conf.Backend {
	case constants.SessionBackendRedis:
		store := session.NewRedisStore(conf.RedisAddress, conf.TTL())
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("connecting to redis at %s: %w", conf.RedisAddress, err)
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("failed to close redis client",
					zap.String("op", "main.newSessionStore"),
					zap.Error(err),
				)
			}
		}, nil
	default:
		store := session.NewMemoryStore(conf.TTL())
		stop := make(chan struct{})
		go sweepSessions(store, conf.TTL(), stop, logger)
		return store, func() { close(stop) }, nil
	}
}

// sweepSessions drops expired in-memory sessions until stop is closed.
func sweepSessions(store *session.MemoryStore, ttl time.Duration, stop <-chan struct{}, logger *zap.Logger) {
	interval := ttl / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if n := store.Sweep(); n > 0 {
				logger.Debug("expired sessions removed",
					zap.String("op", "main.sweepSessions"),
					zap.Int("count", n),
				)
			}
		}
	}
}
