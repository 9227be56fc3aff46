package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alxayo/gelf-receiver/internal/logger"

	"github.com/alxayo/gelf-receiver/internal/gelf/receiver"
)

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		// the flag package or parseFlags already printed the error
		os.Exit(2)
	}
	if cfg.showVersion {
		fmt.Println(version)
		return
	}

	logger.Init()
	if err := logger.SetLevel(cfg.logLevel); err != nil {
		fmt.Printf("Warning: invalid log level %q, using default\n", cfg.logLevel)
	}
	log := logger.Logger().With("component", "cli")

	opts := []receiver.Option{
		receiver.WithTTL(cfg.ttl),
		receiver.WithMaxDatagramSize(int(cfg.maxDatagramSize)),
		receiver.WithWorkers(cfg.workers),
	}

	var registry *prometheus.Registry
	if cfg.metricsAddr != "" {
		registry = prometheus.NewRegistry()
		opts = append(opts, receiver.WithPrometheus(registry))
	}

	r := receiver.New(func(msg string) {
		fmt.Println(msg)
	}, opts...)

	if registry != nil {
		go serveMetrics(cfg.metricsAddr, registry, log)
	}

	serveErrCh := make(chan error, 1)
	go func() {
		serveErrCh <- r.ListenAndServe(cfg.listenAddr)
	}()

	log.Info("gelf receiver started", "addr", cfg.listenAddr, "version", version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("receiver stopped unexpectedly", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		if err := r.Close(); err != nil {
			log.Error("receiver close error", "error", err)
		}
		close(done)
	}()

	select {
	case <-done:
		log.Info("receiver stopped cleanly")
	case <-shutdownCtx.Done():
		log.Error("forced exit after timeout")
	}
}

func serveMetrics(addr string, registry *prometheus.Registry, log interface {
	Error(msg string, args ...any)
	Info(msg string, args ...any)
}) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	log.Info("metrics listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("metrics server stopped", "error", err)
	}
}
