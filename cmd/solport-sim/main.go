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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/solport/solport/core/logx"
	"github.com/solport/solport/internal/sim"
)

var (
	version   = "dev"
	buildSHA  = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	var cfg sim.Config
	cfg.BindFlags()
	flag.Usage = func() {
		_, _ = fmt.Fprintf(flag.CommandLine.Output(), "solport-sim version=%s sha=%s date=%s\n\n", version, buildSHA, buildDate)
		flag.PrintDefaults()
	}
	flag.Parse()
	if *showVersion {
		fmt.Printf("solport-sim version=%s sha=%s date=%s\n", version, buildSHA, buildDate)
		return
	}

	if cfg.ConfigFile != "" {
		if err := cfg.LoadFile(cfg.ConfigFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			logx.Log.Fatal().Err(err).Str("path", cfg.ConfigFile).Msg("load config")
		}
	}
	logx.Configure(cfg.LogLevel)

	srv, err := sim.New(cfg)
	if err != nil {
		logx.Log.Fatal().Err(err).Msg("init surface simulator")
	}
	sim.RegisterMetrics(prometheus.DefaultRegisterer)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logx.Log.Warn().Msg("termination requested")
		cancel()
	}()

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			ms := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
			if err := ms.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logx.Log.Error().Err(err).Msg("metrics server")
			}
		}()
	}

	hs := &http.Server{Addr: cfg.Addr, Handler: srv.Router()}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = hs.Shutdown(shutdownCtx)
	}()

	logx.Log.Info().Str("addr", cfg.Addr).Str("cluster", cfg.Cluster).Str("public_key", srv.PublicKey()).Msg("surface simulator listening")
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logx.Log.Fatal().Err(err).Msg("serve")
	}
}
