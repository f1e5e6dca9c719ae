// SPDX-License-Identifier: EPL-2.0

// Command psyplay plays a YAML playlist of stimuli on a configured audio
// backend and optionally sends a parallel port trigger at every onset.
//
//	psyplay -config psyaudio.yaml -playlist run.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/ik5/psyaudio"
	"github.com/ik5/psyaudio/config"
	"github.com/ik5/psyaudio/observe"
	"github.com/ik5/psyaudio/trigger"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "psyaudio.yaml", "path to the configuration file")
	playlistPath := flag.String("playlist", "", "path to the YAML playlist")
	flag.Parse()

	if *playlistPath == "" {
		fmt.Fprintln(os.Stderr, "psyplay: -playlist is required")
		flag.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "psyplay: %v\n", err)
		return 1
	}

	logFile, err := config.ConfigureDefaultLogger(cfg.LogLevel, cfg.LogFile, slog.HandlerOptions{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "psyplay: %v\n", err)
		return 1
	}
	if logFile != nil {
		defer logFile.Close()
	}

	pl, err := config.LoadPlaylistFile(*playlistPath)
	if err != nil {
		slog.Error("failed to load playlist", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, pl); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("psyplay failed", "err", err)
		return 1
	}
	return 0
}

// serve wires the runtime, the device, the trigger and the metrics endpoint
// together and plays pl.
func serve(ctx context.Context, cfg *config.Config, pl *config.Playlist) error {
	logger := slog.Default()

	var metrics *observe.Metrics
	var metricsSrv *http.Server
	if cfg.Metrics.Addr != "" {
		shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "psyplay"})
		if err != nil {
			return fmt.Errorf("metrics provider: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				logger.Warn("metrics shutdown", "err", err)
			}
		}()
		metrics = observe.DefaultMetrics()

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	}

	rt := psyaudio.NewRuntime(psyaudio.WithLogger(logger), psyaudio.WithMetrics(metrics))
	if err := rt.Retain(); err != nil {
		return err
	}
	defer rt.Release()

	backend, capture, err := newBackend(cfg)
	if err != nil {
		return err
	}
	dev := rt.NewDevice(backend, cfg.DeviceOptions()...)

	var trig *trigger.ParallelTrigger
	if cfg.Trigger.Port >= 0 {
		trig = trigger.New(
			trigger.WithClock(rt.Clock()),
			trigger.WithLogger(logger),
			trigger.WithMetrics(metrics),
		)
		if err := trig.Open(cfg.Trigger.Port); err != nil {
			return fmt.Errorf("trigger: %w", err)
		}
		defer trig.Close()
	}

	p := &player{
		device: dev,
		clock:  rt.Clock(),
		logger: logger,
		trig:   trig,
		pulse:  msDuration(int64(cfg.Trigger.PulseMs)),
	}

	g, gctx := errgroup.WithContext(ctx)
	events := rt.Events()
	g.Go(func() error { return events.Run(gctx) })
	if metricsSrv != nil {
		g.Go(func() error {
			logger.Info("serving metrics", "addr", cfg.Metrics.Addr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		defer events.Quit()
		if metricsSrv != nil {
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := metricsSrv.Shutdown(sctx); err != nil {
					logger.Warn("metrics server shutdown", "err", err)
				}
			}()
		}
		err := p.play(gctx, pl)
		if cerr := dev.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close device: %w", cerr))
		}
		if capture != nil {
			if cerr := capture.Close(); cerr != nil {
				err = errors.Join(err, cerr)
			}
		}
		return err
	})
	return g.Wait()
}
