package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/sensirion/air"
	"github.com/mklimuk/sensirion/cmd/scd4x/console"
	"github.com/mklimuk/sensirion/exporter"
)

var exportCmd = cli.Command{
	Name:  "export",
	Usage: "serve sensor readings as prometheus metrics",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "listen",
			Value:   ":9412",
			Usage:   "metrics http listen address",
			EnvVars: []string{"SCD4X_LISTEN"},
		},
		&cli.DurationFlag{
			Name:  "interval",
			Value: 5 * time.Second,
			Usage: "data ready poll interval",
		},
		&cli.BoolFlag{
			Name:  "low-power",
			Usage: "use low power periodic measurement (30s cycle)",
		},
	},
	Action: func(c *cli.Context) error {
		return withSensor(c, func(ctx context.Context, s *air.SCD4x) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			serial, err := s.SerialNumber(ctx)
			if err != nil {
				return console.Fail("error reading serial number", err)
			}
			start := s.StartPeriodicMeasurement
			if c.Bool("low-power") {
				start = s.StartLowPowerPeriodicMeasurement
			}
			if err := start(ctx); err != nil {
				return console.Fail("could not start measurement", err)
			}
			defer func() {
				if err := s.StopPeriodicMeasurement(context.WithoutCancel(ctx)); err != nil {
					slog.Error("could not stop periodic measurement", "error", err)
				}
			}()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			exp := exporter.New(s.Cursor(), fmt.Sprintf("%012x", serial), exporter.NewMetrics(reg), c.Duration("interval"))

			mux := http.NewServeMux()
			mux.Handle("/metrics", exporter.Handler(reg))
			srv := &http.Server{
				Addr:              c.String("listen"),
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
			go func() {
				slog.Info("serving metrics", "addr", srv.Addr, "serial", fmt.Sprintf("%012x", serial))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					slog.Error("metrics server failed", "error", err)
					stop()
				}
			}()
			if err := exp.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return console.Fail("exporter stopped", err)
			}
			console.PInfof(console.PictoFinish, "exporter stopped")
			return nil
		})
	},
}
