// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/schmidtw/ad840x/api"
	"github.com/schmidtw/ad840x/board"
	"github.com/schmidtw/ad840x/controller"
	"github.com/schmidtw/ad840x/httpserver"
	"github.com/schmidtw/ad840x/mqttbridge"
	"github.com/schmidtw/ad840x/views"
	"github.com/xmidt-org/sallust"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func newApp(cfg Config) *fx.App {
	return fx.New(
		fx.Supply(cfg),
		fx.Provide(
			func(c Config) sallust.Config { return c.Logging },
			func(c Config) httpserver.Config { return c.HTTP },
			func(c sallust.Config) (*zap.Logger, error) { return c.Build() },
			newRegistry,
			provideBoard,
			provideController,
			provideHandler,
			httpserver.New,
		),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l}
		}),
		fx.Invoke(
			func(*http.Server) {},
			startBridge,
		),
	)
}

func newRegistry() (prometheus.Registerer, prometheus.Gatherer, error) {
	reg := prometheus.NewRegistry()
	for _, c := range []prometheus.Collector{
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	} {
		if err := reg.Register(c); err != nil {
			return nil, nil, err
		}
	}
	return reg, reg, nil
}

// provideBoard opens the hardware right away because the controller binds
// its lines when it is made.
func provideBoard(lc fx.Lifecycle, cfg Config, log *zap.Logger) (*board.Board, error) {
	b, err := board.New(cfg.Board, board.UseLogger(log))
	if err != nil {
		return nil, err
	}
	if err := b.Open(); err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return b.Close()
		},
	})
	return b, nil
}

func provideController(lc fx.Lifecycle, b *board.Board, cfg Config, log *zap.Logger, reg prometheus.Registerer) (*controller.Controller, error) {
	// The reset at start is deferred to OnStart so it runs with the
	// lifecycle's deadline.
	resetOnStart := cfg.ResetOnStart
	cfg.ResetOnStart = false

	c, err := newController(context.Background(), b, cfg, log, reg)
	if err != nil {
		return nil, err
	}

	if resetOnStart {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return c.ResetAll(ctx)
			},
		})
	}
	return c, nil
}

func newController(ctx context.Context, b controller.Board, cfg Config, log *zap.Logger, reg prometheus.Registerer) (*controller.Controller, error) {
	return controller.New(ctx, b,
		controller.Config{
			Devices:      cfg.Devices,
			ResetOnStart: cfg.ResetOnStart,
			Namespace:    cfg.Metrics.Namespace,
		},
		controller.UseLogger(log),
		controller.UseRegisterer(reg),
	)
}

func provideHandler(c *controller.Controller, g prometheus.Gatherer, cfg Config, log *zap.Logger) (http.Handler, error) {
	pages, err := views.Handler(c, log)
	if err != nil {
		return nil, err
	}

	r := httpserver.Routes{
		API:         api.Handler(c, log),
		Pages:       pages,
		Gatherer:    g,
		MetricsPath: cfg.Metrics.Path,
	}
	return r.Mux(), nil
}

// startBridge connects to MQTT when a broker is configured.
func startBridge(lc fx.Lifecycle, c *controller.Controller, cfg Config, log *zap.Logger) error {
	if cfg.MQTT.Broker == "" {
		log.Info("MQTT bridge disabled")
		return nil
	}

	b, err := mqttbridge.New(cfg.MQTT, c, mqttbridge.UseLogger(log))
	if err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: b.Start,
		OnStop:  b.Stop,
	})
	return nil
}
