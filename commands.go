// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/goschtalt/goschtalt"
	"github.com/schmidtw/ad840x/board"
	"github.com/schmidtw/ad840x/controller"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type ServeCmd struct{}

func (s *ServeCmd) Run(cli *CLI) error {
	_, cfg, err := loadConfig(cli.Files)
	if err != nil {
		return err
	}

	app := newApp(cfg)
	app.Run()
	return app.Err()
}

type SetCmd struct {
	Device  string `arg:"" help:"Device name."`
	Channel string `arg:"" help:"Channel, 0-3 or A-D."`
	Value   string `arg:"" help:"Code (128), ratio (50% or 0.5) or resistance (12.5k)."`
}

func (s *SetCmd) Run(cli *CLI) error {
	ch, err := parseChannel(s.Channel)
	if err != nil {
		return err
	}
	sp, err := controller.ParseSetpoint(s.Value)
	if err != nil {
		return err
	}

	return oneShot(cli, func(ctx context.Context, c *controller.Controller) error {
		cs, err := c.Apply(ctx, s.Device, ch, sp)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s: code %d, ratio %.3f, %s\n",
			s.Device, cs.Channel, cs.Code, cs.Ratio, cs.Resistance)
		return nil
	})
}

type ResetCmd struct {
	Device string `arg:"" optional:"" help:"Device name; all devices when omitted."`
}

func (r *ResetCmd) Run(cli *CLI) error {
	return oneShot(cli, func(ctx context.Context, c *controller.Controller) error {
		if r.Device == "" {
			return c.ResetAll(ctx)
		}
		return c.Reset(ctx, r.Device)
	})
}

type ShutdownCmd struct {
	Device string `arg:"" help:"Device name."`
	Wake   bool   `help:"Leave shutdown instead of entering it."`
}

func (s *ShutdownCmd) Run(cli *CLI) error {
	return oneShot(cli, func(_ context.Context, c *controller.Controller) error {
		st, err := c.Shutdown(s.Device, !s.Wake)
		if err != nil {
			return err
		}
		if !st.ShutdownLine {
			fmt.Printf("%s has no shutdown line; nothing changed\n", s.Device)
		}
		return nil
	})
}

type StatusCmd struct {
	URL     string        `help:"Base URL of the running service.  Defaults to the configured HTTP address."`
	Timeout time.Duration `default:"5s" help:"Request timeout."`
}

func (s *StatusCmd) Run(cli *CLI) error {
	url := s.URL
	if url == "" {
		_, cfg, err := loadConfig(cli.Files)
		if err != nil {
			return err
		}
		url = baseURL(cfg.HTTP.Address)
	}

	client := http.Client{Timeout: s.Timeout}
	resp, err := client.Get(strings.TrimSuffix(url, "/") + "/devices")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var list []controller.Status
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return err
	}
	printStatus(os.Stdout, list)
	return nil
}

type ConfigCmd struct{}

func (c *ConfigCmd) Run(cli *CLI) error {
	gs, _, err := loadConfig(cli.Files)
	if err != nil {
		return err
	}

	out, err := gs.Marshal(goschtalt.FormatAs("yaml"))
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}

// oneShot opens the hardware, runs fn against a controller and closes
// everything again.  The wipers are left where fn put them.
func oneShot(cli *CLI, fn func(context.Context, *controller.Controller) error) (err error) {
	_, cfg, err := loadConfig(cli.Files)
	if err != nil {
		return err
	}

	logger, err := cfg.Logging.Build()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	b, err := board.New(cfg.Board, board.UseLogger(logger))
	if err != nil {
		return err
	}
	if err := b.Open(); err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, b.Close())
	}()

	// Only the named device is touched.
	cfg.ResetOnStart = false
	c, err := newController(context.Background(), b, cfg, logger, nil)
	if err != nil {
		return err
	}

	logger.Debug("Running command", zap.Strings("devices", c.Names()))
	return fn(context.Background(), c)
}

func parseChannel(s string) (int, error) {
	switch strings.ToUpper(s) {
	case "0", "A":
		return 0, nil
	case "1", "B":
		return 1, nil
	case "2", "C":
		return 2, nil
	case "3", "D":
		return 3, nil
	}
	return 0, fmt.Errorf("%w: '%s' is not 0-3 or A-D", controller.ErrInvalidChannel, s)
}

// baseURL turns a listen address into a URL a local client can use.
func baseURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func printStatus(w io.Writer, list []controller.Status) {
	if len(list) == 0 {
		fmt.Fprintln(w, "no devices")
		return
	}
	for _, s := range list {
		state := "normal"
		if s.Shutdown {
			state = "shutdown"
		}
		fmt.Fprintf(w, "%s (%s, %s, %s, %s)\n", s.Name, s.Variant, s.FullScale, s.Mode, state)
		for _, ch := range s.Channels {
			fmt.Fprintf(w, "  %s  %3d  %5.3f  %s\n", ch.Channel, ch.Code, ch.Ratio, ch.Resistance)
		}
	}
}
