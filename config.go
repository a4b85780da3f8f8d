// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goschtalt/casemapper"
	"github.com/goschtalt/goschtalt"
	"github.com/schmidtw/ad840x/board"
	"github.com/schmidtw/ad840x/controller"
	"github.com/schmidtw/ad840x/httpserver"
	"github.com/schmidtw/ad840x/mqttbridge"
	"github.com/schmidtw/ad840x/units"
	"github.com/xmidt-org/sallust"

	_ "github.com/goschtalt/yaml-decoder"
	_ "github.com/goschtalt/yaml-encoder"
)

const applicationName = "ad840x"

var errNoConfig = errors.New("no configuration files found")

// Config is the whole application configuration.  Keys are written
// two_words in the YAML files.
type Config struct {
	Logging      sallust.Config
	Board        board.Config
	Devices      []controller.DeviceConfig
	ResetOnStart bool
	Metrics      Metrics
	HTTP         httpserver.Config
	MQTT         mqttbridge.Config
}

type Metrics struct {
	Namespace string
	Path      string
}

// defaults fills what the files left empty.
func (c *Config) defaults() {
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = applicationName
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 15 * time.Second
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = 15 * time.Second
	}
	if len(c.Logging.OutputPaths) == 0 {
		c.Logging.OutputPaths = []string{"stderr"}
	}
	if len(c.Logging.ErrorOutputPaths) == 0 {
		c.Logging.ErrorOutputPaths = []string{"stderr"}
	}
}

// searchPaths are tried in order when no file is named.
func searchPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, "."+applicationName))
	}
	return append(paths, filepath.Join("/etc", applicationName))
}

func configFiles(files []string) []string {
	if len(files) > 0 {
		return files
	}
	for _, dir := range searchPaths() {
		f := filepath.Join(dir, applicationName+".yml")
		if _, err := os.Stat(f); err == nil {
			return []string{f}
		}
	}
	return nil
}

func newConfigurer(files []string) (*goschtalt.Config, error) {
	files = configFiles(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: looked in %v", errNoConfig, searchPaths())
	}

	opts := []goschtalt.Option{
		goschtalt.AutoCompile(),
		casemapper.ConfigIs("two_words"),
		goschtalt.DefaultUnmarshalOptions(
			goschtalt.DecodeHook(units.DecodeHook()),
		),
	}
	for _, f := range files {
		opts = append(opts, goschtalt.AddFile(os.DirFS(filepath.Dir(f)), filepath.Base(f)))
	}

	return goschtalt.New(opts...)
}

// loadConfig reads and merges the files into a Config.
func loadConfig(files []string) (*goschtalt.Config, Config, error) {
	gs, err := newConfigurer(files)
	if err != nil {
		return nil, Config{}, err
	}

	var cfg Config
	if err := gs.Unmarshal("", &cfg); err != nil {
		return nil, Config{}, err
	}
	cfg.defaults()

	return gs, cfg, nil
}
