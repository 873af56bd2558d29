/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/carverauto/devicelab/pkg/adb"
	"github.com/carverauto/devicelab/pkg/config"
	"github.com/carverauto/devicelab/pkg/logger"
	"github.com/carverauto/devicelab/pkg/models"
	"github.com/carverauto/devicelab/pkg/monitor"
	"github.com/carverauto/devicelab/pkg/version"
)

// Config is the devwatchd daemon configuration.
type Config struct {
	ADBPath       string          `json:"adb_path"`
	TrackInterval models.Duration `json:"track_interval"`
	Logging       *logger.Config  `json:"logging"`
	Monitor       monitor.Config  `json:"monitor"`
}

func (c *Config) Validate() error {
	return c.Monitor.Validate()
}

func main() {
	if err := run(); err != nil && err != context.Canceled {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to devwatchd config file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("devwatchd", version.Full())
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cfg Config

	if *configPath != "" {
		if err := config.LoadAndValidate(ctx, nil, *configPath, &cfg); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}

	lg, err := logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	sup := newSupervisor(&cfg, g, gctx, lg)

	tracker := adb.NewTracker(cfg.ADBPath, cfg.TrackInterval.Duration(), sup.onStateChange, lg)

	lg.Info().Str("version", version.Short()).Msg("devwatchd starting")

	g.Go(func() error {
		return tracker.Run(gctx)
	})

	err = g.Wait()

	lg.Info().Msg("devwatchd stopped")

	return err
}
