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
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/carverauto/devicelab/pkg/adb"
	"github.com/carverauto/devicelab/pkg/allocation"
	"github.com/carverauto/devicelab/pkg/logger"
	"github.com/carverauto/devicelab/pkg/models"
	"github.com/carverauto/devicelab/pkg/monitor"
)

// supervisor owns one monitor per tracked device and feeds connectivity
// transitions into the allocation pool.
type supervisor struct {
	cfg  *Config
	g    *errgroup.Group
	gctx context.Context
	pool *allocation.Pool
	log  logger.Logger

	mu      sync.Mutex
	workers map[string]*deviceWorker
}

type deviceWorker struct {
	channel *adb.ExecChannel
	monitor *monitor.Monitor
}

func newSupervisor(cfg *Config, g *errgroup.Group, gctx context.Context, lg logger.Logger) *supervisor {
	return &supervisor{
		cfg:     cfg,
		g:       g,
		gctx:    gctx,
		pool:    allocation.NewPool(lg),
		log:     lg.WithComponent("supervisor"),
		workers: make(map[string]*deviceWorker),
	}
}

// onStateChange receives transitions from the adb tracker.
func (s *supervisor) onStateChange(serial string, state models.DeviceState) {
	w := s.worker(serial)
	w.monitor.SetState(state)

	switch state {
	case models.DeviceStateOnline:
		s.pool.Register(models.DeviceInfo{
			Serial:   serial,
			Kind:     kindForSerial(serial),
			State:    state,
			LastSeen: time.Now(),
		})

		tr, err := s.pool.HandleEvent(serial, models.EventConnectedOnline)
		if err != nil {
			s.log.Warn().Err(err).Str("serial", serial).Msg("allocation event failed")
			return
		}

		if tr.Changed && tr.New == models.AllocationCheckingAvailability {
			s.g.Go(func() error {
				s.runAvailabilityCheck(serial, w.monitor)
				return nil
			})
		}
	case models.DeviceStateDisconnected:
		if _, err := s.pool.HandleEvent(serial, models.EventDisconnected); err != nil {
			s.log.Warn().Err(err).Str("serial", serial).Msg("allocation event failed")
		}
	default:
		// non-online states carry no allocation semantics of their own;
		// monitors observe them through SetState above
	}
}

func (s *supervisor) runAvailabilityCheck(serial string, m *monitor.Monitor) {
	event := models.EventAvailableCheckFailed

	if m.WaitForDeviceAvailableDefault(s.gctx) != nil {
		event = models.EventAvailableCheckPassed
	}

	if _, err := s.pool.HandleEvent(serial, event); err != nil {
		s.log.Warn().Err(err).Str("serial", serial).Msg("availability result dropped")
		return
	}

	s.log.Info().
		Str("serial", serial).
		Str("result", event.String()).
		Msg("availability check finished")
}

func (s *supervisor) worker(serial string) *deviceWorker {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w, ok := s.workers[serial]; ok {
		return w
	}

	channel := adb.NewExecChannel(serial, s.cfg.ADBPath)
	w := &deviceWorker{
		channel: channel,
		monitor: monitor.New(channel, &s.cfg.Monitor, nil, s.log),
	}
	s.workers[serial] = w

	return w
}

func kindForSerial(serial string) models.DeviceKind {
	if strings.HasPrefix(serial, "emulator-") {
		return models.DeviceKindVirtual
	}

	return models.DeviceKindPhysical
}
