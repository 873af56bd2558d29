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

package adb

import (
	"bytes"
	"context"
	"os/exec"
	"sync"
	"time"

	"github.com/carverauto/devicelab/pkg/logger"
	"github.com/carverauto/devicelab/pkg/models"
	"github.com/carverauto/devicelab/pkg/parsers"
)

const (
	defaultTrackInterval = 2 * time.Second
	listDevicesTimeout   = 10 * time.Second
)

// StateFunc receives connectivity transitions observed by the Tracker.
type StateFunc func(serial string, state models.DeviceState)

// Tracker polls the adb host for the device list and pushes connectivity
// transitions to a listener. It is the event source behind monitor state
// snapshots and pool connect/disconnect events.
type Tracker struct {
	adbPath  string
	interval time.Duration
	notify   StateFunc
	log      logger.Logger

	// listDevices is replaceable in tests.
	listDevices func(ctx context.Context) (string, error)

	mu   sync.Mutex
	last map[string]models.DeviceState
}

// NewTracker creates a tracker polling at interval (0 means the default).
// notify is invoked for every observed transition, including first sight and
// disappearance (reported as DeviceStateDisconnected).
func NewTracker(adbPath string, interval time.Duration, notify StateFunc, log logger.Logger) *Tracker {
	if adbPath == "" {
		adbPath = defaultADBPath
	}

	if interval <= 0 {
		interval = defaultTrackInterval
	}

	t := &Tracker{
		adbPath:  adbPath,
		interval: interval,
		notify:   notify,
		log:      log.WithComponent("adb.tracker"),
		last:     make(map[string]models.DeviceState),
	}
	t.listDevices = t.execListDevices

	return t
}

// Run polls until ctx is canceled.
func (t *Tracker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		if err := t.Poll(ctx); err != nil {
			t.log.Warn().Err(err).Msg("device list poll failed")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Poll runs a single device-list scan and dispatches transitions.
func (t *Tracker) Poll(ctx context.Context) error {
	output, err := t.listDevices(ctx)
	if err != nil {
		return err
	}

	seen := make(map[string]models.DeviceState)
	for _, entry := range parsers.ParseDeviceList(output) {
		seen[entry.Serial] = entry.State
	}

	t.dispatch(seen)

	return nil
}

func (t *Tracker) dispatch(seen map[string]models.DeviceState) {
	type transition struct {
		serial string
		state  models.DeviceState
	}

	var changes []transition

	t.mu.Lock()

	for serial, state := range seen {
		if prev, ok := t.last[serial]; !ok || prev != state {
			changes = append(changes, transition{serial, state})
		}
	}

	for serial := range t.last {
		if _, ok := seen[serial]; !ok {
			changes = append(changes, transition{serial, models.DeviceStateDisconnected})
		}
	}

	t.last = seen
	t.mu.Unlock()

	for _, c := range changes {
		t.log.Debug().
			Str("serial", c.serial).
			Str("state", c.state.String()).
			Msg("device state transition")

		if t.notify != nil {
			t.notify(c.serial, c.state)
		}
	}
}

// Snapshot returns the last observed state for serial.
func (t *Tracker) Snapshot(serial string) models.DeviceState {
	t.mu.Lock()
	defer t.mu.Unlock()

	if state, ok := t.last[serial]; ok {
		return state
	}

	return models.DeviceStateUnknown
}

func (t *Tracker) execListDevices(ctx context.Context) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, listDevicesTimeout)
	defer cancel()

	var stdout bytes.Buffer

	cmd := exec.CommandContext(runCtx, t.adbPath, "devices")
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return "", &TransportError{Kind: ErrorKindIO, Serial: "host", Cmd: "devices", Err: err}
	}

	return stdout.String(), nil
}
