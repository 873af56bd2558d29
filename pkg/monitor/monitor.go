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

// Package monitor answers "is the device ready for operation X" by polling
// readiness dimensions (online, shell-responsive, boot-complete, package
// manager, storage mount) with bounded total wait time.
package monitor

import (
	"context"
	"regexp"
	"sync"
	"time"

	"github.com/carverauto/devicelab/pkg/adb"
	"github.com/carverauto/devicelab/pkg/logger"
	"github.com/carverauto/devicelab/pkg/models"
)

var tcpSerialPattern = regexp.MustCompile(`^[^:\s]+:\d+$`)

// Monitor observes a single device's availability. It never owns state
// transitions; the transport event stream feeds SetState and every WaitFor*
// operation polls for convergence to a target predicate on the calling
// goroutine.
type Monitor struct {
	channel adb.Channel
	cfg     Config
	clock   Clock
	log     logger.Logger

	stateMu sync.RWMutex
	state   models.DeviceState

	mountMu    sync.Mutex
	mountCache map[string]string
}

// New creates a monitor for the given channel. A nil clock uses the real
// clock; a nil config uses defaults.
func New(channel adb.Channel, cfg *Config, clock Clock, log logger.Logger) *Monitor {
	if cfg == nil {
		cfg = &Config{}
	}

	conf := *cfg
	conf.setDefaults()

	if clock == nil {
		clock = realClock{}
	}

	return &Monitor{
		channel:    channel,
		cfg:        conf,
		clock:      clock,
		log:        log.WithComponent("monitor"),
		state:      channel.State(),
		mountCache: make(map[string]string),
	}
}

// Serial returns the serial number of the monitored device.
func (m *Monitor) Serial() string {
	return m.channel.Serial()
}

// Channel returns the underlying command channel.
func (m *Monitor) Channel() adb.Channel {
	return m.channel
}

// DeviceState returns the last known raw connectivity state.
func (m *Monitor) DeviceState() models.DeviceState {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()

	return m.state
}

// SetState records a connectivity transition reported by the transport
// layer. Waiting operations observe the new state on their next probe.
func (m *Monitor) SetState(state models.DeviceState) {
	m.stateMu.Lock()
	prev := m.state
	m.state = state
	m.stateMu.Unlock()

	if prev != state {
		m.log.Debug().
			Str("serial", m.Serial()).
			Str("from", prev.String()).
			Str("to", state.String()).
			Msg("device state changed")
	}

	if setter, ok := m.channel.(adb.StateSetter); ok {
		setter.SetState(state)
	}
}

// IsAdbTCP reports whether the device is connected over TCP adb, judged
// purely by the host:port shape of its serial number.
func (m *Monitor) IsAdbTCP() bool {
	return tcpSerialPattern.MatchString(m.Serial())
}

// WaitForDeviceOnline waits up to timeout for the device to be online and
// returns its channel, or nil on timeout.
func (m *Monitor) WaitForDeviceOnline(ctx context.Context, timeout time.Duration) adb.Channel {
	if m.waitForState(ctx, models.DeviceStateOnline, timeout) {
		return m.channel
	}

	return nil
}

// WaitForDeviceNotAvailable waits until the device state is anything but
// online. Used to detect disconnection during reboot.
func (m *Monitor) WaitForDeviceNotAvailable(ctx context.Context, timeout time.Duration) bool {
	m.log.Debug().Str("serial", m.Serial()).Msg("waiting for device to leave online state")

	return m.busyWait(ctx, timeout, func(context.Context) probeResult {
		if m.DeviceState() != models.DeviceStateOnline {
			return probeSuccess
		}

		return probeContinue
	})
}

// WaitForDeviceInSideload waits for the sideload classification.
func (m *Monitor) WaitForDeviceInSideload(ctx context.Context, timeout time.Duration) bool {
	return m.waitForState(ctx, models.DeviceStateSideload, timeout)
}

// WaitForDeviceInRecovery waits for the recovery classification.
func (m *Monitor) WaitForDeviceInRecovery(ctx context.Context, timeout time.Duration) bool {
	return m.waitForState(ctx, models.DeviceStateRecovery, timeout)
}

// WaitForDeviceBootloader waits for the fastboot classification. Devices
// that cannot enter fastboot never satisfy this wait.
func (m *Monitor) WaitForDeviceBootloader(ctx context.Context, timeout time.Duration) bool {
	return m.waitForState(ctx, models.DeviceStateFastboot, timeout)
}

// WaitForDeviceFastbootd waits for the userspace fastboot classification.
func (m *Monitor) WaitForDeviceFastbootd(ctx context.Context, timeout time.Duration) bool {
	return m.waitForState(ctx, models.DeviceStateFastbootd, timeout)
}

func (m *Monitor) waitForState(ctx context.Context, target models.DeviceState, timeout time.Duration) bool {
	current := m.DeviceState()
	if current == target {
		m.log.Debug().
			Str("serial", m.Serial()).
			Str("state", target.String()).
			Msg("device already in requested state")

		return true
	}

	m.log.Info().
		Str("serial", m.Serial()).
		Str("target", target.String()).
		Str("current", current.String()).
		Dur("timeout", timeout).
		Msg("waiting for device state")

	return m.busyWait(ctx, timeout, func(context.Context) probeResult {
		if m.DeviceState() == target {
			return probeSuccess
		}

		return probeContinue
	})
}

type probeResult int

const (
	probeContinue probeResult = iota
	probeSuccess
	probeAbort
)

// busyWait runs probe until success, abort, context cancellation, or budget
// exhaustion. The first probe always runs, even with a zero or negative
// budget, so already-satisfied conditions are detected. Between probes the
// wait grows linearly with the attempt count, capped at MaxPollInterval and
// at the remaining budget.
func (m *Monitor) busyWait(ctx context.Context, timeout time.Duration, probe func(context.Context) probeResult) bool {
	if ctx == nil {
		ctx = context.Background()
	}

	start := m.clock.Now()

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			elapsed := m.clock.Now().Sub(start)
			if elapsed >= timeout {
				return false
			}

			next := time.Duration(attempt) * m.cfg.PollInterval.Duration()
			if ceil := m.cfg.MaxPollInterval.Duration(); next > ceil {
				next = ceil
			}

			if remaining := timeout - elapsed; next > remaining {
				next = remaining
			}

			if !m.sleep(ctx, next) {
				return false
			}
		}

		if ctx.Err() != nil {
			return false
		}

		switch probe(ctx) {
		case probeSuccess:
			return true
		case probeAbort:
			return false
		case probeContinue:
		}
	}
}

// sleep blocks for d or until ctx is canceled; returns false on cancel.
func (m *Monitor) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	select {
	case <-ctx.Done():
		return false
	case <-m.clock.After(d):
		return true
	}
}
