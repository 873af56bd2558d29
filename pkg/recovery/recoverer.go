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

package recovery

import (
	"context"
	"errors"
	"time"

	"github.com/carverauto/devicelab/pkg/fastboot"
	"github.com/carverauto/devicelab/pkg/logger"
	"github.com/carverauto/devicelab/pkg/models"
	"github.com/carverauto/devicelab/pkg/monitor"
)

//go:generate mockgen -destination=mock_recovery.go -package=recovery github.com/carverauto/devicelab/pkg/recovery Recoverer

// Recoverer re-establishes a working connection to a device after a
// transport failure. untilOnline relaxes the goal to merely online; the
// strict default requires full availability.
type Recoverer interface {
	Recover(ctx context.Context, m *monitor.Monitor, untilOnline bool) error
}

var errStillUnresponsive = errors.New("device is online but not responsive after recovery")

const (
	defaultSettlePause      = 5 * time.Second
	defaultRecoverOnline    = 1 * time.Minute
	defaultRecoverShell     = 30 * time.Second
	defaultRecoverAvailable = 4 * time.Minute
)

// WaitConfig holds the wait budgets for WaitRecovery.
type WaitConfig struct {
	// SettlePause is the pause before recovery begins so the transport's
	// state tracking can settle after a drop.
	SettlePause      models.Duration `json:"settle_pause"`
	OnlineTimeout    models.Duration `json:"online_timeout"`
	ShellTimeout     models.Duration `json:"shell_timeout"`
	AvailableTimeout models.Duration `json:"available_timeout"`
}

func (c *WaitConfig) setDefaults() {
	if c.SettlePause == 0 {
		c.SettlePause = models.Duration(defaultSettlePause)
	}

	if c.OnlineTimeout == 0 {
		c.OnlineTimeout = models.Duration(defaultRecoverOnline)
	}

	if c.ShellTimeout == 0 {
		c.ShellTimeout = models.Duration(defaultRecoverShell)
	}

	if c.AvailableTimeout == 0 {
		c.AvailableTimeout = models.Duration(defaultRecoverAvailable)
	}
}

// WaitRecovery recovers a device by waiting for it to come back and respond
// to simple commands, with bootloader remediation when the device turns up
// in fastboot instead of the OS.
type WaitRecovery struct {
	cfg      WaitConfig
	fastboot *fastboot.Helper
	clock    monitor.Clock
	log      logger.Logger
}

// NewWaitRecovery creates a wait-based recoverer. fb may be nil when no
// fastboot binary is available; bootloader remediation is skipped then.
func NewWaitRecovery(cfg *WaitConfig, fb *fastboot.Helper, clock monitor.Clock, log logger.Logger) *WaitRecovery {
	if cfg == nil {
		cfg = &WaitConfig{}
	}

	conf := *cfg
	conf.setDefaults()

	if clock == nil {
		clock = monitor.NewRealClock()
	}

	return &WaitRecovery{
		cfg:      conf,
		fastboot: fb,
		clock:    clock,
		log:      log.WithComponent("recovery"),
	}
}

// Recover waits for the device to come back online and, unless untilOnline
// is set, to pass the full availability gate.
func (r *WaitRecovery) Recover(ctx context.Context, m *monitor.Monitor, untilOnline bool) error {
	serial := m.Serial()

	r.log.Info().
		Str("serial", serial).
		Dur("pause", r.cfg.SettlePause.Duration()).
		Msg("pausing for device to settle before recovery")

	if !r.sleep(ctx, r.cfg.SettlePause.Duration()) {
		return ctx.Err()
	}

	if err := r.rebootFromBootloader(ctx, m); err != nil {
		return err
	}

	device := m.WaitForDeviceOnline(ctx, r.cfg.OnlineTimeout.Duration())
	if device == nil {
		return &NotAvailableError{Serial: serial, Cause: errors.New("device did not come back online")}
	}

	// occasionally a device is erroneously reported as online; make sure
	// the shell actually answers
	if !m.WaitForDeviceShell(ctx, r.cfg.ShellTimeout.Duration()) {
		return &NotAvailableError{Serial: serial, Cause: errors.New("device shell did not respond")}
	}

	if untilOnline {
		r.log.Info().Str("serial", serial).Msg("recovery successful, device online")
		return nil
	}

	if m.WaitForDeviceAvailable(ctx, r.cfg.AvailableTimeout.Duration()) == nil {
		return &UnresponsiveError{Serial: serial, Action: "recover device", Cause: errStillUnresponsive}
	}

	r.log.Info().Str("serial", serial).Msg("recovery successful, device available")

	return nil
}

// rebootFromBootloader issues `fastboot reboot` when the device turned up
// in a bootloader state instead of the OS.
func (r *WaitRecovery) rebootFromBootloader(ctx context.Context, m *monitor.Monitor) error {
	state := m.DeviceState()
	if state != models.DeviceStateFastboot && state != models.DeviceStateFastbootd {
		return nil
	}

	if r.fastboot == nil {
		r.log.Warn().
			Str("serial", m.Serial()).
			Str("state", state.String()).
			Msg("device in bootloader but no fastboot helper configured")

		return nil
	}

	r.log.Info().
		Str("serial", m.Serial()).
		Str("state", state.String()).
		Msg("found device in bootloader but expected online, rebooting")

	if err := r.fastboot.Reboot(ctx, m.Serial()); err != nil {
		return &NotAvailableError{Serial: m.Serial(), Cause: err}
	}

	return nil
}

func (r *WaitRecovery) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	select {
	case <-ctx.Done():
		return false
	case <-r.clock.After(d):
		return true
	}
}
