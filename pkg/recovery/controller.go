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

// Package recovery wraps device command execution in a bounded
// retry-and-recovery envelope so transient transport failures do not
// immediately fail the calling operation.
package recovery

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/carverauto/devicelab/pkg/adb"
	"github.com/carverauto/devicelab/pkg/logger"
	"github.com/carverauto/devicelab/pkg/models"
	"github.com/carverauto/devicelab/pkg/monitor"
)

// Mode controls how far recovery goes before a command is retried.
type Mode int

const (
	// ModeAvailable recovers until the device passes the full availability
	// gate and post-boot steps have run. The strict default.
	ModeAvailable Mode = iota
	// ModeOnline declares success once the device is merely online again.
	ModeOnline
	// ModeNone disables recovery entirely; any transport failure is
	// immediately fatal.
	ModeNone
)

func (m Mode) String() string {
	switch m {
	case ModeOnline:
		return "online"
	case ModeNone:
		return "none"
	default:
		return "available"
	}
}

const (
	defaultMaxAttempts      = 2
	defaultNotAvailableWait = 20 * time.Second
)

var errRecoveryDisabled = errors.New("recovery disabled")

// Config holds the controller's knobs. MaxAttempts is the retry ceiling
// beyond the original attempt: a command is tried at most MaxAttempts+1
// times in total. It is a hard cap, not a time-based backoff.
type Config struct {
	MaxAttempts      int             `json:"max_attempts"`
	NotAvailableWait models.Duration `json:"not_available_wait"`
	Mode             Mode            `json:"-"`
}

func (c *Config) setDefaults() {
	if c.MaxAttempts == 0 {
		c.MaxAttempts = defaultMaxAttempts
	}

	if c.NotAvailableWait == 0 {
		c.NotAvailableWait = models.Duration(defaultNotAvailableWait)
	}
}

// Action is a single device command invocation. It is retried as a whole,
// so it must be safe to run more than once.
type Action func(ctx context.Context) error

// PostBootFunc is a post-recovery step run in the strict mode before the
// device is declared usable again, such as dismissing the keyguard or
// clearing error dialogs. Failures are logged, not fatal.
type PostBootFunc func(ctx context.Context) error

// Controller orchestrates escalating recovery for one device. The attempt
// counter is scoped per Execute call; concurrent Execute calls for the same
// device are not supported (command traffic is serialized per device).
type Controller struct {
	mon       *monitor.Monitor
	recoverer Recoverer
	cfg       Config
	log       logger.Logger

	modeMu sync.Mutex
	mode   Mode

	postBoot []PostBootFunc
}

// NewController creates a controller for the device behind mon.
func NewController(mon *monitor.Monitor, recoverer Recoverer, cfg *Config, log logger.Logger) *Controller {
	if cfg == nil {
		cfg = &Config{}
	}

	conf := *cfg
	conf.setDefaults()

	return &Controller{
		mon:       mon,
		recoverer: recoverer,
		cfg:       conf,
		log:       log.WithComponent("recovery.controller"),
		mode:      conf.Mode,
	}
}

// AddPostBootStep registers a post-recovery step. Steps run in registration
// order after a strict-mode recovery succeeds.
func (c *Controller) AddPostBootStep(step PostBootFunc) {
	c.postBoot = append(c.postBoot, step)
}

// Mode returns the current recovery mode.
func (c *Controller) Mode() Mode {
	c.modeMu.Lock()
	defer c.modeMu.Unlock()

	return c.mode
}

// SetMode changes the recovery mode for subsequent failures.
func (c *Controller) SetMode(mode Mode) {
	c.modeMu.Lock()
	c.mode = mode
	c.modeMu.Unlock()
}

// Execute runs action under the retry+recovery envelope.
//
// Transport-classified failures trigger the envelope; logical failures
// propagate untouched. Each transport failure first waits for the device to
// leave the online state: if it never does, the failure is treated as a
// spurious glitch and the action simply retried; if it dropped, recovery
// runs before the retry. A recovery failure propagates immediately. Once
// the ceiling is exceeded the controller gives up with *UnresponsiveError.
func (c *Controller) Execute(ctx context.Context, desc string, action Action) error {
	if ctx == nil {
		ctx = context.Background()
	}

	serial := c.mon.Serial()

	var attempts []Attempt

	var lastErr error

	for i := 0; i <= c.cfg.MaxAttempts; i++ {
		// a canceled caller must see the cancellation, not a retry loop
		// burning attempts against a dead context
		if err := ctx.Err(); err != nil {
			return err
		}

		err := action(ctx)
		if err == nil {
			return nil
		}

		if !adb.IsTransport(err) {
			return err
		}

		lastErr = err
		attempt := Attempt{Number: i + 1, Err: err}

		c.log.Warn().
			Err(err).
			Str("serial", serial).
			Str("action", desc).
			Int("attempt", attempt.Number).
			Msg("transport failure during device action")

		if c.Mode() == ModeNone {
			attempt.Outcome = OutcomeFatal
			attempts = append(attempts, attempt)

			return &NotAvailableError{Serial: serial, Cause: err}
		}

		if i == c.cfg.MaxAttempts {
			attempt.Outcome = OutcomeFatal
			attempts = append(attempts, attempt)

			break
		}

		dropped := c.mon.WaitForDeviceNotAvailable(ctx, c.cfg.NotAvailableWait.Duration())
		if !dropped {
			// the device never left online: spurious single-command glitch,
			// retry without full recovery
			attempt.Outcome = OutcomeRetried
			attempts = append(attempts, attempt)

			continue
		}

		if rerr := c.recover(ctx); rerr != nil {
			attempt.Outcome = OutcomeEscalated
			attempts = append(attempts, attempt)

			c.log.Error().
				Err(rerr).
				Str("serial", serial).
				Str("action", desc).
				Msg("recovery failed, aborting action")

			return rerr
		}

		attempt.Outcome = OutcomeRecovered
		attempts = append(attempts, attempt)
	}

	c.log.Error().
		Str("serial", serial).
		Str("action", desc).
		Int("attempts", len(attempts)).
		Msg("device action exhausted retry ceiling")

	return &UnresponsiveError{Serial: serial, Action: desc, Attempts: attempts, Cause: lastErr}
}

// Recover runs a single recovery cycle outside the Execute envelope.
func (c *Controller) Recover(ctx context.Context) error {
	if c.Mode() == ModeNone {
		c.log.Info().Str("serial", c.mon.Serial()).Msg("recovery disabled, skipping")
		return &NotAvailableError{Serial: c.mon.Serial(), Cause: errRecoveryDisabled}
	}

	return c.recover(ctx)
}

func (c *Controller) recover(ctx context.Context) error {
	mode := c.Mode()

	c.log.Info().
		Str("serial", c.mon.Serial()).
		Str("mode", mode.String()).
		Msg("attempting device recovery")

	if err := c.recoverer.Recover(ctx, c.mon, mode == ModeOnline); err != nil {
		return err
	}

	if mode == ModeAvailable && len(c.postBoot) > 0 {
		c.runPostBootSteps(ctx)
	}

	c.log.Info().Str("serial", c.mon.Serial()).Msg("recovery successful")

	return nil
}

// runPostBootSteps temporarily disables recovery so a step that itself hits
// a transport failure cannot recurse into another recovery cycle.
func (c *Controller) runPostBootSteps(ctx context.Context) {
	previous := c.Mode()
	c.SetMode(ModeNone)

	defer c.SetMode(previous)

	for _, step := range c.postBoot {
		if err := step(ctx); err != nil {
			c.log.Warn().
				Err(err).
				Str("serial", c.mon.Serial()).
				Msg("post-boot step failed")
		}
	}
}
