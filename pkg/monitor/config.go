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

package monitor

import (
	"errors"
	"time"

	"github.com/carverauto/devicelab/pkg/models"
)

const (
	defaultPollInterval     = 1 * time.Second
	defaultMaxPollInterval  = 3 * time.Second
	defaultOpTimeout        = 10 * time.Second
	defaultOnlineTimeout    = 1 * time.Minute
	defaultAvailableTimeout = 6 * time.Minute
)

var errNegativeInterval = errors.New("poll intervals must be positive")

// Config holds the monitor's timing knobs. All values are configuration, not
// load-bearing constants; zero values take the defaults.
type Config struct {
	// PollInterval is the base wait between responsiveness probes. The wait
	// grows with each attempt, capped at MaxPollInterval.
	PollInterval    models.Duration `json:"poll_interval"`
	MaxPollInterval models.Duration `json:"max_poll_interval"`

	// OpTimeout bounds a single probe command round trip, distinct from the
	// per-operation wait budget.
	OpTimeout models.Duration `json:"op_timeout"`

	// OnlineTimeout and AvailableTimeout are the default budgets for the
	// no-argument convenience waits.
	OnlineTimeout    models.Duration `json:"online_timeout"`
	AvailableTimeout models.Duration `json:"available_timeout"`

	// MountCheckEnabled gates the external-storage stage of the availability
	// composite, including the filesystem identity check.
	MountCheckEnabled bool `json:"mount_check_enabled"`
}

func (c *Config) setDefaults() {
	if c.PollInterval == 0 {
		c.PollInterval = models.Duration(defaultPollInterval)
	}

	if c.MaxPollInterval == 0 {
		c.MaxPollInterval = models.Duration(defaultMaxPollInterval)
	}

	if c.OpTimeout == 0 {
		c.OpTimeout = models.Duration(defaultOpTimeout)
	}

	if c.OnlineTimeout == 0 {
		c.OnlineTimeout = models.Duration(defaultOnlineTimeout)
	}

	if c.AvailableTimeout == 0 {
		c.AvailableTimeout = models.Duration(defaultAvailableTimeout)
	}
}

func (c *Config) Validate() error {
	if c.PollInterval < 0 || c.MaxPollInterval < 0 || c.OpTimeout < 0 {
		return errNegativeInterval
	}

	return nil
}
