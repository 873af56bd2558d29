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
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/devicelab/pkg/models"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	cfg.setDefaults()

	assert.Equal(t, time.Second, cfg.PollInterval.Duration())
	assert.Equal(t, 3*time.Second, cfg.MaxPollInterval.Duration())
	assert.Equal(t, 10*time.Second, cfg.OpTimeout.Duration())
	assert.Equal(t, time.Minute, cfg.OnlineTimeout.Duration())
	assert.Equal(t, 6*time.Minute, cfg.AvailableTimeout.Duration())
	assert.False(t, cfg.MountCheckEnabled)
}

func TestConfigDefaultsKeepExplicitValues(t *testing.T) {
	cfg := Config{PollInterval: models.Duration(50 * time.Millisecond)}
	cfg.setDefaults()

	assert.Equal(t, 50*time.Millisecond, cfg.PollInterval.Duration())
}

func TestConfigValidate(t *testing.T) {
	good := Config{}
	assert.NoError(t, good.Validate())

	bad := Config{PollInterval: models.Duration(-time.Second)}
	assert.ErrorIs(t, bad.Validate(), errNegativeInterval)
}

func TestConfigUnmarshal(t *testing.T) {
	raw := `{
		"poll_interval": "500ms",
		"max_poll_interval": "2s",
		"op_timeout": "15s",
		"mount_check_enabled": true
	}`

	var cfg Config

	require.NoError(t, json.Unmarshal([]byte(raw), &cfg))
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval.Duration())
	assert.Equal(t, 2*time.Second, cfg.MaxPollInterval.Duration())
	assert.Equal(t, 15*time.Second, cfg.OpTimeout.Duration())
	assert.True(t, cfg.MountCheckEnabled)
}
