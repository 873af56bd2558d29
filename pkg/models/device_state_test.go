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

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDeviceState(t *testing.T) {
	tests := []struct {
		raw  string
		want DeviceState
	}{
		{"device", DeviceStateOnline},
		{"offline", DeviceStateNotAvailable},
		{"fastboot", DeviceStateFastboot},
		{"bootloader", DeviceStateFastboot},
		{"recovery", DeviceStateRecovery},
		{"sideload", DeviceStateSideload},
		{"unauthorized", DeviceStateUnauthorized},
		{"host", DeviceStateUnknown},
		{"", DeviceStateUnknown},
	}

	for _, tt := range tests {
		assert.Equalf(t, tt.want, ParseDeviceState(tt.raw), "raw %q", tt.raw)
	}
}

func TestDeviceStateString(t *testing.T) {
	assert.Equal(t, "online", DeviceStateOnline.String())
	assert.Equal(t, "not_available", DeviceStateNotAvailable.String())
	assert.Equal(t, "disconnected", DeviceStateDisconnected.String())
	assert.Equal(t, "unknown", DeviceState(99).String())
}

func TestDeviceKind(t *testing.T) {
	assert.True(t, DeviceKindPhysical.SupportsFastboot())
	assert.False(t, DeviceKindVirtual.SupportsFastboot())
	assert.True(t, DeviceKindPlaceholder.IsPlaceholder())
	assert.False(t, DeviceKindPhysical.IsPlaceholder())
}
