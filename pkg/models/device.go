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
	"time"
)

// DeviceKind classifies a device by the behavioral differences that matter
// to the harness, rather than by transport implementation.
type DeviceKind int

const (
	// DeviceKindPhysical is a real device attached over USB or TCP adb.
	DeviceKindPhysical DeviceKind = iota
	// DeviceKindVirtual is an emulator or cloud AVD.
	DeviceKindVirtual
	// DeviceKindPlaceholder is a stub standing in for hardware that is not
	// actually connected, used by allocators to reserve slots.
	DeviceKindPlaceholder
)

func (k DeviceKind) String() string {
	switch k {
	case DeviceKindVirtual:
		return "virtual"
	case DeviceKindPlaceholder:
		return "placeholder"
	default:
		return "physical"
	}
}

// SupportsFastboot reports whether bootloader-level remediation is possible
// for this kind of device.
func (k DeviceKind) SupportsFastboot() bool {
	return k == DeviceKindPhysical
}

// IsPlaceholder reports whether the device is a stand-in with no real
// transport behind it.
func (k DeviceKind) IsPlaceholder() bool {
	return k == DeviceKindPlaceholder
}

// DeviceInfo describes a device registered with the pool.
type DeviceInfo struct {
	Serial   string      `json:"serial"`
	Kind     DeviceKind  `json:"kind"`
	State    DeviceState `json:"state"`
	Product  string      `json:"product,omitempty"`
	LastSeen time.Time   `json:"last_seen"`
}
