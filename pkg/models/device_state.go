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

// DeviceState is the raw connectivity classification of a device as reported
// by the adb transport layer.
type DeviceState int

const (
	DeviceStateUnknown DeviceState = iota
	DeviceStateOnline
	DeviceStateNotAvailable
	DeviceStateFastboot
	DeviceStateFastbootd
	DeviceStateRecovery
	DeviceStateSideload
	DeviceStateDisconnected
	DeviceStateUnauthorized
)

func (s DeviceState) String() string {
	switch s {
	case DeviceStateOnline:
		return "online"
	case DeviceStateNotAvailable:
		return "not_available"
	case DeviceStateFastboot:
		return "fastboot"
	case DeviceStateFastbootd:
		return "fastbootd"
	case DeviceStateRecovery:
		return "recovery"
	case DeviceStateSideload:
		return "sideload"
	case DeviceStateDisconnected:
		return "disconnected"
	case DeviceStateUnauthorized:
		return "unauthorized"
	case DeviceStateUnknown:
		return "unknown"
	default:
		return "unknown"
	}
}

// ParseDeviceState maps the state words printed by `adb devices` to a
// DeviceState. Words that adb can print but that carry no useful
// classification map to DeviceStateUnknown.
func ParseDeviceState(raw string) DeviceState {
	switch raw {
	case "device":
		return DeviceStateOnline
	case "offline":
		return DeviceStateNotAvailable
	case "fastboot", "bootloader":
		return DeviceStateFastboot
	case "recovery":
		return DeviceStateRecovery
	case "sideload":
		return DeviceStateSideload
	case "unauthorized":
		return DeviceStateUnauthorized
	default:
		return DeviceStateUnknown
	}
}
