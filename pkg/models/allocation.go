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

// AllocationState is the pool-management status of a device, independent of
// its physical connectivity.
type AllocationState int

const (
	AllocationUnknown AllocationState = iota
	AllocationCheckingAvailability
	AllocationAvailable
	AllocationAllocated
)

func (s AllocationState) String() string {
	switch s {
	case AllocationCheckingAvailability:
		return "checking_availability"
	case AllocationAvailable:
		return "available"
	case AllocationAllocated:
		return "allocated"
	default:
		return "unknown"
	}
}

// DeviceEvent is a discrete event driving allocation state transitions.
type DeviceEvent int

const (
	EventConnectedOnline DeviceEvent = iota
	EventAvailableCheckPassed
	EventAvailableCheckFailed
	EventAllocateRequest
	EventFreeAvailable
	EventFreeUnknown
	EventDisconnected
	EventForceAllocateRequest
)

func (e DeviceEvent) String() string {
	switch e {
	case EventConnectedOnline:
		return "connected_online"
	case EventAvailableCheckPassed:
		return "available_check_passed"
	case EventAvailableCheckFailed:
		return "available_check_failed"
	case EventAllocateRequest:
		return "allocate_request"
	case EventFreeAvailable:
		return "free_available"
	case EventFreeUnknown:
		return "free_unknown"
	case EventDisconnected:
		return "disconnected"
	case EventForceAllocateRequest:
		return "force_allocate_request"
	default:
		return "unknown"
	}
}
