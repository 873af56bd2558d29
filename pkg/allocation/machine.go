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

// Package allocation tracks pool-allocation status transitions driven by
// discrete events, independent of physical connectivity polling.
package allocation

import (
	"sync"

	"github.com/carverauto/devicelab/pkg/models"
)

// Transition describes what an event did to a machine. Handlers always
// return one, even for no-op events, so callers can observe what happened.
type Transition struct {
	Event   models.DeviceEvent
	Old     models.AllocationState
	New     models.AllocationState
	Changed bool
}

// Machine is the allocation state machine for one device. Transitions are
// total: every (state, event) pair maps to exactly one next state, and
// undefined pairs are no-ops that still report the current state.
type Machine struct {
	mu    sync.Mutex
	state models.AllocationState
}

// NewMachine starts in the Unknown state.
func NewMachine() *Machine {
	return &Machine{state: models.AllocationUnknown}
}

// State returns the current allocation state.
func (m *Machine) State() models.AllocationState {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

// Handle applies an event and returns the resulting transition.
func (m *Machine) Handle(event models.DeviceEvent) Transition {
	m.mu.Lock()
	defer m.mu.Unlock()

	old := m.state
	next := nextState(old, event)
	m.state = next

	return Transition{
		Event:   event,
		Old:     old,
		New:     next,
		Changed: old != next,
	}
}

func nextState(state models.AllocationState, event models.DeviceEvent) models.AllocationState {
	switch event {
	case models.EventForceAllocateRequest:
		return models.AllocationAllocated
	case models.EventDisconnected:
		return models.AllocationUnknown
	case models.EventConnectedOnline:
		if state == models.AllocationUnknown {
			return models.AllocationCheckingAvailability
		}
	case models.EventAvailableCheckPassed:
		if state == models.AllocationCheckingAvailability {
			return models.AllocationAvailable
		}
	case models.EventAvailableCheckFailed:
		if state == models.AllocationCheckingAvailability {
			return models.AllocationUnknown
		}
	case models.EventAllocateRequest:
		if state == models.AllocationAvailable {
			return models.AllocationAllocated
		}
	case models.EventFreeAvailable:
		if state == models.AllocationAllocated {
			return models.AllocationAvailable
		}
	case models.EventFreeUnknown:
		if state == models.AllocationAllocated {
			return models.AllocationUnknown
		}
	}

	return state
}
