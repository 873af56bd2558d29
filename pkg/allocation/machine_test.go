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

package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carverauto/devicelab/pkg/models"
)

var allStates = []models.AllocationState{
	models.AllocationUnknown,
	models.AllocationCheckingAvailability,
	models.AllocationAvailable,
	models.AllocationAllocated,
}

var allEvents = []models.DeviceEvent{
	models.EventConnectedOnline,
	models.EventAvailableCheckPassed,
	models.EventAvailableCheckFailed,
	models.EventAllocateRequest,
	models.EventForceAllocateRequest,
	models.EventFreeAvailable,
	models.EventFreeUnknown,
	models.EventDisconnected,
}

func TestNextStateFullGrid(t *testing.T) {
	type pair struct {
		state models.AllocationState
		event models.DeviceEvent
	}

	// every defined transition; pairs absent here are no-ops
	defined := make(map[pair]models.AllocationState)
	defined[pair{models.AllocationUnknown, models.EventConnectedOnline}] = models.AllocationCheckingAvailability
	defined[pair{models.AllocationCheckingAvailability, models.EventAvailableCheckPassed}] = models.AllocationAvailable
	defined[pair{models.AllocationCheckingAvailability, models.EventAvailableCheckFailed}] = models.AllocationUnknown
	defined[pair{models.AllocationAvailable, models.EventAllocateRequest}] = models.AllocationAllocated
	defined[pair{models.AllocationAllocated, models.EventFreeAvailable}] = models.AllocationAvailable
	defined[pair{models.AllocationAllocated, models.EventFreeUnknown}] = models.AllocationUnknown

	for _, state := range allStates {
		for _, event := range allEvents {
			want := state

			// these two apply in every state
			switch event {
			case models.EventForceAllocateRequest:
				want = models.AllocationAllocated
			case models.EventDisconnected:
				want = models.AllocationUnknown
			default:
				if next, ok := defined[pair{state, event}]; ok {
					want = next
				}
			}

			got := nextState(state, event)
			assert.Equalf(t, want, got, "state %s event %s", state, event)
		}
	}
}

func TestMachineLifecycle(t *testing.T) {
	m := NewMachine()
	assert.Equal(t, models.AllocationUnknown, m.State())

	tr := m.Handle(models.EventConnectedOnline)
	assert.True(t, tr.Changed)
	assert.Equal(t, models.AllocationCheckingAvailability, tr.New)

	tr = m.Handle(models.EventAvailableCheckPassed)
	assert.Equal(t, models.AllocationAvailable, tr.New)

	tr = m.Handle(models.EventAllocateRequest)
	assert.Equal(t, models.AllocationAllocated, tr.New)

	tr = m.Handle(models.EventFreeAvailable)
	assert.Equal(t, models.AllocationAvailable, tr.New)

	tr = m.Handle(models.EventDisconnected)
	assert.Equal(t, models.AllocationUnknown, tr.New)
}

func TestMachineNoOpReportsUnchanged(t *testing.T) {
	m := NewMachine()

	// an allocate request in Unknown has no defined transition
	tr := m.Handle(models.EventAllocateRequest)

	assert.False(t, tr.Changed)
	assert.Equal(t, models.AllocationUnknown, tr.Old)
	assert.Equal(t, models.AllocationUnknown, tr.New)
}

func TestMachineForceAllocateFromAnyState(t *testing.T) {
	for _, state := range allStates {
		m := &Machine{state: state}

		tr := m.Handle(models.EventForceAllocateRequest)
		assert.Equalf(t, models.AllocationAllocated, tr.New, "from %s", state)
	}
}

func TestMachineDisconnectResetsFromAnyState(t *testing.T) {
	for _, state := range allStates {
		m := &Machine{state: state}

		tr := m.Handle(models.EventDisconnected)
		assert.Equalf(t, models.AllocationUnknown, tr.New, "from %s", state)
	}
}
