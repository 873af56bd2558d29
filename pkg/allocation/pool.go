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
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carverauto/devicelab/pkg/logger"
	"github.com/carverauto/devicelab/pkg/models"
)

var (
	// ErrUnknownDevice is returned for operations on serials never
	// registered with the pool.
	ErrUnknownDevice = errors.New("device not registered with pool")
	// ErrNotAllocated is returned when freeing a device that holds no lease.
	ErrNotAllocated = errors.New("device is not allocated")
)

// Lease is a granted allocation of one device.
type Lease struct {
	ID          uuid.UUID
	Serial      string
	AllocatedAt time.Time
}

type managedDevice struct {
	info    models.DeviceInfo
	machine *Machine
	lease   *Lease
}

// Pool is the device allocator: one explicit instance owning its devices,
// with no ambient singletons. All access goes through the pool's lock; the
// per-device machines guard their own state for callers holding direct
// references.
type Pool struct {
	mu      sync.Mutex
	devices map[string]*managedDevice
	avail   chan struct{}
	log     logger.Logger
}

// NewPool creates an empty pool.
func NewPool(log logger.Logger) *Pool {
	return &Pool{
		devices: make(map[string]*managedDevice),
		avail:   make(chan struct{}, 1),
		log:     log.WithComponent("allocation.pool"),
	}
}

// Register adds a device in the Unknown allocation state. Registering an
// existing serial refreshes its info and keeps its state.
func (p *Pool) Register(info models.DeviceInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if d, ok := p.devices[info.Serial]; ok {
		d.info = info
		return
	}

	p.devices[info.Serial] = &managedDevice{
		info:    info,
		machine: NewMachine(),
	}

	p.log.Info().
		Str("serial", info.Serial).
		Str("kind", info.Kind.String()).
		Msg("device registered with pool")
}

// Remove drops a device from the pool entirely.
func (p *Pool) Remove(serial string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.devices, serial)
}

// HandleEvent routes an allocation event to the device's machine. The
// returned transition is always meaningful even for no-ops.
func (p *Pool) HandleEvent(serial string, event models.DeviceEvent) (Transition, error) {
	p.mu.Lock()
	d, ok := p.devices[serial]

	if !ok {
		p.mu.Unlock()
		return Transition{}, fmt.Errorf("%w: %s", ErrUnknownDevice, serial)
	}

	tr := d.machine.Handle(event)
	if tr.New != models.AllocationAllocated {
		d.lease = nil
	}

	p.mu.Unlock()

	if tr.Changed {
		p.log.Debug().
			Str("serial", serial).
			Str("event", event.String()).
			Str("from", tr.Old.String()).
			Str("to", tr.New.String()).
			Msg("allocation transition")
	}

	if tr.Changed && tr.New == models.AllocationAvailable {
		p.signalAvailable()
	}

	return tr, nil
}

// Allocate grants a lease on any Available device, blocking until one
// becomes available or ctx is done.
func (p *Pool) Allocate(ctx context.Context) (*Lease, error) {
	for {
		if lease := p.tryAllocate(); lease != nil {
			return lease, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.avail:
		}
	}
}

// ForceAllocate grants a lease on a specific device regardless of its
// current allocation state.
func (p *Pool) ForceAllocate(serial string) (*Lease, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	d, ok := p.devices[serial]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDevice, serial)
	}

	d.machine.Handle(models.EventForceAllocateRequest)

	lease := newLease(serial)
	d.lease = lease

	p.log.Info().
		Str("serial", serial).
		Str("lease_id", lease.ID.String()).
		Msg("device force-allocated")

	return lease, nil
}

// Free releases an allocated device. event selects where the device lands:
// EventFreeAvailable for a healthy device, EventFreeUnknown when its state
// must be re-proven.
func (p *Pool) Free(serial string, event models.DeviceEvent) (Transition, error) {
	p.mu.Lock()

	d, ok := p.devices[serial]
	if !ok {
		p.mu.Unlock()
		return Transition{}, fmt.Errorf("%w: %s", ErrUnknownDevice, serial)
	}

	if d.machine.State() != models.AllocationAllocated {
		p.mu.Unlock()
		return Transition{}, fmt.Errorf("%w: %s", ErrNotAllocated, serial)
	}

	tr := d.machine.Handle(event)
	d.lease = nil
	p.mu.Unlock()

	if tr.Changed && tr.New == models.AllocationAvailable {
		p.signalAvailable()
	}

	return tr, nil
}

// States snapshots every device's allocation state.
func (p *Pool) States() map[string]models.AllocationState {
	p.mu.Lock()
	defer p.mu.Unlock()

	states := make(map[string]models.AllocationState, len(p.devices))
	for serial, d := range p.devices {
		states[serial] = d.machine.State()
	}

	return states
}

func (p *Pool) tryAllocate() *Lease {
	p.mu.Lock()
	defer p.mu.Unlock()

	// deterministic pick order keeps allocation behavior predictable
	serials := make([]string, 0, len(p.devices))
	for serial := range p.devices {
		serials = append(serials, serial)
	}

	sort.Strings(serials)

	for _, serial := range serials {
		d := p.devices[serial]
		if d.machine.State() != models.AllocationAvailable {
			continue
		}

		tr := d.machine.Handle(models.EventAllocateRequest)
		if !tr.Changed {
			continue
		}

		lease := newLease(serial)
		d.lease = lease

		p.log.Info().
			Str("serial", serial).
			Str("lease_id", lease.ID.String()).
			Msg("device allocated")

		// The 1-slot signal buffer drops wakeups while no waiter is
		// parked, so a waiter consuming the token must hand it on when
		// more devices remain Available, or a second waiter parks
		// forever next to an allocatable device.
		for _, other := range serials {
			if other == serial {
				continue
			}

			if p.devices[other].machine.State() == models.AllocationAvailable {
				p.signalAvailable()
				break
			}
		}

		return lease
	}

	return nil
}

func (p *Pool) signalAvailable() {
	select {
	case p.avail <- struct{}{}:
	default:
	}
}

func newLease(serial string) *Lease {
	return &Lease{
		ID:          uuid.New(),
		Serial:      serial,
		AllocatedAt: time.Now(),
	}
}
