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

//go:generate mockgen -destination=mock_adb.go -package=adb github.com/carverauto/devicelab/pkg/adb Channel

package adb

import (
	"context"
	"time"

	"github.com/carverauto/devicelab/pkg/models"
)

// Channel executes shell commands against a single device and reports its
// raw connectivity state. Implementations must be safe for use from a single
// goroutine at a time; devicelab serializes command traffic per device.
type Channel interface {
	// Shell runs a shell command on the device and returns its combined
	// stdout. Transport-level failures are returned as *TransportError;
	// a command that runs but exits nonzero is not a transport failure.
	Shell(ctx context.Context, cmd string, timeout time.Duration) (string, error)

	// State returns a cheap, non-blocking snapshot of the device's raw
	// connectivity state.
	State() models.DeviceState

	// Serial returns the device serial number.
	Serial() string
}

// StateSetter is implemented by channels whose connectivity snapshot is fed
// by an external event source such as the Tracker.
type StateSetter interface {
	SetState(state models.DeviceState)
}
