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

package recovery

import (
	"fmt"
)

// NotAvailableError is fatal for the calling operation: the device dropped
// and no recovery was attempted, either because recovery is disabled or
// because the device never came back online.
type NotAvailableError struct {
	Serial string
	Cause  error
}

func (e *NotAvailableError) Error() string {
	return fmt.Sprintf("device %s not available: %v", e.Serial, e.Cause)
}

func (e *NotAvailableError) Unwrap() error {
	return e.Cause
}

// UnresponsiveError is fatal for the calling operation and specifically
// signals that recovery was attempted and exhausted. Higher layers use the
// distinction to mark a device permanently bad rather than transiently busy.
type UnresponsiveError struct {
	Serial   string
	Action   string
	Attempts []Attempt
	Cause    error
}

func (e *UnresponsiveError) Error() string {
	return fmt.Sprintf("device %s unresponsive: attempted %q %d times without communication success",
		e.Serial, e.Action, len(e.Attempts))
}

func (e *UnresponsiveError) Unwrap() error {
	return e.Cause
}

// AttemptOutcome records how a single failed command invocation was handled.
type AttemptOutcome int

const (
	// OutcomeRetried: the failure looked like a spurious single-command
	// glitch (the device never left online), the command was retried
	// without full recovery.
	OutcomeRetried AttemptOutcome = iota
	// OutcomeRecovered: the device dropped, recovery succeeded, the command
	// was retried.
	OutcomeRecovered
	// OutcomeEscalated: recovery itself failed; its error propagated.
	OutcomeEscalated
	// OutcomeFatal: the retry ceiling was exceeded or recovery is disabled.
	OutcomeFatal
)

func (o AttemptOutcome) String() string {
	switch o {
	case OutcomeRetried:
		return "retried"
	case OutcomeRecovered:
		return "recovered"
	case OutcomeEscalated:
		return "escalated"
	default:
		return "fatal"
	}
}

// Attempt is one failed command invocation inside an Execute window. Attempt
// numbers are monotonic within the window and the slice is discarded when
// the command succeeds or the controller gives up.
type Attempt struct {
	Number  int
	Err     error
	Outcome AttemptOutcome
}
