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

package adb

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a transport failure.
type ErrorKind int

const (
	// ErrorKindIO covers connection drops and other I/O failures mid-command.
	ErrorKindIO ErrorKind = iota
	// ErrorKindTimeout means the command did not complete within its
	// per-command budget.
	ErrorKindTimeout
	// ErrorKindRejected means adb refused the command, typically because the
	// device is offline or not found.
	ErrorKindRejected
	// ErrorKindUnresponsive means the shell accepted the command but stopped
	// producing output.
	ErrorKindUnresponsive
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindTimeout:
		return "timeout"
	case ErrorKindRejected:
		return "rejected"
	case ErrorKindUnresponsive:
		return "unresponsive"
	default:
		return "io"
	}
}

// TransportError is an I/O-level failure of the command channel, distinct
// from a logical command failure such as a nonzero exit.
type TransportError struct {
	Kind   ErrorKind
	Serial string
	Cmd    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("adb transport %s on %s running %q: %v", e.Kind, e.Serial, e.Cmd, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is (or wraps) a transport failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsRejected reports whether err is a transport failure caused by adb
// rejecting the command outright.
func IsRejected(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Kind == ErrorKindRejected
}

// IsTimeout reports whether err is a transport failure caused by the
// per-command budget expiring.
func IsTimeout(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Kind == ErrorKindTimeout
}
