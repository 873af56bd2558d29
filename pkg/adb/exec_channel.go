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

// Package adb is the command-channel boundary between devicelab and the adb
// host binary.
package adb

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"github.com/carverauto/devicelab/pkg/models"
)

const defaultADBPath = "adb"

// rejection markers printed by the adb host when a command cannot be
// dispatched to the device at all.
var rejectionMarkers = []string{
	"device offline",
	"device not found",
	"device unauthorized",
	"no devices/emulators found",
	"connection refused",
	"closed",
}

// ExecChannel is a Channel backed by the adb host binary. Its connectivity
// snapshot is fed by the Tracker via SetState; it is not derived per call.
type ExecChannel struct {
	serial  string
	adbPath string
	state   atomic.Int32
}

// NewExecChannel creates a channel for the given serial. adbPath may be
// empty to use the adb binary from PATH.
func NewExecChannel(serial, adbPath string) *ExecChannel {
	if adbPath == "" {
		adbPath = defaultADBPath
	}

	c := &ExecChannel{
		serial:  serial,
		adbPath: adbPath,
	}
	c.state.Store(int32(models.DeviceStateUnknown))

	return c
}

func (c *ExecChannel) Serial() string {
	return c.serial
}

func (c *ExecChannel) State() models.DeviceState {
	return models.DeviceState(c.state.Load())
}

func (c *ExecChannel) SetState(state models.DeviceState) {
	c.state.Store(int32(state))
}

// Shell runs `adb -s <serial> shell <cmd>` with the given per-command
// timeout and returns stdout. Failures to reach the shell are classified
// into the transport error taxonomy.
func (c *ExecChannel) Shell(ctx context.Context, cmd string, timeout time.Duration) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	runCtx := ctx

	var cancel context.CancelFunc

	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer

	execCmd := exec.CommandContext(runCtx, c.adbPath, "-s", c.serial, "shell", cmd)
	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr

	err := execCmd.Run()
	if err == nil {
		return stdout.String(), nil
	}

	return stdout.String(), c.classify(cmd, err, runCtx, stderr.String())
}

func (c *ExecChannel) classify(cmd string, err error, runCtx context.Context, stderr string) error {
	kind := ErrorKindIO

	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		kind = ErrorKindTimeout
	case isRejection(stderr):
		kind = ErrorKindRejected
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// The shell ran and the command exited nonzero. Logical
			// failure, not a transport problem; callers inspect output.
			return nil
		}
	}

	return &TransportError{Kind: kind, Serial: c.serial, Cmd: cmd, Err: err}
}

func isRejection(stderr string) bool {
	lowered := strings.ToLower(stderr)

	for _, marker := range rejectionMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}

	return false
}
