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

// Package fastboot wraps the fastboot host binary for bootloader-level
// queries and remediation.
package fastboot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/carverauto/devicelab/pkg/logger"
)

const defaultCmdTimeout = 30 * time.Second

var errVarNotFound = errors.New("fastboot variable not found")

// Runner executes a fastboot command for a specific serial and returns its
// combined output. fastboot prints most results to stderr, so implementations
// fold the streams together.
type Runner interface {
	Command(ctx context.Context, serial string, args ...string) (string, error)
}

// ExecRunner runs the fastboot binary.
type ExecRunner struct {
	fastbootPath string
	timeout      time.Duration
}

// NewExecRunner creates a runner. Empty path uses fastboot from PATH.
func NewExecRunner(fastbootPath string) *ExecRunner {
	if fastbootPath == "" {
		fastbootPath = "fastboot"
	}

	return &ExecRunner{fastbootPath: fastbootPath, timeout: defaultCmdTimeout}
}

func (r *ExecRunner) Command(ctx context.Context, serial string, args ...string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	full := args
	if serial != "" {
		full = append([]string{"-s", serial}, args...)
	}

	var out bytes.Buffer

	cmd := exec.CommandContext(runCtx, r.fastbootPath, full...)
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()

	return out.String(), err
}

// Helper answers fastboot-level questions about attached devices.
type Helper struct {
	runner Runner
	log    logger.Logger
}

func NewHelper(runner Runner, log logger.Logger) *Helper {
	return &Helper{runner: runner, log: log.WithComponent("fastboot")}
}

// IsFastbootAvailable reports whether a usable fastboot binary answers on
// this host. Callers use it to decide whether bootloader remediation is
// possible at all.
func (h *Helper) IsFastbootAvailable(ctx context.Context) bool {
	output, err := h.runner.Command(ctx, "", "help")
	if err == nil {
		return true
	}

	// older fastboot versions exit nonzero on help but still print usage
	if strings.Contains(output, "usage: fastboot") {
		return true
	}

	h.log.Debug().Err(err).Msg("fastboot binary not usable")

	return false
}

// Devices returns the serials currently visible to fastboot.
func (h *Helper) Devices(ctx context.Context) (map[string]bool, error) {
	output, err := h.runner.Command(ctx, "", "devices")
	if err != nil {
		return nil, fmt.Errorf("fastboot devices: %w", err)
	}

	serials := make(map[string]bool)

	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[1] == "fastboot" {
			serials[fields[0]] = true
		}
	}

	return serials, nil
}

// GetVar reads a bootloader variable. fastboot prints "name: value" followed
// by a timing line.
func (h *Helper) GetVar(ctx context.Context, serial, name string) (string, error) {
	output, err := h.runner.Command(ctx, serial, "getvar", name)
	if err != nil {
		return "", fmt.Errorf("fastboot getvar %s on %s: %w", name, serial, err)
	}

	prefix := name + ":"

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, prefix); ok {
			return strings.TrimSpace(rest), nil
		}
	}

	return "", fmt.Errorf("%w: %s on %s", errVarNotFound, name, serial)
}

// Reboot asks the bootloader to reboot the device to the normal OS.
func (h *Helper) Reboot(ctx context.Context, serial string) error {
	h.log.Info().Str("serial", serial).Msg("rebooting device out of fastboot")

	if _, err := h.runner.Command(ctx, serial, "reboot"); err != nil {
		return fmt.Errorf("fastboot reboot on %s: %w", serial, err)
	}

	return nil
}
