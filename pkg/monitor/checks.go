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

package monitor

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/carverauto/devicelab/pkg/adb"
	"github.com/carverauto/devicelab/pkg/parsers"
)

const (
	bootCompleteProp = "dev.bootcomplete"
	shellProbeCmd    = "id"
	pmProbeCmd       = "pm path android"

	// ExternalStorageEnv names the mount-point environment variable for the
	// device's external store.
	ExternalStorageEnv = "EXTERNAL_STORAGE"

	permDeniedPattern = "Permission denied"

	// rejected-offline probes tolerated right after the online transition;
	// the first shell commands after ONLINE are allowed a few miscalls.
	bootCompleteOfflineBudget = 5
)

// tmpfs magic from statfs(2); an external store still on tmpfs is not yet
// mounted for real.
var tmpfsMagic = map[string]struct{}{
	"1021994":  {},
	"01021994": {},
}

// WaitForDeviceShell waits until the device shell answers a probe command.
// Each probe is a full command round trip.
func (m *Monitor) WaitForDeviceShell(ctx context.Context, timeout time.Duration) bool {
	m.log.Info().
		Str("serial", m.Serial()).
		Dur("timeout", timeout).
		Msg("waiting for device shell")

	ok := m.busyWait(ctx, timeout, func(pctx context.Context) probeResult {
		output, err := m.channel.Shell(pctx, shellProbeCmd, m.cfg.OpTimeout.Duration())
		if err != nil {
			m.log.Debug().Err(err).Str("serial", m.Serial()).Msg("shell probe failed")
			return probeContinue
		}

		if strings.Contains(output, "uid=") {
			return probeSuccess
		}

		return probeContinue
	})

	if !ok {
		m.log.Warn().Str("serial", m.Serial()).Msg("device shell is unresponsive")
	}

	return ok
}

// WaitForBootComplete polls the boot-completion property until it reads "1".
// Benign warning lines in the output are ignored. A small number of
// rejected-offline probes are tolerated before aborting early.
func (m *Monitor) WaitForBootComplete(ctx context.Context, timeout time.Duration) bool {
	m.log.Info().
		Str("serial", m.Serial()).
		Dur("timeout", timeout).
		Msg("waiting for boot complete")

	offlineBudget := bootCompleteOfflineBudget
	cmd := "getprop " + bootCompleteProp

	ok := m.busyWait(ctx, timeout, func(pctx context.Context) probeResult {
		output, err := m.channel.Shell(pctx, cmd, m.cfg.OpTimeout.Duration())
		if err != nil {
			m.log.Debug().Err(err).Str("serial", m.Serial()).Msg("boot-complete probe failed")

			if adb.IsRejected(err) {
				offlineBudget--
				if offlineBudget <= 0 {
					return probeAbort
				}
			}

			return probeContinue
		}

		if parsers.ParseProp(output) == "1" {
			return probeSuccess
		}

		return probeContinue
	})

	if !ok {
		m.log.Warn().
			Str("serial", m.Serial()).
			Dur("timeout", timeout).
			Msg("device did not boot within budget")
	}

	return ok
}

// WaitForPmResponsive polls until the package manager answers a path query
// with a well-formed package line.
func (m *Monitor) WaitForPmResponsive(ctx context.Context, timeout time.Duration) bool {
	m.log.Info().
		Str("serial", m.Serial()).
		Dur("timeout", timeout).
		Msg("waiting for package manager")

	return m.busyWait(ctx, timeout, func(pctx context.Context) probeResult {
		output, err := m.channel.Shell(pctx, pmProbeCmd, m.cfg.OpTimeout.Duration())
		if err != nil {
			m.log.Debug().Err(err).Str("serial", m.Serial()).Msg("pm probe failed")
			return probeContinue
		}

		if parsers.HasPackageLine(output) {
			return probeSuccess
		}

		return probeContinue
	})
}

// MountPoint returns the mount point bound to the given environment
// variable name, caching the first non-empty answer.
func (m *Monitor) MountPoint(ctx context.Context, name string) (string, error) {
	m.mountMu.Lock()
	cached, ok := m.mountCache[name]
	m.mountMu.Unlock()

	if ok {
		return cached, nil
	}

	output, err := m.channel.Shell(ctx, "echo $"+name, m.cfg.OpTimeout.Duration())
	if err != nil {
		return "", err
	}

	mountPoint := strings.TrimSpace(output)
	if mountPoint != "" {
		m.mountMu.Lock()
		m.mountCache[name] = mountPoint
		m.mountMu.Unlock()
	}

	return mountPoint, nil
}

// WaitForStoreMount waits for the external store to be writable: the mount
// point must resolve and a marker-file round trip must read back the
// expected content. A single "Permission denied" answer is retried once; a
// second one fails the wait immediately instead of burning the budget.
func (m *Monitor) WaitForStoreMount(ctx context.Context, timeout time.Duration) bool {
	m.log.Info().
		Str("serial", m.Serial()).
		Dur("timeout", timeout).
		Msg("waiting for external store")

	permDeniedBudget := 1

	ok := m.busyWait(ctx, timeout, func(pctx context.Context) probeResult {
		mountPoint, err := m.MountPoint(pctx, ExternalStorageEnv)
		if err != nil || mountPoint == "" {
			m.log.Debug().Str("serial", m.Serial()).Msg("external store mount point not resolved")
			return probeContinue
		}

		if m.cfg.MountCheckEnabled && !m.storeFilesystemReady(pctx, mountPoint) {
			return probeContinue
		}

		marker := m.clock.Now().UnixNano()
		testFile := fmt.Sprintf("'%s/%d'", mountPoint, marker)
		expected := fmt.Sprintf("number %d one", marker)

		writeCmd := fmt.Sprintf("echo '%s' > %s", expected, testFile)
		checkCmd := "cat " + testFile
		cleanupCmd := "rm " + testFile

		if _, err := m.channel.Shell(pctx, writeCmd, m.cfg.OpTimeout.Duration()); err != nil {
			m.log.Debug().Err(err).Str("serial", m.Serial()).Msg("store write probe failed")
			return probeContinue
		}

		output, err := m.channel.Shell(pctx, checkCmd, m.cfg.OpTimeout.Duration())
		if err != nil {
			m.log.Debug().Err(err).Str("serial", m.Serial()).Msg("store read probe failed")
			return probeContinue
		}

		_, _ = m.channel.Shell(pctx, cleanupCmd, m.cfg.OpTimeout.Duration())

		if strings.Contains(output, expected) {
			return probeSuccess
		}

		if strings.Contains(output, permDeniedPattern) {
			permDeniedBudget--
			if permDeniedBudget < 0 {
				m.log.Warn().
					Str("serial", m.Serial()).
					Msg("store mount check returned Permission denied, issue with mounting")

				return probeAbort
			}
		}

		return probeContinue
	})

	if !ok {
		m.log.Warn().
			Str("serial", m.Serial()).
			Dur("timeout", timeout).
			Msg("external storage not mounted within budget")
	}

	return ok
}

// storeFilesystemReady rejects mount points still backed by tmpfs.
func (m *Monitor) storeFilesystemReady(ctx context.Context, mountPoint string) bool {
	output, err := m.channel.Shell(ctx, `stat -f -c "%t" `+mountPoint, m.cfg.OpTimeout.Duration())
	if err != nil {
		return false
	}

	fsMagic := strings.TrimSpace(output)
	if fsMagic == "" {
		return false
	}

	if _, err := strconv.ParseUint(fsMagic, 16, 64); err != nil {
		m.log.Warn().
			Str("serial", m.Serial()).
			Str("output", fsMagic).
			Msg("stat returned a non-numeric filesystem magic")

		return false
	}

	if _, isTmpfs := tmpfsMagic[fsMagic]; isTmpfs {
		m.log.Debug().
			Str("serial", m.Serial()).
			Str("filesystem", fsMagic).
			Msg("external store still on tmpfs")

		return false
	}

	return true
}

// WaitForDeviceAvailable runs the composite availability gate: online, then
// boot complete, then package manager, then (when mount checking is
// enabled) external store. Stages share one wall-clock budget and the gate
// short-circuits at the first failing stage.
func (m *Monitor) WaitForDeviceAvailable(ctx context.Context, timeout time.Duration) adb.Channel {
	start := m.clock.Now()

	device := m.WaitForDeviceOnline(ctx, timeout)
	if device == nil {
		return nil
	}

	if !m.WaitForBootComplete(ctx, timeout-m.clock.Now().Sub(start)) {
		return nil
	}

	if !m.WaitForPmResponsive(ctx, timeout-m.clock.Now().Sub(start)) {
		return nil
	}

	if m.cfg.MountCheckEnabled {
		if !m.WaitForStoreMount(ctx, timeout-m.clock.Now().Sub(start)) {
			return nil
		}
	}

	return device
}

// WaitForDeviceAvailableDefault applies the configured default budget.
func (m *Monitor) WaitForDeviceAvailableDefault(ctx context.Context) adb.Channel {
	return m.WaitForDeviceAvailable(ctx, m.cfg.AvailableTimeout.Duration())
}

// WaitForDeviceOnlineDefault applies the configured default budget.
func (m *Monitor) WaitForDeviceOnlineDefault(ctx context.Context) adb.Channel {
	return m.WaitForDeviceOnline(ctx, m.cfg.OnlineTimeout.Duration())
}
