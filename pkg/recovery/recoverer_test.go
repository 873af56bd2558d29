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
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/devicelab/pkg/adb"
	"github.com/carverauto/devicelab/pkg/fastboot"
	"github.com/carverauto/devicelab/pkg/logger"
	"github.com/carverauto/devicelab/pkg/models"
	"github.com/carverauto/devicelab/pkg/monitor"
)

// recordingRunner captures fastboot invocations and optionally reacts to them.
type recordingRunner struct {
	commands [][]string
	onReboot func()
}

func (r *recordingRunner) Command(_ context.Context, serial string, args ...string) (string, error) {
	r.commands = append(r.commands, append([]string{serial}, args...))

	if len(args) > 0 && args[0] == "reboot" && r.onReboot != nil {
		r.onReboot()
	}

	return "", nil
}

func testWaitConfig() *WaitConfig {
	return &WaitConfig{
		SettlePause:      models.Duration(time.Millisecond),
		OnlineTimeout:    models.Duration(200 * time.Millisecond),
		ShellTimeout:     models.Duration(200 * time.Millisecond),
		AvailableTimeout: models.Duration(time.Second),
	}
}

func newShellMonitor(t *testing.T, state models.DeviceState, respond func(cmd string) (string, error)) *monitor.Monitor {
	t.Helper()

	ctrl := gomock.NewController(t)
	channel := adb.NewMockChannel(ctrl)
	channel.EXPECT().State().Return(state).AnyTimes()
	channel.EXPECT().Serial().Return(testSerial).AnyTimes()
	channel.EXPECT().
		Shell(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmd string, _ time.Duration) (string, error) {
			return respond(cmd)
		}).
		AnyTimes()

	cfg := &monitor.Config{
		PollInterval:    models.Duration(10 * time.Millisecond),
		MaxPollInterval: models.Duration(50 * time.Millisecond),
	}

	return monitor.New(channel, cfg, newFakeClock(), logger.NewTestLogger())
}

func TestWaitRecoveryUntilOnline(t *testing.T) {
	m := newShellMonitor(t, models.DeviceStateOnline, func(string) (string, error) {
		return "uid=2000(shell)", nil
	})

	r := NewWaitRecovery(testWaitConfig(), nil, newFakeClock(), logger.NewTestLogger())

	assert.NoError(t, r.Recover(context.Background(), m, true))
}

func TestWaitRecoveryDeviceNeverReturns(t *testing.T) {
	m := newShellMonitor(t, models.DeviceStateNotAvailable, func(string) (string, error) {
		return "", nil
	})

	r := NewWaitRecovery(testWaitConfig(), nil, newFakeClock(), logger.NewTestLogger())

	var notAvailable *NotAvailableError
	require.ErrorAs(t, r.Recover(context.Background(), m, true), &notAvailable)
	assert.Equal(t, testSerial, notAvailable.Serial)
}

func TestWaitRecoveryShellUnresponsive(t *testing.T) {
	// online according to the transport, but the shell never answers
	m := newShellMonitor(t, models.DeviceStateOnline, func(string) (string, error) {
		return "", nil
	})

	r := NewWaitRecovery(testWaitConfig(), nil, newFakeClock(), logger.NewTestLogger())

	var notAvailable *NotAvailableError
	require.ErrorAs(t, r.Recover(context.Background(), m, true), &notAvailable)
}

func TestWaitRecoveryUntilAvailable(t *testing.T) {
	m := newShellMonitor(t, models.DeviceStateOnline, func(cmd string) (string, error) {
		switch {
		case cmd == "id":
			return "uid=2000(shell)", nil
		case strings.HasPrefix(cmd, "getprop"):
			return "1\n", nil
		case strings.HasPrefix(cmd, "pm "):
			return "package:/system/framework/framework-res.apk\n", nil
		default:
			return "", nil
		}
	})

	r := NewWaitRecovery(testWaitConfig(), nil, newFakeClock(), logger.NewTestLogger())

	assert.NoError(t, r.Recover(context.Background(), m, false))
}

func TestWaitRecoveryStillUnresponsiveAfterOnline(t *testing.T) {
	// shell answers but boot never completes, so the strict goal fails
	m := newShellMonitor(t, models.DeviceStateOnline, func(cmd string) (string, error) {
		if cmd == "id" {
			return "uid=2000(shell)", nil
		}
		return "0\n", nil
	})

	r := NewWaitRecovery(testWaitConfig(), nil, newFakeClock(), logger.NewTestLogger())

	var unresponsive *UnresponsiveError
	require.ErrorAs(t, r.Recover(context.Background(), m, false), &unresponsive)
	assert.ErrorIs(t, unresponsive.Cause, errStillUnresponsive)
}

func TestWaitRecoveryRebootsOutOfBootloader(t *testing.T) {
	m := newShellMonitor(t, models.DeviceStateFastboot, func(string) (string, error) {
		return "uid=2000(shell)", nil
	})

	runner := &recordingRunner{onReboot: func() {
		m.SetState(models.DeviceStateOnline)
	}}
	helper := fastboot.NewHelper(runner, logger.NewTestLogger())

	r := NewWaitRecovery(testWaitConfig(), helper, newFakeClock(), logger.NewTestLogger())

	require.NoError(t, r.Recover(context.Background(), m, true))
	require.Len(t, runner.commands, 1)
	assert.Equal(t, []string{testSerial, "reboot"}, runner.commands[0])
}

func TestWaitRecoveryBootloaderWithoutHelper(t *testing.T) {
	m := newShellMonitor(t, models.DeviceStateFastboot, func(string) (string, error) {
		return "", nil
	})

	r := NewWaitRecovery(testWaitConfig(), nil, newFakeClock(), logger.NewTestLogger())

	// no helper means no remediation; the device stays in fastboot and the
	// online wait runs out
	var notAvailable *NotAvailableError
	require.ErrorAs(t, r.Recover(context.Background(), m, true), &notAvailable)
}
