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

// Package parsers turns shell-command text into structured info. All parsers
// are stateless; malformed input produces an error naming the offending line
// unless a documented fallback applies.
package parsers

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/carverauto/devicelab/pkg/models"
)

var (
	errMalformedPackageLine = errors.New("malformed package line")
	errMalformedUserLine    = errors.New("malformed user line")
	errMalformedMountLine   = errors.New("malformed mount line")
)

// InvalidUserID is the documented fallback for user rows whose numeric id
// cannot be parsed.
const InvalidUserID = -10000

// DeviceEntry is one row of `adb devices` output.
type DeviceEntry struct {
	Serial string
	State  models.DeviceState
}

// ParseDeviceList parses `adb devices` output. The banner line and blank
// lines are skipped; remaining rows are serial<TAB>state.
func ParseDeviceList(output string) []DeviceEntry {
	var entries []DeviceEntry

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "List of devices") || strings.HasPrefix(line, "* daemon") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		entries = append(entries, DeviceEntry{
			Serial: fields[0],
			State:  models.ParseDeviceState(fields[1]),
		})
	}

	return entries
}

// ParsePackagePaths parses `pm list packages -f` output into a map of
// package name to apk path. Lines are expected as
// "package:/path/to/pkg.apk=com.example.pkg".
func ParsePackagePaths(output string) (map[string]string, error) {
	paths := make(map[string]string)

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		rest, ok := strings.CutPrefix(line, "package:")
		if !ok {
			return nil, fmt.Errorf("%w: %q", errMalformedPackageLine, line)
		}

		sep := strings.LastIndex(rest, "=")
		if sep <= 0 || sep == len(rest)-1 {
			return nil, fmt.Errorf("%w: %q", errMalformedPackageLine, line)
		}

		paths[rest[sep+1:]] = rest[:sep]
	}

	return paths, nil
}

// HasPackageLine reports whether output contains a well-formed "package:"
// row rather than an error or not-found placeholder. Used by the package
// manager readiness probe.
func HasPackageLine(output string) bool {
	return strings.Contains(output, "package:")
}

var userLinePattern = regexp.MustCompile(`UserInfo\{(\d+):([^:]*):(\w+)\}`)

// ParseUsers parses `pm list users` output into user ids. Rows matching the
// UserInfo shape with an unparsable id yield InvalidUserID; other unexpected
// rows are an error.
func ParseUsers(output string) ([]int, error) {
	var users []int

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "Users:") {
			continue
		}

		m := userLinePattern.FindStringSubmatch(line)
		if m == nil {
			if strings.Contains(line, "UserInfo{") {
				users = append(users, InvalidUserID)
				continue
			}

			return nil, fmt.Errorf("%w: %q", errMalformedUserLine, line)
		}

		id, err := strconv.Atoi(m[1])
		if err != nil {
			users = append(users, InvalidUserID)
			continue
		}

		users = append(users, id)
	}

	return users, nil
}

// StripWarnings drops "warning:"-prefixed lines from shell output and
// returns the remaining text trimmed. adb occasionally interleaves benign
// permission warnings with property values.
func StripWarnings(output string) string {
	var kept []string

	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "warning:") {
			continue
		}

		kept = append(kept, line)
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// ParseProp extracts a system property value from getprop output, ignoring
// any interleaved warning lines.
func ParseProp(output string) string {
	return StripWarnings(output)
}

// MountEntry is one row of /proc/mounts.
type MountEntry struct {
	Device     string
	MountPoint string
	FSType     string
	Options    string
}

// ParseMounts parses `cat /proc/mounts` output.
func ParseMounts(output string) ([]MountEntry, error) {
	var mounts []MountEntry

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 4 {
			return nil, fmt.Errorf("%w: %q", errMalformedMountLine, line)
		}

		mounts = append(mounts, MountEntry{
			Device:     fields[0],
			MountPoint: fields[1],
			FSType:     fields[2],
			Options:    fields[3],
		})
	}

	return mounts, nil
}

// WifiNetwork is one scan result row.
type WifiNetwork struct {
	SSID  string
	Level int
}

var wifiScanPattern = regexp.MustCompile(`SSID:\s*"?([^",]*)"?,?\s+level:\s*(-?\d+)`)

// ParseWifiScan scrapes wifi scan-result dumps for SSID/level pairs. Rows
// without the SSID/level shape are skipped; scan dumps carry plenty of
// unrelated text.
func ParseWifiScan(output string) []WifiNetwork {
	var networks []WifiNetwork

	for _, line := range strings.Split(output, "\n") {
		m := wifiScanPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		level, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}

		networks = append(networks, WifiNetwork{SSID: m[1], Level: level})
	}

	return networks
}
