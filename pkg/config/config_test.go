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

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/devicelab/pkg/models"
)

type testConfig struct {
	ADBPath string          `json:"adb_path"`
	Timeout models.Duration `json:"timeout"`

	validateErr error
}

func (c *testConfig) Validate() error {
	return c.validateErr
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestFileLoaderLoad(t *testing.T) {
	path := writeTempConfig(t, `{"adb_path": "/usr/bin/adb", "timeout": "30s"}`)

	var cfg testConfig
	loader := &FileLoader{}

	require.NoError(t, loader.Load(context.Background(), path, &cfg))
	assert.Equal(t, "/usr/bin/adb", cfg.ADBPath)
	assert.Equal(t, 30*time.Second, cfg.Timeout.Duration())
}

func TestFileLoaderMissingFile(t *testing.T) {
	var cfg testConfig
	loader := &FileLoader{}

	err := loader.Load(context.Background(), "/nonexistent/config.json", &cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")
}

func TestFileLoaderMalformedJSON(t *testing.T) {
	path := writeTempConfig(t, `{"adb_path": `)

	var cfg testConfig

	err := (&FileLoader{}).Load(context.Background(), path, &cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal JSON")
}

func TestLoadAndValidate(t *testing.T) {
	path := writeTempConfig(t, `{"adb_path": "adb"}`)

	var cfg testConfig

	assert.NoError(t, LoadAndValidate(context.Background(), nil, path, &cfg))
}

func TestLoadAndValidateRejectsInvalid(t *testing.T) {
	path := writeTempConfig(t, `{"adb_path": "adb"}`)

	cfg := testConfig{validateErr: errors.New("adb_path is required")}

	err := LoadAndValidate(context.Background(), nil, path, &cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
