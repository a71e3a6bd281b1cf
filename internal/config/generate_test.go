// Copyright (c) 2025, the seedvault contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDefaultConfig(t *testing.T) {
	tests := []struct {
		name            string
		existingFile    bool
		validateContent func(t *testing.T, content string)
	}{
		{
			name:         "create_new_config",
			existingFile: false,
			validateContent: func(t *testing.T, content string) {
				assert.Contains(t, content, "host =")
				assert.Contains(t, content, "port =")
				assert.Contains(t, content, "logLevel =")
				assert.Contains(t, content, "licenseCodec =")
			},
		},
		{
			name:         "skip_existing_config",
			existingFile: true,
			validateContent: func(t *testing.T, content string) {
				assert.Equal(t, "existing content", content)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "config.toml")

			if tt.existingFile {
				err := os.WriteFile(configPath, []byte("existing content"), 0644)
				require.NoError(t, err)
			}

			err := WriteDefaultConfig(configPath)
			require.NoError(t, err)

			content, err := os.ReadFile(configPath)
			require.NoError(t, err)
			tt.validateContent(t, string(content))
		})
	}
}

func TestGetDefaultConfigDir(t *testing.T) {
	dir := GetDefaultConfigDir()
	require.NotEmpty(t, dir)

	switch runtime.GOOS {
	case "windows":
		assert.True(t, strings.HasSuffix(dir, "seedvault"))
	default:
		assert.Contains(t, dir, "seedvault")
	}
}

func TestConfigGenerationIntegration(t *testing.T) {
	t.Run("generate_config_in_custom_directory", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "custom", "config", "config.toml")

		err := WriteDefaultConfig(configPath)
		require.NoError(t, err)

		info, err := os.Stat(configPath)
		require.NoError(t, err)
		assert.False(t, info.IsDir())
	})

	t.Run("prevent_overwrite_existing_config", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		existingContent := "# Important existing config\nhost = \"production\""
		err := os.WriteFile(configPath, []byte(existingContent), 0644)
		require.NoError(t, err)

		err = WriteDefaultConfig(configPath)
		require.NoError(t, err)

		content, err := os.ReadFile(configPath)
		require.NoError(t, err)
		assert.Equal(t, existingContent, string(content))
	})
}
