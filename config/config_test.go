package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
default_storage: avatars
storages:
  - name: documents
    driver: local
    path: /var/lib/attach/documents
  - name: avatars
    driver: memory
    base_url: https://cdn.example.com
logging:
  level: debug
  format: console
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "avatars", cfg.DefaultStorage)
	require.Len(t, cfg.Storages, 2)
	require.Equal(t, "local", cfg.Storages[0].Driver)
	require.Equal(t, "https://cdn.example.com", cfg.Storages[1].BaseURL)
	require.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `storages: []`))
	require.NoError(t, err)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ATTACH_LOGGING_LEVEL", "warn")

	cfg, err := Load(writeConfig(t, `
storages:
  - name: documents
    driver: memory
logging:
  level: info
`))
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing name",
			content: `
storages:
  - driver: memory
`,
			wantErr: "name is required",
		},
		{
			name: "duplicate name",
			content: `
storages:
  - name: documents
    driver: memory
  - name: documents
    driver: memory
`,
			wantErr: "already defined",
		},
		{
			name: "unknown driver",
			content: `
storages:
  - name: documents
    driver: s3
`,
			wantErr: "driver must be",
		},
		{
			name: "local without path",
			content: `
storages:
  - name: documents
    driver: local
`,
			wantErr: "path is required",
		},
		{
			name: "unknown default storage",
			content: `
default_storage: missing
storages:
  - name: documents
    driver: memory
`,
			wantErr: "not defined",
		},
		{
			name: "bad log level",
			content: `
storages: []
logging:
  level: loud
`,
			wantErr: "logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestBuildRegistry(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{
		DefaultStorage: "avatars",
		Storages: []StorageConfig{
			{Name: "documents", Driver: "local", Path: filepath.Join(dir, "documents")},
			{Name: "avatars", Driver: "memory", BaseURL: "https://cdn.example.com"},
		},
	}

	reg, err := BuildRegistry(cfg, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, []string{"avatars", "documents"}, reg.Names())

	name, err := reg.DefaultName()
	require.NoError(t, err)
	require.Equal(t, "avatars", name)

	// The local container root was created.
	info, err := os.Stat(filepath.Join(dir, "documents"))
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger(LoggingConfig{Level: "debug", Format: "json"})
	require.Equal(t, zerolog.DebugLevel, logger.GetLevel())

	// Unknown levels fall back to info.
	logger = NewLogger(LoggingConfig{Level: "loud"})
	require.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}
