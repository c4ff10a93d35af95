package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoad_CreatesFileWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Server.Address)
	assert.Equal(t, "6252", cfg.Server.HTTPPort)
	assert.Equal(t, "wg0", cfg.WireGuard.Interface)
	assert.Equal(t, "/etc/wireguard/wg0.conf", cfg.WireGuard.ConfigPath)
	assert.Equal(t, "data.json", cfg.WireGuard.DataFile)
	assert.Empty(t, cfg.WireGuard.NetworkInterface)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk Config
	require.NoError(t, yaml.Unmarshal(raw, &onDisk))
	assert.Equal(t, *cfg, onDisk)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("wireguard:\n  interface: wg1\n  network_interface: eth0\nserver:\n  http_port: \"9000\"\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "wg1", cfg.WireGuard.Interface)
	assert.Equal(t, "eth0", cfg.WireGuard.NetworkInterface)
	assert.Equal(t, "9000", cfg.Server.HTTPPort)
	assert.Equal(t, "wg-quick", cfg.WireGuard.QuickBin)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("WIREGUARD_INTERFACE", "wg7")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "wg7", cfg.WireGuard.Interface)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown driver", "database:\n  driver: sqlite\n"},
		{"db without dsn", "database:\n  driver: postgres\n"},
		{"empty config path", "wireguard:\n  config_path: \" \"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o600))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_EnvSecretsStayOffDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("API_TOKEN", "s3cr3t-from-env")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_DSN", "postgres://u:pw@h/db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t-from-env", cfg.API.Token)
	assert.Equal(t, "postgres://u:pw@h/db", cfg.Database.DSN)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "s3cr3t-from-env")
	assert.NotContains(t, string(raw), "postgres://u:pw@h/db")
	assert.NotContains(t, string(raw), "driver: postgres")
}

func TestLoad_EnvOverrideNotSticky(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("wireguard:\n  interface: wg1\n"), 0o600))

	t.Setenv("WIREGUARD_INTERFACE", "wg7")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "wg7", cfg.WireGuard.Interface)

	require.NoError(t, os.Unsetenv("WIREGUARD_INTERFACE"))
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "wg1", cfg.WireGuard.Interface)
}
