package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliminyro/stevedore/internal/shell/cfssl"
)

// =============================================================================
// Config Loading Tests
// =============================================================================

func TestLoadConfig_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Docker.Host)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 2376, cfg.Setup.TLSPort)
	assert.Equal(t, "/etc/docker/certs", cfg.Setup.CertsDir)
	assert.Equal(t, "ecdsa", cfg.Setup.CSR.KeyAlgo)
	assert.Equal(t, 256, cfg.Setup.CSR.KeySize)
	assert.Equal(t, "./apps.yml", cfg.Deploy.Namespace)
	assert.Equal(t, "./apps", cfg.Deploy.SourceRoot)
}

func TestLoadConfig_FromFile(t *testing.T) {
	clearEnv(t)

	configContent := `
docker:
  host: "tcp://docker01.example.com:2376"

log:
  level: "debug"
  format: "text"

setup:
  server_name: "docker01.example.com"
  ca_url: "https://ca.example.com:8888"
  tls_port: 2377
  csr:
    hosts: "docker01.example.com, 10.0.0.5"
    country: "DE"
    organization: "Example"
  daemon_options:
    log-driver: "journald"
  networks:
    - name: "apps"
      driver: "bridge"
      subnet: "172.30.0.0/16"
      gateway: "172.30.0.1"

deploy:
  namespace: "/etc/stevedore/apps.yml"
  source_root: "/etc/stevedore/apps"
  owner: "deploy"
  group: "deploy"
  vars:
    web_image_tag: "1.27"
`
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(configContent), 0644))

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)

	assert.Equal(t, "tcp://docker01.example.com:2376", cfg.Docker.Host)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "docker01.example.com", cfg.Setup.ServerName)
	assert.Equal(t, "https://ca.example.com:8888", cfg.Setup.CAURL)
	assert.Equal(t, 2377, cfg.Setup.TLSPort)
	assert.Equal(t, "journald", cfg.Setup.Extra["log-driver"])
	require.Len(t, cfg.Setup.Networks, 1)
	assert.Equal(t, "apps", cfg.Setup.Networks[0].Name)
	assert.Equal(t, "172.30.0.0/16", cfg.Setup.Networks[0].Subnet)
	assert.Equal(t, "/etc/stevedore/apps.yml", cfg.Deploy.Namespace)
	assert.Equal(t, "deploy", cfg.Deploy.Owner)
	assert.Equal(t, "1.27", cfg.Deploy.Vars["web_image_tag"])
}

func TestLoadConfig_EnvironmentOverride(t *testing.T) {
	clearEnv(t)

	t.Setenv("STEVEDORE_DOCKER_HOST", "unix:///run/docker.sock")
	t.Setenv("STEVEDORE_SETUP_SERVER_NAME", "docker02.example.com")
	t.Setenv("STEVEDORE_SETUP_CA_URL", "https://ca.internal:8888")
	t.Setenv("STEVEDORE_LOG_LEVEL", "warn")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "unix:///run/docker.sock", cfg.Docker.Host)
	assert.Equal(t, "docker02.example.com", cfg.Setup.ServerName)
	assert.Equal(t, "https://ca.internal:8888", cfg.Setup.CAURL)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadConfig_FileNotFound_UsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	require.NoError(t, err) // Should not error, just use defaults

	assert.Equal(t, 2376, cfg.Setup.TLSPort)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	clearEnv(t)

	tmpFile := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("invalid: yaml: content: [[["), 0644))

	_, err := LoadConfig(tmpFile)
	assert.Error(t, err)
}

// =============================================================================
// CSR Conversion Tests
// =============================================================================

func TestSetupConfig_CSRRequest(t *testing.T) {
	cfg := SetupConfig{
		ServerName: "docker01.example.com",
		CSR: CSRConfig{
			Hosts:        "docker01.example.com, 10.0.0.5 ,",
			Country:      "DE",
			State:        "Berlin",
			Organization: "Example",
			KeyAlgo:      "ecdsa",
			KeySize:      256,
		},
	}

	req := cfg.CSRRequest()
	assert.Equal(t, "docker01.example.com", req.CN)
	assert.Equal(t, []string{"docker01.example.com", "10.0.0.5"}, req.Hosts)
	assert.Equal(t, cfssl.KeySpec{Algo: "ecdsa", Size: 256}, req.Key)
	require.Len(t, req.Names, 1)
	assert.Equal(t, "DE", req.Names[0].C)
	assert.Equal(t, "Berlin", req.Names[0].ST)
	assert.Equal(t, "Example", req.Names[0].O)
}

func TestSetupConfig_CSRRequest_EmptySubjectOmitsNames(t *testing.T) {
	cfg := SetupConfig{ServerName: "docker01.example.com"}

	req := cfg.CSRRequest()
	assert.Equal(t, "docker01.example.com", req.CN)
	assert.Empty(t, req.Hosts)
	assert.Nil(t, req.Names)
}

// =============================================================================
// Network Conversion Tests
// =============================================================================

func TestSetupConfig_DomainNetworks(t *testing.T) {
	cfg := SetupConfig{
		Networks: []NetworkConfig{
			{Name: "apps", Driver: "bridge", Subnet: "172.30.0.0/16", Gateway: "172.30.0.1"},
			{Name: "flat"},
		},
	}

	networks := cfg.DomainNetworks()
	require.Len(t, networks, 2)

	require.NotNil(t, networks[0].IPAM)
	assert.Equal(t, "172.30.0.0/16", networks[0].IPAM.Subnet)
	assert.Equal(t, "172.30.0.1", networks[0].IPAM.Gateway)

	assert.Nil(t, networks[1].IPAM, "no IPAM fields means no IPAM block")
}

// =============================================================================
// Logger Setup Tests
// =============================================================================

func TestSetupLogger_JSONFormat(t *testing.T) {
	cfg := &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}

	logger := SetupLogger(cfg)
	assert.NotNil(t, logger)
}

func TestSetupLogger_TextFormat(t *testing.T) {
	cfg := &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}

	logger := SetupLogger(cfg)
	assert.NotNil(t, logger)
}

func TestSetupLogger_InvalidLevel(t *testing.T) {
	cfg := &Config{
		Log: LogConfig{
			Level:  "invalid",
			Format: "json",
		},
	}

	// Should fall back to info level, not panic
	logger := SetupLogger(cfg)
	assert.NotNil(t, logger)
}

// =============================================================================
// Test Helpers
// =============================================================================

func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"STEVEDORE_DOCKER_HOST",
		"STEVEDORE_SETUP_SERVER_NAME",
		"STEVEDORE_SETUP_CA_URL",
		"STEVEDORE_LOG_LEVEL",
		"STEVEDORE_LOG_FORMAT",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}
