package daemoncfg

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// DaemonJSON Tests
// =============================================================================

func TestDaemonJSON_Defaults(t *testing.T) {
	out, err := DaemonJSON(Params{})
	require.NoError(t, err)

	var cfg map[string]any
	require.NoError(t, json.Unmarshal(out, &cfg))

	assert.Equal(t, true, cfg["tls"])
	assert.Equal(t, true, cfg["tlsverify"])
	assert.Equal(t, DefaultCACertPath, cfg["tlscacert"])
	assert.Equal(t, DefaultServerCertPath, cfg["tlscert"])
	assert.Equal(t, DefaultServerKeyPath, cfg["tlskey"])

	hosts, ok := cfg["hosts"].([]any)
	require.True(t, ok)
	assert.Contains(t, hosts, "unix:///var/run/docker.sock")
	assert.Contains(t, hosts, "tcp://0.0.0.0:2376")
}

func TestDaemonJSON_CustomPort(t *testing.T) {
	out, err := DaemonJSON(Params{TLSPort: 2380})
	require.NoError(t, err)

	var cfg map[string]any
	require.NoError(t, json.Unmarshal(out, &cfg))
	assert.Contains(t, cfg["hosts"], "tcp://0.0.0.0:2380")
}

func TestDaemonJSON_ExtraOptions(t *testing.T) {
	out, err := DaemonJSON(Params{
		Extra: map[string]any{
			"log-driver": "journald",
			"live-restore": true,
		},
	})
	require.NoError(t, err)

	var cfg map[string]any
	require.NoError(t, json.Unmarshal(out, &cfg))
	assert.Equal(t, "journald", cfg["log-driver"])
	assert.Equal(t, true, cfg["live-restore"])
}

// Extra options must not be able to clobber the TLS settings.
func TestDaemonJSON_ExtraCannotOverrideTLS(t *testing.T) {
	out, err := DaemonJSON(Params{
		Extra: map[string]any{"tls": false, "hosts": []string{"tcp://0.0.0.0:80"}},
	})
	require.NoError(t, err)

	var cfg map[string]any
	require.NoError(t, json.Unmarshal(out, &cfg))
	assert.Equal(t, true, cfg["tls"])
	assert.Contains(t, cfg["hosts"], "unix:///var/run/docker.sock")
}

// =============================================================================
// OverrideConf Tests
// =============================================================================

func TestOverrideConf(t *testing.T) {
	content := string(OverrideConf())
	assert.Contains(t, content, "[Service]")
	// The empty ExecStart clears the packaged host flags.
	assert.Contains(t, content, "ExecStart=\nExecStart=/usr/bin/dockerd")
}
