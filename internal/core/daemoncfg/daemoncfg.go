// Package daemoncfg contains pure functions for rendering Docker daemon
// configuration: the daemon.json options file and the systemd override
// fragment that defers host flags to it.
package daemoncfg

import (
	"encoding/json"
	"fmt"
)

// =============================================================================
// Defaults
// =============================================================================

const (
	// DefaultCertsDir is where TLS material for the daemon lives.
	DefaultCertsDir = "/etc/docker/certs"

	DefaultCACertPath     = DefaultCertsDir + "/ca.pem"
	DefaultServerCertPath = DefaultCertsDir + "/server.pem"
	DefaultServerKeyPath  = DefaultCertsDir + "/server-key.pem"

	// DefaultDaemonJSONPath is the engine options file.
	DefaultDaemonJSONPath = "/etc/docker/daemon.json"

	// DefaultOverridePath is the systemd drop-in clearing ExecStart host
	// flags so daemon.json controls the listen addresses.
	DefaultOverrideDir  = "/etc/systemd/system/docker.service.d"
	DefaultOverridePath = DefaultOverrideDir + "/override.conf"

	// DefaultTLSPort is the TCP port the daemon serves TLS on.
	DefaultTLSPort = 2376
)

// =============================================================================
// Daemon Options Rendering
// =============================================================================

// Params describes the daemon configuration to render.
type Params struct {
	TLSPort        int
	CACertPath     string
	ServerCertPath string
	ServerKeyPath  string

	// Extra engine options merged into daemon.json verbatim. TLS and host
	// keys cannot be overridden through here.
	Extra map[string]any
}

// withDefaults fills zero-valued fields.
func (p Params) withDefaults() Params {
	if p.TLSPort == 0 {
		p.TLSPort = DefaultTLSPort
	}
	if p.CACertPath == "" {
		p.CACertPath = DefaultCACertPath
	}
	if p.ServerCertPath == "" {
		p.ServerCertPath = DefaultServerCertPath
	}
	if p.ServerKeyPath == "" {
		p.ServerKeyPath = DefaultServerKeyPath
	}
	return p
}

// DaemonJSON renders the daemon.json content: the unix socket plus the TLS
// TCP listener, verification enabled, certificate paths, and any extra
// engine options.
func DaemonJSON(params Params) ([]byte, error) {
	p := params.withDefaults()

	cfg := make(map[string]any, len(p.Extra)+6)
	for k, v := range p.Extra {
		cfg[k] = v
	}
	cfg["hosts"] = []string{
		"unix:///var/run/docker.sock",
		fmt.Sprintf("tcp://0.0.0.0:%d", p.TLSPort),
	}
	cfg["tls"] = true
	cfg["tlsverify"] = true
	cfg["tlscacert"] = p.CACertPath
	cfg["tlscert"] = p.ServerCertPath
	cfg["tlskey"] = p.ServerKeyPath

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render daemon.json: %w", err)
	}
	return append(out, '\n'), nil
}

// =============================================================================
// Systemd Override Rendering
// =============================================================================

// OverrideConf renders the systemd drop-in that clears the packaged
// ExecStart host flags. The -H flag conflicts with "hosts" in daemon.json,
// so the unit must start dockerd bare.
func OverrideConf() []byte {
	return []byte("[Service]\nExecStart=\nExecStart=/usr/bin/dockerd\n")
}
