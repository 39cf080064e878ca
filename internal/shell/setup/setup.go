// Package setup prepares a Docker host: TLS material from the certificate
// authority, daemon configuration pointing at it, a daemon restart, a
// TLS connectivity probe, and the declared container networks.
package setup

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/eliminyro/stevedore/internal/core/daemoncfg"
	"github.com/eliminyro/stevedore/internal/core/domain"
	"github.com/eliminyro/stevedore/internal/core/reconcile"
	"github.com/eliminyro/stevedore/internal/shell/cfssl"
	"github.com/eliminyro/stevedore/internal/shell/docker"
)

// =============================================================================
// Setup Pipeline
// =============================================================================

// Params configure one setup run.
type Params struct {
	ServerName string
	TLSPort    int
	CertsDir   string
	DaemonJSON string // path, defaults to /etc/docker/daemon.json
	Override   string // path, defaults to the systemd drop-in
	Extra      map[string]any
	CSR        cfssl.CSRRequest
	Force      bool // reissue TLS material even if a valid bundle exists
	Networks   []domain.Network
}

func (p Params) withDefaults() Params {
	if p.TLSPort == 0 {
		p.TLSPort = daemoncfg.DefaultTLSPort
	}
	if p.CertsDir == "" {
		p.CertsDir = daemoncfg.DefaultCertsDir
	}
	if p.DaemonJSON == "" {
		p.DaemonJSON = daemoncfg.DefaultDaemonJSONPath
	}
	if p.Override == "" {
		p.Override = daemoncfg.DefaultOverridePath
	}
	return p
}

// Provisioner issues TLS bundles. Implemented by cfssl.Provisioner.
type Provisioner interface {
	EnsureTLS(serverName string, req cfssl.CSRRequest, force bool) (*cfssl.Bundle, error)
}

// VerifierFactory opens an engine client against the TLS endpoint for the
// post-setup probe.
type VerifierFactory func(opts docker.Options) (docker.Client, error)

// Setup runs the host preparation pipeline.
type Setup struct {
	tls      Provisioner
	docker   docker.Client
	services ServiceManager
	verifier VerifierFactory
	logger   *slog.Logger
}

// New creates a setup pipeline. A nil verifier uses the real engine client.
func New(tls Provisioner, client docker.Client, services ServiceManager, verifier VerifierFactory, logger *slog.Logger) *Setup {
	if logger == nil {
		logger = slog.Default()
	}
	if services == nil {
		services = SystemdManager{}
	}
	if verifier == nil {
		verifier = func(opts docker.Options) (docker.Client, error) {
			return docker.NewEngineClient(opts)
		}
	}
	return &Setup{
		tls:      tls,
		docker:   client,
		services: services,
		verifier: verifier,
		logger:   logger,
	}
}

// Run executes the full pipeline. TLS provisioning failures are fatal; a
// failed verification probe is reported but leaves the written
// configuration in place for manual remediation.
func (s *Setup) Run(params Params) error {
	p := params.withDefaults()

	if _, err := s.tls.EnsureTLS(p.ServerName, p.CSR, p.Force); err != nil {
		return err
	}

	changed, err := s.writeDaemonConfig(p)
	if err != nil {
		return err
	}
	if changed {
		s.logger.Info("daemon configuration changed, restarting daemon")
		if err := s.services.RestartDaemon(); err != nil {
			return fmt.Errorf("restart daemon: %w", err)
		}
		s.verify(p)
	} else {
		s.logger.Info("daemon configuration unchanged")
	}

	return s.provisionNetworks(p.Networks)
}

// =============================================================================
// Daemon Configuration
// =============================================================================

// writeDaemonConfig renders daemon.json and the systemd override, writing
// each only when its content differs. Returns whether anything changed.
func (s *Setup) writeDaemonConfig(p Params) (bool, error) {
	daemonJSON, err := daemoncfg.DaemonJSON(daemoncfg.Params{
		TLSPort:        p.TLSPort,
		CACertPath:     filepath.Join(p.CertsDir, "ca.pem"),
		ServerCertPath: filepath.Join(p.CertsDir, "server.pem"),
		ServerKeyPath:  filepath.Join(p.CertsDir, "server-key.pem"),
		Extra:          p.Extra,
	})
	if err != nil {
		return false, err
	}

	changedJSON, err := writeIfChanged(p.DaemonJSON, daemonJSON, 0o644)
	if err != nil {
		return false, err
	}
	changedOverride, err := writeIfChanged(p.Override, daemoncfg.OverrideConf(), 0o644)
	if err != nil {
		return false, err
	}
	return changedJSON || changedOverride, nil
}

func writeIfChanged(path string, content []byte, mode os.FileMode) (bool, error) {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, content) {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, content, mode); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}

// =============================================================================
// TLS Verification Probe
// =============================================================================

// verify performs a version check against the daemon's TLS endpoint using
// the freshly issued material. Failure does not roll anything back.
func (s *Setup) verify(p Params) {
	client, err := s.verifier(docker.Options{
		Host:           fmt.Sprintf("tcp://%s:%d", p.ServerName, p.TLSPort),
		CACertPath:     filepath.Join(p.CertsDir, "ca.pem"),
		ClientCertPath: filepath.Join(p.CertsDir, "server.pem"),
		ClientKeyPath:  filepath.Join(p.CertsDir, "server-key.pem"),
	})
	if err != nil {
		s.logger.Error("tls verification probe could not connect", "error", err)
		return
	}
	defer client.Close()

	version, err := client.ServerVersion()
	if err != nil {
		s.logger.Error("tls verification probe failed, manual remediation needed",
			"server_name", p.ServerName,
			"port", p.TLSPort,
			"error", err,
		)
		return
	}
	s.logger.Info("daemon tls endpoint verified", "version", version)
}

// =============================================================================
// Network Provisioning
// =============================================================================

// provisionNetworks creates each declared network unless one with the same
// name already exists. Existing networks are never diffed or updated.
func (s *Setup) provisionNetworks(networks []domain.Network) error {
	for _, nw := range networks {
		if err := nw.Validate(); err != nil {
			return err
		}
		exists, err := s.docker.NetworkExists(nw.Name)
		if err != nil {
			return err
		}
		if reconcile.CompareNetwork(nw, exists) == reconcile.NetworkSkip {
			s.logger.Info("network already exists, leaving untouched", "network", nw.Name)
			continue
		}

		spec := docker.NetworkSpec{
			Name:    nw.Name,
			Driver:  nw.Driver,
			Options: nw.Options,
			Labels:  map[string]string{docker.LabelManaged: "true"},
		}
		if nw.IPAM != nil {
			spec.Subnet = nw.IPAM.Subnet
			spec.Gateway = nw.IPAM.Gateway
			spec.IPRange = nw.IPAM.IPRange
		}
		if _, err := s.docker.CreateNetwork(spec); err != nil {
			return err
		}
		s.logger.Info("created network", "network", nw.Name, "driver", spec.Driver)
	}
	return nil
}
