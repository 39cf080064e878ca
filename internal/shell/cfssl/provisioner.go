package cfssl

import (
	"errors"
	"io/fs"
	"log/slog"
	"time"
)

// =============================================================================
// Certificate Provisioner
// =============================================================================

// CA is the subset of the CFSSL client the provisioner needs. Tests
// substitute fakes to count issued requests.
type CA interface {
	NewCert(req CSRRequest) (certPEM, keyPEM []byte, err error)
	CACert(serverName string) ([]byte, error)
}

// Provisioner ensures a valid certificate bundle exists on disk for the
// daemon's server name.
type Provisioner struct {
	ca     CA
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

// NewProvisioner creates a provisioner persisting bundles under dir.
func NewProvisioner(ca CA, dir string, logger *slog.Logger) *Provisioner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provisioner{
		ca:     ca,
		dir:    dir,
		logger: logger,
		now:    time.Now,
	}
}

// EnsureTLS returns the TLS bundle for serverName. A valid bundle already
// on disk is returned unmodified with zero network calls unless force is
// set. Otherwise the CA issues fresh material, which is persisted with
// restrictive permissions before being returned.
func (p *Provisioner) EnsureTLS(serverName string, req CSRRequest, force bool) (*Bundle, error) {
	if !force {
		bundle, err := LoadBundle(p.dir, serverName)
		switch {
		case err == nil && bundle.Valid(p.now()):
			p.logger.Info("reusing existing tls bundle",
				"server_name", serverName,
				"not_after", bundle.NotAfter,
			)
			return bundle, nil
		case err == nil:
			p.logger.Info("existing tls bundle expired, reissuing",
				"server_name", serverName,
				"not_after", bundle.NotAfter,
			)
		case errors.Is(err, fs.ErrNotExist):
			p.logger.Info("no tls bundle on disk, issuing", "server_name", serverName)
		default:
			// Unreadable bundle: reissue rather than fail the run.
			p.logger.Warn("existing tls bundle unusable, reissuing",
				"server_name", serverName,
				"error", err,
			)
		}
	}

	req.CN = serverName
	if err := req.Validate(); err != nil {
		return nil, NewProvisionError(serverName, "", err.Error(), err)
	}

	certPEM, keyPEM, err := p.ca.NewCert(req)
	if err != nil {
		return nil, err
	}
	caPEM, err := p.ca.CACert(serverName)
	if err != nil {
		return nil, err
	}

	notAfter, err := certExpiry(certPEM)
	if err != nil {
		return nil, NewProvisionError(serverName, "newcert", "issued certificate does not parse", err)
	}

	bundle := &Bundle{
		CACert:     caPEM,
		ServerCert: certPEM,
		ServerKey:  keyPEM,
		ServerName: serverName,
		NotAfter:   notAfter,
	}
	if err := bundle.Persist(p.dir); err != nil {
		return nil, NewProvisionError(serverName, "persist", err.Error(), err)
	}

	p.logger.Info("issued tls bundle",
		"server_name", serverName,
		"not_after", notAfter,
		"dir", p.dir,
	)
	return bundle, nil
}
