package cfssl

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// =============================================================================
// Certificate Bundle
// =============================================================================

// Bundle is the TLS material issued for one server. It is the only entity
// that outlives a single run; it persists under the certs directory.
type Bundle struct {
	CACert     []byte // PEM
	ServerCert []byte // PEM
	ServerKey  []byte // PEM
	ServerName string
	NotAfter   time.Time
}

// File names within the certs directory.
const (
	caCertFile     = "ca.pem"
	serverCertFile = "server.pem"
	serverKeyFile  = "server-key.pem"
)

// Permissions matching what the daemon and local tooling expect.
const (
	certsDirMode fs.FileMode = 0o750
	certFileMode fs.FileMode = 0o640
)

// LoadBundle reads a previously persisted bundle from dir. A missing file
// returns fs.ErrNotExist; a bundle that no longer parses returns
// ErrBadBundle.
func LoadBundle(dir, serverName string) (*Bundle, error) {
	caCert, err := os.ReadFile(filepath.Join(dir, caCertFile))
	if err != nil {
		return nil, err
	}
	serverCert, err := os.ReadFile(filepath.Join(dir, serverCertFile))
	if err != nil {
		return nil, err
	}
	serverKey, err := os.ReadFile(filepath.Join(dir, serverKeyFile))
	if err != nil {
		return nil, err
	}

	notAfter, err := certExpiry(serverCert)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Join(dir, serverCertFile), err)
	}

	return &Bundle{
		CACert:     caCert,
		ServerCert: serverCert,
		ServerKey:  serverKey,
		ServerName: serverName,
		NotAfter:   notAfter,
	}, nil
}

// Valid reports whether the bundle's server certificate is still usable at
// the given instant.
func (b *Bundle) Valid(now time.Time) bool {
	return b != nil && now.Before(b.NotAfter)
}

// Persist writes the bundle under dir with restrictive permissions.
func (b *Bundle) Persist(dir string) error {
	if err := os.MkdirAll(dir, certsDirMode); err != nil {
		return fmt.Errorf("create certs dir %s: %w", dir, err)
	}
	// MkdirAll leaves an existing directory's mode alone.
	if err := os.Chmod(dir, certsDirMode); err != nil {
		return fmt.Errorf("chmod certs dir %s: %w", dir, err)
	}

	files := []struct {
		name string
		data []byte
	}{
		{caCertFile, b.CACert},
		{serverCertFile, b.ServerCert},
		{serverKeyFile, b.ServerKey},
	}
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, f.data, certFileMode); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		if err := os.Chmod(path, certFileMode); err != nil {
			return fmt.Errorf("chmod %s: %w", path, err)
		}
	}
	return nil
}

// certExpiry parses a PEM certificate and returns its NotAfter.
func certExpiry(certPEM []byte) (time.Time, error) {
	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		return time.Time{}, fmt.Errorf("no certificate PEM block: %w", ErrBadBundle)
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return time.Time{}, errors.Join(ErrBadBundle, err)
	}
	return cert.NotAfter, nil
}
