package domain

import (
	"errors"
	"strings"
)

// =============================================================================
// Network
// =============================================================================

var ErrNetworkNameRequired = errors.New("network name is required")

// Network is the desired-state record for one container network.
// Reconciliation is create-or-skip: an existing network with the same name
// is left untouched, its IPAM and driver options are not diffed.
type Network struct {
	Name    string
	Driver  string
	IPAM    *IPAMConfig
	Options map[string]string
}

// IPAMConfig holds IP address management settings for a network.
type IPAMConfig struct {
	Subnet  string
	Gateway string
	IPRange string
}

// Validate checks the invariants a Network must satisfy.
func (n Network) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return ErrNetworkNameRequired
	}
	return nil
}
