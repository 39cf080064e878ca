// Package hostpath contains pure functions for classifying the host side of
// container volume mappings. Classification decides whether the materializer
// pre-creates a file, a directory, or nothing at all.
package hostpath

import (
	"path"
	"strings"
)

// =============================================================================
// Host Path Classification
// =============================================================================

// Kind is the materialization strategy for one host path.
type Kind string

const (
	// KindFile paths are touched if absent; existing content and
	// timestamps are never modified.
	KindFile Kind = "file"

	// KindDirectory paths are created with parents as needed.
	KindDirectory Kind = "directory"

	// KindSocket paths are never pre-created: the running container
	// creates the socket itself.
	KindSocket Kind = "socket"
)

// Entry is one classified host path derived from a volume mapping.
type Entry struct {
	Path string
	Kind Kind
}

// HostSide extracts the host path from a "host:container[:ro]" mapping.
// Everything before the first colon is the host side.
func HostSide(mapping string) string {
	if i := strings.Index(mapping, ":"); i >= 0 {
		return mapping[:i]
	}
	return mapping
}

// Classify determines how a host path must be materialized.
//
// A final path segment containing a dot is a file, with one carve-out:
// ".sock" suffixes are unix sockets and are not pre-provisioned. Anything
// without an extension is a directory.
func Classify(hostPath string) Kind {
	base := path.Base(hostPath)
	ext := path.Ext(base)
	switch {
	case ext == ".sock":
		return KindSocket
	case ext != "" && ext != ".":
		return KindFile
	default:
		return KindDirectory
	}
}

// FromVolumes classifies the host side of every volume mapping, in order.
// Mappings with an empty host side are skipped.
func FromVolumes(volumes []string) []Entry {
	entries := make([]Entry, 0, len(volumes))
	for _, v := range volumes {
		host := HostSide(v)
		if host == "" {
			continue
		}
		entries = append(entries, Entry{Path: host, Kind: Classify(host)})
	}
	return entries
}
