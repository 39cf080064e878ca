package domain

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// App Errors
// =============================================================================

var (
	ErrNameRequired  = errors.New("application name is required")
	ErrImageRequired = errors.New("application image is required")
	ErrInvalidVolume = errors.New("invalid volume mapping")
	ErrInvalidPort   = errors.New("invalid port mapping")
)

// DefaultTag is used when an application does not pin an image tag.
const DefaultTag = "latest"

// DefaultRestartPolicy is applied when an application does not set one.
const DefaultRestartPolicy = "unless-stopped"

// =============================================================================
// App
// =============================================================================

// App is the desired-state record for one deployable container.
// Zero-valued optional fields mean "omit from the engine call"; the
// resolver normalizes absent configuration into zero values exactly once,
// so no sentinel travels past this type.
type App struct {
	Name          string
	Image         string
	Tag           string
	Command       []string
	Entrypoint    []string
	Networks      []string
	Volumes       []string // "host:container[:ro]"
	Env           map[string]string
	Ports         []string // "host:container[/proto]"
	Healthcheck   *Healthcheck
	RestartPolicy string
	CapAdd        []string
	SecurityOpt   []string
	Labels        map[string]string

	// Artifacts are config files rendered or copied into place before the
	// container starts.
	Artifacts []ConfigArtifact

	// Dependencies are deployed before the main container, in list order,
	// and only when RunDependencies is true.
	Dependencies    []App
	RunDependencies bool

	// SourceApp redirects artifact source lookup to another application's
	// source directory. Used by dependency entries (alt_app).
	SourceApp string

	// FinishCommand is an optional raw shell command executed once after
	// every other step has succeeded.
	FinishCommand string
}

// Healthcheck is a container health probe definition.
type Healthcheck struct {
	Test        []string
	Interval    string
	Timeout     string
	Retries     int
	StartPeriod string
}

// ConfigArtifact is a file materialized into an application's config
// directory before its container starts.
type ConfigArtifact struct {
	Name        string
	Destination string
	Owner       string
	Group       string
	Mode        string
	Kind        ArtifactKind
}

// ArtifactKind distinguishes copied files from rendered templates.
type ArtifactKind string

const (
	ArtifactStatic   ArtifactKind = "static"
	ArtifactTemplate ArtifactKind = "template"
)

// Ref returns the image reference including the tag.
func (a App) Ref() string {
	tag := a.Tag
	if tag == "" {
		tag = DefaultTag
	}
	return fmt.Sprintf("%s:%s", a.Image, tag)
}

// SourceName returns the application whose source directory supplies
// this app's artifacts and templates.
func (a App) SourceName() string {
	if a.SourceApp != "" {
		return a.SourceApp
	}
	return a.Name
}

// Validate checks the invariants every App must satisfy before it can be
// reconciled. Dependencies are validated recursively.
func (a App) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(a.Image) == "" {
		return fmt.Errorf("app %q: %w", a.Name, ErrImageRequired)
	}
	for _, v := range a.Volumes {
		if !strings.Contains(v, ":") {
			return fmt.Errorf("app %q volume %q: %w", a.Name, v, ErrInvalidVolume)
		}
	}
	for _, p := range a.Ports {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("app %q: %w", a.Name, ErrInvalidPort)
		}
	}
	for _, dep := range a.Dependencies {
		if err := dep.Validate(); err != nil {
			return fmt.Errorf("dependency of %q: %w", a.Name, err)
		}
	}
	return nil
}
