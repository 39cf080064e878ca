// Package docker provides the Docker Engine client used to converge
// containers and networks onto their declared state.
package docker

import "time"

// =============================================================================
// Container Types
// =============================================================================

// ContainerSpec defines the specification for creating a container.
type ContainerSpec struct {
	Name          string
	Image         string // full reference including tag
	Command       []string
	Entrypoint    []string
	Env           map[string]string
	Labels        map[string]string
	Ports         []string // "host:container[/proto]" specs
	Binds         []string // "host:container[:mode]" bind mounts
	Networks      []string
	RestartPolicy string // "no", "always", "on-failure", "unless-stopped"
	CapAdd        []string
	SecurityOpt   []string
	HealthCheck   *HealthCheck
}

// HealthCheck defines container health check configuration.
type HealthCheck struct {
	Test        []string
	Interval    time.Duration
	Timeout     time.Duration
	Retries     int
	StartPeriod time.Duration
}

// ContainerState is the engine's view of a container, reduced to what
// reconciliation compares.
type ContainerState struct {
	ID            string
	Name          string
	Image         string // reference the container was created from
	Running       bool
	Status        string // "running", "exited", "created", etc.
	Command       []string
	Entrypoint    []string
	Env           []string // raw KEY=VALUE entries
	Binds         []string
	Networks      []string
	RestartPolicy string
	Labels        map[string]string
}

// =============================================================================
// Network Types
// =============================================================================

// NetworkSpec defines the specification for creating a network.
type NetworkSpec struct {
	Name    string
	Driver  string // defaults to "bridge"
	Subnet  string
	Gateway string
	IPRange string
	Options map[string]string
	Labels  map[string]string
}

// =============================================================================
// Client Interface
// =============================================================================

// Client abstracts the Docker Engine operations the reconciler needs.
// Implemented by EngineClient; tests substitute fakes.
type Client interface {
	// Container operations
	CreateContainer(spec ContainerSpec) (containerID string, err error)
	StartContainer(containerID string) error
	StopContainer(containerID string, timeout *time.Duration) error
	RemoveContainer(containerID string, force bool) error

	// InspectContainer resolves a container by name or ID. A missing
	// container returns an error wrapping ErrContainerNotFound.
	InspectContainer(nameOrID string) (*ContainerState, error)

	// Network operations
	CreateNetwork(spec NetworkSpec) (networkID string, err error)
	NetworkExists(name string) (bool, error)

	// Image operations
	PullImage(image string) error
	ImageExists(image string) (bool, error)

	// Health operations
	ServerVersion() (string, error)
	Close() error
}

// =============================================================================
// Label Constants
// =============================================================================

const (
	LabelManaged = "com.stevedore.managed"
	LabelApp     = "com.stevedore.app"
	LabelRun     = "com.stevedore.run"
)
