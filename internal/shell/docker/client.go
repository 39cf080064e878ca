package docker

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
)

// =============================================================================
// Engine Client Implementation
// =============================================================================

// EngineClient implements the Client interface using the Docker SDK.
type EngineClient struct {
	cli *client.Client
}

// Options configure how the engine client connects.
type Options struct {
	// Host is the daemon address, e.g. "unix:///var/run/docker.sock" or
	// "tcp://host:2376". Empty uses the environment default.
	Host string

	// TLS client material, required for tcp:// hosts with tlsverify.
	CACertPath     string
	ClientCertPath string
	ClientKeyPath  string
}

// NewEngineClient creates a new Docker Engine client.
func NewEngineClient(opts Options) (*EngineClient, error) {
	clientOpts := []client.Opt{
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	}
	if opts.Host != "" {
		clientOpts = append(clientOpts, client.WithHost(opts.Host))
	}
	if opts.CACertPath != "" {
		clientOpts = append(clientOpts, client.WithTLSClientConfig(opts.CACertPath, opts.ClientCertPath, opts.ClientKeyPath))
	}

	cli, err := client.NewClientWithOpts(clientOpts...)
	if err != nil {
		return nil, NewEngineError("NewEngineClient", "", "", "failed to create client", ErrConnectionFailed)
	}

	// Fail fast on an unreachable daemon, before any pipeline work starts.
	ec := &EngineClient{cli: cli}
	if err := ec.Ping(); err != nil {
		cli.Close()
		return nil, err
	}
	return ec, nil
}

// Ping checks if the Docker daemon is reachable.
func (d *EngineClient) Ping() error {
	ctx := context.Background()
	if _, err := d.cli.Ping(ctx); err != nil {
		return NewEngineError("Ping", "", "", fmt.Sprintf("failed to ping docker: %v", err), ErrConnectionFailed)
	}
	return nil
}

// ServerVersion returns the daemon version string.
func (d *EngineClient) ServerVersion() (string, error) {
	ctx := context.Background()
	v, err := d.cli.ServerVersion(ctx)
	if err != nil {
		return "", NewEngineError("ServerVersion", "", "", err.Error(), ErrConnectionFailed)
	}
	return v.Version, nil
}

// Close closes the Docker client connection.
func (d *EngineClient) Close() error {
	return d.cli.Close()
}

// =============================================================================
// Container Operations
// =============================================================================

// CreateContainer creates a new container from the given spec.
func (d *EngineClient) CreateContainer(spec ContainerSpec) (string, error) {
	ctx := context.Background()

	config := &container.Config{
		Image:      spec.Image,
		Cmd:        spec.Command,
		Entrypoint: spec.Entrypoint,
		Labels:     spec.Labels,
	}
	for k, v := range spec.Env {
		config.Env = append(config.Env, fmt.Sprintf("%s=%s", k, v))
	}

	hostConfig := &container.HostConfig{
		Binds:       spec.Binds,
		CapAdd:      spec.CapAdd,
		SecurityOpt: spec.SecurityOpt,
	}

	if len(spec.Ports) > 0 {
		exposedPorts, portBindings, err := nat.ParsePortSpecs(spec.Ports)
		if err != nil {
			return "", NewEngineError("CreateContainer", "container", spec.Name, fmt.Sprintf("invalid port spec: %v", err), err)
		}
		config.ExposedPorts = exposedPorts
		hostConfig.PortBindings = portBindings
	}

	if spec.RestartPolicy != "" {
		hostConfig.RestartPolicy = container.RestartPolicy{
			Name: container.RestartPolicyMode(spec.RestartPolicy),
		}
	}

	if spec.HealthCheck != nil {
		config.Healthcheck = &container.HealthConfig{
			Test:        spec.HealthCheck.Test,
			Interval:    spec.HealthCheck.Interval,
			Timeout:     spec.HealthCheck.Timeout,
			Retries:     spec.HealthCheck.Retries,
			StartPeriod: spec.HealthCheck.StartPeriod,
		}
	}

	var networkConfig *network.NetworkingConfig
	if len(spec.Networks) > 0 {
		networkConfig = &network.NetworkingConfig{
			EndpointsConfig: map[string]*network.EndpointSettings{},
		}
		for _, n := range spec.Networks {
			networkConfig.EndpointsConfig[n] = &network.EndpointSettings{}
		}
	}

	resp, err := d.cli.ContainerCreate(ctx, config, hostConfig, networkConfig, nil, spec.Name)
	if err != nil {
		if strings.Contains(err.Error(), "Conflict") {
			return "", NewEngineError("CreateContainer", "container", spec.Name, "container already exists", ErrContainerAlreadyExists)
		}
		if strings.Contains(err.Error(), "port is already allocated") {
			return "", NewEngineError("CreateContainer", "container", spec.Name, err.Error(), ErrPortAlreadyAllocated)
		}
		return "", NewEngineError("CreateContainer", "container", spec.Name, err.Error(), err)
	}
	return resp.ID, nil
}

// StartContainer starts a stopped container.
func (d *EngineClient) StartContainer(containerID string) error {
	ctx := context.Background()
	err := d.cli.ContainerStart(ctx, containerID, container.StartOptions{})
	if err != nil {
		if client.IsErrNotFound(err) {
			return NewEngineError("StartContainer", "container", containerID, "container not found", ErrContainerNotFound)
		}
		if strings.Contains(err.Error(), "is already running") {
			return NewEngineError("StartContainer", "container", containerID, "container is already running", ErrContainerAlreadyRunning)
		}
		return NewEngineError("StartContainer", "container", containerID, err.Error(), err)
	}
	return nil
}

// StopContainer stops a running container.
func (d *EngineClient) StopContainer(containerID string, timeout *time.Duration) error {
	ctx := context.Background()

	stopOptions := container.StopOptions{}
	if timeout != nil {
		seconds := int(timeout.Seconds())
		stopOptions.Timeout = &seconds
	}

	err := d.cli.ContainerStop(ctx, containerID, stopOptions)
	if err != nil {
		if client.IsErrNotFound(err) {
			return NewEngineError("StopContainer", "container", containerID, "container not found", ErrContainerNotFound)
		}
		if strings.Contains(err.Error(), "is not running") {
			return NewEngineError("StopContainer", "container", containerID, "container is not running", ErrContainerNotRunning)
		}
		return NewEngineError("StopContainer", "container", containerID, err.Error(), err)
	}
	return nil
}

// RemoveContainer removes a container.
func (d *EngineClient) RemoveContainer(containerID string, force bool) error {
	ctx := context.Background()

	err := d.cli.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: force})
	if err != nil {
		if client.IsErrNotFound(err) {
			return NewEngineError("RemoveContainer", "container", containerID, "container not found", ErrContainerNotFound)
		}
		return NewEngineError("RemoveContainer", "container", containerID, err.Error(), err)
	}
	return nil
}

// InspectContainer resolves a container by name or ID into the reduced
// state the reconciler compares against.
func (d *EngineClient) InspectContainer(nameOrID string) (*ContainerState, error) {
	ctx := context.Background()

	resp, err := d.cli.ContainerInspect(ctx, nameOrID)
	if err != nil {
		if client.IsErrNotFound(err) {
			return nil, NewEngineError("InspectContainer", "container", nameOrID, "container not found", ErrContainerNotFound)
		}
		return nil, NewEngineError("InspectContainer", "container", nameOrID, err.Error(), err)
	}

	state := &ContainerState{
		ID:         resp.ID,
		Name:       strings.TrimPrefix(resp.Name, "/"),
		Image:      resp.Config.Image,
		Binds:      resp.HostConfig.Binds,
		Env:        resp.Config.Env,
		Command:    []string(resp.Config.Cmd),
		Entrypoint: []string(resp.Config.Entrypoint),
		Labels:     resp.Config.Labels,
	}
	if resp.State != nil {
		state.Running = resp.State.Running
		state.Status = resp.State.Status
	}
	state.RestartPolicy = string(resp.HostConfig.RestartPolicy.Name)
	if resp.NetworkSettings != nil {
		for name := range resp.NetworkSettings.Networks {
			state.Networks = append(state.Networks, name)
		}
	}
	return state, nil
}

// =============================================================================
// Network Operations
// =============================================================================

// CreateNetwork creates a new Docker network.
func (d *EngineClient) CreateNetwork(spec NetworkSpec) (string, error) {
	ctx := context.Background()

	driver := spec.Driver
	if driver == "" {
		driver = "bridge"
	}

	createOpts := network.CreateOptions{
		Driver:  driver,
		Options: spec.Options,
		Labels:  spec.Labels,
	}
	if spec.Subnet != "" || spec.Gateway != "" || spec.IPRange != "" {
		createOpts.IPAM = &network.IPAM{
			Config: []network.IPAMConfig{{
				Subnet:  spec.Subnet,
				Gateway: spec.Gateway,
				IPRange: spec.IPRange,
			}},
		}
	}

	resp, err := d.cli.NetworkCreate(ctx, spec.Name, createOpts)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return "", NewEngineError("CreateNetwork", "network", spec.Name, "network already exists", ErrNetworkAlreadyExists)
		}
		return "", NewEngineError("CreateNetwork", "network", spec.Name, err.Error(), err)
	}
	return resp.ID, nil
}

// NetworkExists reports whether a network with exactly the given name exists.
func (d *EngineClient) NetworkExists(name string) (bool, error) {
	ctx := context.Background()

	f := filters.NewArgs()
	f.Add("name", name)
	networks, err := d.cli.NetworkList(ctx, network.ListOptions{Filters: f})
	if err != nil {
		return false, NewEngineError("NetworkExists", "network", name, err.Error(), err)
	}
	// The name filter matches substrings, so compare exactly.
	for _, n := range networks {
		if n.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// =============================================================================
// Image Operations
// =============================================================================

// PullImage pulls an image from the registry.
func (d *EngineClient) PullImage(imageName string) error {
	ctx := context.Background()

	reader, err := d.cli.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "not found") ||
			strings.Contains(errStr, "manifest unknown") ||
			strings.Contains(errStr, "repository does not exist") ||
			strings.Contains(errStr, "pull access denied") {
			return NewEngineError("PullImage", "image", imageName, "image not found", ErrImageNotFound)
		}
		return NewEngineError("PullImage", "image", imageName, err.Error(), ErrImagePullFailed)
	}
	defer reader.Close()

	// Drain the reader to complete the pull
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return NewEngineError("PullImage", "image", imageName, err.Error(), ErrImagePullFailed)
	}
	return nil
}

// ImageExists checks if an image exists locally.
func (d *EngineClient) ImageExists(imageName string) (bool, error) {
	ctx := context.Background()

	_, _, err := d.cli.ImageInspectWithRaw(ctx, imageName)
	if err != nil {
		if client.IsErrNotFound(err) {
			return false, nil
		}
		return false, NewEngineError("ImageExists", "image", imageName, err.Error(), err)
	}
	return true, nil
}
