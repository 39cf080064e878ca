// Package deploy executes the rollout pipeline for one application:
// host paths, config artifacts, dependencies, the main container, and the
// optional finishing command, in that order.
package deploy

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/eliminyro/stevedore/internal/core/domain"
	"github.com/eliminyro/stevedore/internal/core/reconcile"
	"github.com/eliminyro/stevedore/internal/shell/docker"
	"github.com/eliminyro/stevedore/internal/shell/hostfs"
)

// stopTimeout bounds how long a container being replaced may take to stop.
var stopTimeout = 30 * time.Second

// =============================================================================
// Deployer
// =============================================================================

// Deployer converges one application and its dependencies onto their
// declared state. Execution is sequential; an engine failure halts the
// remaining pipeline and leaves already-started dependencies running.
type Deployer struct {
	docker   docker.Client
	paths    *hostfs.Materializer
	renderer *hostfs.Renderer
	runner   CommandRunner
	logger   *slog.Logger
}

// NewDeployer creates a deployer.
func NewDeployer(client docker.Client, paths *hostfs.Materializer, renderer *hostfs.Renderer, runner CommandRunner, logger *slog.Logger) *Deployer {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ShellRunner{}
	}
	return &Deployer{
		docker:   client,
		paths:    paths,
		renderer: renderer,
		runner:   runner,
		logger:   logger,
	}
}

// Deploy runs the full pipeline for app, in strict order: the main
// application's host paths and config artifacts first, then each
// dependency in list order (only when the app requests them; otherwise
// they are not even inspected), then the main container, then the finish
// command. Dependencies sharing a bind with the main application therefore
// start against paths that already exist. Re-running with unchanged
// desired state against a converged host issues zero mutating engine
// calls.
func (d *Deployer) Deploy(app domain.App) error {
	if err := app.Validate(); err != nil {
		return err
	}

	runID := uuid.NewString()
	logger := d.logger.With("app", app.Name, "run_id", runID)
	logger.Info("deploying application", "image", app.Ref(), "dependencies", len(app.Dependencies))

	if err := d.prepare(app); err != nil {
		return err
	}

	if app.RunDependencies {
		for _, dep := range app.Dependencies {
			if err := d.deployOne(dep, runID, logger.With("dependency", dep.Name)); err != nil {
				return fmt.Errorf("dependency %s: %w", dep.Name, err)
			}
		}
	}

	if err := d.reconcileContainer(app, runID, logger); err != nil {
		return err
	}

	if app.FinishCommand != "" {
		logger.Info("running finish command")
		if err := d.runner.Run(app.FinishCommand); err != nil {
			return err
		}
	}

	logger.Info("application deployed")
	return nil
}

// prepare materializes one unit's volume host paths and config artifacts.
func (d *Deployer) prepare(app domain.App) error {
	if err := d.paths.Materialize(app.Volumes); err != nil {
		return err
	}

	for _, artifact := range app.Artifacts {
		if err := d.renderer.MaterializeArtifact(app.SourceName(), artifact, app.Env); err != nil {
			return err
		}
	}
	return nil
}

// deployOne converges a single dependency unit: volume host paths, config
// artifacts, then the container itself.
func (d *Deployer) deployOne(app domain.App, runID string, logger *slog.Logger) error {
	if err := d.prepare(app); err != nil {
		return err
	}
	return d.reconcileContainer(app, runID, logger)
}

// =============================================================================
// Container Reconciliation
// =============================================================================

// reconcileContainer compares the observed container against the desired
// app and applies the resulting decision. Mismatches always recreate:
// engines do not support in-place reconfiguration of most settings.
func (d *Deployer) reconcileContainer(app domain.App, runID string, logger *slog.Logger) error {
	observed, err := d.observe(app.Name)
	if err != nil {
		return err
	}

	decision := reconcile.CompareContainer(app, observed)
	switch decision.Action {
	case reconcile.ActionNone:
		logger.Info("container already converged", "container", app.Name)
		return nil

	case reconcile.ActionStart:
		logger.Info("starting stopped container", "container", app.Name)
		return d.docker.StartContainer(observed.ID)

	case reconcile.ActionCreate:
		logger.Info("creating container", "container", app.Name, "image", app.Ref())
		return d.createAndStart(app, runID)

	case reconcile.ActionRecreate:
		logger.Info("recreating container",
			"container", app.Name,
			"reasons", decision.Reasons,
		)
		if err := d.docker.StopContainer(observed.ID, &stopTimeout); err != nil {
			if !errors.Is(err, docker.ErrContainerNotRunning) {
				return err
			}
		}
		if err := d.docker.RemoveContainer(observed.ID, false); err != nil {
			return err
		}
		return d.createAndStart(app, runID)

	default:
		return fmt.Errorf("unknown reconcile action %q for %s", decision.Action, app.Name)
	}
}

// observe captures the engine's view of the named container. A missing
// container is a valid observation, not an error.
func (d *Deployer) observe(name string) (reconcile.ObservedContainer, error) {
	state, err := d.docker.InspectContainer(name)
	if err != nil {
		if errors.Is(err, docker.ErrContainerNotFound) {
			return reconcile.ObservedContainer{}, nil
		}
		return reconcile.ObservedContainer{}, err
	}
	return reconcile.ObservedContainer{
		Exists:        true,
		Running:       state.Running,
		ID:            state.ID,
		Image:         state.Image,
		Command:       state.Command,
		Entrypoint:    state.Entrypoint,
		Env:           state.Env,
		Binds:         state.Binds,
		Networks:      state.Networks,
		RestartPolicy: state.RestartPolicy,
	}, nil
}

func (d *Deployer) createAndStart(app domain.App, runID string) error {
	if err := d.ensureImage(app.Ref()); err != nil {
		return err
	}
	id, err := d.docker.CreateContainer(buildContainerSpec(app, runID))
	if err != nil {
		return err
	}
	return d.docker.StartContainer(id)
}

// ensureImage pulls the image only when it is absent locally.
func (d *Deployer) ensureImage(ref string) error {
	exists, err := d.docker.ImageExists(ref)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	d.logger.Info("pulling image", "image", ref)
	return d.docker.PullImage(ref)
}
