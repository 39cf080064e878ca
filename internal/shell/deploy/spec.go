package deploy

import (
	"time"

	"github.com/eliminyro/stevedore/internal/core/domain"
	"github.com/eliminyro/stevedore/internal/shell/docker"
)

// =============================================================================
// Container Spec Building
// =============================================================================

// buildContainerSpec converts a resolved App into the engine-level create
// spec. Zero-valued optional fields stay unset, which the engine treats as
// omitted.
func buildContainerSpec(app domain.App, runID string) docker.ContainerSpec {
	labels := map[string]string{
		docker.LabelManaged: "true",
		docker.LabelApp:     app.Name,
		docker.LabelRun:     runID,
	}
	for k, v := range app.Labels {
		labels[k] = v
	}

	spec := docker.ContainerSpec{
		Name:          app.Name,
		Image:         app.Ref(),
		Command:       app.Command,
		Entrypoint:    app.Entrypoint,
		Env:           app.Env,
		Labels:        labels,
		Ports:         app.Ports,
		Binds:         app.Volumes,
		Networks:      app.Networks,
		RestartPolicy: app.RestartPolicy,
		CapAdd:        app.CapAdd,
		SecurityOpt:   app.SecurityOpt,
	}

	if hc := app.Healthcheck; hc != nil {
		spec.HealthCheck = &docker.HealthCheck{
			Test:        hc.Test,
			Retries:     hc.Retries,
			Interval:    parseDuration(hc.Interval),
			Timeout:     parseDuration(hc.Timeout),
			StartPeriod: parseDuration(hc.StartPeriod),
		}
	}
	return spec
}

// parseDuration tolerates empty and malformed durations, leaving the
// engine default in place.
func parseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
