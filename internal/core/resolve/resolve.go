package resolve

import (
	"fmt"

	"github.com/spf13/cast"

	"github.com/eliminyro/stevedore/internal/core/domain"
)

// =============================================================================
// Variable Suffixes
// =============================================================================

// Suffixes recognized under an application prefix. "{app}_{suffix}" is the
// only lookup form; there is no partial or fuzzy matching.
const (
	keyImage           = "image"
	keyImageTag        = "image_tag"
	keyCommand         = "command"
	keyEntrypoint      = "entrypoint"
	keyNetworks        = "networks"
	keyVolumes         = "volumes"
	keyEnv             = "env"
	keyPorts           = "ports"
	keyHealthcheck     = "healthcheck"
	keyRestartPolicy   = "restart_policy"
	keyCapAdd          = "cap_add"
	keySecurityOpt     = "security_opt"
	keyLabels          = "labels"
	keyConfigs         = "configs"
	keyDependencies    = "dependencies"
	keyRunDependencies = "run_dependencies"
	keyFinish          = "finish"
)

// =============================================================================
// Application Resolution
// =============================================================================

// AppVars resolves every "{prefix}_{suffix}" key from the namespace into a
// normalized App with defaults applied. Absent optional keys become zero
// values, which downstream consumers treat as "omit this field". A missing
// image is a ConfigError.
func AppVars(prefix string, ns map[string]any) (domain.App, error) {
	if len(ns) == 0 {
		return domain.App{}, NewConfigError(prefix, "", "no configuration provided", ErrEmptyNamespace)
	}

	app := domain.App{Name: prefix}

	image, err := stringAt(ns, prefix, keyImage)
	if err != nil {
		return domain.App{}, err
	}
	if image == "" {
		return domain.App{}, NewConfigError(prefix, lookupKey(prefix, keyImage), "required variable is unset", ErrMissingImage)
	}
	app.Image = image

	if app.Tag, err = stringAtDefault(ns, prefix, keyImageTag, domain.DefaultTag); err != nil {
		return domain.App{}, err
	}
	if app.RestartPolicy, err = stringAtDefault(ns, prefix, keyRestartPolicy, domain.DefaultRestartPolicy); err != nil {
		return domain.App{}, err
	}
	if app.Command, err = stringSliceAt(ns, prefix, keyCommand); err != nil {
		return domain.App{}, err
	}
	if app.Entrypoint, err = stringSliceAt(ns, prefix, keyEntrypoint); err != nil {
		return domain.App{}, err
	}
	if app.Networks, err = stringSliceAt(ns, prefix, keyNetworks); err != nil {
		return domain.App{}, err
	}
	if app.Volumes, err = stringSliceAt(ns, prefix, keyVolumes); err != nil {
		return domain.App{}, err
	}
	if app.Ports, err = stringSliceAt(ns, prefix, keyPorts); err != nil {
		return domain.App{}, err
	}
	if app.CapAdd, err = stringSliceAt(ns, prefix, keyCapAdd); err != nil {
		return domain.App{}, err
	}
	if app.SecurityOpt, err = stringSliceAt(ns, prefix, keySecurityOpt); err != nil {
		return domain.App{}, err
	}
	if app.Env, err = stringMapAt(ns, prefix, keyEnv); err != nil {
		return domain.App{}, err
	}
	if app.Labels, err = stringMapAt(ns, prefix, keyLabels); err != nil {
		return domain.App{}, err
	}
	if app.FinishCommand, err = stringAt(ns, prefix, keyFinish); err != nil {
		return domain.App{}, err
	}
	if app.RunDependencies, err = boolAt(ns, prefix, keyRunDependencies); err != nil {
		return domain.App{}, err
	}

	if raw, ok := ns[lookupKey(prefix, keyHealthcheck)]; ok && raw != nil {
		hc, err := parseHealthcheck(prefix, raw)
		if err != nil {
			return domain.App{}, err
		}
		app.Healthcheck = hc
	}

	if raw, ok := ns[lookupKey(prefix, keyConfigs)]; ok && raw != nil {
		artifacts, err := parseArtifacts(prefix, raw)
		if err != nil {
			return domain.App{}, err
		}
		app.Artifacts = artifacts
	}

	if raw, ok := ns[lookupKey(prefix, keyDependencies)]; ok && raw != nil {
		deps, err := parseDependencies(prefix, raw)
		if err != nil {
			return domain.App{}, err
		}
		app.Dependencies = deps
	}

	if err := app.Validate(); err != nil {
		return domain.App{}, NewConfigError(prefix, "", err.Error(), err)
	}
	return app, nil
}

// lookupKey builds the exact namespace key for an app field.
func lookupKey(prefix, suffix string) string {
	return fmt.Sprintf("%s_%s", prefix, suffix)
}

// =============================================================================
// Dependency Resolution
// =============================================================================

// parseDependencies resolves the nested dependency list. Dependency entries
// carry their field values directly, without any further prefixing. An
// optional "alt_app" redirects artifact source lookup to another prefix.
func parseDependencies(prefix string, raw any) ([]domain.App, error) {
	items, err := cast.ToSliceE(raw)
	if err != nil {
		return nil, NewConfigError(prefix, lookupKey(prefix, keyDependencies), "expected a list of dependency entries", ErrBadDependency)
	}

	deps := make([]domain.App, 0, len(items))
	for i, item := range items {
		fields, err := cast.ToStringMapE(item)
		if err != nil {
			return nil, NewConfigError(prefix, fmt.Sprintf("%s[%d]", lookupKey(prefix, keyDependencies), i), "dependency entry must be a mapping", ErrBadDependency)
		}
		dep, err := parseDependency(prefix, i, fields)
		if err != nil {
			return nil, err
		}
		deps = append(deps, dep)
	}
	return deps, nil
}

func parseDependency(parent string, index int, fields map[string]any) (domain.App, error) {
	where := fmt.Sprintf("%s_%s[%d]", parent, keyDependencies, index)

	dep := domain.App{
		Name:          cast.ToString(fields["name"]),
		Image:         cast.ToString(fields[keyImage]),
		Tag:           cast.ToString(fields[keyImageTag]),
		RestartPolicy: cast.ToString(fields[keyRestartPolicy]),
		FinishCommand: "", // finishing hooks apply to the main app only
		SourceApp:     cast.ToString(fields["alt_app"]),
	}
	if dep.Tag == "" {
		dep.Tag = domain.DefaultTag
	}
	if dep.RestartPolicy == "" {
		dep.RestartPolicy = domain.DefaultRestartPolicy
	}

	var err error
	if dep.Command, err = sliceField(where, fields, keyCommand); err != nil {
		return domain.App{}, err
	}
	if dep.Entrypoint, err = sliceField(where, fields, keyEntrypoint); err != nil {
		return domain.App{}, err
	}
	if dep.Networks, err = sliceField(where, fields, keyNetworks); err != nil {
		return domain.App{}, err
	}
	if dep.Volumes, err = sliceField(where, fields, keyVolumes); err != nil {
		return domain.App{}, err
	}
	if dep.Ports, err = sliceField(where, fields, keyPorts); err != nil {
		return domain.App{}, err
	}
	if dep.CapAdd, err = sliceField(where, fields, keyCapAdd); err != nil {
		return domain.App{}, err
	}
	if dep.SecurityOpt, err = sliceField(where, fields, keySecurityOpt); err != nil {
		return domain.App{}, err
	}
	if dep.Env, err = mapField(where, fields, keyEnv); err != nil {
		return domain.App{}, err
	}
	if dep.Labels, err = mapField(where, fields, keyLabels); err != nil {
		return domain.App{}, err
	}

	if raw, ok := fields[keyHealthcheck]; ok && raw != nil {
		hc, err := parseHealthcheck(where, raw)
		if err != nil {
			return domain.App{}, err
		}
		dep.Healthcheck = hc
	}
	if raw, ok := fields[keyConfigs]; ok && raw != nil {
		artifacts, err := parseArtifacts(where, raw)
		if err != nil {
			return domain.App{}, err
		}
		dep.Artifacts = artifacts
	}

	if dep.Name == "" || dep.Image == "" {
		return domain.App{}, NewConfigError(parent, where, "dependency needs both name and image", ErrBadDependency)
	}
	return dep, nil
}

// =============================================================================
// Sub-Structure Parsing
// =============================================================================

func parseHealthcheck(app string, raw any) (*domain.Healthcheck, error) {
	fields, err := cast.ToStringMapE(raw)
	if err != nil {
		return nil, NewConfigError(app, lookupKey(app, keyHealthcheck), "healthcheck must be a mapping", ErrBadFieldType)
	}
	test, err := cast.ToStringSliceE(fields["test"])
	if err != nil {
		return nil, NewConfigError(app, lookupKey(app, keyHealthcheck), "healthcheck test must be a list", ErrBadFieldType)
	}
	return &domain.Healthcheck{
		Test:        test,
		Interval:    cast.ToString(fields["interval"]),
		Timeout:     cast.ToString(fields["timeout"]),
		Retries:     cast.ToInt(fields["retries"]),
		StartPeriod: cast.ToString(fields["start_period"]),
	}, nil
}

func parseArtifacts(app string, raw any) ([]domain.ConfigArtifact, error) {
	items, err := cast.ToSliceE(raw)
	if err != nil {
		return nil, NewConfigError(app, lookupKey(app, keyConfigs), "expected a list of config entries", ErrBadFieldType)
	}

	artifacts := make([]domain.ConfigArtifact, 0, len(items))
	for i, item := range items {
		fields, err := cast.ToStringMapE(item)
		if err != nil {
			return nil, NewConfigError(app, fmt.Sprintf("%s[%d]", lookupKey(app, keyConfigs), i), "config entry must be a mapping", ErrBadFieldType)
		}
		artifact := domain.ConfigArtifact{
			Name:        cast.ToString(fields["name"]),
			Destination: cast.ToString(fields["dest"]),
			Owner:       cast.ToString(fields["owner"]),
			Group:       cast.ToString(fields["group"]),
			Mode:        cast.ToString(fields["mode"]),
			Kind:        domain.ArtifactKind(cast.ToString(fields["kind"])),
		}
		if artifact.Kind == "" {
			artifact.Kind = domain.ArtifactStatic
		}
		if artifact.Name == "" || artifact.Destination == "" {
			return nil, NewConfigError(app, fmt.Sprintf("%s[%d]", lookupKey(app, keyConfigs), i), "config entry needs name and dest", ErrBadFieldType)
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, nil
}

// =============================================================================
// Typed Namespace Accessors
// =============================================================================

func stringAt(ns map[string]any, prefix, suffix string) (string, error) {
	return stringAtDefault(ns, prefix, suffix, "")
}

func stringAtDefault(ns map[string]any, prefix, suffix, def string) (string, error) {
	raw, ok := ns[lookupKey(prefix, suffix)]
	if !ok || raw == nil {
		return def, nil
	}
	v, err := cast.ToStringE(raw)
	if err != nil {
		return "", NewConfigError(prefix, lookupKey(prefix, suffix), "expected a string", ErrBadFieldType)
	}
	return v, nil
}

func stringSliceAt(ns map[string]any, prefix, suffix string) ([]string, error) {
	raw, ok := ns[lookupKey(prefix, suffix)]
	if !ok || raw == nil {
		return nil, nil
	}
	// A bare string is accepted as a single-element list.
	if s, ok := raw.(string); ok {
		return []string{s}, nil
	}
	v, err := cast.ToStringSliceE(raw)
	if err != nil {
		return nil, NewConfigError(prefix, lookupKey(prefix, suffix), "expected a list of strings", ErrBadFieldType)
	}
	return v, nil
}

func stringMapAt(ns map[string]any, prefix, suffix string) (map[string]string, error) {
	raw, ok := ns[lookupKey(prefix, suffix)]
	if !ok || raw == nil {
		return nil, nil
	}
	v, err := cast.ToStringMapStringE(raw)
	if err != nil {
		return nil, NewConfigError(prefix, lookupKey(prefix, suffix), "expected a string mapping", ErrBadFieldType)
	}
	return v, nil
}

func boolAt(ns map[string]any, prefix, suffix string) (bool, error) {
	raw, ok := ns[lookupKey(prefix, suffix)]
	if !ok || raw == nil {
		return false, nil
	}
	v, err := cast.ToBoolE(raw)
	if err != nil {
		return false, NewConfigError(prefix, lookupKey(prefix, suffix), "expected a boolean", ErrBadFieldType)
	}
	return v, nil
}

func sliceField(where string, fields map[string]any, key string) ([]string, error) {
	raw, ok := fields[key]
	if !ok || raw == nil {
		return nil, nil
	}
	if s, ok := raw.(string); ok {
		return []string{s}, nil
	}
	v, err := cast.ToStringSliceE(raw)
	if err != nil {
		return nil, NewConfigError(where, key, "expected a list of strings", ErrBadFieldType)
	}
	return v, nil
}

func mapField(where string, fields map[string]any, key string) (map[string]string, error) {
	raw, ok := fields[key]
	if !ok || raw == nil {
		return nil, nil
	}
	v, err := cast.ToStringMapStringE(raw)
	if err != nil {
		return nil, NewConfigError(where, key, "expected a string mapping", ErrBadFieldType)
	}
	return v, nil
}
