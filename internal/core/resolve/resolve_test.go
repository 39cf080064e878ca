package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliminyro/stevedore/internal/core/domain"
)

// =============================================================================
// AppVars Tests
// =============================================================================

func TestAppVars_MinimalWithDefaults(t *testing.T) {
	ns := map[string]any{"web_image": "nginx"}

	app, err := AppVars("web", ns)
	require.NoError(t, err)

	assert.Equal(t, "web", app.Name)
	assert.Equal(t, "nginx", app.Image)
	assert.Equal(t, "latest", app.Tag)
	assert.Equal(t, "unless-stopped", app.RestartPolicy)
	assert.Equal(t, "nginx:latest", app.Ref())
	assert.Empty(t, app.Volumes)
	assert.Empty(t, app.Env)
	assert.False(t, app.RunDependencies)
}

func TestAppVars_AllFields(t *testing.T) {
	ns := map[string]any{
		"web_image":            "nginx",
		"web_image_tag":        "1.27",
		"web_command":          []any{"nginx", "-g", "daemon off;"},
		"web_entrypoint":       []any{"/docker-entrypoint.sh"},
		"web_networks":         []any{"frontend"},
		"web_volumes":          []any{"/srv/web/data:/usr/share/nginx/html"},
		"web_env":              map[string]any{"TZ": "UTC"},
		"web_ports":            []any{"8080:80"},
		"web_restart_policy":   "always",
		"web_cap_add":          []any{"NET_ADMIN"},
		"web_security_opt":     []any{"no-new-privileges:true"},
		"web_labels":           map[string]any{"team": "platform"},
		"web_finish":           "systemctl reload nginx-exporter",
		"web_run_dependencies": true,
		"web_healthcheck": map[string]any{
			"test":     []any{"CMD", "curl", "-f", "http://localhost"},
			"interval": "10s",
			"retries":  3,
		},
	}

	app, err := AppVars("web", ns)
	require.NoError(t, err)

	assert.Equal(t, "nginx:1.27", app.Ref())
	assert.Equal(t, []string{"nginx", "-g", "daemon off;"}, app.Command)
	assert.Equal(t, []string{"/docker-entrypoint.sh"}, app.Entrypoint)
	assert.Equal(t, []string{"frontend"}, app.Networks)
	assert.Equal(t, []string{"/srv/web/data:/usr/share/nginx/html"}, app.Volumes)
	assert.Equal(t, map[string]string{"TZ": "UTC"}, app.Env)
	assert.Equal(t, []string{"8080:80"}, app.Ports)
	assert.Equal(t, "always", app.RestartPolicy)
	assert.Equal(t, []string{"NET_ADMIN"}, app.CapAdd)
	assert.Equal(t, map[string]string{"team": "platform"}, app.Labels)
	assert.Equal(t, "systemctl reload nginx-exporter", app.FinishCommand)
	assert.True(t, app.RunDependencies)
	require.NotNil(t, app.Healthcheck)
	assert.Equal(t, []string{"CMD", "curl", "-f", "http://localhost"}, app.Healthcheck.Test)
	assert.Equal(t, "10s", app.Healthcheck.Interval)
	assert.Equal(t, 3, app.Healthcheck.Retries)
}

func TestAppVars_MissingImage(t *testing.T) {
	ns := map[string]any{"web_image_tag": "1.27"}

	_, err := AppVars("web", ns)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingImage)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "web", cfgErr.App)
	assert.Equal(t, "web_image", cfgErr.Key)
}

func TestAppVars_EmptyNamespace(t *testing.T) {
	_, err := AppVars("web", nil)
	assert.ErrorIs(t, err, ErrEmptyNamespace)
}

// Resolution is keyed on the exact prefix: another app's variables must
// never leak in, even when one prefix is a prefix of the other.
func TestAppVars_ExactPrefixOnly(t *testing.T) {
	ns := map[string]any{
		"web_image":        "nginx",
		"webapp_image":     "httpd",
		"webapp_image_tag": "2.4",
	}

	app, err := AppVars("web", ns)
	require.NoError(t, err)
	assert.Equal(t, "nginx:latest", app.Ref())

	other, err := AppVars("webapp", ns)
	require.NoError(t, err)
	assert.Equal(t, "httpd:2.4", other.Ref())
}

func TestAppVars_ScalarAsSingletonList(t *testing.T) {
	ns := map[string]any{
		"web_image":   "nginx",
		"web_volumes": "/srv/web:/data",
	}

	app, err := AppVars("web", ns)
	require.NoError(t, err)
	assert.Equal(t, []string{"/srv/web:/data"}, app.Volumes)
}

func TestAppVars_WrongFieldType(t *testing.T) {
	ns := map[string]any{
		"web_image": "nginx",
		"web_env":   []any{"not", "a", "map"},
	}

	_, err := AppVars("web", ns)
	assert.ErrorIs(t, err, ErrBadFieldType)
}

// =============================================================================
// Dependency Tests
// =============================================================================

func TestAppVars_Dependencies(t *testing.T) {
	ns := map[string]any{
		"testapp_image":            "nginx",
		"testapp_run_dependencies": true,
		"testapp_dependencies": []any{
			map[string]any{
				"name":  "redis",
				"image": "redis",
				"ports": []any{"6379:6379"},
			},
			map[string]any{
				"name":      "postgres",
				"image":     "postgres",
				"image_tag": "16",
				"env":       map[string]any{"POSTGRES_PASSWORD": "secret"},
				"alt_app":   "shared-db",
			},
		},
	}

	app, err := AppVars("testapp", ns)
	require.NoError(t, err)
	require.Len(t, app.Dependencies, 2)

	redis := app.Dependencies[0]
	assert.Equal(t, "redis", redis.Name)
	assert.Equal(t, "redis:latest", redis.Ref())
	assert.Equal(t, "redis", redis.SourceName())

	pg := app.Dependencies[1]
	assert.Equal(t, "postgres:16", pg.Ref())
	assert.Equal(t, map[string]string{"POSTGRES_PASSWORD": "secret"}, pg.Env)
	// alt_app redirects config/template source lookup only.
	assert.Equal(t, "shared-db", pg.SourceName())
	assert.Equal(t, "postgres", pg.Name)
}

func TestAppVars_DependencyMissingImage(t *testing.T) {
	ns := map[string]any{
		"testapp_image": "nginx",
		"testapp_dependencies": []any{
			map[string]any{"name": "redis"},
		},
	}

	_, err := AppVars("testapp", ns)
	assert.ErrorIs(t, err, ErrBadDependency)
}

func TestAppVars_DependencyNotAMapping(t *testing.T) {
	ns := map[string]any{
		"testapp_image":        "nginx",
		"testapp_dependencies": []any{"redis"},
	}

	_, err := AppVars("testapp", ns)
	assert.ErrorIs(t, err, ErrBadDependency)
}

// =============================================================================
// Artifact Tests
// =============================================================================

func TestAppVars_Artifacts(t *testing.T) {
	ns := map[string]any{
		"web_image": "nginx",
		"web_configs": []any{
			map[string]any{
				"name": "nginx.conf",
				"dest": "/etc/web/nginx.conf",
				"mode": "0644",
				"kind": "template",
			},
			map[string]any{
				"name":  "mime.types",
				"dest":  "/etc/web/mime.types",
				"owner": "deploy",
			},
		},
	}

	app, err := AppVars("web", ns)
	require.NoError(t, err)
	require.Len(t, app.Artifacts, 2)

	assert.Equal(t, domain.ArtifactTemplate, app.Artifacts[0].Kind)
	assert.Equal(t, "/etc/web/nginx.conf", app.Artifacts[0].Destination)
	// Kind defaults to static.
	assert.Equal(t, domain.ArtifactStatic, app.Artifacts[1].Kind)
	assert.Equal(t, "deploy", app.Artifacts[1].Owner)
}

func TestAppVars_ArtifactMissingDest(t *testing.T) {
	ns := map[string]any{
		"web_image": "nginx",
		"web_configs": []any{
			map[string]any{"name": "nginx.conf"},
		},
	}

	_, err := AppVars("web", ns)
	assert.ErrorIs(t, err, ErrBadFieldType)
}

// =============================================================================
// Namespace Tests
// =============================================================================

func TestParseNamespace(t *testing.T) {
	ns, err := ParseNamespace([]byte("web_image: nginx\nweb_ports:\n  - \"8080:80\"\n"))
	require.NoError(t, err)

	app, err := AppVars("web", ns)
	require.NoError(t, err)
	assert.Equal(t, []string{"8080:80"}, app.Ports)
}

func TestNamespace_Merge(t *testing.T) {
	base := Namespace{"web_image": "nginx", "web_image_tag": "1.26"}
	override := Namespace{"web_image_tag": "1.27"}

	merged := base.Merge(override)
	assert.Equal(t, "nginx", merged["web_image"])
	assert.Equal(t, "1.27", merged["web_image_tag"])
	// Originals untouched.
	assert.Equal(t, "1.26", base["web_image_tag"])
}
