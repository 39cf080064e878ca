// Package reconcile contains pure functions for deciding how to converge an
// observed container or network onto its desired state. No I/O happens here;
// the imperative shell executes the decisions against the Docker API.
package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/eliminyro/stevedore/internal/core/domain"
)

// =============================================================================
// Observed State
// =============================================================================

// ObservedContainer is the engine's view of a container, as captured by
// inspect. A zero value with Exists=false means no container by that name.
type ObservedContainer struct {
	Exists        bool
	Running       bool
	ID            string
	Image         string // image reference the container was created from
	Command       []string
	Entrypoint    []string
	Env           []string // raw KEY=VALUE entries, engine-injected ones included
	Binds         []string // host:container[:mode] bind strings
	Networks      []string // attached network names
	RestartPolicy string
}

// =============================================================================
// Container Decisions
// =============================================================================

// Action is what the shell must do to converge one container.
type Action string

const (
	// ActionNone means the container matches the desired state and is
	// running; re-running issues zero mutating calls.
	ActionNone Action = "none"

	// ActionStart means the container matches but is stopped.
	ActionStart Action = "start"

	// ActionCreate means no container with the desired name exists.
	ActionCreate Action = "create"

	// ActionRecreate means the existing container differs from the
	// desired state. Engines cannot reconfigure most settings in place,
	// so convergence is stop, remove, create, start.
	ActionRecreate Action = "recreate"
)

// Decision is the outcome of comparing one container.
type Decision struct {
	Action  Action
	Reasons []string // human-readable mismatches, empty unless Recreate
}

// CompareContainer decides how to converge the observed container onto the
// desired App. The comparison covers image reference, command, entrypoint,
// environment, bind mounts, network attachments, and restart policy.
// Engine-injected environment entries and default network attachments on the
// observed side are tolerated: desired values must be present, extras are
// not mismatches.
func CompareContainer(desired domain.App, observed ObservedContainer) Decision {
	if !observed.Exists {
		return Decision{Action: ActionCreate}
	}

	var reasons []string

	if desired.Ref() != observed.Image {
		reasons = append(reasons, fmt.Sprintf("image %q != %q", observed.Image, desired.Ref()))
	}
	if len(desired.Command) > 0 && !equalSlices(desired.Command, observed.Command) {
		reasons = append(reasons, "command differs")
	}
	if len(desired.Entrypoint) > 0 && !equalSlices(desired.Entrypoint, observed.Entrypoint) {
		reasons = append(reasons, "entrypoint differs")
	}
	if missing := missingEnv(desired.Env, observed.Env); len(missing) > 0 {
		reasons = append(reasons, fmt.Sprintf("env missing or changed: %s", strings.Join(missing, ", ")))
	}
	if missing := missingBinds(desired.Volumes, observed.Binds); len(missing) > 0 {
		reasons = append(reasons, fmt.Sprintf("binds missing: %s", strings.Join(missing, ", ")))
	}
	if missing := missingStrings(desired.Networks, observed.Networks); len(missing) > 0 {
		reasons = append(reasons, fmt.Sprintf("networks missing: %s", strings.Join(missing, ", ")))
	}
	if normalizePolicy(desired.RestartPolicy) != normalizePolicy(observed.RestartPolicy) {
		reasons = append(reasons, fmt.Sprintf("restart policy %q != %q", observed.RestartPolicy, desired.RestartPolicy))
	}

	if len(reasons) > 0 {
		return Decision{Action: ActionRecreate, Reasons: reasons}
	}
	if !observed.Running {
		return Decision{Action: ActionStart}
	}
	return Decision{Action: ActionNone}
}

// =============================================================================
// Network Decisions
// =============================================================================

// NetworkAction is what the shell must do to converge one network.
type NetworkAction string

const (
	NetworkSkip   NetworkAction = "skip"
	NetworkCreate NetworkAction = "create"
)

// CompareNetwork decides whether a network must be created. A network that
// already exists under the desired name is skipped unconditionally: IPAM and
// driver options are not diffed against the live network. Known limitation.
func CompareNetwork(desired domain.Network, exists bool) NetworkAction {
	if exists {
		return NetworkSkip
	}
	return NetworkCreate
}

// =============================================================================
// Comparison Helpers
// =============================================================================

func equalSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// missingEnv returns desired keys whose KEY=VALUE entry is absent from the
// observed environment. Sorted for stable log output.
func missingEnv(desired map[string]string, observed []string) []string {
	if len(desired) == 0 {
		return nil
	}
	have := make(map[string]struct{}, len(observed))
	for _, e := range observed {
		have[e] = struct{}{}
	}
	var missing []string
	for k, v := range desired {
		if _, ok := have[fmt.Sprintf("%s=%s", k, v)]; !ok {
			missing = append(missing, k)
		}
	}
	sort.Strings(missing)
	return missing
}

// missingBinds returns desired volume mappings without a matching observed
// bind. Access modes are normalized so "a:b" matches "a:b:rw".
func missingBinds(desired, observed []string) []string {
	have := make(map[string]struct{}, len(observed))
	for _, b := range observed {
		have[normalizeBind(b)] = struct{}{}
	}
	var missing []string
	for _, d := range desired {
		if _, ok := have[normalizeBind(d)]; !ok {
			missing = append(missing, d)
		}
	}
	return missing
}

func normalizeBind(bind string) string {
	return strings.TrimSuffix(bind, ":rw")
}

func missingStrings(desired, observed []string) []string {
	have := make(map[string]struct{}, len(observed))
	for _, s := range observed {
		have[s] = struct{}{}
	}
	var missing []string
	for _, d := range desired {
		if _, ok := have[d]; !ok {
			missing = append(missing, d)
		}
	}
	return missing
}

func normalizePolicy(policy string) string {
	if policy == "" {
		return "no"
	}
	return policy
}
