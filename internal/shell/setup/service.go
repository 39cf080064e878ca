package setup

import (
	"fmt"
	"os/exec"
)

// =============================================================================
// Service Manager
// =============================================================================

// ServiceManager reloads and restarts the container daemon after its
// configuration changes. Tests substitute fakes.
type ServiceManager interface {
	RestartDaemon() error
}

// SystemdManager drives the docker unit through systemctl.
type SystemdManager struct{}

// RestartDaemon reloads unit files and restarts the docker service. Both
// the daemon options file and the override fragment require this to take
// effect.
func (SystemdManager) RestartDaemon() error {
	for _, args := range [][]string{
		{"systemctl", "daemon-reload"},
		{"systemctl", "restart", "docker"},
	} {
		out, err := exec.Command(args[0], args[1:]...).CombinedOutput()
		if err != nil {
			return fmt.Errorf("%s: %w: %s", args[0]+" "+args[1], err, out)
		}
	}
	return nil
}
