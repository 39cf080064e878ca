package deploy

import (
	"fmt"
	"os/exec"
)

// =============================================================================
// Finishing Command Runner
// =============================================================================

// CommandRunner executes the optional finishing hook. Tests substitute
// fakes to observe invocations.
type CommandRunner interface {
	Run(command string) error
}

// ShellRunner runs commands through /bin/sh -c on the local host.
type ShellRunner struct{}

// Run executes the raw shell command and returns combined output on failure.
func (ShellRunner) Run(command string) error {
	out, err := exec.Command("/bin/sh", "-c", command).CombinedOutput()
	if err != nil {
		return fmt.Errorf("finish command %q: %w: %s", command, err, out)
	}
	return nil
}
