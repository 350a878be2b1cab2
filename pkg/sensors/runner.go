package sensors

import (
	"os/exec"
	"strings"

	"dpu-platform/pkg"
)

// Runner executes external commands
type Runner interface {
	Run(command string, args ...string) ([]byte, error)
}

// RealRunner runs commands on the host
type RealRunner struct{}

func (r RealRunner) Run(command string, args ...string) ([]byte, error) {
	pkg.Debug("Running cmd: '%s %s'", command, strings.Join(args, " "))
	return exec.Command(command, args...).CombinedOutput()
}
