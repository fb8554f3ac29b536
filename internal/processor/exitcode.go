package processor

import (
	"errors"
	"os/exec"
	"syscall"
)

// exitStatus maps the error from a finished command to a shell-style
// status: the exit code, or 128+signal when the process was killed by a
// signal. Errors that are not exit statuses (the command could not start)
// are returned as they are.
func exitStatus(runErr error) (int, error) {
	if runErr == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if !errors.As(runErr, &exitErr) {
		return 0, runErr
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal()), nil
	}
	return exitErr.ExitCode(), nil
}
