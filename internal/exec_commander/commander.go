package exec_commander

import "os/exec"

type ExecCommander struct{}

func NewExecCommander() Commander {
	return &ExecCommander{}
}

// CombinedOutput runs the command to completion; there is no timeout and no cancellation.
func (r *ExecCommander) CombinedOutput(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).CombinedOutput()
}
