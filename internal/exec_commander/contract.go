package exec_commander

// Commander abstracts command execution (exec.Command) so callers can be tested with fakes.
type Commander interface {
	CombinedOutput(name string, args ...string) ([]byte, error)
}
