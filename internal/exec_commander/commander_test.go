package exec_commander

import (
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExecCommander(t *testing.T) {
	c := NewExecCommander()
	require.NotNil(t, c)
	_, ok := c.(*ExecCommander)
	assert.True(t, ok, "expected *ExecCommander, got %T", c)
}

func TestExecCommander_CombinedOutput(t *testing.T) {
	c := &ExecCommander{}
	out, err := c.CombinedOutput("/bin/sh", "-c", "printf out; printf err 1>&2")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(out), "out") && strings.Contains(string(out), "err"))
}

func TestExecCommander_NonZeroExit(t *testing.T) {
	c := &ExecCommander{}
	_, err := c.CombinedOutput("/bin/sh", "-c", "exit 7")
	require.Error(t, err)
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 7, exitErr.ExitCode())
}

func TestExecCommander_LaunchFailure(t *testing.T) {
	c := &ExecCommander{}
	_, err := c.CombinedOutput("/definitely/not/a/binary")
	assert.Error(t, err)
}
