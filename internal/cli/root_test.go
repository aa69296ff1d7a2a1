package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand is a test helper that runs the CLI with the given args and
// captures both stdout and stderr.
func executeCommand(args ...string) (stdout, stderr string, err error) {
	cmd := NewRootCommand()
	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)
	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)
	err = cmd.Execute()

	return outBuf.String(), errBuf.String(), err
}

func requireExitCode(t *testing.T, err error, code int) {
	t.Helper()

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, code, exitErr.Code)
}

func TestRootCommand_Help(t *testing.T) {
	stdout, _, err := executeCommand("--help")
	require.NoError(t, err)

	for _, sub := range []string{"present", "settings", "manifest", "version", "completion"} {
		assert.Contains(t, stdout, sub, "help should mention %q subcommand", sub)
	}

	for _, flag := range []string{"--config", "--log-level", "--log-format", "--log-file", "--no-color", "--quiet"} {
		assert.Contains(t, stdout, flag, "help should mention %q flag", flag)
	}
}

func TestRootCommand_UnknownFlag(t *testing.T) {
	_, stderr, err := executeCommand("--nonexistent")
	require.Error(t, err)
	requireExitCode(t, err, 2)
	assert.Empty(t, stderr, "cobra should not print errors to stderr (SilenceErrors)")
}

func TestRootCommand_ConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "missing config file",
			args:    []string{"--config", "/nonexistent/path.yaml", "manifest"},
			wantErr: "reading config file",
		},
		{
			name:    "invalid log level",
			args:    []string{"--log-level", "trace", "manifest"},
			wantErr: "invalid log level",
		},
		{
			name:    "invalid log format",
			args:    []string{"--log-format", "xml", "manifest"},
			wantErr: "invalid log format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCommand(tt.args...)
			require.Error(t, err)
			requireExitCode(t, err, 2)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExitError(t *testing.T) {
	err := &ExitError{Code: 1, Err: assert.AnError}
	assert.Contains(t, err.Error(), assert.AnError.Error())
	assert.ErrorIs(t, err, assert.AnError)

	bare := &ExitError{Code: 42}
	assert.Equal(t, "exit code 42", bare.Error())
	assert.Nil(t, bare.Unwrap())
}

func TestManifestCommand(t *testing.T) {
	stdout, _, err := executeCommand("manifest")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"id": "slidesync"`)

	stdout, _, err = executeCommand("manifest", "--check", "9.0.0")
	require.NoError(t, err)
	assert.Contains(t, stdout, "is compatible with host 9.0.0")

	_, _, err = executeCommand("manifest", "--check", "0.1.0")
	assert.ErrorContains(t, err, "requires host version")
}

func TestCompletion(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			stdout, _, err := executeCommand("completion", shell)
			require.NoError(t, err)
			assert.NotEmpty(t, stdout)
		})
	}

	_, _, err := executeCommand("completion", "invalid")
	assert.Error(t, err)

	_, _, err = executeCommand("completion")
	assert.Error(t, err)
}
