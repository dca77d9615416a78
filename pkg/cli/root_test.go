package cli

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureStdout runs fn and returns what it printed.
func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	runErr := fn()

	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String(), runErr
}

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand()

	assert.Equal(t, "console-cli", root.Name)
	assert.Equal(t, "Console - Security Posture CLI", root.Description)
	assert.NotNil(t, root.Subcommands)
	assert.NotNil(t, root.Flags)

	expectedCommands := []string{
		"login",
		"logout",
		"whoami",
		"vulns",
		"advisories",
		"assets",
		"exceptions",
		"flags",
	}

	for _, cmdName := range expectedCommands {
		assert.Contains(t, root.Subcommands, cmdName, "Expected subcommand %s to be registered", cmdName)
		assert.NotNil(t, root.Subcommands[cmdName], "Expected subcommand %s to be non-nil", cmdName)
	}

	assert.Equal(t, len(expectedCommands), len(root.Subcommands))
}

func TestCommandUsage(t *testing.T) {
	root := NewRootCommand()

	output, err := captureStdout(t, root.usage)
	require.NoError(t, err)

	assert.Contains(t, output, "Usage: console-cli <command> [args]")
	assert.Contains(t, output, "Commands:")
	for name := range root.Subcommands {
		assert.Contains(t, output, name)
	}

	// Commands are listed in name order.
	assert.Less(t, bytes.Index([]byte(output), []byte("advisories")),
		bytes.Index([]byte(output), []byte("whoami")))
}

func TestCommandExecute_NoArgs(t *testing.T) {
	root := NewRootCommand()

	output, err := captureStdout(t, func() error {
		return root.Execute(nil)
	})
	require.NoError(t, err)
	assert.Contains(t, output, "Usage: console-cli <command> [args]")
}

func TestCommandExecute_HelpFlag(t *testing.T) {
	root := NewRootCommand()

	for _, helpFlag := range []string{"-h", "--help"} {
		t.Run(helpFlag, func(t *testing.T) {
			output, err := captureStdout(t, func() error {
				return root.Execute([]string{helpFlag})
			})
			require.NoError(t, err)
			assert.Contains(t, output, "Usage: console-cli <command> [args]")
		})
	}
}

func TestCommandExecute_ValidSubcommand(t *testing.T) {
	root := NewRootCommand()

	var receivedArgs []string
	root.Subcommands["test"] = &Command{
		Name:        "test",
		Description: "Test command",
		Run: func(args []string) error {
			receivedArgs = args
			return nil
		},
	}

	require.NoError(t, root.Execute([]string{"test", "arg1", "arg2", "-flag"}))
	require.Equal(t, []string{"arg1", "arg2", "-flag"}, receivedArgs)
}

func TestCommandExecute_UnknownCommand(t *testing.T) {
	root := NewRootCommand()

	err := root.Execute([]string{"nonexistent"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command: nonexistent")
}
