package cli

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLogin_MissingCredentials(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no flags", []string{}},
		{"email only", []string{"-email", "dev@example.com"}},
		{"password only", []string{"-password", "secret"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runLogin(tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "email and password are required")
		})
	}
}

func TestListingCommands_RequireSpace(t *testing.T) {
	runs := map[string]func([]string) error{
		"vulns":      runVulns,
		"advisories": runAdvisories,
		"assets":     runAssets,
	}

	for name, run := range runs {
		t.Run(name, func(t *testing.T) {
			err := run([]string{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "space is required")
		})
	}
}

func TestRunExceptions_Validation(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			"no space",
			[]string{"-create", "-finding", "x", "-justification", "y"},
			"space is required",
		},
		{
			"both create and delete",
			[]string{"-space", "s", "-create", "-delete", "e1"},
			"only one of -create or -delete",
		},
		{
			"create without finding",
			[]string{"-space", "s", "-create", "-justification", "y"},
			"finding is required",
		},
		{
			"create without justification",
			[]string{"-space", "s", "-create", "-finding", "x"},
			"justification is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runExceptions(tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRunFlags_PrintsEffectiveSet(t *testing.T) {
	t.Setenv("CONSOLE_FEATURE_FLAGS", "ticketing=disabled;experimental=enabled")
	t.Setenv("CONSOLE_FEATURE_FLAGS_FILE", "/nonexistent/feature-flags")

	// Capture stdout
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := runFlags([]string{})

	// Restore stdout
	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	io.Copy(&buf, r)
	output := buf.String()

	require.NoError(t, err)
	assert.Contains(t, output, "workspaces")
	assert.Regexp(t, `ticketing\s+disabled`, output)
	assert.Regexp(t, `experimental\s+enabled`, output)
}
