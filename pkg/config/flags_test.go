package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  FlagSet
	}{
		{
			name:  "empty string",
			input: "",
			want:  FlagSet{},
		},
		{
			name:  "single enabled flag",
			input: "ticketing=enabled",
			want:  FlagSet{"ticketing": true},
		},
		{
			name:  "mixed flags",
			input: "a=enabled;b=disabled",
			want:  FlagSet{"a": true, "b": false},
		},
		{
			name:  "whitespace around pairs",
			input: " a = enabled ; b = disabled ",
			want:  FlagSet{"a": true, "b": false},
		},
		{
			name:  "malformed pair skipped",
			input: "a=enabled;garbage;b=disabled",
			want:  FlagSet{"a": true, "b": false},
		},
		{
			name:  "unknown value means disabled",
			input: "a=on",
			want:  FlagSet{"a": false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFlags(tt.input))
		})
	}
}

func TestMergeFlags_LaterLayerWins(t *testing.T) {
	defaults := FlagSet{"a": false, "b": true}
	env := FlagSet{"a": true}
	local := FlagSet{"b": false}

	merged := MergeFlags(defaults, env, local)

	assert.Equal(t, FlagSet{"a": true, "b": false}, merged)

	// Base must not be modified.
	assert.Equal(t, FlagSet{"a": false, "b": true}, defaults)
}

func TestFormatFlagsHeader_RoundTrip(t *testing.T) {
	flags := FlagSet{
		"workspaces": true,
		"ticketing":  false,
		"compliance": true,
	}

	header := FormatFlagsHeader(flags)
	assert.Equal(t, flags, ParseFlags(header))
}

func TestFormatFlagsHeader_Stable(t *testing.T) {
	flags := FlagSet{"b": true, "a": false}
	assert.Equal(t, "a=disabled;b=enabled", FormatFlagsHeader(flags))
}

func TestFlagResolver_Effective(t *testing.T) {
	dir := t.TempDir()
	overridePath := filepath.Join(dir, "feature-flags")
	require.NoError(t, os.WriteFile(overridePath, []byte("ticketing=disabled"), 0o600))

	r := NewFlagResolver(FlagsConfig{
		EnvFlags:     "initiatives=enabled;ticketing=enabled",
		OverridePath: overridePath,
	})

	effective := r.Effective()

	// Default false, enabled by env.
	assert.True(t, effective[FlagInitiatives])
	// Enabled by env, disabled by the local layer on top.
	assert.False(t, effective[FlagTicketing])
	// Untouched defaults retained.
	assert.True(t, effective[FlagWorkspaces])
	assert.False(t, effective[FlagFoundationThemes])
}

func TestFlagResolver_MissingOverrideFile(t *testing.T) {
	r := NewFlagResolver(FlagsConfig{
		EnvFlags:     "ticketing=disabled",
		OverridePath: filepath.Join(t.TempDir(), "does-not-exist"),
	})

	assert.False(t, r.Enabled(FlagTicketing))
	assert.True(t, r.Enabled(FlagWorkspaces))
}

func TestFlagResolver_Header(t *testing.T) {
	r := NewFlagResolver(FlagsConfig{})
	header := r.Header()
	require.NotEmpty(t, header)

	parsed := ParseFlags(header)
	assert.Equal(t, DefaultFlags(), parsed)
}
