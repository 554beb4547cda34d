package main

import (
	"log/slog"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/granaflow/grana/internal/common"
)

func TestUserFlagBindingsArePerCommand(t *testing.T) {
	// Every command binds its own viper key; a shared key would keep only
	// the last registered binding and silently drop the others' flags.
	bindings := []struct {
		path     []string
		value    string
		viperKey string
	}{
		{[]string{"classify"}, "joana", "classify.user"},
		{[]string{"import"}, "carlos", "import.user"},
		{[]string{"learn"}, "ana", "learn.user"},
		{[]string{"patterns", "list"}, "bia", "patterns.user"},
	}

	for _, b := range bindings {
		cmd, _, err := rootCmd.Find(b.path)
		require.NoError(t, err)

		flag := cmd.Flags().Lookup("user")
		require.NotNil(t, flag, "%v must define --user", b.path)
		require.NoError(t, cmd.Flags().Set("user", b.value))
	}

	// All four values must be visible at once under their own keys.
	for _, b := range bindings {
		assert.Equal(t, b.value, viper.GetString(b.viperKey),
			"flag for %v lost its binding", b.path)
	}
}

func TestLocationFlagBindingsArePerCommand(t *testing.T) {
	classify, _, err := rootCmd.Find([]string{"classify"})
	require.NoError(t, err)
	require.NoError(t, classify.Flags().Set("location", "SP"))

	importCmd, _, err := rootCmd.Find([]string{"import"})
	require.NoError(t, err)
	require.NoError(t, importCmd.Flags().Set("location", "RJ"))

	assert.Equal(t, "SP", viper.GetString("classify.location"))
	assert.Equal(t, "RJ", viper.GetString("import.location"))
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "info", want: slog.LevelInfo},
		{input: "", want: slog.LevelInfo},
		{input: "WARN", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := parseLogLevel(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, level)
		})
	}
}
