package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	t.Run("version flag", func(t *testing.T) {
		cmd := newRootCmd()
		cmd.SetArgs([]string{"--version"})

		output := &bytes.Buffer{}
		cmd.SetOut(output)

		err := cmd.Execute()
		require.NoError(t, err)

		assert.Contains(t, output.String(), "scribe version")
		assert.Contains(t, output.String(), GetVersion())
	})

	t.Run("help flag", func(t *testing.T) {
		cmd := newRootCmd()
		cmd.SetArgs([]string{"--help"})

		output := &bytes.Buffer{}
		cmd.SetOut(output)

		err := cmd.Execute()
		require.NoError(t, err)

		helpText := output.String()
		assert.Contains(t, helpText, "scribe")
		assert.Contains(t, helpText, "addressed by the hash of their content")
	})

	t.Run("global flags", func(t *testing.T) {
		cmd := newRootCmd()

		for _, name := range []string{"config", "data-dir", "dir", "log-level"} {
			flag := cmd.PersistentFlags().Lookup(name)
			require.NotNil(t, flag, name)
			assert.Equal(t, "", flag.DefValue, name)
		}
	})

	t.Run("subcommands", func(t *testing.T) {
		cmd := newRootCmd()

		for _, name := range []string{
			"tag", "index", "search", "new", "ls", "rm", "drop", "show",
			"sweep", "verify", "stats", "schema", "watch", "shell", "configure",
		} {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err, name)
			assert.Equal(t, name, sub.Name())
		}
	})

	t.Run("unknown command", func(t *testing.T) {
		cmd := newRootCmd()
		cmd.SetArgs([]string{"bogus"})
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})

		err := cmd.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown command")
	})
}

func TestGetRootCmd(t *testing.T) {
	assert.Same(t, rootCmd, GetRootCmd())
}

func TestGetVersion(t *testing.T) {
	version := GetVersion()
	assert.NotEmpty(t, version)
	assert.True(t, strings.HasPrefix(version, "0."))
}
