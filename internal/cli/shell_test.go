package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runShellScript(t *testing.T, script string) (*session, string) {
	t.Helper()
	s, out := newTestSession(t)
	err := newShell(s, strings.NewReader(script)).run(context.Background())
	require.NoError(t, err)
	return s, out.String()
}

func TestShellNewAndLookup(t *testing.T) {
	script := strings.Join([]string{
		"new",
		"go notes",
		"hello world",
		"",
		"",
		"tag",
		"notes missing",
		"index hello",
		"search",
		"HELLO world",
		"quit",
		"ls",
	}, "\n") + "\n"

	s, out := runShellScript(t, script)

	want := shellPrompt + "tags =>\ncontent =>\n" + helloHash + "\n" +
		shellPrompt + "tags =>\n" + "go fish\n" + block("hello world") +
		shellPrompt + block(helloHash) +
		shellPrompt + "terms =>\n" + block("hello world") +
		shellPrompt
	assert.Equal(t, want, out)
	assert.Equal(t, []string{"go", "notes"}, s.app.Store.Tags())
}

func TestShellMultilineContent(t *testing.T) {
	script := "new\ngo\nfirst line\n\nsecond line\n\n\n"
	s, _ := runShellScript(t, script)

	hashes := s.app.Store.Hashes()
	require.Len(t, hashes, 1)
	r, ok := s.app.Store.Get(hashes[0])
	require.True(t, ok)
	assert.Equal(t, "first line\n\nsecond line", r.Content())
}

func TestShellContentEndsAtEOF(t *testing.T) {
	s, out := runShellScript(t, "new\ngo\n  hello world  ")

	assert.Equal(t, []string{helloHash}, s.app.Store.Hashes())
	assert.True(t, strings.HasSuffix(out, helloHash+"\n"+shellPrompt+"\n"))
}

func TestShellErrors(t *testing.T) {
	script := strings.Join([]string{
		"bogus",
		"rm",
		"show 2a",
		"rm nothing",
		"",
		"exit",
	}, "\n") + "\n"

	_, out := runShellScript(t, script)

	want := shellPrompt + "Error: unknown command \"bogus\", type \"help\" for the list\n" +
		shellPrompt + "Error: usage: rm <tag>\n" +
		shellPrompt + "Error: " + errHashPrefixTooShort.Error() + "\n" +
		shellPrompt + "go fish\n" +
		shellPrompt + shellPrompt
	assert.Equal(t, want, out)
}

func TestShellHelp(t *testing.T) {
	_, out := runShellScript(t, "help\n")

	for _, c := range shellCommands {
		assert.Contains(t, out, c.help)
	}
	assert.Contains(t, out, "quit")
}

func TestShellSweepAndStats(t *testing.T) {
	script := "new\n\nloose note\n\n\nsweep\nstats\n"
	s, out := runShellScript(t, script)

	assert.Contains(t, out, "swept 1 untagged resources\n")
	assert.Contains(t, out, "resources: 0\n")
	assert.Empty(t, s.app.Store.Hashes())
}

func TestShellCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "new\ngo\nhello world\n\n\nquit\n", "shell")
	require.NoError(t, err)
	assert.Contains(t, out, helloHash)

	out = env.mustRun(t, "tag", "go")
	assert.Equal(t, block("hello world"), out)
}
