package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

const (
	shellPrompt = "> "
	// contentBlankLines is how many consecutive blank lines end multi-line content
	contentBlankLines = 2
)

var errQuit = errors.New("quit")

// shellCommand is one command of the interactive shell
type shellCommand struct {
	name  string
	usage string
	help  string
	nargs int
	run   func(ctx context.Context, sh *shell, args []string) error
}

var shellCommands = []shellCommand{
	{name: "tag", help: "Tag lookup", run: func(ctx context.Context, sh *shell, _ []string) error {
		line, err := sh.prompt("tags")
		if err != nil {
			return err
		}
		sh.s.lookupTags(strings.Fields(line))
		return nil
	}},
	{name: "index", usage: "<word>", help: "Index lookup", nargs: 1, run: func(ctx context.Context, sh *shell, args []string) error {
		sh.s.index(args[0])
		return nil
	}},
	{name: "search", help: "Search", run: func(ctx context.Context, sh *shell, _ []string) error {
		line, err := sh.prompt("terms")
		if err != nil {
			return err
		}
		sh.s.search(strings.Fields(line))
		return nil
	}},
	{name: "new", help: "New resource", run: func(ctx context.Context, sh *shell, _ []string) error {
		line, err := sh.prompt("tags")
		if err != nil {
			return err
		}
		content, err := sh.longPrompt("content", contentBlankLines)
		if err != nil {
			return err
		}
		r, err := sh.s.add(ctx, strings.Fields(line), content)
		if err != nil {
			return err
		}
		sh.s.out.println(r.Hash())
		return nil
	}},
	{name: "ls", help: "List tags", run: func(ctx context.Context, sh *shell, _ []string) error {
		return sh.s.list("")
	}},
	{name: "rm", usage: "<tag>", help: "Remove tag", nargs: 1, run: func(ctx context.Context, sh *shell, args []string) error {
		return sh.s.removeTag(ctx, args[0])
	}},
	{name: "drop", usage: "<hash>", help: "Remove resource", nargs: 1, run: func(ctx context.Context, sh *shell, args []string) error {
		return sh.s.drop(ctx, args[0])
	}},
	{name: "show", usage: "<hash>", help: "Show resource", nargs: 1, run: func(ctx context.Context, sh *shell, args []string) error {
		return sh.s.show(args[0])
	}},
	{name: "sweep", help: "Remove untagged resources", run: func(ctx context.Context, sh *shell, _ []string) error {
		return sh.s.sweep(ctx)
	}},
	{name: "verify", help: "Check consistency", run: func(ctx context.Context, sh *shell, _ []string) error {
		return sh.s.verify(ctx)
	}},
	{name: "stats", help: "Store counts and metrics", run: func(ctx context.Context, sh *shell, _ []string) error {
		return sh.s.stats()
	}},
}

// shell is a line-oriented prompt loop over a session
type shell struct {
	s      *session
	reader *bufio.Reader
}

func newShell(s *session, in io.Reader) *shell {
	return &shell{s: s, reader: bufio.NewReader(in)}
}

func newShellCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive prompt",
		Long: `Start an interactive prompt over the store.
Type "help" for the command list and "quit" to leave.
Content for "new" ends with two consecutive blank lines.`,
		Args: cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, args []string) error {
			s, err := sessionFor(cmd)
			if err != nil {
				return err
			}
			return newShell(s, cmd.InOrStdin()).run(cmd.Context())
		}),
	}
}

// run reads commands until quit or end of input.
// Command errors are printed and the loop continues.
func (sh *shell) run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		sh.s.out.printf("%s", shellPrompt)

		line, err := sh.readLine()
		if errors.Is(err, io.EOF) {
			sh.s.out.println()
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read command: %w", err)
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		err = sh.exec(ctx, fields[0], fields[1:])
		switch {
		case errors.Is(err, errQuit), errors.Is(err, io.EOF):
			return nil
		case err != nil:
			sh.s.out.printf("Error: %v\n", err)
		}
	}
}

func (sh *shell) exec(ctx context.Context, name string, args []string) error {
	switch name {
	case "quit", "exit":
		return errQuit
	case "help":
		sh.help()
		return nil
	}

	for _, c := range shellCommands {
		if c.name != name {
			continue
		}
		if len(args) != c.nargs {
			return fmt.Errorf("usage: %s %s", c.name, c.usage)
		}
		return c.run(ctx, sh, args)
	}
	return fmt.Errorf("unknown command %q, type \"help\" for the list", name)
}

func (sh *shell) help() {
	for _, c := range shellCommands {
		sh.s.out.printf("  %-24s %s\n", strings.TrimSpace(c.name+" "+c.usage), c.help)
	}
	sh.s.out.printf("  %-24s %s\n", "help", "Print this list")
	sh.s.out.printf("  %-24s %s\n", "quit", "Leave the shell")
}

// prompt asks for a single line
func (sh *shell) prompt(name string) (string, error) {
	sh.s.out.printf("%s =>\n", name)
	line, err := sh.readLine()
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// longPrompt reads lines until blankLines consecutive blank lines.
// End of input counts as a blank line. The result is trimmed.
func (sh *shell) longPrompt(name string, blankLines int) (string, error) {
	sh.s.out.printf("%s =>\n", name)

	var b strings.Builder
	blanks := 0
	for blanks < blankLines {
		line, err := sh.reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		if strings.TrimRight(line, "\r\n") == "" {
			blanks++
		} else {
			blanks = 0
		}
		b.WriteString(line)
		if errors.Is(err, io.EOF) && line == "" && blanks < blankLines {
			// Nothing more will arrive; count the rest as blank.
			blanks = blankLines
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// readLine returns one line without its terminator.
// A final unterminated line is returned without error.
func (sh *shell) readLine() (string, error) {
	line, err := sh.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
