package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harun/scribe/pkg/snapshot"
)

// sessionFor returns a session bound to the command's open store and output
func sessionFor(cmd *cobra.Command) (*session, error) {
	app, err := appFromContext(cmd.Context())
	if err != nil {
		return nil, err
	}
	return newSession(app, newPrinter(cmd.OutOrStdout())), nil
}

func newTagCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tag <tag>...",
		Short: "Print resources carrying each tag",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string) error {
			s, err := sessionFor(cmd)
			if err != nil {
				return err
			}
			s.lookupTags(args)
			return nil
		}),
	}
}

func newIndexCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "index <word>",
		Short: "Print hashes of resources containing a word",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string) error {
			s, err := sessionFor(cmd)
			if err != nil {
				return err
			}
			s.index(args[0])
			return nil
		}),
	}
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <term>...",
		Short: "Print resources containing every known term",
		Long: `Print resources containing every known term.
Terms that appear in no resource are ignored.`,
		Args: cobra.MinimumNArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string) error {
			s, err := sessionFor(cmd)
			if err != nil {
				return err
			}
			s.search(args)
			return nil
		}),
	}
}

func newNewCmd(opts *rootOptions) *cobra.Command {
	var tags []string

	cmd := &cobra.Command{
		Use:   "new [content...]",
		Short: "Add a resource",
		Long: `Add a resource with the given tags.
Content is taken from the arguments, or read from stdin when there are none.
A resource without tags is kept in memory only and is not saved.`,
		RunE: withApp(opts, func(cmd *cobra.Command, args []string) error {
			s, err := sessionFor(cmd)
			if err != nil {
				return err
			}

			content := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read content: %w", err)
				}
				content = strings.TrimSpace(string(data))
			}

			r, err := s.add(cmd.Context(), splitTags(tags), content)
			if err != nil {
				return err
			}
			s.out.println(r.Hash())
			return nil
		}),
	}

	cmd.Flags().StringArrayVarP(&tags, "tag", "t", nil, "tag to attach (repeatable, or space separated)")
	return cmd
}

func newLsCmd(opts *rootOptions) *cobra.Command {
	var match string

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List tags",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, args []string) error {
			s, err := sessionFor(cmd)
			if err != nil {
				return err
			}
			return s.list(match)
		}),
	}

	cmd.Flags().StringVar(&match, "match", "", `only list tags matching a glob, e.g. "lang/*"`)
	return cmd
}

func newRmCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <tag>",
		Short: "Remove a tag from every resource",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string) error {
			s, err := sessionFor(cmd)
			if err != nil {
				return err
			}
			return s.removeTag(cmd.Context(), args[0])
		}),
	}
}

func newDropCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <hash>",
		Short: "Remove a resource and its file",
		Long: `Remove a resource and its file.
The hash may be shortened to any unique prefix of at least 4 characters.`,
		Args: cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string) error {
			s, err := sessionFor(cmd)
			if err != nil {
				return err
			}
			return s.drop(cmd.Context(), args[0])
		}),
	}
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <hash>",
		Short: "Print a resource with its tags",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string) error {
			s, err := sessionFor(cmd)
			if err != nil {
				return err
			}
			return s.show(args[0])
		}),
	}
}

func newSweepCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove every resource without tags",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, args []string) error {
			s, err := sessionFor(cmd)
			if err != nil {
				return err
			}
			return s.sweep(cmd.Context())
		}),
	}
}

func newVerifyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the indexes and snapshot files for consistency",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, args []string) error {
			s, err := sessionFor(cmd)
			if err != nil {
				return err
			}
			return s.verify(cmd.Context())
		}),
	}
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print store counts and operation metrics",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, args []string) error {
			s, err := sessionFor(cmd)
			if err != nil {
				return err
			}
			return s.stats()
		}),
	}
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of snapshot files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := snapshot.Schema()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(schema))
			return nil
		},
	}
}

// splitTags accepts both repeated flags and space separated lists
func splitTags(values []string) []string {
	var tags []string
	for _, v := range values {
		tags = append(tags, strings.Fields(v)...)
	}
	return tags
}
