package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
)

var (
	// Version is filled in by ldflags.
	Version = "0.1.0-dev"
)

// usageError marks bad flags or arguments; main exits with status 2.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

var subcommandFns = map[string]func(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command{}

// NewRootCommand creates the top level command with every registered
// subcommand attached.
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	rc := &cobra.Command{
		Use:   "sparkify",
		Short: "sparkify - build the song-play data lake",
		Long: `Reads the song catalog and the event log as JSON and writes the
songs, artists, users, time and songplays tables as partitioned parquet.

Version: ` + Version + "\n",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rc.SetIn(stdin)
	rc.SetOut(stdout)
	rc.SetErr(stderr)
	rc.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return usageError{err: fmt.Errorf("%w\n%s", err, c.UsageString())}
	})

	names := make([]string, 0, len(subcommandFns))
	for name := range subcommandFns {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rc.AddCommand(subcommandFns[name](stdin, stdout, stderr))
	}
	return rc
}

// noArgs is cobra.NoArgs reported as a usage error.
func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return usageError{err: err}
	}
	return nil
}

func NewVersionCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the version",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(stdout, "sparkify", Version)
			return err
		},
	}
}

func init() {
	subcommandFns["version"] = NewVersionCommand
}
