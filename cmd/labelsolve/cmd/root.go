// Copyright 2026 The Gradual Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmd implements the labelsolve command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"gradual.dev/go/errors"
	"gradual.dev/go/internal/labeldebug"
)

type runFunction func(cmd *Command, args []string) error

func mkRunE(c *Command, f runFunction) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c.Command = cmd
		if err := c.setupLogging(); err != nil {
			return err
		}
		return f(c, args)
	}
}

// newRootCmd creates the base command when called without any subcommands
func newRootCmd() *Command {
	cmd := &cobra.Command{
		Use:   "labelsolve",
		Short: "labelsolve resolves contract label trees.",
		Long: `labelsolve loads label trees from YAML documents, resolves them
and reports, for every check, whether the obligation was discharged or
which side of the contract boundary is blamed.

Flags named in a document are shared by every node that refers to them,
and keep their state across all checks of that document.

The LABEL_DEBUG environment variable holds a comma-separated list of
debug switches:

	logsolve   log every resolution step (implies --verbose output)
	strict     validate trees before resolving them
`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	c := &Command{Command: cmd, root: cmd}

	subCommands := []*cobra.Command{
		newSolveCmd(c),
		newExportCmd(c),
		newVersionCmd(c),
	}

	addGlobalFlags(cmd.PersistentFlags())

	for _, sub := range subCommands {
		cmd.AddCommand(sub)
	}

	return c
}

// Main runs the labelsolve tool and returns the code for passing to os.Exit.
func Main() int {
	err := mainErr(context.Background(), os.Args[1:])
	if err != nil {
		if err != ErrPrintedError {
			errors.Print(os.Stderr, err)
		}
		return 1
	}
	return 0
}

func mainErr(ctx context.Context, args []string) error {
	if err := labeldebug.Init(); err != nil {
		return err
	}
	cmd, err := New(args)
	if err != nil {
		return err
	}
	return cmd.Run(ctx)
}

// Command is the labelsolve command tree.
type Command struct {
	// The currently active command.
	*cobra.Command

	root *cobra.Command

	hasErr bool
}

type errWriter Command

func (w *errWriter) Write(b []byte) (int, error) {
	c := (*Command)(w)
	c.hasErr = true
	return c.Command.ErrOrStderr().Write(b)
}

// Stderr returns a writer that should be used for error messages.
// Writing to it makes the command exit with a non-zero status.
func (c *Command) Stderr() io.Writer {
	return (*errWriter)(c)
}

func (c *Command) SetOutput(w io.Writer) {
	c.root.SetOut(w)
	c.root.SetErr(w)
}

// ErrPrintedError indicates error messages have been printed to stderr.
var ErrPrintedError = errors.New("terminating because of errors")

// New creates the command tree for the given arguments.
func New(args []string) (*Command, error) {
	cmd := newRootCmd()
	cmd.root.SetArgs(args)
	return cmd, nil
}

// Run executes the command.
func (c *Command) Run(ctx context.Context) error {
	if err := c.root.ExecuteContext(ctx); err != nil {
		return err
	}
	if c.hasErr {
		return ErrPrintedError
	}
	return nil
}

// logger returns the logger for resolution traces, or nil if tracing is off.
func (c *Command) logger() *slog.Logger {
	if flagVerbose.Bool(c) || labeldebug.Flags.LogSolve {
		return slog.Default()
	}
	return nil
}

func (c *Command) setupLogging() error {
	if !flagVerbose.Bool(c) && !labeldebug.Flags.LogSolve {
		return nil
	}
	h := slog.NewTextHandler(c.ErrOrStderr(), &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Drop timestamps so that output is reproducible.
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	})
	slog.SetDefault(slog.New(h))
	return nil
}

func (c *Command) errorf(format string, args ...any) {
	fmt.Fprintf(c.Stderr(), format+"\n", args...)
}
