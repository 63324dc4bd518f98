package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/graves/awful-rustdocs/internal/generate"
)

// Version is the awful-rustdocs version. It is a var so builds can override it with -ldflags "-X .../internal/cli.Version=1.2.3".
var Version = "0.3.0"

// In/Out/Err override standard I/O. If nil, defaults are used. Generator, if set, replaces the configured LLM client; tests use it to run the pipeline without a server.
type RunOptions struct {
	In        io.Reader
	Out       io.Writer
	Err       io.Writer
	Generator generate.Generator
}

// Run runs the CLI with args (typically os.Args).
//
// It returns a recommended exit code (0, 1, or 2) and an error, if any:
//   - 0 -> err == nil
//   - 1 -> err != nil, but the structure of args is sound (ex: a file failed to patch, the harvest could not be read).
//   - 2 -> err != nil, args parse error or misuse of flags.
//
// On error, Run has already written a message to opts.Err (or stderr).
func Run(args []string, opts *RunOptions) (int, error) {
	argv := args
	if len(argv) > 0 {
		argv = argv[1:]
	}

	env := &cliEnv{in: os.Stdin, out: os.Stdout, errW: os.Stderr}
	if opts != nil {
		if opts.In != nil {
			env.in = opts.In
		}
		if opts.Out != nil {
			env.out = opts.Out
		}
		if opts.Err != nil {
			env.errW = opts.Err
		}
		env.generator = opts.Generator
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCommand(env)
	root.SetArgs(argv)
	root.SetIn(env.in)
	root.SetOut(env.out)
	root.SetErr(env.errW)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0, nil
	}
	fmt.Fprintf(env.errW, "Error: %v\n", err)
	if isUsageError(err) {
		return 2, err
	}
	return 1, err
}

// usageError marks errors caused by how the command was invoked.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{err: fmt.Errorf(format, args...)}
}

func isUsageError(err error) bool {
	var u usageError
	if errors.As(err, &u) {
		return true
	}
	// cobra reports unknown subcommands from its own arg validation.
	return strings.HasPrefix(err.Error(), "unknown command")
}
