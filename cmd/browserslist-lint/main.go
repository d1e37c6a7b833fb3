package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// ExitError ends the process with Code after its output was already written
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// deps are the process resources the command touches, swapped out in tests.
type deps struct {
	fs     afero.Fs
	dir    string
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
	// logWriter replaces the rotating log file when set.
	logWriter io.Writer
	// settingsPath overrides the XDG settings location when set.
	settingsPath string
}

func newDefaultDeps() *deps {
	return &deps{
		fs:     afero.NewOsFs(),
		dir:    ".",
		stdout: os.Stdout,
		stderr: os.Stderr,
		getenv: os.Getenv,
	}
}

func main() {
	if err := run(os.Args[1:], newDefaultDeps()); err != nil {
		// Output was already written for these
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}

		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, d *deps) error {
	if args == nil {
		args = []string{}
	}

	return createNewRootCommand(d, args).Execute() //nolint:wrapcheck // exit codes and errors pass through to main
}
