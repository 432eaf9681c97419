package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/conn-castle/install-unity/internal/messages"
	"github.com/conn-castle/install-unity/internal/scheduler"
)

var executeFunc = execute

// Version, Commit, and BuildDate are overridden at build time.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// exitInterrupted is the exit code after a cancelled run.
const exitInterrupted = 130

func main() {
	runMain(os.Args, os.Stdout, os.Stderr, os.Exit)
}

// SilentExitError reports an exit code without emitting error output.
type SilentExitError struct {
	Code int
}

func (e SilentExitError) Error() string {
	return fmt.Sprintf("exit %d", e.Code)
}

// execute runs the CLI command with the provided args and output writers.
func execute(args []string, stdout io.Writer, stderr io.Writer) error {
	cmd := newRootCmd()
	cmd.Version = versionString()
	cmd.SetVersionTemplate(messages.VersionTemplate)
	if len(args) > 1 {
		cmd.SetArgs(args[1:])
	} else {
		cmd.SetArgs([]string{})
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.Execute()
}

// runMain executes the CLI and maps errors to exit codes.
func runMain(args []string, stdout io.Writer, stderr io.Writer, exit func(int)) {
	err := executeFunc(args, stdout, stderr)
	if err == nil {
		return
	}
	code, report := exitCodeFor(err)
	if report != "" {
		_, _ = fmt.Fprintln(stderr, report)
	}
	exit(code)
}

// exitCodeFor returns the process exit code for err and the line to print, if any.
func exitCodeFor(err error) (int, string) {
	var silent *SilentExitError
	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &silent):
		return silent.Code, ""
	case errors.Is(err, scheduler.ErrCancelled):
		return exitInterrupted, messages.InterruptedExit
	case errors.As(err, &exitErr):
		if code := exitErr.ExitCode(); code > 0 {
			return code, err.Error()
		}
	}
	return 1, err.Error()
}

// versionString formats Version with optional commit and build date metadata.
func versionString() string {
	meta := []string{}
	if Commit != "" && Commit != "unknown" {
		meta = append(meta, fmt.Sprintf(messages.VersionCommitFmt, Commit))
	}
	if BuildDate != "" && BuildDate != "unknown" {
		meta = append(meta, fmt.Sprintf(messages.VersionBuildFmt, BuildDate))
	}
	if len(meta) == 0 {
		return Version
	}
	return fmt.Sprintf(messages.VersionFullFmt, Version, strings.Join(meta, ", "))
}
