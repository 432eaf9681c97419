// Package testutil holds helpers shared by package tests: executable shell stubs
// standing in for external tools, and fixture files.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// WriteStub writes an executable shell stub that exits successfully.
func WriteStub(t *testing.T, dir string, name string) {
	t.Helper()
	WriteStubWithExit(t, dir, name, 0)
}

// WriteStubWithExit writes an executable shell stub that exits with exitCode.
func WriteStubWithExit(t *testing.T, dir string, name string, exitCode int) {
	t.Helper()
	writeScript(t, filepath.Join(dir, name), fmt.Sprintf("exit %d\n", exitCode))
}

// WriteStubExpectArg writes an executable shell stub that succeeds only when
// expectedArg is one of its arguments.
func WriteStubExpectArg(t *testing.T, dir string, name string, expectedArg string) {
	t.Helper()
	body := fmt.Sprintf("for arg in \"$@\"; do\n  if [ \"$arg\" = \"%s\" ]; then exit 0; fi\ndone\nexit 1\n", expectedArg)
	writeScript(t, filepath.Join(dir, name), body)
}

// WriteStubRecordingArgs writes an executable shell stub that appends its
// arguments, one invocation per line, to logPath and exits successfully.
func WriteStubRecordingArgs(t *testing.T, dir string, name string, logPath string) {
	t.Helper()
	writeScript(t, filepath.Join(dir, name), fmt.Sprintf("echo \"$@\" >> %q\n", logPath))
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func writeScript(t *testing.T, path string, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
}
