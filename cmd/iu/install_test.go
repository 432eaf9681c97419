package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conn-castle/install-unity/internal/platform"
)

func TestInstallDefaultSelection(t *testing.T) {
	e := newTestEnv(t)

	out := e.mustRun("install", "2020.1", "--yes")

	final := filepath.Join(e.root, "Unity 2020.1.0f1")
	assert.Contains(t, out, "Selected packages for Unity 2020.1.0f1")
	assert.Contains(t, out, "Android")
	assert.Contains(t, out, "[dependency]")
	assert.Contains(t, out, "Installed Unity 2020.1.0f1 to "+final)
	assert.NotContains(t, out, "Documentation")

	assert.FileExists(t, filepath.Join(final, platform.MarkerFile))
	assert.FileExists(t, filepath.Join(final, "Unity.tar.xz.extracted"))
	assert.FileExists(t, filepath.Join(final, "Editor", "Data", "PlaybackEngines", "AndroidPlayer", "Android.tar.xz.extracted"))

	// The primary package installs first.
	cmds := e.runner.commands()
	require.Len(t, cmds, 2)
	assert.Equal(t, "tar", cmds[0].Name)
	assert.Contains(t, cmds[0].Args[1], "Unity.tar.xz")

	_, err := os.Stat(filepath.Join(e.tmp, "install-unity", "2020.1.0f1"))
	assert.True(t, os.IsNotExist(err), "download dir should be removed")
	assert.Equal(t, 1, e.pushCount())
}

func TestInstallAddonRequiresExistingInstall(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.run("install", "2020.1", "-p", "Documentation", "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "to be installed already")

	e.mustRun("install", "2020.1", "--yes")
	out := e.mustRun("install", "2020.1", "-p", "Documentation", "--yes")
	assert.Contains(t, out, "Installed Unity 2020.1.0f1")

	final := filepath.Join(e.root, "Unity 2020.1.0f1")
	assert.FileExists(t, filepath.Join(final, "Editor", "Data", "Documentation", "Documentation.tar.xz.extracted"))

	out = e.mustRun("installs")
	assert.Contains(t, out, "Documentation")
	assert.Contains(t, out, "Unity")
}

func TestInstallPrimaryTwiceFails(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun("install", "2020.1", "--yes")
	_, err := e.run("install", "2020.1", "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already installed")
}

func TestDownloadOnlyKeepsFiles(t *testing.T) {
	e := newTestEnv(t)
	dir := filepath.Join(t.TempDir(), "downloads")

	out := e.mustRun("download", "2020.1", "-p", "=Unity", "--dir", dir, "--yes")
	assert.Contains(t, out, "Downloaded Unity 2020.1.0f1")
	assert.FileExists(t, filepath.Join(dir, "2020.1.0f1", "Unity.tar.xz"))
	assert.NoFileExists(t, filepath.Join(dir, "2020.1.0f1", "Android.tar.xz"))
	assert.Empty(t, e.runner.commands())
	assert.NoDirExists(t, filepath.Join(e.root, "Unity 2020.1.0f1"))

	// Installing from the kept files verifies them instead of downloading.
	out = e.mustRun("install", "2020.1", "-p", "=Unity", "--install", "--dir", dir, "--yes")
	assert.Contains(t, out, "Installed Unity 2020.1.0f1")
	assert.FileExists(t, filepath.Join(dir, "2020.1.0f1", "Unity.tar.xz"))
}

func TestDownloadForOtherPlatform(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.run("download", "2019", "--platform", "linux", "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no packages for linux")
}

func TestInstallUnknownPackage(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.run("install", "2020.1", "-p", "WebGL", "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown packages")
	assert.Contains(t, err.Error(), "WebGL")
}

func TestInstallSkipsUnknownPackageNextToKnownOnes(t *testing.T) {
	e := newTestEnv(t)
	out := e.mustRun("install", "2020.1", "-p", "Unity", "-p", "WebGL", "--yes")
	assert.Contains(t, out, "Skipping unknown packages for 2020.1.0f1: WebGL")
	assert.DirExists(t, filepath.Join(e.root, "Unity 2020.1.0f1"))
}

func TestInstallConflictingSteps(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.run("install", "2020.1", "--download", "--install")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be combined")
}

func TestInstallNeedsConfirmation(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.run("install", "2020.1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
	assert.NoDirExists(t, filepath.Join(e.root, "Unity 2020.1.0f1"))
}

func TestInstallDeclined(t *testing.T) {
	e := newTestEnv(t)
	e.answers = []bool{false}
	out, err := e.run("install", "2020.1")
	var silent *SilentExitError
	require.True(t, errors.As(err, &silent))
	assert.Equal(t, 1, silent.Code)
	assert.Contains(t, out, "Cancelled.")
	assert.Empty(t, e.runner.commands())
}

func TestInstallConfirmed(t *testing.T) {
	e := newTestEnv(t)
	e.answers = []bool{true}
	e.mustRun("install", "2020.1")
	assert.DirExists(t, filepath.Join(e.root, "Unity 2020.1.0f1"))
}

func TestInstallDownloadFailureRollsBack(t *testing.T) {
	e := newTestEnv(t)
	orig := packageFiles["Android.tar.xz"]
	delete(packageFiles, "Android.tar.xz")
	t.Cleanup(func() { packageFiles["Android.tar.xz"] = orig })

	_, err := e.run("install", "2020.1", "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "download failed")
	entries, _ := os.ReadDir(e.root)
	assert.Empty(t, entries, "staging must be discarded")
}
