package platform

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conn-castle/install-unity/internal/catalog"
	"github.com/conn-castle/install-unity/internal/version"
)

func newDarwin(t *testing.T) (Installer, *fakeRunner, string) {
	t.Helper()
	root := t.TempDir()
	r := &fakeRunner{pkgTarget: filepath.Join(root, "Unity")}
	inst, err := New("darwin", Options{Root: root, Runner: r, NewID: fixedID("op1"), System: euidSystem{euid: 0}})
	require.NoError(t, err)
	return inst, r, root
}

func TestDarwinInstallMovesOccupantAsideAndRestoresIt(t *testing.T) {
	inst, r, root := newDarwin(t)
	ctx := context.Background()
	occupant := filepath.Join(root, "Unity")
	require.NoError(t, touch(filepath.Join(occupant, "old.txt")))

	q := testQueue(t, catalog.PlatformMac, true, "Unity.pkg", "Docs.zip")
	require.NoError(t, inst.PrepareInstall(ctx, q, "Unity {version}"))
	assert.FileExists(t, filepath.Join(root, "Unity.iu-op1", "old.txt"))
	assert.NoDirExists(t, occupant)

	for _, it := range q.Items {
		require.NoError(t, inst.Install(ctx, q, it))
	}
	got, err := inst.CompleteInstall(ctx, false)
	require.NoError(t, err)

	final := filepath.Join(root, "Unity 2019.4.1f1")
	assert.Equal(t, final, got.Path)
	assert.FileExists(t, filepath.Join(final, "Unity.pkg.installed"))
	assert.FileExists(t, filepath.Join(final, "Editor", "Data", "PlaybackEngines", "Docs.zip.extracted"))
	assert.FileExists(t, filepath.Join(final, MarkerFile))
	assert.FileExists(t, filepath.Join(occupant, "old.txt"), "occupant restored")

	for _, c := range r.cmds {
		if c.Name == "installer" {
			assert.True(t, c.Sudo)
			assert.Equal(t, []string{"-pkg", q.Items[0].FilePath, "-target", "/"}, c.Args)
		}
	}
}

func TestDarwinAbortRemovesStaging(t *testing.T) {
	inst, _, root := newDarwin(t)
	ctx := context.Background()
	q := testQueue(t, catalog.PlatformMac, true, "Unity.pkg")
	require.NoError(t, inst.PrepareInstall(ctx, q, "Unity {version}"))
	require.NoError(t, inst.Install(ctx, q, q.Items[0]))
	assert.DirExists(t, filepath.Join(root, "Unity"))

	got, err := inst.CompleteInstall(ctx, true)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoDirExists(t, filepath.Join(root, "Unity"))
	assert.NoDirExists(t, filepath.Join(root, "Unity 2019.4.1f1"))
}

func TestDarwinAddOnClonesExistingInstall(t *testing.T) {
	inst, r, root := newDarwin(t)
	ctx := context.Background()
	final := filepath.Join(root, "Unity 2019.4.1f1")
	require.NoError(t, touch(filepath.Join(final, "Unity.app", "bin")))
	require.NoError(t, writeMarker(RealSystem{}, Installation{Path: final, Version: version.MustParse("2019.4.1f1"), Packages: []string{"Unity"}}))

	q := testQueue(t, catalog.PlatformMac, false, "iOS.pkg")
	require.NoError(t, inst.PrepareInstall(ctx, q, "Unity {version}"))
	assert.FileExists(t, filepath.Join(root, "Unity", "Unity.app", "bin"))
	require.NoError(t, inst.Install(ctx, q, q.Items[0]))

	got, err := inst.CompleteInstall(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Unity", "iOS.pkg"}, got.Packages)
	assert.FileExists(t, filepath.Join(final, "Unity.app", "bin"))
	assert.FileExists(t, filepath.Join(final, "iOS.pkg.installed"))
	assert.NoDirExists(t, final+".iu-op1")
	assert.NoDirExists(t, filepath.Join(root, "Unity"))
	assert.Contains(t, r.names(), "cp")
}

func TestPromptForPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("root needs no password", func(t *testing.T) {
		r := &fakeRunner{}
		err := promptForPassword(ctx, Options{System: euidSystem{euid: 0}, Runner: r})
		require.NoError(t, err)
		assert.Empty(t, r.cmds)
	})

	t.Run("no prompt available", func(t *testing.T) {
		err := promptForPassword(ctx, Options{System: euidSystem{euid: 501}, Runner: &fakeRunner{}})
		require.Error(t, err)
	})

	t.Run("accepted", func(t *testing.T) {
		r := &fakeRunner{}
		prompts := 0
		opts := Options{System: euidSystem{euid: 501}, Runner: r, Prompt: func(context.Context) (string, error) {
			prompts++
			return "secret", nil
		}}
		require.NoError(t, promptForPassword(ctx, opts))
		require.NoError(t, promptForPassword(ctx, opts))
		assert.Equal(t, 1, prompts)
		assert.Equal(t, "secret", r.password)
		assert.Equal(t, []string{"true"}, r.names())
	})

	t.Run("rejected", func(t *testing.T) {
		r := &fakeRunner{fail: func(Command) error { return errors.New("incorrect password") }}
		opts := Options{System: euidSystem{euid: 501}, Runner: r, Prompt: func(context.Context) (string, error) {
			return "wrong", nil
		}}
		err := promptForPassword(ctx, opts)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not accepted")
		assert.False(t, r.HasPassword())
	})
}

func TestDarwinPrepareRestoresOccupantWhenCloneFails(t *testing.T) {
	inst, r, root := newDarwin(t)
	ctx := context.Background()
	occupant := filepath.Join(root, "Unity")
	require.NoError(t, touch(filepath.Join(occupant, "old.txt")))
	final := filepath.Join(root, "Unity 2019.4.1f1")
	require.NoError(t, os.MkdirAll(final, 0o755))
	require.NoError(t, writeMarker(RealSystem{}, Installation{Path: final, Version: version.MustParse("2019.4.1f1")}))
	r.fail = func(c Command) error {
		if c.Name == "cp" {
			return errors.New("no space")
		}
		return nil
	}

	err := inst.PrepareInstall(ctx, testQueue(t, catalog.PlatformMac, false, "iOS.pkg"), "Unity {version}")
	require.Error(t, err)
	assert.FileExists(t, filepath.Join(occupant, "old.txt"))
}

func TestDarwinFailedPromotionRestoresOccupant(t *testing.T) {
	inst, r, root := newDarwin(t)
	ctx := context.Background()
	occupant := filepath.Join(root, "Unity")
	final := filepath.Join(root, "Unity 2019.4.1f1")
	require.NoError(t, touch(filepath.Join(occupant, "old.txt")))
	r.fail = func(c Command) error {
		if c.Name == "mv" && c.Args[0] == occupant && c.Args[1] == final {
			return errors.New("operation not permitted")
		}
		return nil
	}

	q := testQueue(t, catalog.PlatformMac, true, "Unity.pkg")
	require.NoError(t, inst.PrepareInstall(ctx, q, "Unity {version}"))
	require.NoError(t, inst.Install(ctx, q, q.Items[0]))
	got, err := inst.CompleteInstall(ctx, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "operation not permitted")
	assert.Nil(t, got)

	assert.FileExists(t, filepath.Join(occupant, "old.txt"))
	assert.NoFileExists(t, filepath.Join(occupant, "Unity.pkg.installed"))
	assert.NoDirExists(t, filepath.Join(root, "Unity.iu-op1"))
	assert.NoDirExists(t, final)

	got, err = inst.CompleteInstall(ctx, true)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDarwinFailedAddOnPromotionKeepsExisting(t *testing.T) {
	inst, r, root := newDarwin(t)
	ctx := context.Background()
	staging := filepath.Join(root, "Unity")
	final := filepath.Join(root, "Unity 2019.4.1f1")
	require.NoError(t, touch(filepath.Join(final, "Unity.app", "bin")))
	require.NoError(t, writeMarker(RealSystem{}, Installation{Path: final, Version: version.MustParse("2019.4.1f1"), Packages: []string{"Unity"}}))
	r.fail = func(c Command) error {
		if c.Name == "mv" && c.Args[0] == staging {
			return errors.New("operation not permitted")
		}
		return nil
	}

	q := testQueue(t, catalog.PlatformMac, false, "iOS.pkg")
	require.NoError(t, inst.PrepareInstall(ctx, q, "Unity {version}"))
	require.NoError(t, inst.Install(ctx, q, q.Items[0]))
	_, err := inst.CompleteInstall(ctx, false)
	require.Error(t, err)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Unity 2019.4.1f1", entries[0].Name())
	assert.FileExists(t, filepath.Join(final, "Unity.app", "bin"))
	assert.NoFileExists(t, filepath.Join(final, "iOS.pkg.installed"))

	marked, ok, err := readMarker(RealSystem{}, final)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"Unity"}, marked.Packages)
}
