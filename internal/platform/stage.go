package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/conn-castle/install-unity/internal/catalog"
	"github.com/conn-castle/install-unity/internal/messages"
)

// stagingInfix separates an install path from the id of the operation staging it.
const stagingInfix = ".iu-"

// installPathToken may prefix a package destination to mean the installation root.
const installPathToken = "{UNITY_PATH}"

func stagingPath(final, id string) string {
	return final + stagingInfix + id
}

// destinationIn returns where pkg's contents go inside the installation at dir.
func destinationIn(dir string, pkg catalog.Package) string {
	d := strings.TrimPrefix(pkg.Destination, installPathToken)
	d = strings.TrimLeft(filepath.FromSlash(d), string(filepath.Separator))
	return filepath.Join(dir, d)
}

type fileKind int

const (
	kindUnknown fileKind = iota
	kindTar
	kindZip
	kindPkg
)

func kindOf(path string) fileKind {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".tar"), strings.HasSuffix(lower, ".tar.xz"),
		strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"),
		strings.HasSuffix(lower, ".tar.bz2"):
		return kindTar
	case strings.HasSuffix(lower, ".zip"):
		return kindZip
	case strings.HasSuffix(lower, ".pkg"):
		return kindPkg
	}
	return kindUnknown
}

// extractCommand returns the command unpacking an archive into dest.
func extractCommand(file, dest string, sudo bool) (Command, bool) {
	switch kindOf(file) {
	case kindTar:
		return Command{Name: "tar", Args: []string{"-xf", file, "-C", dest}, Sudo: sudo}, true
	case kindZip:
		return Command{Name: "unzip", Args: []string{"-q", "-o", file, "-d", dest}, Sudo: sudo}, true
	}
	return Command{}, false
}

// replacedSuffix names the dir holding entries replaced while merging an add-on
// into an existing installation.
const replacedSuffix = ".replaced"

// mergeJournal moves staged entries into an existing installation and records
// every move so they can be reverted.
type mergeJournal struct {
	sys    System
	backup string
	moves  []mergeMove
}

type mergeMove struct {
	from, to string
	// aside holds the entry that was at to before, if any.
	aside string
	moved bool
}

// merge moves everything in src into dst, descending into directories present in
// both. Other entries already in dst are moved into the backup dir first.
func (j *mergeJournal) merge(src, dst string) error {
	entries, err := j.sys.ReadDir(src)
	if err != nil {
		return err
	}
	for _, e := range entries {
		from := filepath.Join(src, e.Name())
		to := filepath.Join(dst, e.Name())
		info, err := j.sys.Stat(to)
		m := mergeMove{from: from, to: to}
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return err
		case info.IsDir() && e.IsDir():
			if err := j.merge(from, to); err != nil {
				return err
			}
			continue
		default:
			if err := j.sys.MkdirAll(j.backup, 0o755); err != nil {
				return err
			}
			m.aside = filepath.Join(j.backup, strconv.Itoa(len(j.moves)))
			if err := j.sys.Rename(to, m.aside); err != nil {
				return fmt.Errorf(messages.PlatformPromoteFmt, from, to, err)
			}
		}
		j.moves = append(j.moves, m)
		if err := j.sys.Rename(from, to); err != nil {
			return fmt.Errorf(messages.PlatformPromoteFmt, from, to, err)
		}
		j.moves[len(j.moves)-1].moved = true
	}
	return nil
}

// undo reverts the recorded moves, newest first.
func (j *mergeJournal) undo() error {
	var errs []error
	for i := len(j.moves) - 1; i >= 0; i-- {
		m := j.moves[i]
		if m.moved {
			if err := j.sys.Rename(m.to, m.from); err != nil {
				errs = append(errs, fmt.Errorf(messages.PlatformUndoMergeFmt, m.to, m.from, err))
				continue
			}
		}
		if m.aside != "" {
			if err := j.sys.Rename(m.aside, m.to); err != nil {
				errs = append(errs, fmt.Errorf(messages.PlatformUndoMergeFmt, m.aside, m.to, err))
			}
		}
	}
	j.moves = nil
	return errors.Join(errs...)
}
