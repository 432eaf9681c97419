package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/conn-castle/install-unity/internal/messages"
	"github.com/conn-castle/install-unity/internal/version"
)

// MarkerFile is written into every installation created by this tool.
const MarkerFile = "install-unity.toml"

type marker struct {
	Version     string    `toml:"version"`
	Hash        string    `toml:"hash,omitempty"`
	Packages    []string  `toml:"packages"`
	InstalledAt time.Time `toml:"installed_at"`
}

func encodeMarker(inst Installation, now time.Time) ([]byte, error) {
	return toml.Marshal(marker{
		Version:     inst.Version.String(),
		Hash:        inst.Version.Hash,
		Packages:    inst.Packages,
		InstalledAt: now.UTC().Truncate(time.Second),
	})
}

// readMarker reads the marker of the installation at dir. ok is false when dir has
// no marker.
func readMarker(sys System, dir string) (Installation, bool, error) {
	path := filepath.Join(dir, MarkerFile)
	data, err := sys.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Installation{}, false, nil
	}
	if err != nil {
		return Installation{}, false, fmt.Errorf(messages.PlatformReadMarkerFmt, path, err)
	}
	var m marker
	if err := toml.Unmarshal(data, &m); err != nil {
		return Installation{}, false, fmt.Errorf(messages.PlatformReadMarkerFmt, path, err)
	}
	v, err := version.Parse(m.Version)
	if err != nil {
		return Installation{}, false, fmt.Errorf(messages.PlatformReadMarkerFmt, path, err)
	}
	v.Hash = m.Hash
	return Installation{Path: dir, Version: v, Packages: m.Packages}, true, nil
}

func writeMarker(sys System, inst Installation) error {
	path := filepath.Join(inst.Path, MarkerFile)
	data, err := encodeMarker(inst, time.Now())
	if err != nil {
		return fmt.Errorf(messages.PlatformWriteMarkerFmt, path, err)
	}
	if err := sys.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf(messages.PlatformWriteMarkerFmt, path, err)
	}
	return nil
}

// findInstallations lists the marked installations directly below root, oldest
// version first.
func findInstallations(sys System, root string) ([]Installation, error) {
	entries, err := sys.ReadDir(root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf(messages.PlatformReadRootFmt, root, err)
	}
	var out []Installation
	for _, e := range entries {
		if !e.IsDir() || strings.Contains(e.Name(), stagingInfix) {
			continue
		}
		inst, ok, err := readMarker(sys, filepath.Join(root, e.Name()))
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, inst)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return version.Compare(out[i].Version, out[j].Version) < 0
	})
	return out, nil
}
