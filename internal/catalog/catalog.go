// Package catalog holds release and package metadata: which editor versions exist,
// where their packages live, and what each package weighs.
package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/conn-castle/install-unity/internal/messages"
	"github.com/conn-castle/install-unity/internal/version"
)

// ErrNotFound is returned when no known version matches a lookup.
var ErrNotFound = errors.New("not found")

// PrimaryPackageName is the conventional name of the editor package. Catalogs that
// do not flag a primary package get this one marked on load.
const PrimaryPackageName = "Unity"

// Platform names a target operating system as used by the catalog.
type Platform string

const (
	// PlatformMac is macOS.
	PlatformMac Platform = "mac"
	// PlatformLinux is Linux.
	PlatformLinux Platform = "linux"
	// PlatformWindows is Windows. It is listed by catalogs but has no installer adapter.
	PlatformWindows Platform = "windows"
)

// Package is the immutable metadata of one installable package.
type Package struct {
	Name        string `toml:"name"`
	Title       string `toml:"title,omitempty"`
	Description string `toml:"description,omitempty"`
	// URL is absolute or relative to the platform's base URL.
	URL           string `toml:"url"`
	Size          int64  `toml:"size"`
	InstalledSize int64  `toml:"installed_size,omitempty"`
	Mandatory     bool   `toml:"mandatory,omitempty"`
	Hidden        bool   `toml:"hidden,omitempty"`
	// Install marks the package as selected by default.
	Install bool `toml:"install,omitempty"`
	// Primary marks the editor package that must install before all others.
	Primary bool `toml:"primary,omitempty"`
	// Checksum is "md5:<hex>", "sha256:<hex>", a bare hex digest, or empty.
	Checksum string `toml:"checksum,omitempty"`
	// Sync names the package this one must be installed together with.
	Sync string `toml:"sync,omitempty"`
	// Destination is the install subdirectory for archive packages, relative to the
	// installation root.
	Destination string `toml:"destination,omitempty"`
}

// Packages lists a platform's packages and the base URL relative package URLs resolve against.
type Packages struct {
	BaseURL  string    `toml:"base_url"`
	Packages []Package `toml:"packages"`
}

// VersionRecord is one release and its per-platform packages.
type VersionRecord struct {
	Version   version.Version
	Platforms map[Platform]Packages
}

// PackagesFor returns the package list for p (nil when the platform is not offered).
func (r VersionRecord) PackagesFor(p Platform) []Package {
	return r.Platforms[p].Packages
}

// BaseURL returns the base URL for p.
func (r VersionRecord) BaseURL(p Platform) string {
	return r.Platforms[p].BaseURL
}

// Catalog is the version metadata source consumed by the installer.
type Catalog interface {
	// Versions returns all known versions, oldest first.
	Versions() []VersionRecord
	// Lookup returns the newest version matching pattern.
	Lookup(pattern string) (VersionRecord, error)
	// Get returns the record of an exact version.
	Get(v version.Version) (VersionRecord, bool)
}

// Static is an in-memory Catalog, usually loaded from a TOML file.
type Static struct {
	records []VersionRecord
}

// NewStatic builds a catalog from records, sorting them and marking primary packages.
func NewStatic(records []VersionRecord) *Static {
	sorted := make([]VersionRecord, len(records))
	copy(sorted, records)
	for i := range sorted {
		sorted[i] = markPrimary(sorted[i])
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return version.Compare(sorted[i].Version, sorted[j].Version) < 0
	})
	return &Static{records: sorted}
}

// Versions returns the records oldest first.
func (s *Static) Versions() []VersionRecord {
	out := make([]VersionRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Lookup resolves pattern to the newest matching record.
func (s *Static) Lookup(pattern string) (VersionRecord, error) {
	p, err := version.Parse(pattern)
	if err != nil {
		return VersionRecord{}, err
	}
	candidates := make([]version.Version, len(s.records))
	for i, r := range s.records {
		candidates[i] = r.Version
	}
	v, ok := version.Select(p, candidates)
	if !ok {
		return VersionRecord{}, fmt.Errorf(messages.CatalogNoMatchFmt, ErrNotFound, pattern)
	}
	rec, _ := s.Get(v)
	return rec, nil
}

// Get returns the record whose version equals v (ignoring the hash when v has none).
func (s *Static) Get(v version.Version) (VersionRecord, bool) {
	for _, r := range s.records {
		if version.Compare(r.Version, v) != 0 {
			continue
		}
		if v.Hash != "" && r.Version.Hash != "" && v.Hash != r.Version.Hash {
			continue
		}
		return r, true
	}
	return VersionRecord{}, false
}

func markPrimary(r VersionRecord) VersionRecord {
	platforms := make(map[Platform]Packages, len(r.Platforms))
	for name, pp := range r.Platforms {
		pkgs := make([]Package, len(pp.Packages))
		copy(pkgs, pp.Packages)
		hasPrimary := false
		for _, p := range pkgs {
			if p.Primary {
				hasPrimary = true
				break
			}
		}
		if !hasPrimary {
			for i := range pkgs {
				if pkgs[i].Name == PrimaryPackageName {
					pkgs[i].Primary = true
				}
			}
		}
		platforms[name] = Packages{BaseURL: pp.BaseURL, Packages: pkgs}
	}
	r.Platforms = platforms
	return r
}

// file mirrors the on-disk catalog layout.
type file struct {
	Versions []fileVersion `toml:"versions"`
}

type fileVersion struct {
	Version   string                `toml:"version"`
	Hash      string                `toml:"hash,omitempty"`
	Platforms map[Platform]Packages `toml:"platforms"`
}

// Load reads a TOML catalog from path.
func Load(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf(messages.CatalogReadFmt, path, err)
	}
	return Parse(data, path)
}

// Parse decodes TOML catalog data; source is used in error messages.
func Parse(data []byte, source string) (*Static, error) {
	var f file
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf(messages.CatalogInvalidFmt, source, err)
	}
	records := make([]VersionRecord, 0, len(f.Versions))
	for _, fv := range f.Versions {
		v, err := version.Parse(fv.Version)
		if err != nil {
			return nil, fmt.Errorf(messages.CatalogInvalidVersionFmt, source, err)
		}
		if !v.IsConcrete() {
			return nil, fmt.Errorf(messages.CatalogIncompleteVersionFmt, source, fv.Version)
		}
		if fv.Hash != "" {
			v.Hash = strings.ToLower(fv.Hash)
		}
		for name, pp := range fv.Platforms {
			if pp.BaseURL == "" {
				continue
			}
			if _, err := url.Parse(pp.BaseURL); err != nil {
				return nil, fmt.Errorf(messages.CatalogInvalidBaseURLFmt, source, fv.Version, name, err)
			}
		}
		records = append(records, VersionRecord{Version: v, Platforms: fv.Platforms})
	}
	return NewStatic(records), nil
}

// Marshal encodes records in the on-disk TOML layout.
func Marshal(records []VersionRecord) ([]byte, error) {
	f := file{Versions: make([]fileVersion, 0, len(records))}
	for _, r := range records {
		f.Versions = append(f.Versions, fileVersion{
			Version:   r.Version.String(),
			Hash:      r.Version.Hash,
			Platforms: r.Platforms,
		})
	}
	return toml.Marshal(f)
}
