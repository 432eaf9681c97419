// Package version parses, orders, and matches editor release identifiers such as
// 2019.4.1f1 or 5.3.2p3 (abcdef012345).
package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/conn-castle/install-unity/internal/messages"
)

// Unset marks a numeric component that a pattern leaves unspecified.
const Unset = -1

// Kind is the release kind encoded by the letter between patch and build number.
type Kind int

const (
	// KindUndefined means the release kind was not given.
	KindUndefined Kind = iota
	// KindAlpha is an alpha release (a).
	KindAlpha
	// KindBeta is a beta release (b).
	KindBeta
	// KindFinal is a final release (f).
	KindFinal
	// KindPatch is a patch release (p).
	KindPatch
)

var kindLetters = map[Kind]string{
	KindAlpha: "a",
	KindBeta:  "b",
	KindFinal: "f",
	KindPatch: "p",
}

// Letter returns the release letter, or "x" when undefined.
func (k Kind) Letter() string {
	if l, ok := kindLetters[k]; ok {
		return l
	}
	return "x"
}

// String returns the long name of the kind.
func (k Kind) String() string {
	switch k {
	case KindAlpha:
		return "alpha"
	case KindBeta:
		return "beta"
	case KindFinal:
		return "final"
	case KindPatch:
		return "patch"
	default:
		return "undefined"
	}
}

// stability ranks kinds from most to least stable; a pattern of a given kind
// accepts releases of equal or higher stability.
func (k Kind) stability() int {
	switch k {
	case KindFinal:
		return 1
	case KindPatch:
		return 2
	case KindBeta:
		return 3
	case KindAlpha:
		return 4
	default:
		return 1
	}
}

// ParseKind maps a release letter or name (f, final, p, patch, ...) to a Kind.
func ParseKind(raw string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "a", "alpha":
		return KindAlpha, nil
	case "b", "beta":
		return KindBeta, nil
	case "f", "final", "release":
		return KindFinal, nil
	case "p", "patch":
		return KindPatch, nil
	case "", "x":
		return KindUndefined, nil
	}
	return KindUndefined, fmt.Errorf(messages.VersionUnknownKindFmt, raw)
}

// Version identifies a release, or a pattern over releases when some parts are Unset.
type Version struct {
	Major int
	Minor int
	Patch int
	Kind  Kind
	Build int
	// Hash is the optional 12 hex digit build hash.
	Hash string
}

var versionRE = regexp.MustCompile(`^(\d+)?(?:\.(\d+)(?:\.(\d+))?)?(?:([a-zA-Z])(\d+)?)?(?:\s*\(([0-9a-fA-F]{12})\))?$`)

// Parse reads a full version or a partial pattern. Missing parts are Unset.
func Parse(raw string) (Version, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Version{}, fmt.Errorf(messages.VersionRequired)
	}
	m := versionRE.FindStringSubmatch(trimmed)
	if m == nil || (m[1] == "" && m[4] == "" && m[6] == "") {
		return Version{}, fmt.Errorf(messages.VersionInvalidFmt, raw)
	}
	v := Version{Major: Unset, Minor: Unset, Patch: Unset, Build: Unset}
	for i, dst := range []*int{&v.Major, &v.Minor, &v.Patch} {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return Version{}, fmt.Errorf(messages.VersionInvalidFmt, raw)
		}
		*dst = n
	}
	kind, err := ParseKind(m[4])
	if err != nil {
		return Version{}, err
	}
	v.Kind = kind
	if m[5] != "" {
		n, err := strconv.Atoi(m[5])
		if err != nil {
			return Version{}, fmt.Errorf(messages.VersionInvalidFmt, raw)
		}
		v.Build = n
	}
	v.Hash = strings.ToLower(m[6])
	return v, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(raw string) Version {
	v, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// IsConcrete reports whether v names exactly one release.
func (v Version) IsConcrete() bool {
	return v.Major != Unset && v.Minor != Unset && v.Patch != Unset &&
		v.Kind != KindUndefined && v.Build != Unset
}

// String formats v, writing x for unset parts. The hash is not included.
func (v Version) String() string {
	part := func(n int) string {
		if n == Unset {
			return "x"
		}
		return strconv.Itoa(n)
	}
	s := part(v.Major) + "." + part(v.Minor) + "." + part(v.Patch) + v.Kind.Letter()
	if v.Build != Unset {
		s += strconv.Itoa(v.Build)
	}
	return s
}

// Compare orders concrete versions chronologically: alpha < beta < final < patch
// within one major.minor.patch. Unset parts sort first.
func Compare(a, b Version) int {
	pairs := [][2]int{
		{a.Major, b.Major},
		{a.Minor, b.Minor},
		{a.Patch, b.Patch},
		{int(a.Kind), int(b.Kind)},
		{a.Build, b.Build},
	}
	for _, p := range pairs {
		if p[0] < p[1] {
			return -1
		}
		if p[0] > p[1] {
			return 1
		}
	}
	return 0
}

// Matches reports whether the concrete version v satisfies pattern. Every part the
// pattern specifies must be equal, except the kind: the pattern's kind sets the least
// stable kind accepted (final when undefined).
func (v Version) Matches(pattern Version) bool {
	for _, p := range [][2]int{
		{pattern.Major, v.Major},
		{pattern.Minor, v.Minor},
		{pattern.Patch, v.Patch},
		{pattern.Build, v.Build},
	} {
		if p[0] != Unset && p[0] != p[1] {
			return false
		}
	}
	if v.Kind.stability() > pattern.Kind.stability() {
		return false
	}
	if pattern.Hash != "" && pattern.Hash != v.Hash {
		return false
	}
	return true
}

// Select returns the newest candidate matching pattern.
func Select(pattern Version, candidates []Version) (Version, bool) {
	var best Version
	found := false
	for _, c := range candidates {
		if !c.Matches(pattern) {
			continue
		}
		if !found || Compare(c, best) > 0 {
			best = c
			found = true
		}
	}
	return best, found
}

// Expand substitutes {major} {minor} {patch} {type} {build} {hash} and {version}
// placeholders in tmpl.
func (v Version) Expand(tmpl string) string {
	r := strings.NewReplacer(
		"{major}", strconv.Itoa(v.Major),
		"{minor}", strconv.Itoa(v.Minor),
		"{patch}", strconv.Itoa(v.Patch),
		"{type}", v.Kind.Letter(),
		"{build}", strconv.Itoa(v.Build),
		"{hash}", v.Hash,
		"{version}", v.String(),
	)
	return r.Replace(tmpl)
}
