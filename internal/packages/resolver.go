// Package packages turns user selection patterns into the concrete, dependency-closed
// set of packages to install.
package packages

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/conn-castle/install-unity/internal/catalog"
	"github.com/conn-castle/install-unity/internal/messages"
)

// ErrAmbiguousMatch is returned when a fuzzy pattern matches more than one package.
var ErrAmbiguousMatch = errors.New("ambiguous package pattern")

const (
	fuzzyPrefix  = '~'
	noDepsPrefix = '='
)

// Resolved annotates a catalog package with how it entered the selection.
type Resolved struct {
	catalog.Package
	// AddedAutomatically is true when the package was pulled in by dependency
	// expansion rather than named by the user.
	AddedAutomatically bool
}

// AmbiguousMatchError names a fuzzy pattern and two of the packages it matched.
type AmbiguousMatchError struct {
	Pattern string
	First   string
	Second  string
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf(messages.PackagesAmbiguousFmt, ErrAmbiguousMatch, e.Pattern, e.First, e.Second)
}

// Is reports ErrAmbiguousMatch equivalence for errors.Is.
func (e *AmbiguousMatchError) Is(target error) bool {
	return target == ErrAmbiguousMatch
}

type pattern struct {
	text  string
	fuzzy bool
	noDep bool
}

// parsePattern consumes the ~ and = modifiers from the left, in any order.
func parsePattern(raw string) pattern {
	p := pattern{text: strings.TrimSpace(raw)}
	for p.text != "" {
		switch p.text[0] {
		case fuzzyPrefix:
			p.fuzzy = true
		case noDepsPrefix:
			p.noDep = true
		default:
			return p
		}
		p.text = p.text[1:]
	}
	return p
}

// ResolvePackages selects the packages named by patterns from pkgs.
//
// Names without a match are collected in notFound and do not fail resolution.
// The result holds each package at most once, with the primary package first and
// the rest in selection order.
func ResolvePackages(patterns []string, pkgs []catalog.Package) ([]Resolved, []string, error) {
	r := resolver{
		catalog:  pkgs,
		index:    make(map[string]int),
		expanded: make(map[string]bool),
	}
	var notFound []string
	for _, raw := range patterns {
		p := parsePattern(raw)
		if p.text == "" {
			continue
		}
		pkg, ok, err := r.match(p)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			notFound = append(notFound, p.text)
			continue
		}
		r.add(pkg, false)
		if !p.noDep {
			r.expand(pkg.Name)
		}
	}
	return r.ordered(), notFound, nil
}

type resolver struct {
	catalog  []catalog.Package
	out      []Resolved
	index    map[string]int
	// expanded holds the names whose syncing packages were already added.
	expanded map[string]bool
}

func (r *resolver) match(p pattern) (catalog.Package, bool, error) {
	if !p.fuzzy {
		for _, pkg := range r.catalog {
			if pkg.Name == p.text {
				return pkg, true, nil
			}
		}
		return catalog.Package{}, false, nil
	}

	needle := strings.ToLower(p.text)
	var found []catalog.Package
	for _, pkg := range r.catalog {
		if strings.Contains(strings.ToLower(pkg.Name), needle) {
			found = append(found, pkg)
		}
	}
	switch len(found) {
	case 0:
		return catalog.Package{}, false, nil
	case 1:
		return found[0], true, nil
	}
	return catalog.Package{}, false, &AmbiguousMatchError{Pattern: p.text, First: found[0].Name, Second: found[1].Name}
}

// add records pkg. A package that was added automatically becomes user-selected
// when named explicitly; the reverse never happens.
func (r *resolver) add(pkg catalog.Package, auto bool) bool {
	if i, ok := r.index[pkg.Name]; ok {
		if !auto {
			r.out[i].AddedAutomatically = false
		}
		return false
	}
	r.index[pkg.Name] = len(r.out)
	r.out = append(r.out, Resolved{Package: pkg, AddedAutomatically: auto})
	return true
}

// expand adds every package that syncs to name, recursively. Packages already
// selected are expanded too, so the result does not depend on pattern order.
func (r *resolver) expand(name string) {
	if r.expanded[name] {
		return
	}
	r.expanded[name] = true
	for _, pkg := range r.catalog {
		if pkg.Sync != name {
			continue
		}
		r.add(pkg, true)
		r.expand(pkg.Name)
	}
}

func (r *resolver) ordered() []Resolved {
	out := make([]Resolved, len(r.out))
	copy(out, r.out)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Primary && !out[j].Primary
	})
	return out
}

// DefaultOptions controls GetDefaultPackages.
type DefaultOptions struct {
	// All selects every package that is not hidden.
	All bool
	// Saved is the user's saved default selection, used instead of the catalog's
	// defaults when non-empty.
	Saved []string
	// IgnoreSaved falls back to the catalog's defaults even when Saved is set.
	IgnoreSaved bool
}

// GetDefaultPackages returns the selection patterns used when the user names no
// packages. Saved patterns are returned as given so they resolve like user input.
func GetDefaultPackages(pkgs []catalog.Package, opts DefaultOptions) []string {
	if len(opts.Saved) > 0 && !opts.IgnoreSaved && !opts.All {
		out := make([]string, len(opts.Saved))
		copy(out, opts.Saved)
		return out
	}
	var out []string
	for _, pkg := range pkgs {
		switch {
		case opts.All && !pkg.Hidden:
			out = append(out, pkg.Name)
		case pkg.Install || pkg.Mandatory || pkg.Primary:
			out = append(out, pkg.Name)
		}
	}
	return out
}
