package policy

import (
	"fmt"
	"sort"

	"github.com/AryanVBW/focus-sub000/internal/domain"
)

// Registry holds all app detection policies, indexed by package name.
type Registry struct {
	profiles map[string]*domain.AppProfile // by policy ID
	byPkg    map[string]string             // package -> policy ID
	browsers map[string]domain.BrowserProfile
	adult    AdultLists
}

// AdultLists are the keyword and domain lists used for browser blocking.
type AdultLists struct {
	Keywords []string
	Domains  []string
}

// NewRegistry creates a registry with all default policies and browsers.
func NewRegistry() *Registry {
	return NewRegistryWithPolicies(
		NewInstagramPolicy(),
		NewYouTubePolicy(),
		NewTikTokPolicy(),
		NewSnapchatPolicy(),
		NewFacebookPolicy(),
	)
}

// NewRegistryWithPolicies creates a registry with custom policies (for testing).
func NewRegistryWithPolicies(policies ...AppPolicy) *Registry {
	r := &Registry{
		profiles: make(map[string]*domain.AppProfile),
		byPkg:    make(map[string]string),
		browsers: make(map[string]domain.BrowserProfile),
		adult: AdultLists{
			Keywords: DefaultAdultKeywords(),
			Domains:  DefaultAdultDomains(),
		},
	}
	for _, p := range policies {
		r.Register(p)
	}
	for _, b := range DefaultBrowsers() {
		r.browsers[b.Package] = b
	}
	return r
}

// Register adds a policy to the registry, replacing one with the same ID.
func (r *Registry) Register(p AppPolicy) {
	r.put(ToProfile(p))
}

func (r *Registry) put(profile domain.AppProfile) {
	if old, ok := r.profiles[profile.ID]; ok {
		for _, pkg := range old.Packages {
			delete(r.byPkg, pkg)
		}
	}
	r.profiles[profile.ID] = &profile
	for _, pkg := range profile.Packages {
		r.byPkg[pkg] = profile.ID
	}
}

// Lookup returns the profile for a package name.
func (r *Registry) Lookup(pkg string) (domain.AppProfile, bool) {
	id, ok := r.byPkg[pkg]
	if !ok {
		return domain.AppProfile{}, false
	}
	return *r.profiles[id], true
}

// Get returns a profile by policy ID.
func (r *Registry) Get(id string) (domain.AppProfile, bool) {
	p, ok := r.profiles[id]
	if !ok {
		return domain.AppProfile{}, false
	}
	return *p, true
}

// Supports reports whether pkg belongs to a registered app.
func (r *Registry) Supports(pkg string) bool {
	_, ok := r.byPkg[pkg]
	return ok
}

// All returns every profile sorted by ID.
func (r *Registry) All() []domain.AppProfile {
	out := make([]domain.AppProfile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// List returns all policy IDs.
func (r *Registry) List() []string {
	ids := make([]string, 0, len(r.profiles))
	for id := range r.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Packages returns every supported package name, sorted.
func (r *Registry) Packages() []string {
	pkgs := make([]string, 0, len(r.byPkg))
	for pkg := range r.byPkg {
		pkgs = append(pkgs, pkg)
	}
	sort.Strings(pkgs)
	return pkgs
}

// Browser returns the browser profile for pkg.
func (r *Registry) Browser(pkg string) (domain.BrowserProfile, bool) {
	b, ok := r.browsers[pkg]
	return b, ok
}

// Browsers returns every registered browser sorted by package.
func (r *Registry) Browsers() []domain.BrowserProfile {
	out := make([]domain.BrowserProfile, 0, len(r.browsers))
	for _, b := range r.browsers {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Package < out[j].Package })
	return out
}

// Adult returns the built-in plus pack-supplied adult keyword/domain lists.
func (r *Registry) Adult() AdultLists {
	return r.adult
}

// IsHighEngagement reports whether pkg is a short-video-first app.
func (r *Registry) IsHighEngagement(pkg string) bool {
	p, ok := r.Lookup(pkg)
	return ok && p.HighEngagement
}

// SafeTargets returns the navigation targets for pkg.
func (r *Registry) SafeTargets(pkg string) []domain.NavTarget {
	p, ok := r.Lookup(pkg)
	if !ok {
		return nil
	}
	return p.SafeTargets
}

// ProfileFor is Lookup with an error, for CLI use.
func (r *Registry) ProfileFor(pkg string) (domain.AppProfile, error) {
	p, ok := r.Lookup(pkg)
	if !ok {
		return domain.AppProfile{}, fmt.Errorf("no policy for package: %s", pkg)
	}
	return p, nil
}
