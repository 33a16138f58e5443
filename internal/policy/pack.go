package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/AryanVBW/focus-sub000/internal/domain"
)

// RulePack is a YAML file that extends or adds app policies without a
// rebuild. Vendors rename view ids often; packs let users ship new ids.
type RulePack struct {
	App            string        `yaml:"app"`
	Name           string        `yaml:"name"`
	Packages       []string      `yaml:"packages"`
	Text           []PackText    `yaml:"text"`
	IDs            []PackID      `yaml:"ids"`
	URLs           []PackURL     `yaml:"urls"`
	WebViewIDs     []string      `yaml:"webview_ids"`
	Structural     string        `yaml:"structural"`
	SafeTargets    []PackTarget  `yaml:"safe_targets"`
	HighEngagement *bool         `yaml:"high_engagement"`
	Browsers       []PackBrowser `yaml:"browsers"`
	Adult          struct {
		Keywords []string `yaml:"keywords"`
		Domains  []string `yaml:"domains"`
	} `yaml:"adult"`

	source string
}

type PackText struct {
	Text    string `yaml:"text"`
	Partial bool   `yaml:"partial"`
	Content string `yaml:"content"`
}

type PackID struct {
	ID      string `yaml:"id"`
	Content string `yaml:"content"`
}

type PackURL struct {
	Segment string `yaml:"segment"`
	Content string `yaml:"content"`
}

type PackTarget struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
}

type PackBrowser struct {
	Package   string   `yaml:"package"`
	Name      string   `yaml:"name"`
	URLBarIDs []string `yaml:"url_bar_ids"`
}

// Source returns the file the pack was read from.
func (p RulePack) Source() string {
	return p.source
}

// ParsePack decodes one YAML rule pack.
func ParsePack(data []byte) (RulePack, error) {
	var pack RulePack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return RulePack{}, fmt.Errorf("failed to parse rule pack: %w", err)
	}
	return pack, nil
}

// LoadPacks reads every *.yaml / *.yml file in dir, sorted by name.
// Unreadable or invalid files are logged and skipped. A missing directory
// yields no packs.
func LoadPacks(dir string, logger *zap.Logger) ([]RulePack, error) {
	if dir == "" {
		return nil, nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob rule packs: %w", err)
	}
	ymlFiles, err := filepath.Glob(filepath.Join(dir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob rule packs: %w", err)
	}
	files = append(files, ymlFiles...)
	sort.Strings(files)

	packs := make([]RulePack, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			logger.Warn("failed to read rule pack", zap.String("file", file), zap.Error(err))
			continue
		}
		pack, err := ParsePack(data)
		if err != nil {
			logger.Warn("skipping rule pack", zap.String("file", file), zap.Error(err))
			continue
		}
		pack.source = file
		packs = append(packs, pack)
	}
	return packs, nil
}

// Apply merges a pack into the registry. Rules are appended to an existing
// app with the same ID; unknown IDs register a new app, which then needs at
// least one package.
func (r *Registry) Apply(pack RulePack) error {
	if pack.App != "" {
		if err := r.applyApp(pack); err != nil {
			return err
		}
	}

	for _, b := range pack.Browsers {
		if b.Package == "" {
			return fmt.Errorf("browser entry without package in %s", pack.source)
		}
		r.browsers[b.Package] = domain.BrowserProfile{Package: b.Package, Name: b.Name, URLBarID: b.URLBarIDs}
	}
	r.adult.Keywords = append(r.adult.Keywords, pack.Adult.Keywords...)
	r.adult.Domains = append(r.adult.Domains, pack.Adult.Domains...)
	return nil
}

func (r *Registry) applyApp(pack RulePack) error {
	profile, exists := r.Get(pack.App)
	if !exists {
		if len(pack.Packages) == 0 {
			return fmt.Errorf("rule pack for new app %q has no packages", pack.App)
		}
		profile = domain.AppProfile{ID: pack.App, Name: pack.Name}
		if profile.Name == "" {
			profile.Name = pack.App
		}
	}

	profile.Packages = appendUnique(profile.Packages, pack.Packages...)

	for _, t := range pack.Text {
		ct, err := parseContentType(t.Content)
		if err != nil {
			return err
		}
		profile.TextRules = append(profile.TextRules, domain.TextRule{Text: t.Text, Partial: t.Partial, ContentType: ct})
	}
	for _, id := range pack.IDs {
		ct, err := parseContentType(id.Content)
		if err != nil {
			return err
		}
		profile.IDRules = append(profile.IDRules, domain.IDRule{ViewID: id.ID, ContentType: ct})
	}
	for _, u := range pack.URLs {
		ct, err := parseContentType(u.Content)
		if err != nil {
			return err
		}
		profile.URLRules = append(profile.URLRules, domain.URLRule{Segment: u.Segment, ContentType: ct})
	}
	profile.WebViewIDs = appendUnique(profile.WebViewIDs, pack.WebViewIDs...)

	if pack.Structural != "" {
		ct, err := parseContentType(pack.Structural)
		if err != nil {
			return err
		}
		profile.Structural = ct != domain.ContentNone
		profile.StructuralType = ct
	}
	for _, st := range pack.SafeTargets {
		profile.SafeTargets = append(profile.SafeTargets, domain.NavTarget{ViewID: st.ID, Label: st.Label})
	}
	if pack.HighEngagement != nil {
		profile.HighEngagement = *pack.HighEngagement
	}

	r.put(profile)
	return nil
}

func parseContentType(s string) (domain.ContentType, error) {
	ct := domain.ContentType(s)
	switch ct {
	case domain.ContentReels, domain.ContentStories, domain.ContentShorts,
		domain.ContentExplore, domain.ContentSpotlight, domain.ContentNone:
		return ct, nil
	}
	return "", fmt.Errorf("unknown content type %q", s)
}

func appendUnique(dst []string, values ...string) []string {
	seen := make(map[string]bool, len(dst))
	for _, v := range dst {
		seen[v] = true
	}
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		dst = append(dst, v)
	}
	return dst
}
