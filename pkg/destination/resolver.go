package destination

import (
	"path/filepath"
	"sort"

	"github.com/arthur-debert/macsetup/pkg/config"
	"github.com/arthur-debert/macsetup/pkg/errors"
	"github.com/arthur-debert/macsetup/pkg/logging"
	"github.com/arthur-debert/macsetup/pkg/paths"
	"github.com/arthur-debert/macsetup/pkg/selector"
	"github.com/rs/zerolog"
)

// Kind of destination rule
type Kind int

const (
	Override Kind = iota
	OrganizationMapping
)

func (k Kind) String() string {
	switch k {
	case Override:
		return "override"
	case OrganizationMapping:
		return "organization"
	default:
		return "unknown"
	}
}

// Rule maps a repository name (Override) or an organization name
// (OrganizationMapping) to a path relative to the development root
type Rule struct {
	Kind Kind
	Key  string
	Path string
}

// Source tells which tier produced a resolution
type Source string

const (
	SourceOverride     Source = "override"
	SourceOrganization Source = "organization"
	SourceInteractive  Source = "interactive"
	SourceUnresolved   Source = "unresolved"
)

// Resolution is the outcome of resolving one repository
type Resolution struct {
	// Path is the absolute directory the repository is cloned into
	Path     string
	RelPath  string
	Source   Source
	Resolved bool
}

// Memory persists interactive choices for later runs
type Memory interface {
	Remember(repo, relPath string) error
}

// NewFolderValue is the selector value of the synthetic "new folder" choice
const NewFolderValue = "\x00new-folder"

const newFolderLabel = "+ New folder..."

// Options configures a Resolver
type Options struct {
	DevRoot  string
	Rules    []Rule
	Selector selector.Selector
	// Memory may be nil; it is never written in dry-run mode
	Memory Memory
	DryRun bool
}

// Resolver implements override, organization and interactive resolution
type Resolver struct {
	devRoot   string
	overrides map[string]string
	orgs      map[string]string
	known     []string
	chosen    map[string]struct{}
	selector  selector.Selector
	memory    Memory
	dryRun    bool
	logger    zerolog.Logger
}

// NewResolver copies the rules; later changes to opts.Rules are not observed
func NewResolver(opts Options) *Resolver {
	r := &Resolver{
		devRoot:   opts.DevRoot,
		overrides: make(map[string]string),
		orgs:      make(map[string]string),
		chosen:    make(map[string]struct{}),
		selector:  opts.Selector,
		memory:    opts.Memory,
		dryRun:    opts.DryRun,
		logger:    logging.GetLogger("destination"),
	}

	seen := make(map[string]struct{})
	for _, rule := range opts.Rules {
		switch rule.Kind {
		case Override:
			r.overrides[rule.Key] = rule.Path
		case OrganizationMapping:
			r.orgs[rule.Key] = rule.Path
		}
		if _, dup := seen[rule.Path]; !dup {
			seen[rule.Path] = struct{}{}
			r.known = append(r.known, rule.Path)
		}
	}
	sort.Strings(r.known)
	return r
}

// Resolve returns the destination for repo owned by org
func (r *Resolver) Resolve(repo, org string) (Resolution, error) {
	if rel, ok := r.overrides[repo]; ok {
		return r.resolved(repo, rel, SourceOverride)
	}
	if rel, ok := r.orgs[org]; ok {
		return r.resolved(repo, rel, SourceOrganization)
	}
	return r.interactive(repo, org)
}

func (r *Resolver) resolved(repo, rel string, source Source) (Resolution, error) {
	if !paths.IsWithin(rel) {
		return Resolution{Source: source}, errors.Newf(errors.ErrInvalidInput,
			"destination %q for %s must be a relative path inside the development root", rel, repo).
			WithDetail("repository", repo)
	}

	res := Resolution{
		Path:     filepath.Join(r.devRoot, rel),
		RelPath:  filepath.Clean(rel),
		Source:   source,
		Resolved: true,
	}
	r.logger.Debug().
		Str("repository", repo).
		Str("source", string(source)).
		Str("path", res.Path).
		Msg("Destination resolved")
	return res, nil
}

func (r *Resolver) interactive(repo, org string) (Resolution, error) {
	unresolved := Resolution{Source: SourceUnresolved}
	if r.selector == nil {
		r.logger.Info().Str("repository", repo).Str("org", org).Msg("No destination rule and no selector")
		return unresolved, nil
	}

	choices := r.KnownDestinations()
	items := make([]selector.Item, 0, len(choices)+1)
	for _, path := range choices {
		items = append(items, selector.Item{Label: path, Value: path})
	}
	items = append(items, selector.Item{Label: newFolderLabel, Value: NewFolderValue})

	picked := r.selector.Choose(items, "Destination for "+repo+" ("+org+")")
	if len(picked) == 0 || picked[0] == "" {
		r.logger.Info().Str("repository", repo).Msg("Destination selection cancelled")
		return unresolved, nil
	}

	rel := picked[0]
	if rel == NewFolderValue {
		input, ok := r.selector.Input("Folder for " + repo + ", relative to " + r.devRoot)
		if !ok {
			r.logger.Info().Str("repository", repo).Msg("New folder input cancelled")
			return unresolved, nil
		}
		rel = input
	}

	res, err := r.resolved(repo, rel, SourceInteractive)
	if err != nil {
		return res, err
	}
	r.chosen[res.RelPath] = struct{}{}
	r.remember(repo, res.RelPath)
	return res, nil
}

func (r *Resolver) remember(repo, rel string) {
	if r.memory == nil {
		return
	}
	if r.dryRun {
		logging.WouldDo(r.logger, "remember destination "+rel+" for "+repo)
		return
	}
	if err := r.memory.Remember(repo, rel); err != nil {
		r.logger.Warn().Err(err).Str("repository", repo).Msg("Could not remember destination")
	}
}

// KnownDestinations returns the deduplicated, sorted destination paths from
// the rules plus those chosen interactively during this run
func (r *Resolver) KnownDestinations() []string {
	set := make(map[string]struct{}, len(r.known)+len(r.chosen))
	for _, p := range r.known {
		set[p] = struct{}{}
	}
	for p := range r.chosen {
		set[p] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Configuration tables holding the rules
const (
	OverridesKey     = "repositories.overrides"
	OrganizationsKey = "repositories.organizations"
)

// RulesFromStore reads override and organization rules from the store.
// Rules are ordered overrides first, each group by key.
func RulesFromStore(store config.Store) []Rule {
	var rules []Rule
	if overrides, ok := store.GetStringMap(OverridesKey); ok {
		for _, key := range config.SortedKeys(overrides) {
			rules = append(rules, Rule{Kind: Override, Key: key, Path: overrides[key]})
		}
	}
	if orgs, ok := store.GetStringMap(OrganizationsKey); ok {
		for _, key := range config.SortedKeys(orgs) {
			rules = append(rules, Rule{Kind: OrganizationMapping, Key: key, Path: orgs[key]})
		}
	}
	return rules
}
