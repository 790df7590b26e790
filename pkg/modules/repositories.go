package modules

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/arthur-debert/macsetup/pkg/clone"
	"github.com/arthur-debert/macsetup/pkg/config"
	"github.com/arthur-debert/macsetup/pkg/destination"
	macerrors "github.com/arthur-debert/macsetup/pkg/errors"
	"github.com/arthur-debert/macsetup/pkg/logging"
	"github.com/arthur-debert/macsetup/pkg/paths"
	"github.com/arthur-debert/macsetup/pkg/repos"
)

// Store keys read by the repositories module
const (
	DevRootKey       = "settings.dev_root"
	CloneParallelKey = "settings.clone_parallel"
	CloneTimeoutKey  = "settings.clone_timeout"
)

// Fallbacks when neither flags nor the store set the clone limits
const (
	DefaultCloneParallel = 4
	DefaultCloneTimeout  = 10 * time.Minute
)

// RepositoriesOutcome is what the repositories module reports for the summary
type RepositoriesOutcome struct {
	// Clones is nil until phase two has run
	Clones *clone.Result
	// Unresolved names the repositories that got no destination
	Unresolved []string
	// Problems are specs that could not be parsed or resolved
	Problems []string
}

// RepositoriesModule resolves a destination for every configured repository
// and then clones the resolved ones. Resolution may prompt, so it runs to
// completion before any clone starts.
type RepositoriesModule struct {
	deps Deps

	mu      sync.Mutex
	outcome RepositoriesOutcome
}

func newRepositoriesModule(d Deps) *RepositoriesModule {
	return &RepositoriesModule{deps: d}
}

// Outcome returns what the last run did
func (m *RepositoriesModule) Outcome() RepositoriesOutcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcome
}

// Run implements the module
func (m *RepositoriesModule) Run(ctx context.Context) error {
	logger := logging.GetLogger("modules.repositories")
	store, err := m.deps.Config.Store()
	if err != nil {
		return err
	}

	var outcome RepositoriesOutcome
	defer func() {
		m.mu.Lock()
		m.outcome = outcome
		m.mu.Unlock()
	}()

	specs, parseErrs := repos.FromStore(store)
	for _, err := range parseErrs {
		outcome.Problems = append(outcome.Problems, err.Error())
	}

	resolved := logging.LogOperationStart(logger, "resolve destinations")
	tasks, err := m.resolve(ctx, store, specs, &outcome)
	resolved()
	if err != nil {
		return err
	}
	logger.Info().
		Int("resolved", len(tasks)).
		Int("unresolved", len(outcome.Unresolved)).
		Msg("destinations resolved")

	scheduler, err := clone.NewScheduler(clone.NewGitCloner(m.deps.Runner), m.deps.Fs, clone.Options{
		MaxParallel: m.parallel(store),
		Timeout:     m.timeout(store),
		DryRun:      m.deps.Settings.DryRun,
		Observer:    m.deps.CloneObserver,
	})
	if err != nil {
		return err
	}
	cloned := logging.LogOperationStart(logger, "clone repositories")
	result := scheduler.Run(ctx, tasks)
	cloned()
	outcome.Clones = &result

	if result.Cancelled > 0 {
		return macerrors.Newf(macerrors.ErrInterrupted, "%d clones were cancelled", result.Cancelled)
	}
	var parts []string
	if result.Failed > 0 {
		parts = append(parts, strconv.Itoa(result.Failed)+" clones failed")
	}
	if n := len(outcome.Problems); n > 0 {
		parts = append(parts, strconv.Itoa(n)+" repository entries are invalid")
	}
	if len(parts) > 0 {
		return macerrors.New(macerrors.ErrCloneFailed, strings.Join(parts, ", "))
	}
	return nil
}

// resolve is phase one: every repository gets a destination or is skipped
func (m *RepositoriesModule) resolve(ctx context.Context, store config.Store, specs []repos.Repo, outcome *RepositoriesOutcome) ([]clone.Task, error) {
	devRoot, _ := store.GetString(DevRootKey)
	resolver := destination.NewResolver(destination.Options{
		DevRoot:  paths.ExpandPath(devRoot),
		Rules:    destination.RulesFromStore(store),
		Selector: m.deps.Selector,
		Memory:   m.deps.Memory,
		DryRun:   m.deps.Settings.DryRun,
	})

	tasks := make([]clone.Task, 0, len(specs))
	for _, repo := range specs {
		if err := interrupted(ctx); err != nil {
			return nil, err
		}
		resolution, err := resolver.Resolve(repo.Name, repo.Org)
		if err != nil {
			outcome.Problems = append(outcome.Problems, repo.Spec+": "+err.Error())
			continue
		}
		if !resolution.Resolved {
			outcome.Unresolved = append(outcome.Unresolved, repo.Name)
			continue
		}
		tasks = append(tasks, clone.Task{
			RepoName:    repo.Name,
			Org:         repo.Org,
			CloneURL:    repo.CloneURL,
			Branch:      repo.Branch,
			Destination: resolution.Path,
		})
	}
	return tasks, nil
}

func (m *RepositoriesModule) parallel(store config.Store) int {
	if m.deps.Settings.Parallel > 0 {
		return m.deps.Settings.Parallel
	}
	if raw, ok := store.GetString(CloneParallelKey); ok {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return DefaultCloneParallel
}

func (m *RepositoriesModule) timeout(store config.Store) time.Duration {
	if m.deps.Settings.CloneTimeout > 0 {
		return m.deps.Settings.CloneTimeout
	}
	if raw, ok := store.GetString(CloneTimeoutKey); ok {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			return d
		}
	}
	return DefaultCloneTimeout
}
