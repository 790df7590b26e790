// Package repos turns repository entries from the configuration into clone
// inputs. Entries are GitHub shorthand (owner/name), GitLab shorthand
// (group/subgroup/name) or full clone URLs, each optionally suffixed with
// #branch.
package repos

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/arthur-debert/macsetup/pkg/config"
	"github.com/arthur-debert/macsetup/pkg/errors"
)

// Provider says how a shorthand entry is expanded
type Provider string

const (
	GitHub Provider = "github"
	GitLab Provider = "gitlab"
	// URL entries carry their own host and protocol
	URL Provider = "url"
)

// Protocol used to build clone URLs for shorthand entries
type Protocol string

const (
	SSH   Protocol = "ssh"
	HTTPS Protocol = "https"
)

// Options holds the hosts and protocol for shorthand entries
type Options struct {
	Protocol   Protocol
	GitHubHost string
	GitLabHost string
}

// DefaultOptions match the embedded configuration defaults
func DefaultOptions() Options {
	return Options{Protocol: SSH, GitHubHost: "github.com", GitLabHost: "gitlab.com"}
}

// Repo is a parsed repository entry
type Repo struct {
	Spec     string
	Provider Provider
	Host     string
	// Org is the owner or the group path, everything before the name
	Org      string
	Name     string
	Branch   string
	CloneURL string
}

// Parse parses one entry
func Parse(spec string, provider Provider, opts Options) (Repo, error) {
	raw := strings.TrimSpace(spec)
	if raw == "" {
		return Repo{}, errors.New(errors.ErrInvalidInput, "empty repository entry")
	}

	repo := Repo{Spec: spec, Provider: provider}
	if i := strings.LastIndex(raw, "#"); i >= 0 {
		repo.Branch = strings.TrimSpace(raw[i+1:])
		raw = strings.TrimSpace(raw[:i])
		if repo.Branch == "" {
			return Repo{}, errors.Newf(errors.ErrInvalidInput, "repository entry %q has an empty branch", spec)
		}
	}

	if provider == URL || looksLikeURL(raw) {
		return parseURL(repo, raw)
	}
	return parseShorthand(repo, raw, opts)
}

func looksLikeURL(s string) bool {
	return strings.Contains(s, "://") || (strings.HasPrefix(s, "git@") && strings.Contains(s, ":"))
}

func parseShorthand(repo Repo, raw string, opts Options) (Repo, error) {
	segments := strings.Split(strings.Trim(raw, "/"), "/")
	segments[len(segments)-1] = strings.TrimSuffix(segments[len(segments)-1], ".git")
	if !safeSegments(segments) {
		return Repo{}, errors.Newf(errors.ErrInvalidInput, "invalid repository entry %q", repo.Spec)
	}

	switch repo.Provider {
	case GitHub:
		if len(segments) != 2 {
			return Repo{}, errors.Newf(errors.ErrInvalidInput, "GitHub entry %q must be owner/name", repo.Spec)
		}
		repo.Host = opts.GitHubHost
	case GitLab:
		if len(segments) < 2 {
			return Repo{}, errors.Newf(errors.ErrInvalidInput, "GitLab entry %q must be group/name or group/subgroup/name", repo.Spec)
		}
		repo.Host = opts.GitLabHost
	default:
		return Repo{}, errors.Newf(errors.ErrInvalidInput, "unknown provider %q for %q", repo.Provider, repo.Spec)
	}

	repo.Name = segments[len(segments)-1]
	repo.Org = strings.Join(segments[:len(segments)-1], "/")
	path := repo.Org + "/" + repo.Name + ".git"

	switch opts.Protocol {
	case HTTPS:
		repo.CloneURL = fmt.Sprintf("https://%s/%s", repo.Host, path)
	case SSH, "":
		repo.CloneURL = fmt.Sprintf("git@%s:%s", repo.Host, path)
	default:
		return Repo{}, errors.Newf(errors.ErrInvalidInput, "unknown protocol %q (use ssh or https)", opts.Protocol)
	}
	return repo, nil
}

func parseURL(repo Repo, raw string) (Repo, error) {
	normalized := raw
	if !strings.Contains(raw, "://") && strings.HasPrefix(raw, "git@") {
		normalized = "ssh://" + strings.Replace(raw, ":", "/", 1)
	}

	u, err := url.Parse(normalized)
	if err != nil {
		return Repo{}, errors.Wrapf(err, errors.ErrInvalidInput, "invalid repository URL %q", repo.Spec)
	}
	switch u.Scheme {
	case "https", "http", "ssh", "git", "file":
	default:
		return Repo{}, errors.Newf(errors.ErrInvalidInput, "unsupported URL scheme %q in %q", u.Scheme, repo.Spec)
	}

	segments := strings.Split(strings.Trim(strings.TrimSuffix(u.Path, ".git"), "/"), "/")
	if len(segments) < 2 {
		return Repo{}, errors.Newf(errors.ErrInvalidInput, "repository URL %q has no owner and name", repo.Spec)
	}
	if !safeSegments(segments) {
		return Repo{}, errors.Newf(errors.ErrInvalidInput, "invalid path in repository URL %q", repo.Spec)
	}

	repo.Provider = URL
	repo.Host = u.Hostname()
	repo.Name = segments[len(segments)-1]
	repo.Org = strings.Join(segments[:len(segments)-1], "/")
	repo.CloneURL = raw
	return repo, nil
}

// safeSegments rejects path segments that would place a clone outside its
// destination or onto the destination itself.
func safeSegments(segments []string) bool {
	for _, s := range segments {
		if s == "" || s == "." || s == ".." {
			return false
		}
	}
	return true
}

// Configuration arrays holding repository entries
const (
	GitHubKey = "repositories.github"
	GitLabKey = "repositories.gitlab"
	URLsKey   = "repositories.urls"
)

// OptionsFromStore reads protocol and hosts, falling back to defaults
func OptionsFromStore(store config.Store) Options {
	opts := DefaultOptions()
	if v, ok := store.GetString("repositories.protocol"); ok && v != "" {
		opts.Protocol = Protocol(strings.ToLower(v))
	}
	if v, ok := store.GetString("repositories.github_host"); ok && v != "" {
		opts.GitHubHost = v
	}
	if v, ok := store.GetString("repositories.gitlab_host"); ok && v != "" {
		opts.GitLabHost = v
	}
	return opts
}

// FromStore parses every configured entry. Entries that fail to parse are
// returned as errors alongside the valid ones, so one bad entry does not
// hide the rest.
func FromStore(store config.Store) ([]Repo, []error) {
	opts := OptionsFromStore(store)
	var (
		out  []Repo
		errs []error
	)
	for _, src := range []struct {
		key      string
		provider Provider
	}{
		{GitHubKey, GitHub},
		{GitLabKey, GitLab},
		{URLsKey, URL},
	} {
		entries, ok := store.GetStringArray(src.key)
		if !ok {
			continue
		}
		for _, entry := range entries {
			repo, err := Parse(entry, src.provider, opts)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			out = append(out, repo)
		}
	}
	return out, errs
}
