package repos

import (
	"testing"

	"github.com/arthur-debert/macsetup/pkg/config"
	"github.com/arthur-debert/macsetup/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	https := DefaultOptions()
	https.Protocol = HTTPS

	tests := []struct {
		name     string
		spec     string
		provider Provider
		opts     Options
		want     Repo
	}{
		{
			name:     "github shorthand over ssh",
			spec:     "acme/api",
			provider: GitHub,
			opts:     DefaultOptions(),
			want: Repo{Spec: "acme/api", Provider: GitHub, Host: "github.com", Org: "acme", Name: "api",
				CloneURL: "git@github.com:acme/api.git"},
		},
		{
			name:     "github shorthand over https with branch",
			spec:     "acme/api#develop",
			provider: GitHub,
			opts:     https,
			want: Repo{Spec: "acme/api#develop", Provider: GitHub, Host: "github.com", Org: "acme", Name: "api",
				Branch: "develop", CloneURL: "https://github.com/acme/api.git"},
		},
		{
			name:     "gitlab subgroup",
			spec:     "my-group/platform/infra",
			provider: GitLab,
			opts:     DefaultOptions(),
			want: Repo{Spec: "my-group/platform/infra", Provider: GitLab, Host: "gitlab.com", Org: "my-group/platform",
				Name: "infra", CloneURL: "git@gitlab.com:my-group/platform/infra.git"},
		},
		{
			name:     "scp-like url",
			spec:     "git@git.example.com:team/tool.git",
			provider: URL,
			want: Repo{Spec: "git@git.example.com:team/tool.git", Provider: URL, Host: "git.example.com", Org: "team",
				Name: "tool", CloneURL: "git@git.example.com:team/tool.git"},
		},
		{
			name:     "https url in the github list",
			spec:     "https://github.com/acme/site.git#gh-pages",
			provider: GitHub,
			want: Repo{Spec: "https://github.com/acme/site.git#gh-pages", Provider: URL, Host: "github.com", Org: "acme",
				Name: "site", Branch: "gh-pages", CloneURL: "https://github.com/acme/site.git"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.spec, tt.provider, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		spec     string
		provider Provider
		opts     Options
	}{
		{"empty", "  ", GitHub, DefaultOptions()},
		{"github needs two segments", "acme/team/api", GitHub, DefaultOptions()},
		{"single segment", "api", GitLab, DefaultOptions()},
		{"empty branch", "acme/api#", GitHub, DefaultOptions()},
		{"dot segment", "acme/..", GitHub, DefaultOptions()},
		{"bad protocol", "acme/api", GitHub, Options{Protocol: "ftp", GitHubHost: "github.com"}},
		{"bad scheme", "ftp://host/a/b.git", URL, DefaultOptions()},
		{"url without owner", "https://github.com/api.git", URL, DefaultOptions()},
		{"escaped parent name", "https://github.com/acme/%2e%2e.git", URL, DefaultOptions()},
		{"scp dot name", "git@github.com:acme/.", URL, DefaultOptions()},
		{"parent org in url", "https://github.com/../api.git", URL, DefaultOptions()},
		{"name is only the suffix", "acme/.git", GitHub, DefaultOptions()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.spec, tt.provider, tt.opts)
			assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput), "got %v", err)
		})
	}
}

func TestFromStore(t *testing.T) {
	store, err := config.FromMap(map[string]interface{}{
		"repositories": map[string]interface{}{
			"protocol": "HTTPS",
			"github":   []interface{}{"acme/api", "broken"},
			"gitlab":   []interface{}{"grp/sub/tool"},
			"urls":     []interface{}{"git@example.com:me/dots.git"},
		},
	})
	require.NoError(t, err)

	repos, errs := FromStore(store)
	require.Len(t, errs, 1)
	require.Len(t, repos, 3)
	assert.Equal(t, "https://github.com/acme/api.git", repos[0].CloneURL)
	assert.Equal(t, "https://gitlab.com/grp/sub/tool.git", repos[1].CloneURL)
	assert.Equal(t, "grp/sub", repos[1].Org)
	assert.Equal(t, "dots", repos[2].Name)
}
