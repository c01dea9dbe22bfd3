package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/patricktcoakley/gdvm-sub001/internal/release"
)

const (
	// GitHubAPIURL lists the releases of the official builds repository.
	GitHubAPIURL = "https://api.github.com/repos/godotengine/godot-builds/releases"
	// GitHubDownloadURL serves release assets.
	GitHubDownloadURL = "https://github.com/godotengine/godot-builds/releases/download"

	githubPageSize = 100
	githubMaxPages = 50
)

// GitHub is the primary source, the godotengine/godot-builds releases.
type GitHub struct {
	client      *Client
	apiURL      string
	downloadURL string
	token       string
}

// GitHubOption configures a GitHub source.
type GitHubOption func(*GitHub)

// WithToken sets the bearer token sent to the API. Empty means anonymous.
func WithToken(token string) GitHubOption {
	return func(g *GitHub) { g.token = strings.TrimSpace(token) }
}

// WithGitHubURLs overrides the API and download base URLs.
func WithGitHubURLs(apiURL, downloadURL string) GitHubOption {
	return func(g *GitHub) {
		g.apiURL = strings.TrimRight(apiURL, "/")
		g.downloadURL = strings.TrimRight(downloadURL, "/")
	}
}

// NewGitHub returns the primary source.
func NewGitHub(client *Client, opts ...GitHubOption) *GitHub {
	g := &GitHub{client: client, apiURL: GitHubAPIURL, downloadURL: GitHubDownloadURL}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name implements Source.
func (g *GitHub) Name() string { return "github" }

type githubRelease struct {
	TagName string `json:"tag_name"`
	Draft   bool   `json:"draft"`
}

func (g *GitHub) apiHeaders() http.Header {
	h := http.Header{}
	h.Set("Accept", "application/vnd.github+json")
	h.Set("X-GitHub-Api-Version", "2022-11-28")
	if g.token != "" {
		h.Set("Authorization", "Bearer "+g.token)
	}
	return h
}

// ListReleases pages through the releases API and returns every tag that
// parses as a release name, newest first as served.
func (g *GitHub) ListReleases(ctx context.Context) ([]string, error) {
	var names []string
	for page := 1; page <= githubMaxPages; page++ {
		q := url.Values{}
		q.Set("per_page", fmt.Sprint(githubPageSize))
		q.Set("page", fmt.Sprint(page))

		var buf BufferSink
		if err := g.client.Get(ctx, g.apiURL+"?"+q.Encode(), g.apiHeaders(), &buf); err != nil {
			return nil, err
		}

		var releases []githubRelease
		if err := json.Unmarshal(buf.Bytes(), &releases); err != nil {
			return nil, &ConnectionFailure{Message: "decode github releases", Details: err.Error()}
		}
		for _, r := range releases {
			if r.Draft {
				continue
			}
			if _, ok := release.Parse(r.TagName); ok {
				names = append(names, r.TagName)
			}
		}
		if len(releases) < githubPageSize {
			break
		}
	}
	return names, nil
}

// FileURL returns the asset URL of file in rel's release. Mono assets live
// under the same tag as the standard ones.
func (g *GitHub) FileURL(rel release.Release, file string) string {
	return g.downloadURL + "/" + rel.Name() + "/" + file
}

// GetFile implements Source.
func (g *GitHub) GetFile(ctx context.Context, rel release.Release, file string, sink Sink) error {
	return g.client.Get(ctx, g.FileURL(rel, file), nil, sink)
}
