package fetch

import (
	"bytes"
	"context"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/patricktcoakley/gdvm-sub001/internal/release"
)

// TuxFamilyURL is the root of the mirror's directory index.
const TuxFamilyURL = "https://downloads.tuxfamily.org/godotengine"

var versionDir = regexp.MustCompile(`^\d+\.\d+(\.\d+)?/?$`)

// TuxFamily is the secondary mirror. Files of a release live under
// "{version}/[{type}/][mono/]"; stable releases have no type directory.
type TuxFamily struct {
	client  *Client
	baseURL string
}

// NewTuxFamily returns the mirror source rooted at baseURL (TuxFamilyURL
// when empty).
func NewTuxFamily(client *Client, baseURL string) *TuxFamily {
	if baseURL == "" {
		baseURL = TuxFamilyURL
	}
	return &TuxFamily{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

// Name implements Source.
func (t *TuxFamily) Name() string { return "tuxfamily" }

// Dir returns the directory URL holding rel's files.
func (t *TuxFamily) Dir(rel release.Release) string {
	u := t.baseURL + "/" + rel.Version() + "/"
	if !rel.Type.IsStable() {
		u += rel.Type.String() + "/"
	}
	if rel.IsMono() {
		u += "mono/"
	}
	return u
}

// GetFile implements Source.
func (t *TuxFamily) GetFile(ctx context.Context, rel release.Release, file string, sink Sink) error {
	return t.client.Get(ctx, t.Dir(rel)+file, nil, sink)
}

// ListReleases reads the top-level directory index. Only stable releases
// are listed; pre-releases are nested below their version directory.
func (t *TuxFamily) ListReleases(ctx context.Context) ([]string, error) {
	var buf BufferSink
	if err := t.client.Get(ctx, t.baseURL+"/", nil, &buf); err != nil {
		return nil, err
	}

	var names []string
	for _, href := range parseLinks(buf.Bytes()) {
		if !versionDir.MatchString(href) {
			continue
		}
		name := strings.TrimSuffix(href, "/") + "-stable"
		if _, ok := release.Parse(name); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// parseLinks returns the href of every anchor in an HTML document.
func parseLinks(doc []byte) []string {
	var hrefs []string
	z := html.NewTokenizer(bytes.NewReader(doc))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return hrefs
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "a" {
				continue
			}
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				if string(key) == "href" {
					hrefs = append(hrefs, string(val))
				}
			}
		}
	}
}
