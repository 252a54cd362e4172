package creative

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// bridgeScripts are provided by the page itself and never loaded from a bundle.
var bridgeScripts = []string{"mraid.js", "mm.js", "actionsQueue.js"}

var scriptTypes = []string{
	"",
	"text/javascript",
	"application/javascript",
	"text/ecmascript",
	"application/ecmascript",
}

// Script is one classic script of a creative document, in execution order.
type Script struct {
	// Name is the src path, or "<document>#<n>" for inline scripts.
	Name   string
	Source string
}

// Document is the script view of an HTML creative.
type Document struct {
	Title   string
	Scripts []Script
	// Skipped lists script sources the harness cannot load: the bridge's own
	// files, remote URLs and non-classic script types.
	Skipped []string
}

// ParseDocument extracts the scripts of an HTML document in document order.
// Local src files are read relative to dir.
func ParseDocument(r io.Reader, name, dir string) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	doc := &Document{}
	if title := htmlquery.FindOne(root, "//title"); title != nil {
		doc.Title = strings.TrimSpace(htmlquery.InnerText(title))
	}

	nodes, err := htmlquery.QueryAll(root, "//script")
	if err != nil {
		return nil, fmt.Errorf("failed to query scripts of %s: %w", name, err)
	}

	inline := 0
	for _, n := range nodes {
		typ := strings.ToLower(strings.TrimSpace(htmlquery.SelectAttr(n, "type")))
		src := strings.TrimSpace(htmlquery.SelectAttr(n, "src"))

		if !slices.Contains(scriptTypes, typ) {
			doc.Skipped = append(doc.Skipped, describe(src, typ))
			continue
		}

		if src == "" {
			inline++
			doc.Scripts = append(doc.Scripts, Script{
				Name:   fmt.Sprintf("%s#%d", name, inline),
				Source: htmlquery.InnerText(n),
			})
			continue
		}

		local, ok := localSource(src)
		if !ok || slices.Contains(bridgeScripts, path.Base(local)) {
			doc.Skipped = append(doc.Skipped, src)
			continue
		}

		file := filepath.FromSlash(local)
		if !filepath.IsLocal(file) {
			return nil, &ScriptError{Document: name, Src: src, Err: fmt.Errorf("path leaves the bundle")}
		}
		data, err := os.ReadFile(filepath.Join(dir, file))
		if err != nil {
			return nil, &ScriptError{Document: name, Src: src, Err: err}
		}
		doc.Scripts = append(doc.Scripts, Script{Name: local, Source: string(data)})
	}

	return doc, nil
}

// localSource returns the bundle-relative path of src, or false for remote sources.
func localSource(src string) (string, bool) {
	u, err := url.Parse(src)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", false
	}
	p, err := url.PathUnescape(u.Path)
	if err != nil {
		return "", false
	}
	return strings.TrimPrefix(path.Clean(p), "/"), true
}

func describe(src, typ string) string {
	if src != "" {
		return src
	}
	return "inline " + typ
}
