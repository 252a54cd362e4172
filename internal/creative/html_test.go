package creative

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocument_Banner(t *testing.T) {
	dir := filepath.Join("testdata", "creatives", "banner")
	f, err := os.Open(filepath.Join(dir, "index.html"))
	require.NoError(t, err)
	defer f.Close()

	doc, err := ParseDocument(f, "index.html", dir)
	require.NoError(t, err)

	assert.Equal(t, "Summer Sale Banner", doc.Title)

	require.Len(t, doc.Scripts, 2)
	assert.Equal(t, "js/app.js", doc.Scripts[0].Name)
	assert.Contains(t, doc.Scripts[0].Source, "mraid.addEventListener")
	assert.Equal(t, "index.html#1", doc.Scripts[1].Name)
	assert.Contains(t, doc.Scripts[1].Source, "window.bannerReady = true")

	assert.Equal(t, []string{
		"mraid.js",
		"https://cdn.example.com/analytics.js",
		"inline text/template",
	}, doc.Skipped)
}

func TestParseDocument_Order(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.js"), []byte("var b = 2;"), 0o644))

	src := `<html><head>
<script>var a = 1;</script>
<script src="./b.js"></script>
<script src="/sdk/mm.js"></script>
<script src="//cdn.example.com/x.js"></script>
</head><body>
<script type="application/javascript">var c = 3;</script>
</body></html>`

	doc, err := ParseDocument(strings.NewReader(src), "ad.html", dir)
	require.NoError(t, err)

	var sources []string
	for _, s := range doc.Scripts {
		sources = append(sources, strings.TrimSpace(s.Source))
	}
	assert.Equal(t, []string{"var a = 1;", "var b = 2;", "var c = 3;"}, sources)
	assert.Equal(t, []string{"/sdk/mm.js", "//cdn.example.com/x.js"}, doc.Skipped)
}

func TestParseDocument_MissingScript(t *testing.T) {
	_, err := ParseDocument(strings.NewReader(`<script src="gone.js"></script>`), "ad.html", t.TempDir())

	var scriptErr *ScriptError
	require.True(t, errors.As(err, &scriptErr), "expected ScriptError, got %v", err)
	assert.Equal(t, "gone.js", scriptErr.Src)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestParseDocument_EscapingScript(t *testing.T) {
	_, err := ParseDocument(strings.NewReader(`<script src="../secret.js"></script>`), "ad.html", t.TempDir())

	var scriptErr *ScriptError
	assert.True(t, errors.As(err, &scriptErr), "expected ScriptError, got %v", err)
}
