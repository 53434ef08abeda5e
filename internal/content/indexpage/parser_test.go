package indexpage_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jansonh/detiknews-crawler/internal/content/indexpage"
)

func newParser(t *testing.T) *indexpage.Parser {
	t.Helper()
	p, err := indexpage.NewParser(indexpage.DefaultSelectors())
	require.NoError(t, err)
	return p
}

func indexMarkup(articles int, pagination []string) []byte {
	var b strings.Builder
	b.WriteString(`<html><body><div class="list-content">`)
	for i := range articles {
		fmt.Fprintf(&b, `<article><h3 class="media__title"><a href="https://news.detik.com/berita/d-%d/judul-%d">Judul %d</a></h3></article>`, i, i, i)
	}
	b.WriteString(`</div><div class="pagination">`)
	for _, href := range pagination {
		fmt.Fprintf(&b, `<a href="%s">next</a>`, href)
	}
	b.WriteString(`</div></body></html>`)
	return []byte(b.String())
}

func TestParse_ArticlesAndLastPagination(t *testing.T) {
	p := newParser(t)
	res, err := p.Parse(indexMarkup(10, []string{"/indeks/2?date=11/05/2024", "/indeks/3?date=11/05/2024"}))
	require.NoError(t, err)

	require.Len(t, res.ArticleURLs, 10)
	for i, u := range res.ArticleURLs {
		assert.Equal(t, fmt.Sprintf("https://news.detik.com/berita/d-%d/judul-%d", i, i), u)
	}
	assert.True(t, res.HasNext())
	assert.Equal(t, "/indeks/3?date=11/05/2024", res.NextPageURL)
}

func TestParse_NoPagination(t *testing.T) {
	res, err := newParser(t).Parse(indexMarkup(2, nil))
	require.NoError(t, err)
	assert.Len(t, res.ArticleURLs, 2)
	assert.False(t, res.HasNext())
	assert.Empty(t, res.NextPageURL)
}

func TestParse_SkipsAnchorsWithoutHref(t *testing.T) {
	markup := []byte(`
		<h3 class="media__title"><a>no link</a></h3>
		<h3 class="media__title"><a href="/a">A</a></h3>
		<h3 class="media__title"><span><a href="/nested">not a direct child</a></span></h3>
		<h2 class="media__title"><a href="/wrong-tag">B</a></h2>
		<div class="pagination"><a href="/p2">2</a><a>current</a></div>`)

	res, err := newParser(t).Parse(markup)
	require.NoError(t, err)
	assert.Equal(t, []string{"/a"}, res.ArticleURLs)
	assert.Equal(t, "/p2", res.NextPageURL)
}

func TestParse_RelativeHrefsUntouched(t *testing.T) {
	res, err := newParser(t).Parse(indexMarkup(0, []string{"?page=2"}))
	require.NoError(t, err)
	assert.Empty(t, res.ArticleURLs)
	assert.Equal(t, "?page=2", res.NextPageURL)
}

func TestParse_EmptyDocument(t *testing.T) {
	res, err := newParser(t).Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, res.ArticleURLs)
	assert.False(t, res.HasNext())
}

func TestNewParser_InvalidSelectors(t *testing.T) {
	tests := []indexpage.Selectors{
		{ArticleLinks: "", Pagination: "a"},
		{ArticleLinks: "a", Pagination: ""},
		{ArticleLinks: "a[", Pagination: "a"},
		{ArticleLinks: "a", Pagination: "a["},
	}
	for _, sel := range tests {
		_, err := indexpage.NewParser(sel)
		require.Error(t, err)
		require.Error(t, sel.Validate())
	}
}
