package article_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jansonh/detiknews-crawler/internal/content/article"
	"github.com/jansonh/detiknews-crawler/internal/content/cleaner"
)

var fixedNow = time.Date(2026, time.October, 18, 9, 0, 0, 0, time.UTC)

func newExtractor(t *testing.T) *article.Extractor {
	t.Helper()
	c, err := cleaner.New(cleaner.DefaultConfig())
	require.NoError(t, err)
	x, err := article.NewExtractor(c, article.DefaultSelectors())
	require.NoError(t, err)
	return x.WithClock(func() time.Time { return fixedNow })
}

type pageOpts struct {
	title, author, date string
	body                string
	next                string
	noBody              bool
}

func renderPage(o pageOpts) []byte {
	head := ""
	if o.title != "" {
		head += fmt.Sprintf(`<h1 class="detail__title">
			%s
		</h1>`, o.title)
	}
	if o.author != "" {
		head += fmt.Sprintf(`<div class="detail__author">%s<span> - detikNews</span></div>`, o.author)
	}
	if o.date != "" {
		head += fmt.Sprintf(`<div class="detail__date">%s</div>`, o.date)
	}
	body := ""
	if !o.noBody {
		nav := ""
		if o.next != "" {
			nav = fmt.Sprintf(`<div class="detail__long-nav">Halaman 1 2 3 <a href="%s">Selanjutnya</a></div>`, o.next)
		}
		body = fmt.Sprintf(`<div class="detail__body-text">%s%s</div>`, o.body, nav)
	}
	return []byte("<html><body><article>" + head + body + "</article></body></html>")
}

func firstPage(body, next string) []byte {
	return renderPage(pageOpts{
		title:  "Tol Baru Diresmikan",
		author: "Andi Saputra",
		date:   "Senin, 18 Okt 2026 08:00 WIB",
		body:   body,
		next:   next,
	})
}

func TestAccumulator_SinglePage(t *testing.T) {
	acc := newExtractor(t).NewAccumulator()
	require.Equal(t, article.StateAwaitingFirstPage, acc.State())

	step, err := acc.Fetch("https://news.detik.com/berita/d-1", firstPage(`<p>Jakarta - Isi berita. (abc/xyz)</p>`, ""))
	require.NoError(t, err)
	require.NotNil(t, step.Record)
	assert.Empty(t, step.Next)
	assert.False(t, step.Skipped)
	assert.Equal(t, article.StateFinalized, acc.State())
	assert.Nil(t, acc.Draft())

	rec := step.Record
	assert.Equal(t, "Tol Baru Diresmikan", rec.Title)
	assert.Equal(t, "Andi Saputra", rec.Author)
	assert.Equal(t, "Senin, 18 Okt 2026 08:00 WIB", rec.PublishedAt)
	assert.Equal(t, "https://news.detik.com/berita/d-1", rec.SourceURL)
	assert.Equal(t, "Isi berita.", rec.FullText)
	assert.Equal(t, 1, rec.Pages)
	assert.Equal(t, fixedNow, rec.CrawledAt)
	assert.Equal(t, article.RecordID("https://news.detik.com/berita/d-1"), rec.ID)
}

func TestAccumulator_ThreePages(t *testing.T) {
	acc := newExtractor(t).NewAccumulator()
	const src = "https://news.detik.com/berita/d-2"

	step, err := acc.Fetch(src, firstPage(`<p>Jakarta - Bagian pertama.</p>`, "/berita/d-2/2"))
	require.NoError(t, err)
	assert.Equal(t, "/berita/d-2/2", step.Next)
	assert.Nil(t, step.Record)
	assert.Equal(t, article.StateAccumulating, acc.State())
	require.NotNil(t, acc.Draft())
	assert.Equal(t, src, acc.Draft().SourceURL())

	// Later pages carry no title block; fields come from the first page only.
	step, err = acc.Fetch(src+"/2", renderPage(pageOpts{body: `<p>Bagian kedua.</p>`, next: "/berita/d-2/3"}))
	require.NoError(t, err)
	assert.Equal(t, "/berita/d-2/3", step.Next)
	assert.Equal(t, 2, acc.Draft().Pages())

	step, err = acc.Fetch(src+"/3", renderPage(pageOpts{title: "Judul Lain", body: `<p>Bagian ketiga. (abc/xyz)</p>`}))
	require.NoError(t, err)
	require.NotNil(t, step.Record)

	assert.Equal(t, "Bagian pertama. Bagian kedua. Bagian ketiga.", step.Record.FullText)
	assert.Equal(t, "Tol Baru Diresmikan", step.Record.Title)
	assert.Equal(t, src, step.Record.SourceURL)
	assert.Equal(t, 3, step.Record.Pages)
	assert.Equal(t, article.StateFinalized, acc.State())
}

func TestAccumulator_FetchAfterFinalize(t *testing.T) {
	acc := newExtractor(t).NewAccumulator()
	_, err := acc.Fetch("u", firstPage(`<p>a</p>`, ""))
	require.NoError(t, err)

	_, err = acc.Fetch("u", firstPage(`<p>b</p>`, ""))
	require.ErrorIs(t, err, article.ErrFinalized)
}

func TestAccumulator_MissingRequiredField(t *testing.T) {
	tests := []struct {
		name  string
		opts  pageOpts
		field string
	}{
		{"title", pageOpts{author: "a", date: "d", body: "<p>x</p>"}, "title"},
		{"author", pageOpts{title: "t", date: "d", body: "<p>x</p>"}, "author"},
		{"date", pageOpts{title: "t", author: "a", body: "<p>x</p>"}, "published_at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := newExtractor(t).NewAccumulator()
			step, err := acc.Fetch("https://news.detik.com/berita/d-3", renderPage(tt.opts))
			require.ErrorIs(t, err, article.ErrMissingRequiredField)

			var fieldErr *article.FieldError
			require.True(t, errors.As(err, &fieldErr))
			assert.Equal(t, tt.field, fieldErr.Field)
			assert.Equal(t, "https://news.detik.com/berita/d-3", fieldErr.URL)
			assert.Nil(t, step.Record)
			assert.Equal(t, article.StateAwaitingFirstPage, acc.State())
		})
	}
}

func TestAccumulator_EmptyBodySkipped(t *testing.T) {
	acc := newExtractor(t).NewAccumulator()

	step, err := acc.Fetch("u", renderPage(pageOpts{noBody: true}))
	require.NoError(t, err)
	assert.True(t, step.Skipped)
	assert.Nil(t, step.Record)
	assert.Equal(t, article.StateAwaitingFirstPage, acc.State())

	step, err = acc.Fetch("u", firstPage(`<p>Jakarta - ok</p>`, "/2"))
	require.NoError(t, err)
	require.Equal(t, "/2", step.Next)

	step, err = acc.Fetch("u/2", renderPage(pageOpts{noBody: true}))
	require.NoError(t, err)
	assert.True(t, step.Skipped)
	assert.Equal(t, article.StateAccumulating, acc.State())
	assert.Equal(t, 1, acc.Draft().Pages())
}

func TestAccumulator_EmptyChunkKeepsSingleSeparator(t *testing.T) {
	acc := newExtractor(t).NewAccumulator()

	step, err := acc.Fetch("u", firstPage(`<script>only()</script>`, "/2"))
	require.NoError(t, err)
	require.Equal(t, "/2", step.Next)

	step, err = acc.Fetch("u/2", renderPage(pageOpts{body: `<p>isi</p>`}))
	require.NoError(t, err)
	require.NotNil(t, step.Record)
	assert.Equal(t, "isi", step.Record.FullText)
	assert.Equal(t, 2, step.Record.Pages)
}

func TestAccumulator_EmptyContinuationHrefFinalizes(t *testing.T) {
	acc := newExtractor(t).NewAccumulator()
	step, err := acc.Fetch("u", firstPage(`<p>a</p>`, " "))
	require.NoError(t, err)
	assert.NotNil(t, step.Record)
}

func TestNewExtractor_InvalidSelectors(t *testing.T) {
	sel := article.DefaultSelectors()
	sel.Title = ""
	_, err := article.NewExtractor(nil, sel)
	require.Error(t, err)

	sel = article.DefaultSelectors()
	sel.Body = "div[["
	require.Error(t, sel.Validate())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "accumulating", article.StateAccumulating.String())
	assert.Equal(t, "state(9)", article.State(9).String())
}
