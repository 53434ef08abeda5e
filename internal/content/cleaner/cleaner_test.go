package cleaner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jansonh/detiknews-crawler/internal/content/cleaner"
)

func newCleaner(t *testing.T) *cleaner.Cleaner {
	t.Helper()
	c, err := cleaner.New(cleaner.DefaultConfig())
	require.NoError(t, err)
	return c
}

func TestClean(t *testing.T) {
	c := newCleaner(t)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"dateline", "Jakarta - Today is sunny", "Today is sunny"},
		{"no dash", "No dash here", "No dash here"},
		{"only first dash", "Bandung - Skor 2-1 untuk tuan rumah", "Skor 2-1 untuk tuan rumah"},
		{"en dash is not a dateline", "Jakarta – Today is sunny", "Jakarta – Today is sunny"},
		{"continuation marker", "Some text Selanjutnya Halaman 1 trailing junk", "Some text"},
		{"short marker", "Isi berita. Halaman 1 dari 2", "Isi berita."},
		{"last marker occurrence wins", "A Halaman 1 B Halaman 1 C", "A Halaman 1 B"},
		{"marker at start", "Halaman 1 sisanya", ""},
		{"marker drops preceding rune", "Beritaé" + "Halaman 1", "Berita"},
		{"signature", "Berita selesai (aaa/bbb)", "Berita selesai"},
		{"signature needs slash", "Berita selesai (aaa-bbb)", "Berita selesai (aaa-bbb)"},
		{"only one signature removed", "Berita (aaa/bbb) (ccc/ddd)", "Berita (aaa/bbb)"},
		{"signature must be trailing", "Berita (aaa/bbb) lanjut", "Berita (aaa/bbb) lanjut"},
		{"signature before whitespace run is kept", "<p>Isi berita (ab/cd)\n\n   Halaman 1 2</p>", "Isi berita (ab/cd)"},
		{"dateline then marker", "Jakarta - Halaman 1 sisanya", ""},
		{"empty", "", ""},
		{"only a dash", "-", ""},
		{"only tags", "<div><span></span></div>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Clean(tt.input))
		})
	}
}

func TestClean_Markup(t *testing.T) {
	c := newCleaner(t)

	fragment := `<div class="detail__body-text">
		<script>var x = 1;</script>
		<style>.a{}</style>
		<p><strong>Jakarta</strong> - Presiden meresmikan   jalan tol.</p>
		<div class="lihatjg"><a href="/x">Baca juga: lainnya</a></div>
		<p>Jalan itu <b>sepanjang</b> 10 km.</p>
		<a class="embed video20detik" href="/v">Video</a>
		<div class="ratiobox ratio_16_9 sisip_video_ds"><iframe></iframe>Tonton</div>
		<div class="detail__body-tag mgt-16"><a>tol</a><a>presiden</a></div>
		<div class="lihatjg">kedua</div>
		<p>Selesai. (abc/def)</p>
	</div>`

	assert.Equal(t, "Presiden meresmikan   jalan tol. Jalan itu sepanjang 10 km. Selesai.", c.Clean(fragment))
}

func TestClean_CustomConfig(t *testing.T) {
	cfg := cleaner.DefaultConfig()
	cfg.RemoveSelectors = []string{"span.ad"}
	cfg.DatelineSeparator = ""
	cfg.ContinuationMarkers = []string{"Next page"}
	cfg.SignaturePattern = ""

	c, err := cleaner.New(cfg)
	require.NoError(t, err)

	got := c.Clean(`<p>Jakarta - text <span class="ad">buy</span> more Next page 2 (a/b)</p>`)
	assert.Equal(t, "Jakarta - text more", got)
}

func TestClean_Deterministic(t *testing.T) {
	c := newCleaner(t)
	inputs := []string{
		"Jakarta - Today is sunny",
		"<p>A</p><p>B - C</p>",
		"x Selanjutnya Halaman 1 y",
		"</p>",
	}
	for _, in := range inputs {
		assert.Equal(t, c.Clean(in), c.Clean(in), in)
	}
}

func TestClean_IdempotentOnCleanText(t *testing.T) {
	c := newCleaner(t)
	inputs := []string{
		"Presiden meresmikan jalan tol.",
		"No dash here",
		"Berita selesai",
		"Angka (aaa) tetap",
	}
	for _, in := range inputs {
		once := c.Clean(in)
		assert.Equal(t, once, c.Clean(once), in)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*cleaner.Config)
	}{
		{"bad selector", func(c *cleaner.Config) { c.RemoveSelectors = []string{"div["} }},
		{"empty selector", func(c *cleaner.Config) { c.RemoveSelectors = []string{""} }},
		{"bad pattern", func(c *cleaner.Config) { c.SignaturePattern = "(" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := cleaner.DefaultConfig()
			tt.mutate(&cfg)
			_, err := cleaner.New(cfg)
			require.Error(t, err)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_ValidateEmptyMarker(t *testing.T) {
	cfg := cleaner.DefaultConfig()
	cfg.ContinuationMarkers = []string{"Halaman 1", ""}
	require.Error(t, cfg.Validate())
}
