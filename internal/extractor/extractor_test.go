package extractor

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/newsrelay/internal/config"
	"github.com/IshaanNene/newsrelay/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const baseURL = "https://unik-kediri.ac.id/berita"

func fixedClock() time.Time {
	return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
}

func newTestExtractor(opts ...Option) *Extractor {
	opts = append([]Option{WithClock(fixedClock)}, opts...)
	return New(config.DefaultConfig().Extractor, testLogger, opts...)
}

func mustExtract(t *testing.T, e *Extractor, page string) *Result {
	t.Helper()
	res, err := e.Extract([]byte(page), baseURL)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	return res
}

func TestExtractNewsItem(t *testing.T) {
	page := `<html><body>
	<div class="news-item">
		<h3 class="title">University Announces New Research Grant Program</h3>
		<a href="/berita/123">Baca selengkapnya</a>
	</div>
</body></html>`

	res := mustExtract(t, newTestExtractor(), page)
	if res.Strategy != "news-item" {
		t.Errorf("strategy = %q, want news-item", res.Strategy)
	}
	if len(res.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(res.Candidates))
	}
	c := res.Candidates[0]
	if c.URL != "https://unik-kediri.ac.id/berita/123" {
		t.Errorf("url = %q", c.URL)
	}
	if c.Title != "University Announces New Research Grant Program" {
		t.Errorf("title = %q", c.Title)
	}
	if c.Category != types.DefaultCategory {
		t.Errorf("category = %q", c.Category)
	}
	if c.PublishedDate != "2024-06-01" {
		t.Errorf("published date = %q, want clock date", c.PublishedDate)
	}
}

func TestExtractFallbackLinks(t *testing.T) {
	page := `<html><body>
	<nav><a href="/berita">Berita</a><a href="/kontak">Kontak kami sekarang</a></nav>
	<div><a href="/berita/55">Full text longer than ten characters</a></div>
</body></html>`

	res := mustExtract(t, newTestExtractor(), page)
	if res.Strategy != FallbackStrategy {
		t.Errorf("strategy = %q, want fallback", res.Strategy)
	}
	if res.Matched != 2 {
		t.Errorf("matched = %d, want 2 news links", res.Matched)
	}
	if len(res.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %+v", res.Candidates)
	}
	c := res.Candidates[0]
	if c.URL != "https://unik-kediri.ac.id/berita/55" {
		t.Errorf("url = %q", c.URL)
	}
	if c.Title != "Full text longer than ten characters" {
		t.Errorf("title = %q", c.Title)
	}
	if c.Category != types.DefaultCategory {
		t.Errorf("category = %q, want default", c.Category)
	}
	if c.Excerpt != "" {
		t.Errorf("excerpt = %q, want empty", c.Excerpt)
	}
	if c.PublishedDate != "2024-06-01" {
		t.Errorf("published date = %q", c.PublishedDate)
	}
	if res.Rejected != 1 {
		t.Errorf("rejected = %d, want 1", res.Rejected)
	}
}

func TestExtractFirstStrategyWins(t *testing.T) {
	page := `<html><body>
	<div class="news-item"><h2>Penerimaan Mahasiswa Baru Gelombang II</h2><a href="/berita/1">x</a></div>
	<article><h2>Artikel yang tidak boleh ikut diambil</h2><a href="/artikel/2">x</a></article>
	<div class="card"><h2>Kartu yang juga tidak boleh diambil</h2><a href="/berita/3">x</a></div>
</body></html>`

	res := mustExtract(t, newTestExtractor(), page)
	if res.Strategy != "news-item" {
		t.Errorf("strategy = %q", res.Strategy)
	}
	if len(res.Candidates) != 1 || res.Candidates[0].URL != "https://unik-kediri.ac.id/berita/1" {
		t.Errorf("results must not be merged across strategies: %+v", res.Candidates)
	}
}

func TestExtractClassContains(t *testing.T) {
	page := `<html><body><ul>
	<li class="newslist"><h4>Seminar Nasional Teknologi Informasi</h4><a href="https://unik-kediri.ac.id/berita/7">Detail</a></li>
	<li class="newslist"><h4>Workshop Penulisan Karya Ilmiah</h4><a href="//unik-kediri.ac.id/berita/8">Detail</a></li>
</ul></body></html>`

	res := mustExtract(t, newTestExtractor(), page)
	if res.Strategy != "class-contains" {
		t.Errorf("strategy = %q", res.Strategy)
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(res.Candidates))
	}
	if res.Candidates[1].URL != "https://unik-kediri.ac.id/berita/8" {
		t.Errorf("protocol-relative url = %q", res.Candidates[1].URL)
	}
}

func TestExtractFields(t *testing.T) {
	page := `<html><body>
	<article>
		<span class="kategori">Akademik</span>
		<h2 class="entry-title">Jadwal Ujian Akhir Semester Genap</h2>
		<time datetime="2024-05-20T08:00:00+07:00">Senin</time>
		<div class="ringkasan">Ujian dilaksanakan   secara luring.</div>
		<a href="berita/uas-genap">Baca</a>
	</article>
	<article>
		<h2>Kunjungan Industri Mahasiswa Teknik</h2>
		<span class="tanggal">15 Januari 2024</span>
		<a href="/berita/kunjungan">Baca</a>
	</article>
</body></html>`

	res := mustExtract(t, newTestExtractor(), page)
	if len(res.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(res.Candidates))
	}

	first := res.Candidates[0]
	if first.Category != "Akademik" {
		t.Errorf("category = %q", first.Category)
	}
	if first.PublishedDate != "2024-05-20" {
		t.Errorf("datetime attr date = %q", first.PublishedDate)
	}
	if first.Excerpt != "Ujian dilaksanakan secara luring." {
		t.Errorf("excerpt = %q", first.Excerpt)
	}
	if first.URL != "https://unik-kediri.ac.id/berita/uas-genap" {
		t.Errorf("relative url = %q", first.URL)
	}

	second := res.Candidates[1]
	if second.PublishedDate != "2024-01-15" {
		t.Errorf("indonesian date = %q", second.PublishedDate)
	}
}

func TestExtractExcerptFallback(t *testing.T) {
	page := `<html><body>
	<div class="news-item">
		<h3>Kuliah Umum Bersama Praktisi Industri</h3>
		<a href="/berita/9">Selengkapnya</a>
		<span>Kegiatan ini diikuti mahasiswa</span>
	</div>
</body></html>`

	res := mustExtract(t, newTestExtractor(), page)
	if len(res.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(res.Candidates))
	}
	if got := res.Candidates[0].Excerpt; got != "Selengkapnya Kegiatan ini diikuti mahasiswa" {
		t.Errorf("excerpt = %q", got)
	}

	long := `<div class="news-item"><h3>Judul berita yang cukup panjang</h3><a href="/berita/10">x</a>` +
		strings.Repeat("kata ", 100) + `</div>`
	res = mustExtract(t, newTestExtractor(), long)
	if n := utf8.RuneCountInString(res.Candidates[0].Excerpt); n > 200 {
		t.Errorf("fallback excerpt has %d runes, want <= 200", n)
	}
}

func TestExtractAcceptanceAndTruncation(t *testing.T) {
	longTitle := strings.Repeat("Pengumuman ", 60)
	longExcerpt := strings.Repeat("Isi ", 400)
	page := `<html><body>
	<div class="news-item"><h3>Singkat</h3><a href="/berita/1">x</a></div>
	<div class="news-item"><h3>Judul tanpa tautan sama sekali</h3></div>
	<div class="news-item"><h3>` + longTitle + `</h3><p>` + longExcerpt + `</p><a href="/berita/2">x</a></div>
</body></html>`

	res := mustExtract(t, newTestExtractor(), page)
	if res.Matched != 3 {
		t.Errorf("matched = %d", res.Matched)
	}
	if res.Rejected != 2 {
		t.Errorf("rejected = %d, want 2", res.Rejected)
	}
	if len(res.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(res.Candidates))
	}
	c := res.Candidates[0]
	if n := utf8.RuneCountInString(c.Title); n != 500 {
		t.Errorf("title runes = %d, want 500", n)
	}
	if n := utf8.RuneCountInString(c.Excerpt); n != 1000 {
		t.Errorf("excerpt runes = %d, want 1000", n)
	}
}

// nilStrategy yields a nil container, which panics on access.
type nilStrategy struct{}

func (nilStrategy) Name() string { return "broken" }

func (nilStrategy) Match(doc *Document) []*goquery.Selection {
	good := doc.Query.Find(".news-item")
	return []*goquery.Selection{nil, good}
}

func TestExtractRecoversElementPanic(t *testing.T) {
	page := `<div class="news-item"><h3>Beasiswa Prestasi Tahun Ajaran Baru</h3><a href="/berita/4">x</a></div>`

	res := mustExtract(t, newTestExtractor(WithStrategies(nilStrategy{})), page)
	if len(res.Failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(res.Failures))
	}
	if res.Failures[0].Index != 0 || res.Failures[0].Strategy != "broken" {
		t.Errorf("failure = %+v", res.Failures[0])
	}
	if types.KindOf(res.Failures[0]) != types.KindExtraction {
		t.Error("failure must be an extraction error")
	}
	if len(res.Candidates) != 1 {
		t.Errorf("remaining elements must still be extracted, got %d", len(res.Candidates))
	}
}

func TestExtractEmptyPage(t *testing.T) {
	res := mustExtract(t, newTestExtractor(), `<html><body><p>Maintenance</p></body></html>`)
	if res.Strategy != FallbackStrategy || len(res.Candidates) != 0 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestExtractInvalidBaseURL(t *testing.T) {
	_, err := newTestExtractor().Extract([]byte("<html></html>"), "not a url")
	if !errors.Is(err, types.ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got %v", err)
	}
}
