// Package scraper fetches faculty directory pages, extracts one record per
// faculty block, optionally enriches each record from its profile page, and
// keeps the latest result for export.
package scraper

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"faculty/internal/extracthtml"
	"faculty/internal/faculty"
	"faculty/internal/metrics"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultWorkers = 10
	DefaultTimeout = 20 * time.Second
)

// ErrInvalidConfig is wrapped by every configuration error New returns.
var ErrInvalidConfig = eris.New("invalid scraper config")

// Config describes one directory site.
type Config struct {
	// BaseURL is the directory page. It is the only page fetched when
	// neither Pages nor Letters is set and the rules define no paging.
	BaseURL string

	// Pages is an explicit, ordered page list.
	Pages []string

	// Letters derives one page per letter from BaseURL ("A-Z", "A-C,X").
	// Ignored when Pages is set.
	Letters     string
	LetterParam string

	// Rules defaults to extracthtml.DefaultFacultyRules.
	Rules *extracthtml.Rules

	Workers   int
	Timeout   time.Duration
	UserAgent string

	// Dedupe drops later records that repeat an email.
	Dedupe bool

	// NoProfiles skips profile-page enrichment.
	NoProfiles bool

	Logger     *zap.Logger
	Metrics    metrics.Backend
	HTTPClient *http.Client
}

// Scraper runs scrapes for one Config. Its methods are safe for concurrent use.
type Scraper struct {
	cfg      Config
	base     *url.URL
	pages    []string // nil means discover or BaseURL only
	discover bool

	rules   *extracthtml.Compiled
	loader  *extracthtml.Loader
	log     *zap.Logger
	metrics metrics.Backend

	mu     sync.RWMutex
	result faculty.Result
}

// New validates cfg and fills defaults.
func New(cfg Config) (*Scraper, error) {
	base, err := parseHTTPURL(cfg.BaseURL)
	if err != nil {
		return nil, eris.Wrapf(ErrInvalidConfig, "base url: %v", err)
	}

	rules := extracthtml.DefaultFacultyRules()
	if cfg.Rules != nil {
		rules = *cfg.Rules
	}
	compiled, err := extracthtml.Compile(rules)
	if err != nil {
		return nil, eris.Wrapf(ErrInvalidConfig, "rules: %v", err)
	}

	var pages []string
	switch {
	case len(cfg.Pages) > 0:
		for _, p := range cfg.Pages {
			if _, err := parseHTTPURL(p); err != nil {
				return nil, eris.Wrapf(ErrInvalidConfig, "page %q: %v", p, err)
			}
		}
		pages = append([]string(nil), cfg.Pages...)
	case strings.TrimSpace(cfg.Letters) != "":
		pages, err = extracthtml.ExpandLetters(cfg.BaseURL, cfg.LetterParam, cfg.Letters)
		if err != nil {
			return nil, eris.Wrapf(ErrInvalidConfig, "letters: %v", err)
		}
	}

	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Nop{}
	}

	return &Scraper{
		cfg:      cfg,
		base:     base,
		pages:    pages,
		discover: pages == nil && compiled.HasPaging(),
		rules:    compiled,
		loader: extracthtml.NewLoader(cfg.HTTPClient, cfg.Timeout,
			extracthtml.WithUserAgent(cfg.UserAgent),
			extracthtml.WithMetrics(cfg.Metrics)),
		log:     cfg.Logger,
		metrics: cfg.Metrics,
	}, nil
}

func parseHTTPURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, eris.New("empty url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, eris.Errorf("%q is not an absolute http(s) url", raw)
	}
	return u, nil
}

// pending is a record that may still be enriched from its profile page.
type pending struct {
	rec        faculty.Record
	profileURL string
}

// Scrape fetches every page, builds the records, enriches them from profile
// pages, and replaces the stored result.
//
// Failed pages and profiles are logged and skipped. The returned error is
// non-nil only when ctx is done.
func (s *Scraper) Scrape(ctx context.Context) (faculty.Result, error) {
	start := time.Now()

	pages, prefetched, err := s.pageList(ctx)
	if err != nil {
		return nil, err
	}

	slots := make([][]pending, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, pageURL := range pages {
		if i == 0 && prefetched != nil {
			slots[0] = s.pageRecords(pageURL, prefetched)
			continue
		}
		g.Go(func() error {
			doc, err := s.fetchDocument(gctx, pageURL)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.pageFailed(pageURL, err)
				return nil
			}
			slots[i] = s.pageRecords(pageURL, doc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "scrape pages")
	}

	return s.finish(ctx, start, len(pages), flatten(slots))
}

// ScrapeDir runs the same pipeline over saved pages in dir instead of
// fetching directory pages. Relative profile links resolve against BaseURL.
func (s *Scraper) ScrapeDir(ctx context.Context, dir string) (faculty.Result, error) {
	start := time.Now()

	saved, err := extracthtml.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrap(err, "scrape dir")
	}

	slots := make([][]pending, len(saved))
	for i, p := range saved {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "scrape dir")
		}
		doc, err := extracthtml.ParseDocument(p.HTML)
		if err != nil {
			s.pageFailed(p.Name, err)
			continue
		}
		slots[i] = s.pageRecords(s.cfg.BaseURL, doc)
	}

	return s.finish(ctx, start, len(saved), flatten(slots))
}

// finish enriches, dedupes, stores, and reports a run.
func (s *Scraper) finish(ctx context.Context, start time.Time, pageCount int, recs []pending) (faculty.Result, error) {
	if err := s.enrich(ctx, recs); err != nil {
		return nil, err
	}

	result := make(faculty.Result, 0, len(recs))
	for _, p := range recs {
		result = append(result, p.rec)
	}
	if s.cfg.Dedupe {
		result = faculty.Dedupe(result)
	}

	s.mu.Lock()
	s.result = result
	s.mu.Unlock()

	elapsed := time.Since(start)
	s.metrics.ObserveHistogram(metrics.RunDuration, elapsed.Seconds(), nil)
	s.log.Info("scrape complete",
		zap.Int("pages", pageCount),
		zap.Int("records", len(result)),
		zap.Duration("elapsed", elapsed))

	return result.Clone(), nil
}

// pageList returns the pages to fetch. When paging is discovered from the
// first page, that page's document is returned so it is not fetched twice.
func (s *Scraper) pageList(ctx context.Context) ([]string, *goquery.Document, error) {
	if s.pages != nil {
		return s.pages, nil, nil
	}
	if !s.discover {
		return []string{s.cfg.BaseURL}, nil, nil
	}

	doc, err := s.fetchDocument(ctx, s.cfg.BaseURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, eris.Wrap(ctx.Err(), "scrape pages")
		}
		s.pageFailed(s.cfg.BaseURL, err)
		return nil, nil, nil
	}

	pages, ok, err := s.rules.DiscoverPages(s.cfg.BaseURL, doc)
	if err != nil {
		s.log.Warn("page discovery failed", zap.String("url", s.cfg.BaseURL), zap.Error(err))
	}
	if !ok || len(pages) == 0 {
		pages = []string{s.cfg.BaseURL}
	}
	s.log.Debug("pages discovered", zap.Int("count", len(pages)))
	return pages, doc, nil
}

// Pages returns the page list Scrape would fetch. When the rules define
// paging, the first page is fetched to read the item count; unlike Scrape,
// a failed fetch is returned as an error.
func (s *Scraper) Pages(ctx context.Context) ([]string, error) {
	if s.pages != nil {
		return append([]string(nil), s.pages...), nil
	}
	if !s.discover {
		return []string{s.cfg.BaseURL}, nil
	}

	doc, err := s.fetchDocument(ctx, s.cfg.BaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "discover pages")
	}
	pages, ok, err := s.rules.DiscoverPages(s.cfg.BaseURL, doc)
	if err != nil {
		return nil, eris.Wrap(err, "discover pages")
	}
	if !ok {
		return []string{s.cfg.BaseURL}, nil
	}
	return pages, nil
}

func (s *Scraper) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	html, err := s.loader.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return extracthtml.ParseDocument(html)
}

func (s *Scraper) pageFailed(pageURL string, err error) {
	s.metrics.IncCounter(metrics.PagesTotal, 1, metrics.Labels{"status": "error"})
	s.log.Warn("page failed", zap.String("url", pageURL), zap.Error(err))
}

// pageRecords extracts the records of one page in DOM order.
func (s *Scraper) pageRecords(pageURL string, doc *goquery.Document) []pending {
	base, err := url.Parse(pageURL)
	if err != nil {
		base = s.base
	}

	fields := s.rules.Records(doc)
	out := make([]pending, 0, len(fields))
	for _, f := range fields {
		rec := faculty.FromFields(f)
		if rec.ProfileURL != "" {
			rec.ProfileURL = extracthtml.ResolveHref(base, rec.ProfileURL)
		}
		out = append(out, pending{rec: rec, profileURL: s.rules.ProfileURL(base, f)})
	}

	s.metrics.IncCounter(metrics.PagesTotal, 1, metrics.Labels{"status": "ok"})
	s.metrics.IncCounter(metrics.RecordsTotal, float64(len(out)), metrics.Labels{"kind": "page"})
	return out
}

// enrich fetches profile pages through the worker pool. Non-empty profile
// subjects and research topics replace the record's values.
func (s *Scraper) enrich(ctx context.Context, recs []pending) error {
	if s.cfg.NoProfiles || !s.rules.HasProfile() {
		return nil
	}

	profiles := make([]map[string]any, len(recs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, p := range recs {
		if p.profileURL == "" {
			continue
		}
		g.Go(func() error {
			doc, err := s.fetchDocument(gctx, p.profileURL)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.log.Warn("profile failed", zap.String("url", p.profileURL), zap.Error(err))
				return nil
			}
			profiles[i] = s.rules.Profile(doc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "scrape profiles")
	}

	var enriched int
	for i, fields := range profiles {
		if fields == nil {
			continue
		}
		prof := faculty.FromFields(fields)
		if len(prof.Subjects) > 0 {
			recs[i].rec.Subjects = prof.Subjects
		}
		if len(prof.ResearchTopics) > 0 {
			recs[i].rec.ResearchTopics = prof.ResearchTopics
		}
		enriched++
	}
	s.metrics.IncCounter(metrics.RecordsTotal, float64(enriched), metrics.Labels{"kind": "profile"})
	return nil
}

func flatten(slots [][]pending) []pending {
	var n int
	for _, s := range slots {
		n += len(s)
	}
	out := make([]pending, 0, n)
	for _, s := range slots {
		out = append(out, s...)
	}
	return out
}

// Records returns a copy of the latest result.
func (s *Scraper) Records() faculty.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result.Clone()
}

// ExportCSV writes the latest result to path.
func (s *Scraper) ExportCSV(path string) error {
	return faculty.ExportCSV(path, s.Records())
}

// AsTable returns the latest result as a table.
func (s *Scraper) AsTable() faculty.Table {
	return faculty.AsTable(s.Records())
}
