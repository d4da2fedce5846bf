// Package crawler walks a paginated assessment product catalog, follows each
// product's detail page, extracts the six catalog metadata fields, and
// appends rows to the tabular catalog file consumed by the index builder.
// Requests are rate limited so the crawl stays polite to the target site.
package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/hireloop/asmrec-go/internal/catalog"
	"github.com/hireloop/asmrec-go/internal/logging"
)

const defaultUserAgent = "asmrec-crawler/1.0"

// Config controls a crawl run.
type Config struct {
	// StartURL is the first catalog listing page.
	StartURL string
	// OutputCSV is the catalog file rows are appended to.
	OutputCSV string
	// RequestsPerSecond caps the outbound request rate. Zero means the
	// default of 1 request per second.
	RequestsPerSecond float64
	// MaxPages limits how many listing pages are walked. Zero means no
	// limit; the crawl stops when no next-page link is found.
	MaxPages int
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// Crawler fetches listing and detail pages and writes catalog rows.
type Crawler struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
}

// New constructs a Crawler from cfg.
func New(cfg Config) (*Crawler, error) {
	if cfg.StartURL == "" {
		return nil, fmt.Errorf("crawler: start URL is required")
	}
	if cfg.OutputCSV == "" {
		return nil, fmt.Errorf("crawler: output CSV path is required")
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Crawler{
		cfg:     cfg,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

// Crawl walks listing pages from the start URL, visits every product detail
// page, and appends the extracted items to the output CSV one listing page
// at a time. Returns the total number of items written. A fetch or parse
// failure on a single detail page is logged and skipped; a listing page
// failure aborts the crawl.
func (c *Crawler) Crawl(ctx context.Context) (int, error) {
	log := logging.FromContext(ctx)

	pageURL := c.cfg.StartURL
	total := 0
	for page := 1; pageURL != ""; page++ {
		if c.cfg.MaxPages > 0 && page > c.cfg.MaxPages {
			break
		}

		doc, err := c.fetch(ctx, pageURL)
		if err != nil {
			return total, fmt.Errorf("crawler: listing page %s: %w", pageURL, err)
		}

		links, next := parseListing(doc, pageURL)
		log.Info("crawled listing page", "url", pageURL, "products", len(links))

		var items []catalog.Item
		for _, link := range links {
			detail, err := c.fetch(ctx, link)
			if err != nil {
				log.Warn("skipping product page", "url", link, "error", err)
				continue
			}
			items = append(items, parseProduct(detail, link))
		}

		if len(items) > 0 {
			if err := catalog.AppendCSV(c.cfg.OutputCSV, items); err != nil {
				return total, fmt.Errorf("crawler: append to %s: %w", c.cfg.OutputCSV, err)
			}
			total += len(items)
		}

		pageURL = next
	}
	return total, nil
}

// fetch waits for a rate-limiter token, then GETs the URL and parses the
// response body as HTML.
func (c *Crawler) fetch(ctx context.Context, rawURL string) (*goquery.Document, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// parseListing extracts the absolute product detail links from a listing
// page and the absolute URL of the next listing page (empty when the crawl
// is done).
func parseListing(doc *goquery.Document, pageURL string) (links []string, next string) {
	doc.Find("tr[data-entity-id] td.custom__table-heading__title a").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			if abs := resolveURL(pageURL, href); abs != "" {
				links = append(links, abs)
			}
		}
	})

	doc.Find("ul.pagination li.-arrow.-next a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if href, ok := s.Attr("href"); ok {
			next = resolveURL(pageURL, href)
		}
		return false
	})
	return links, next
}

// parseProduct extracts the six catalog fields from a product detail page.
// Missing fields come back empty rather than failing the whole page.
func parseProduct(doc *goquery.Document, pageURL string) catalog.Item {
	name := strings.TrimSpace(doc.Find("h1").First().Text())

	description := sectionText(doc, "Description")
	jobLevels := splitCommaList(sectionText(doc, "Job"))

	var testTypes []string
	findSmallText(doc, "Test Type").Find("span.product-catalogue__key").Each(func(_ int, s *goquery.Selection) {
		if v := strings.TrimSpace(s.Text()); v != "" {
			testTypes = append(testTypes, v)
		}
	})

	remote := catalog.RemoteUnknown
	if remoteRow := findSmallText(doc, "Remote Testing"); remoteRow.Length() > 0 {
		if remoteRow.Find("span.catalogue__circle.-yes").Length() > 0 {
			remote = catalog.RemoteYes
		} else {
			remote = catalog.RemoteNo
		}
	}

	return catalog.Item{
		Name:          name,
		URL:           pageURL,
		TestTypes:     testTypes,
		Description:   description,
		RemoteTesting: remote,
		JobLevels:     jobLevels,
	}
}

// sectionText returns the text of the first paragraph following the h4
// heading whose text contains heading.
func sectionText(doc *goquery.Document, heading string) string {
	h := doc.Find("h4").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(s.Text(), heading)
	}).First()
	return strings.TrimSpace(h.NextAllFiltered("p").First().Text())
}

// findSmallText returns the product-catalogue small-text paragraphs whose
// text contains label.
func findSmallText(doc *goquery.Document, label string) *goquery.Selection {
	return doc.Find("p.product-catalogue__small-text").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(s.Text(), label)
	})
}

// splitCommaList splits a comma-separated field into trimmed non-empty parts.
func splitCommaList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// resolveURL resolves href against base, returning "" when either is
// unparseable.
func resolveURL(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	h, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return b.ResolveReference(h).String()
}
