package comps

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"

	"github.com/Tomangit/slabmarket-sub001/internal/model"
	"github.com/Tomangit/slabmarket-sub001/internal/ratelimit"
)

const scraperUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ScrapedSource pulls sold comps from an external comps site's search
// page. It is a best-effort fallback behind the store source; selector
// drift on the target site shows up as empty results, not failures.
type ScrapedSource struct {
	baseURL string
	client  *http.Client
	limiter *ratelimit.Limiter
}

// NewScrapedSource creates a scraping sale source rooted at baseURL.
// Returns nil when baseURL is empty, which a Chain treats as absent.
func NewScrapedSource(baseURL string) *ScrapedSource {
	if baseURL == "" {
		return nil
	}
	return &ScrapedSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter: ratelimit.NewScraperLimiter(),
	}
}

// Name implements Source.
func (s *ScrapedSource) Name() string {
	return "scraped-comps"
}

// RecentSales implements Source.
func (s *ScrapedSource) RecentSales(ctx context.Context, identity model.ItemIdentity, limit int) ([]model.Observation, error) {
	if !s.limiter.WaitWithTimeout(5 * time.Second) {
		return nil, fmt.Errorf("scrape rate limit: no capacity")
	}

	query := identity.Name
	if identity.SetName != "" {
		query += " " + identity.SetName
	}
	if identity.Grade != "" {
		query += " " + identity.Grade
	}

	soldURL := fmt.Sprintf("%s/sold?q=%s", s.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, soldURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", scraperUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Encoding", "gzip, br")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing sold-comps request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sold-comps page returned status %d", resp.StatusCode)
	}

	reader, err := decodeBody(resp)
	if err != nil {
		return nil, fmt.Errorf("decoding response body: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("parsing sold-comps page: %w", err)
	}

	return s.parseSoldTable(doc, identity, limit), nil
}

// decodeBody unwraps the response body according to Content-Encoding.
func decodeBody(resp *http.Response) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(resp.Body)
	case "br":
		return brotli.NewReader(resp.Body), nil
	default:
		return resp.Body, nil
	}
}

// parseSoldTable walks the sold-results table. Rows that fail price
// parsing or don't match the requested grade are skipped.
func (s *ScrapedSource) parseSoldTable(doc *goquery.Document, identity model.ItemIdentity, limit int) []model.Observation {
	var obs []model.Observation

	doc.Find("table.sold-results tbody tr, ul.sold-list li.sold-item").Each(func(i int, row *goquery.Selection) {
		if limit > 0 && len(obs) >= limit {
			return
		}

		price := parsePrice(row.Find(".price, td.sold-price").First().Text())
		if price <= 0 {
			return
		}

		grade := strings.TrimSpace(row.Find(".grade, td.sold-grade").First().Text())
		if identity.Grade != "" && grade != identity.Grade {
			return
		}

		recordedAt := time.Now()
		if raw, ok := row.Attr("data-sold-date"); ok {
			if t, err := time.Parse("2006-01-02", strings.TrimSpace(raw)); err == nil {
				recordedAt = t
			}
		}

		obs = append(obs, model.Observation{
			Price:      price,
			Source:     model.SourceSale,
			Grade:      grade,
			RecordedAt: recordedAt,
		})
	})

	return obs
}

// parsePrice extracts a positive price from text like "$1,234.56".
func parsePrice(text string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, text)

	if cleaned == "" {
		return 0
	}

	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || price < 0 {
		return 0
	}
	return price
}
