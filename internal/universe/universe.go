// Package universe assembles the candidate pool for a run: the top S&P 500
// constituents plus the user's watchlist plus everything already held.
package universe

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"alpha_premarket/internal/models"

	"github.com/PuerkitoBio/goquery"
)

const sp500URL = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"

// Fetcher retrieves index constituents. Kept as an interface so tests and the
// offline confirm flow never touch the network.
type Fetcher interface {
	SP500() ([]string, error)
}

// WikipediaFetcher scrapes the S&P 500 constituents table.
type WikipediaFetcher struct {
	client *http.Client
}

func NewWikipediaFetcher() *WikipediaFetcher {
	return &WikipediaFetcher{client: &http.Client{Timeout: 30 * time.Second}}
}

// SP500 returns the constituent symbols in table order, normalized to the
// quote-API spelling (BRK.B -> BRK-B).
func (f *WikipediaFetcher) SP500() ([]string, error) {
	req, err := http.NewRequest(http.MethodGet, sp500URL, nil)
	if err != nil {
		return nil, err
	}
	// Wikipedia rejects requests without a browser-ish user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("constituents fetch: status %s", resp.Status)
	}
	return ParseSP500(resp.Body)
}

// ParseSP500 extracts the ticker column from the constituents table HTML.
func ParseSP500(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var symbols []string
	doc.Find("table#constituents tbody tr").Each(func(_ int, row *goquery.Selection) {
		cell := row.Find("td").First()
		symbol := strings.TrimSpace(cell.Text())
		if symbol == "" {
			return
		}
		symbols = append(symbols, models.NormalizeSymbol(symbol))
	})

	if len(symbols) == 0 {
		return nil, fmt.Errorf("constituents table not found or empty")
	}
	return symbols, nil
}

// Build merges the top-N constituents, the watchlist and the held symbols
// into one de-duplicated slice, preserving first-seen order. The order
// matters: it is the tie-break for equal momentum downstream.
func Build(constituents []string, topN int, wl models.Watchlist, held []string) []string {
	if topN > 0 && len(constituents) > topN {
		constituents = constituents[:topN]
	}

	seen := map[string]bool{}
	var out []string
	add := func(symbols []string) {
		for _, s := range symbols {
			s = models.NormalizeSymbol(s)
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	add(constituents)
	add(wl.Symbols)
	add(held)
	return out
}
