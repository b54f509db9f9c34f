package ai

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const headlineFeedURL = "https://feeds.finance.yahoo.com/rss/2.0/headline?s=%s&region=US&lang=en-US"

type rssFeed struct {
	Channel struct {
		Items []struct {
			Title string `xml:"title"`
		} `xml:"item"`
	} `xml:"channel"`
}

// FetchHeadlines pulls recent news titles for a symbol from the Yahoo
// Finance RSS feed. Failures return an empty slice, never an error; a
// symbol without news just scores neutral downstream.
func FetchHeadlines(symbol string, limit int) []string {
	client := &http.Client{Timeout: 15 * time.Second}

	req, err := http.NewRequest("GET", fmt.Sprintf(headlineFeedURL, symbol), nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; alpha-premarket/1.0)")

	resp, err := client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil
	}

	var feed rssFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil
	}

	titles := make([]string, 0, limit)
	for _, item := range feed.Channel.Items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		titles = append(titles, title)
		if len(titles) >= limit {
			break
		}
	}
	return titles
}
