package datasource

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/bkaradeniz/marketscan/pkg/models"
	"github.com/bkaradeniz/marketscan/pkg/utils"
)

const defaultNewsBaseURL = "https://feeds.finance.yahoo.com"

// News fetches per-instrument headlines from the Yahoo Finance RSS feed.
type News struct {
	// BaseURL is overridable for tests.
	BaseURL string

	cache   *Cache
	limiter *Throttle
	parser  *gofeed.Parser
}

// NewNews creates a news source.
func NewNews() *News {
	return &News{
		BaseURL: defaultNewsBaseURL,
		cache:   NewCache(10 * time.Minute),
		limiter: NewThrottle(SourceLimit{Burst: 2, Every: time.Second}),
		parser:  gofeed.NewParser(),
	}
}

// Name returns the data source name.
func (n *News) Name() string { return "Yahoo Finance News" }

// GetHeadlines returns up to limit recent headlines for the ticker.
// An empty feed is not an error; the detail view simply shows no news.
func (n *News) GetHeadlines(ctx context.Context, ticker string, limit int) ([]models.Headline, error) {
	symbol := utils.ToYahooSymbol(ticker)
	if limit <= 0 {
		limit = 10
	}

	cacheKey := fmt.Sprintf("news:%s:%d", symbol, limit)
	if cached, ok := n.cache.Get(cacheKey); ok {
		return cached.([]models.Headline), nil
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/rss/2.0/headline?s=%s&region=US&lang=en-US", n.BaseURL, symbol)
	feed, err := n.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("news feed %s: %w", symbol, err)
	}

	var headlines []models.Headline
	for _, item := range feed.Items {
		if len(headlines) >= limit {
			break
		}
		h := models.Headline{
			Title:  item.Title,
			Link:   item.Link,
			Source: feed.Title,
		}
		if item.PublishedParsed != nil {
			h.PublishedAt = *item.PublishedParsed
		}
		headlines = append(headlines, h)
	}

	n.cache.Set(cacheKey, headlines)
	return headlines, nil
}
