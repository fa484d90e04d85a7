package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MaxShih147/brew-signal/internal/discovery"
)

// CatalogueCollector searches an anime/media database's catalogue
// (grounded on the prototype's mal_connector.py). Fetch takes the first
// result whose title passes discovery.TitleMatches and returns one sample
// for today, its member count / 1000 clamped to [0,100], so the
// aggregator and source-health tracker can treat it like any other
// source. It reads no calendar entries and creates no Events.
type CatalogueCollector struct {
	Client  HTTPDoer
	BaseURL string
}

func NewCatalogueCollector(client HTTPDoer, baseURL string) *CatalogueCollector {
	return &CatalogueCollector{Client: client, BaseURL: baseURL}
}

func (c *CatalogueCollector) SourceKey() string { return "mal" }

type catalogueSearchResult struct {
	Title   string `json:"title"`
	MALID   int    `json:"mal_id"`
	Members int    `json:"members"`
}

func (c *CatalogueCollector) Fetch(ctx context.Context, req Request) (FetchResult, error) {
	url := fmt.Sprintf("%s/anime?q=%s", c.BaseURL, req.Keyword)
	status, body, err := c.Client.Do(ctx, "GET", url, nil)
	if f := classifyHTTPError(status, err); f != nil {
		return FetchResult{Failure: f, HTTPCode: status}, nil
	}

	var results []catalogueSearchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return FetchResult{Failure: &Failure{Kind: ErrUnknown, Message: "decode catalogue response: " + err.Error()}, HTTPCode: status}, nil
	}

	match := bestTitleMatch(req.Keyword, results)
	if match == nil {
		return FetchResult{Failure: &Failure{Kind: ErrEmpty, Message: "no title match"}, HTTPCode: status}, nil
	}

	score := clampInt(match.Members/1000, 0, 100)
	return FetchResult{
		Points:   []DataPoint{{Date: time.Now().UTC().Truncate(24 * time.Hour), Value: score}},
		HTTPCode: status,
	}, nil
}

func bestTitleMatch(keyword string, results []catalogueSearchResult) *catalogueSearchResult {
	for i := range results {
		if discovery.TitleMatches(keyword, results[i].Title) {
			return &results[i]
		}
	}
	return nil
}
