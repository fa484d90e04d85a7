package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// TrendsCollector reads relative search-interest samples for a keyword,
// the required collector named in spec.md §4.1 (grounded on the
// prototype's pytrends_collector.py surface).
type TrendsCollector struct {
	Client  HTTPDoer
	BaseURL string
}

// NewTrendsCollector constructs the search-trends collector.
func NewTrendsCollector(client HTTPDoer, baseURL string) *TrendsCollector {
	return &TrendsCollector{Client: client, BaseURL: baseURL}
}

func (c *TrendsCollector) SourceKey() string { return "pytrends" }

type trendsResponsePoint struct {
	Date  string `json:"date"`
	Value int    `json:"value"`
}

func (c *TrendsCollector) Fetch(ctx context.Context, req Request) (FetchResult, error) {
	url := fmt.Sprintf("%s/trends?kw=%s&geo=%s&tf=%s", c.BaseURL, req.Keyword, req.Geo, req.Timeframe)
	status, body, err := c.Client.Do(ctx, "GET", url, nil)
	if f := classifyHTTPError(status, err); f != nil {
		return FetchResult{Failure: f, HTTPCode: status}, nil
	}

	var points []trendsResponsePoint
	if err := json.Unmarshal(body, &points); err != nil {
		return FetchResult{Failure: &Failure{Kind: ErrUnknown, Message: "decode trends response: " + err.Error()}, HTTPCode: status}, nil
	}
	if len(points) == 0 {
		return FetchResult{Failure: &Failure{Kind: ErrEmpty, Message: "no trend points returned"}, HTTPCode: status}, nil
	}

	out := make([]DataPoint, 0, len(points))
	for _, p := range points {
		d, err := time.Parse("2006-01-02", p.Date)
		if err != nil {
			continue
		}
		v := clampInt(p.Value, 0, 100)
		out = append(out, DataPoint{Date: d, Value: v})
	}
	if len(out) == 0 {
		return FetchResult{Failure: &Failure{Kind: ErrEmpty, Message: "no parseable trend points"}, HTTPCode: status}, nil
	}
	return FetchResult{Points: out, HTTPCode: status}, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
