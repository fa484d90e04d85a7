package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// VideoCollector reads per-video engagement statistics (grounded on the
// prototype's youtube_connector.py). Its samples feed source coverage
// and IPSourceHealth; the corresponding video_momentum indicator stays
// MANUAL (spec.md §4.3).
type VideoCollector struct {
	Client  HTTPDoer
	BaseURL string
}

func NewVideoCollector(client HTTPDoer, baseURL string) *VideoCollector {
	return &VideoCollector{Client: client, BaseURL: baseURL}
}

func (c *VideoCollector) SourceKey() string { return "youtube" }

type videoStatItem struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	ViewCount    int64  `json:"view_count"`
	LikeCount    int64  `json:"like_count"`
	CommentCount int64  `json:"comment_count"`
	PublishedAt  string `json:"published_at"`
}

// VideoItems is a list of decoded per-video rows. Fetch decodes these
// rows only to sum their view counts and does not return them, so the
// collection pipeline writes no VideoMetric rows from this source.
type VideoItems []videoStatItem

func (c *VideoCollector) Fetch(ctx context.Context, req Request) (FetchResult, error) {
	url := fmt.Sprintf("%s/search?q=%s", c.BaseURL, req.Keyword)
	status, body, err := c.Client.Do(ctx, "GET", url, nil)
	if f := classifyHTTPError(status, err); f != nil {
		return FetchResult{Failure: f, HTTPCode: status}, nil
	}

	var items []videoStatItem
	if err := json.Unmarshal(body, &items); err != nil {
		return FetchResult{Failure: &Failure{Kind: ErrUnknown, Message: "decode video response: " + err.Error()}, HTTPCode: status}, nil
	}
	if len(items) == 0 {
		return FetchResult{Failure: &Failure{Kind: ErrEmpty, Message: "no videos found"}, HTTPCode: status}, nil
	}

	// Fold view counts into a daily 0-100 engagement proxy so the
	// aggregator can treat this source like any other alias sample:
	// log-scaled view count for "today", one point per fetch.
	total := int64(0)
	for _, it := range items {
		total += it.ViewCount
	}
	score := viewCountToScore(total)
	return FetchResult{
		Points:   []DataPoint{{Date: time.Now().UTC().Truncate(24 * time.Hour), Value: score}},
		HTTPCode: status,
	}, nil
}

func viewCountToScore(total int64) int {
	// 10 points per decimal digit of total, so 1e9 views reach 100;
	// clamp keeps it in the Sample.Value domain.
	if total <= 0 {
		return 0
	}
	v := 0
	t := total
	for t > 0 {
		t /= 10
		v += 10
	}
	return clampInt(v, 0, 100)
}
