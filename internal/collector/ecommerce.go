package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// ShopeeCollector and MomoCollector are the two e-commerce supply-count
// collectors required by spec.md §4.1, grounded on the prototype's
// tw_ecommerce_connector.py. Each returns one sample for today: the
// product-listing count divided by 5, clamped to [0,100]. The raw count
// is not returned, so these collectors write no MerchProductCount rows.
type ShopeeCollector struct {
	Client  HTTPDoer
	BaseURL string
}

func NewShopeeCollector(client HTTPDoer, baseURL string) *ShopeeCollector {
	return &ShopeeCollector{Client: client, BaseURL: baseURL}
}

func (c *ShopeeCollector) SourceKey() string { return "tw_ecommerce_shopee" }

func (c *ShopeeCollector) Fetch(ctx context.Context, req Request) (FetchResult, error) {
	return fetchEcommerceCount(ctx, c.Client, c.BaseURL, "/shopee/search", req)
}

type MomoCollector struct {
	Client  HTTPDoer
	BaseURL string
}

func NewMomoCollector(client HTTPDoer, baseURL string) *MomoCollector {
	return &MomoCollector{Client: client, BaseURL: baseURL}
}

func (c *MomoCollector) SourceKey() string { return "tw_ecommerce_momo" }

func (c *MomoCollector) Fetch(ctx context.Context, req Request) (FetchResult, error) {
	return fetchEcommerceCount(ctx, c.Client, c.BaseURL, "/momo/search", req)
}

type ecommerceCountResponse struct {
	ProductCount int `json:"product_count"`
}

func fetchEcommerceCount(ctx context.Context, client HTTPDoer, baseURL, path string, req Request) (FetchResult, error) {
	url := fmt.Sprintf("%s%s?q=%s", baseURL, path, req.Keyword)
	status, body, err := client.Do(ctx, "GET", url, nil)
	if f := classifyHTTPError(status, err); f != nil {
		return FetchResult{Failure: f, HTTPCode: status}, nil
	}

	var resp ecommerceCountResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return FetchResult{Failure: &Failure{Kind: ErrUnknown, Message: "decode ecommerce response: " + err.Error()}, HTTPCode: status}, nil
	}
	if resp.ProductCount == 0 {
		return FetchResult{Failure: &Failure{Kind: ErrEmpty, Message: "no listings found"}, HTTPCode: status}, nil
	}

	score := clampInt(resp.ProductCount/5, 0, 100)
	return FetchResult{
		Points:   []DataPoint{{Date: time.Now().UTC().Truncate(24 * time.Hour), Value: score}},
		HTTPCode: status,
	}, nil
}
