package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"
)

// httpDoer is the production collector.HTTPDoer: a thin net/http wrapper
// carrying a shared client and a fixed timeout per call. Wire-format
// parsing of each source's response lives in the concrete collector;
// this type only moves bytes.
type httpDoer struct {
	client *http.Client
}

func newHTTPDoer(timeout time.Duration) *httpDoer {
	return &httpDoer{client: &http.Client{Timeout: timeout}}
}

func (d *httpDoer) Do(ctx context.Context, method, url string, headers map[string]string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(nil))
	if err != nil {
		return 0, nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}
