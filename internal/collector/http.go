package collector

import "context"

// HTTPDoer is the narrow surface collectors need from an HTTP client.
// Tests inject a fake; production wiring (outside this module's scope
// per spec.md §1 "Out of scope: HTTP transport to external APIs") plugs
// in a real *http.Client-backed implementation.
type HTTPDoer interface {
	Do(ctx context.Context, method, url string, headers map[string]string) (status int, body []byte, err error)
}

// classifyHTTPError maps a transport-level error/status into an
// ErrorKind, shared by every concrete collector below.
func classifyHTTPError(status int, err error) *Failure {
	if err != nil {
		return &Failure{Kind: ErrNetwork, Message: err.Error()}
	}
	switch {
	case status == 401 || status == 403:
		return &Failure{Kind: ErrAuth, Message: "unauthorized", HTTPCode: status}
	case status == 429:
		return &Failure{Kind: ErrRateLimit, Message: "rate limited", HTTPCode: status}
	case status == 408 || status == 504:
		return &Failure{Kind: ErrTimeout, Message: "upstream timeout", HTTPCode: status}
	case status >= 500:
		return &Failure{Kind: ErrUnknown, Message: "upstream server error", HTTPCode: status}
	case status >= 400:
		return &Failure{Kind: ErrUnknown, Message: "upstream client error", HTTPCode: status}
	default:
		return nil
	}
}
