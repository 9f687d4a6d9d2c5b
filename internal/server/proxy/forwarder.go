package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/libkeeper/internal/common"
)

// Forwarder relays a single request to the upstream and normalizes the
// reply. It never interprets the payload.
type Forwarder struct {
	baseURL *url.URL
	client  *http.Client
}

func NewForwarder(baseURL string, client *http.Client) (*Forwarder, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Forwarder{baseURL: u, client: client}, nil
}

// resolve joins the caller's endpoint with the upstream base, preserving the
// endpoint's own query string.
func (f *Forwarder) resolve(endpoint string) (string, error) {
	ref, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	return f.baseURL.ResolveReference(ref).String(), nil
}

// Forward sends the request upstream and returns the envelope. Default
// headers (JSON content type, fixed user agent) are applied first so caller
// overrides win. A body is attached only for non-GET/HEAD methods with data
// present. Outbound caching is disabled.
func (f *Forwarder) Forward(ctx context.Context, pr *Request) (*Response, error) {
	method := pr.Method
	if method == "" {
		method = http.MethodGet
	}

	target, err := f.resolve(pr.Endpoint)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if method != http.MethodGet && method != http.MethodHead && len(pr.Data) > 0 {
		body = bytes.NewReader(pr.Data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", common.UserAgent)
	req.Header.Set("Cache-Control", "no-store")
	for k, v := range pr.Headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}

	return &Response{
		Success:    resp.StatusCode >= 200 && resp.StatusCode < 300,
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Data:       decodeBody(raw),
		Headers:    headers,
	}, nil
}

// decodeBody parses the upstream body as JSON, falling back to the raw text
// when it is not valid JSON.
func decodeBody(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}
