package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"offlineform/internal/form"
)

const (
	defaultTimeout   = 30 * time.Second
	maxResponseBytes = 1 << 20
	maxErrorBody     = 2048
)

// Request is one form submission to deliver.
type Request struct {
	Method string
	URL    string
	Body   string
}

// Response is a completed delivery.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Sender delivers form submissions.
type Sender interface {
	Send(ctx context.Context, req Request) (*Response, error)
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, req Request) (*Response, error)

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("server returned %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// HTTPSender delivers submissions with net/http.
type HTTPSender struct {
	client    *http.Client
	userAgent string
}

// NewHTTPSender builds a sender with the given per-request timeout.
func NewHTTPSender(timeout time.Duration, userAgent string) *HTTPSender {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPSender{
		client:    &http.Client{Timeout: timeout},
		userAgent: strings.TrimSpace(userAgent),
	}
}

// Send performs the request and returns the response when the server
// answered with a 2xx status.
func (s *HTTPSender) Send(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.userAgent != "" {
		httpReq.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send %s %s: %w", httpReq.Method, req.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", req.URL, err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header.Clone(), Body: body}, nil
}

func buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	method := form.NormalizeMethod(req.Method)
	target, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("parse action %q: %w", req.URL, err)
	}
	if !target.IsAbs() {
		return nil, fmt.Errorf("action %q is not an absolute URL", req.URL)
	}

	if method == http.MethodGet || method == http.MethodHead {
		if req.Body != "" {
			if target.RawQuery == "" {
				target.RawQuery = req.Body
			} else {
				target.RawQuery += "&" + req.Body
			}
		}
		httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		return httpReq, nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), strings.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	return httpReq, nil
}
