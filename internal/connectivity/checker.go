package connectivity

import (
	"context"
	"net/http"
	"strings"
	"time"

	"offlineform/internal/config"
)

// Checker reports whether the network is currently reachable.
type Checker interface {
	Online(ctx context.Context) bool
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc func(ctx context.Context) bool

// Online calls f.
func (f CheckerFunc) Online(ctx context.Context) bool {
	return f(ctx)
}

// Static always reports the same state.
type Static bool

// Online returns the fixed state.
func (s Static) Online(context.Context) bool {
	return bool(s)
}

// Prober checks reachability with a HEAD request. Any HTTP response counts as
// online; transport failures count as offline.
type Prober struct {
	url    string
	client *http.Client
}

// NewProber builds a prober for url with the given request timeout.
func NewProber(url string, timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Prober{
		url:    strings.TrimSpace(url),
		client: &http.Client{Timeout: timeout},
	}
}

// Online performs one probe.
func (p *Prober) Online(ctx context.Context) bool {
	if p == nil || p.url == "" {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return true
}

// FromConfig returns the checker selected by the connectivity mode.
func FromConfig(cfg *config.Config) Checker {
	if cfg == nil {
		return Static(false)
	}
	switch cfg.Connectivity.Mode {
	case config.ModeOnline:
		return Static(true)
	case config.ModeOffline:
		return Static(false)
	default:
		return NewProber(cfg.Connectivity.ProbeURL, time.Duration(cfg.Connectivity.ProbeTimeout)*time.Second)
	}
}
