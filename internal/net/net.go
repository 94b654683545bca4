package net

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"pingwatch/internal/incident"
	"pingwatch/internal/models"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 pingwatch"

// Outcome is the result of exactly one probe. Type selects the variant:
// Success carries StatusCode and Latency, Timeout carries Latency, the error
// variants carry Detail.
type Outcome struct {
	URL        string
	Type       incident.Type
	StatusCode int
	Latency    time.Duration
	Detail     string
	CheckedAt  time.Time
}

func (o Outcome) IsUp() bool {
	return o.Type == incident.Success
}

type NetworkConfig struct {
	UserAgent       string
	FollowRedirects bool
	SkipSSL         bool
}

// Prober issues GET requests. It reuses one transport across probes.
type Prober struct {
	config NetworkConfig
	client *http.Client
}

func NewProber(nc NetworkConfig) *Prober {
	if nc.UserAgent == "" {
		nc.UserAgent = DefaultUserAgent
	}

	client := &http.Client{
		Transport: &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: nc.SkipSSL},
		},
	}

	if !nc.FollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return &Prober{config: nc, client: client}
}

// Probe never fails: every transport error is folded into the Outcome.
func (p *Prober) Probe(ctx context.Context, target models.Target) Outcome {
	outcome := Outcome{URL: target.URL}

	if target.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, target.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL, nil)
	if err != nil {
		outcome.Type = incident.OtherError
		outcome.Detail = err.Error()
		outcome.CheckedAt = time.Now()
		return outcome
	}
	req.Header.Set("User-Agent", p.config.UserAgent)

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		outcome.Latency = time.Since(start)
		outcome.CheckedAt = time.Now()
		outcome.Type = Classify(err)
		outcome.Detail = describe(err)
		return outcome
	}
	outcome.Latency = time.Since(start)
	outcome.CheckedAt = time.Now()

	// drained only so the connection can be reused
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	resp.Body.Close()

	outcome.Type = incident.Success
	outcome.StatusCode = resp.StatusCode

	return outcome
}

func describe(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err.Error()
	}
	return err.Error()
}
