package clients

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

const probeTimeout = 2 * time.Second

type HealthProbe struct {
	Name   string
	Client *Client
	Path   string
	Query  url.Values
}

type HealthResult struct {
	Name       string `json:"name"`
	OK         bool   `json:"ok"`
	StatusCode int    `json:"statusCode,omitempty"`
	LatencyMS  int64  `json:"latencyMs"`
	Error      string `json:"error,omitempty"`
}

func CheckHealth(ctx context.Context, probe HealthProbe) HealthResult {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	resp, err := probe.Client.Do(ctx, http.MethodGet, probe.Path, probe.Query, nil, http.Header{})
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return HealthResult{Name: probe.Name, OK: false, LatencyMS: latency, Error: err.Error()}
	}
	defer drainClose(resp)

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	return HealthResult{Name: probe.Name, OK: ok, StatusCode: resp.StatusCode, LatencyMS: latency}
}
