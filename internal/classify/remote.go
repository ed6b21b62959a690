package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/banshee-data/radar-pipeline/internal/httputil"
)

// RemoteGateway calls out to the external object classifier over HTTP,
// posting (range, velocity, azimuth) and expecting {"label": "..."}.
type RemoteGateway struct {
	client httputil.HTTPClient
	url    string
}

// NewRemoteGateway returns a RemoteGateway posting to url via client.
func NewRemoteGateway(client httputil.HTTPClient, url string) *RemoteGateway {
	return &RemoteGateway{client: client, url: url}
}

type remoteRequest struct {
	RangeM     float64 `json:"range_m"`
	VelocityMS float64 `json:"velocity_ms"`
	AzimuthDeg float64 `json:"azimuth_deg"`
}

type remoteResponse struct {
	Label string `json:"label"`
}

// Classify posts the measurement and parses the returned label.
func (r *RemoteGateway) Classify(ctx context.Context, rangeM, velocityMS, azimuthDeg float64) (Label, error) {
	body, err := json.Marshal(remoteRequest{RangeM: rangeM, VelocityMS: velocityMS, AzimuthDeg: azimuthDeg})
	if err != nil {
		return "", fmt.Errorf("classify: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("classify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("classify: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("classify: unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("classify: read response: %w", err)
	}

	var parsed remoteResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("classify: decode response: %w", err)
	}

	return Label(parsed.Label), nil
}
