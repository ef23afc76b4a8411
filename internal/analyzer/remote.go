package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/fairlens/fairlens/internal/core/domain"
)

// RemoteScorer calls an HTTP analysis service. The wire contract is
// deliberately small: POST a JSON payload to /v1/score/{layer}, receive a
// numeric bias score plus optional metadata.
type RemoteScorer struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// RemoteOption configures a RemoteScorer.
type RemoteOption func(*RemoteScorer)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *http.Client) RemoteOption {
	return func(r *RemoteScorer) {
		r.httpClient = client
	}
}

// WithAPIKey sets the bearer token sent to the analysis service.
func WithAPIKey(key string) RemoteOption {
	return func(r *RemoteScorer) {
		r.apiKey = key
	}
}

// NewRemoteScorer creates a scorer for the service at baseURL.
func NewRemoteScorer(baseURL string, opts ...RemoteOption) *RemoteScorer {
	r := &RemoteScorer{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// scoreResponse is the remote service's reply shape.
type scoreResponse struct {
	BiasScore *float64        `json:"bias_score"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// Score implements Scorer over HTTP. Transport failures map to
// unavailable/timeout layer errors; unparseable bodies and out-of-contract
// scores map to malformed.
func (r *RemoteScorer) Score(ctx context.Context, layer domain.Layer, payload any) (float64, json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, &domain.LayerError{Layer: layer, Code: domain.LayerErrUnavailable,
			Reason: fmt.Sprintf("encode payload: %v", err)}
	}

	url := fmt.Sprintf("%s/v1/score/%s", r.baseURL, layer)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, &domain.LayerError{Layer: layer, Code: domain.LayerErrUnavailable,
			Reason: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		code := domain.LayerErrUnavailable
		if errors.Is(err, context.DeadlineExceeded) {
			code = domain.LayerErrTimeout
		}
		return 0, nil, &domain.LayerError{Layer: layer, Code: code, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return 0, nil, &domain.LayerError{Layer: layer, Code: domain.LayerErrUnavailable,
			Reason: fmt.Sprintf("service returned status %d", resp.StatusCode)}
	}

	var sr scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return 0, nil, &domain.LayerError{Layer: layer, Code: domain.LayerErrMalformed,
			Reason: fmt.Sprintf("decode response: %v", err)}
	}
	if sr.BiasScore == nil || math.IsNaN(*sr.BiasScore) || math.IsInf(*sr.BiasScore, 0) {
		return 0, nil, &domain.LayerError{Layer: layer, Code: domain.LayerErrMalformed,
			Reason: "response missing numeric bias_score"}
	}

	return *sr.BiasScore, sr.Metadata, nil
}
