package authsdk

import (
	"context"
	"net/http"
)

// Health returns the service summary from /api/health.
func (c *SDKClient) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/health", "", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetLiveness checks if the service is alive.
func (c *SDKClient) GetLiveness(ctx context.Context) (*ProbeResponse, error) {
	var out ProbeResponse
	if err := c.doJSON(ctx, http.MethodGet, "/livez", "", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetReadiness checks if the service is ready to take traffic.
func (c *SDKClient) GetReadiness(ctx context.Context) (*ProbeResponse, error) {
	var out ProbeResponse
	if err := c.doJSON(ctx, http.MethodGet, "/readyz", "", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
