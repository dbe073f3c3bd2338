package data

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"renewables-pnl/internal/model"
)

// GridStatusClient fetches hub price series from the Grid Status API.
type GridStatusClient struct {
	baseClient
	APIKey string
	Cache  *ResponseCache
}

// NewGridStatusClient creates a new Grid Status API client.
// If opts.BaseURL is empty, defaults to "https://api.gridstatus.io".
func NewGridStatusClient(apiKey string, opts ClientOptions) *GridStatusClient {
	return &GridStatusClient{
		baseClient: newBaseClient("gridstatus", "https://api.gridstatus.io", opts),
		APIKey:     apiKey,
	}
}

// QueryLocationParams defines parameters for querying location data.
type QueryLocationParams struct {
	DatasetID  string    // e.g., "ercot_spp_real_time_15_min"
	LocationID string    // e.g., "HB_WEST"
	StartTime  time.Time // Start of time range
	EndTime    time.Time // End of time range
	Timezone   string    // e.g., "market", "UTC" (default: "market")
}

// QueryLocation fetches the price series of one location.
func (c *GridStatusClient) QueryLocation(ctx context.Context, params QueryLocationParams) (*model.GridStatusLMPResponse, error) {
	if err := c.validateAPIKey(); err != nil {
		return nil, err
	}
	if params.DatasetID == "" {
		return nil, fmt.Errorf("dataset_id is required")
	}
	if params.LocationID == "" {
		return nil, fmt.Errorf("location_id is required")
	}
	if params.StartTime.IsZero() || params.EndTime.IsZero() {
		return nil, fmt.Errorf("start_time and end_time are required")
	}
	if params.StartTime.After(params.EndTime) {
		return nil, fmt.Errorf("start_time must be before end_time")
	}

	cacheKey := GenerateCacheKey(params)
	if cached, found := c.Cache.Get(cacheKey); found {
		c.log.Debug("cache hit", "dataset", params.DatasetID, "location", params.LocationID, "intervals", len(cached.Data))
		return cached, nil
	}

	// /v1/datasets/{dataset_id}/query/location/{location_id}
	path := fmt.Sprintf("/v1/datasets/%s/query/location/%s", url.PathEscape(params.DatasetID), url.PathEscape(params.LocationID))

	q := url.Values{}
	q.Set("start_time", params.StartTime.UTC().Format(time.RFC3339))
	q.Set("end_time", params.EndTime.UTC().Format(time.RFC3339))
	if params.Timezone != "" {
		q.Set("timezone", params.Timezone)
	} else {
		q.Set("timezone", "market")
	}

	var result model.GridStatusLMPResponse
	if err := c.getJSON(ctx, path, q, map[string]string{"x-api-key": c.APIKey}, &result); err != nil {
		return nil, err
	}

	c.log.Info("received intervals", "dataset", params.DatasetID, "location", params.LocationID, "intervals", len(result.Data))
	c.Cache.Set(cacheKey, &result)
	return &result, nil
}

// validateAPIKey rejects missing and obviously truncated keys before any request is made.
func (c *GridStatusClient) validateAPIKey() error {
	if err := requireKey(c.service, c.APIKey); err != nil {
		return err
	}
	if len(c.APIKey) < 10 {
		return &UpstreamError{
			Service: c.service,
			Code:    "INVALID_API_KEY_FORMAT",
			Message: "API key appears to be invalid (too short)",
		}
	}
	return nil
}
