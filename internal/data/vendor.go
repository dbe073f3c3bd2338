package data

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"renewables-pnl/internal/model"
)

// VendorClient reads the asset-management vendor API.
type VendorClient struct {
	baseClient
	APIKey string
}

func NewVendorClient(apiKey string, opts ClientOptions) *VendorClient {
	return &VendorClient{
		baseClient: newBaseClient("vendor", "", opts),
		APIKey:     apiKey,
	}
}

type VendorQuery struct {
	Asset           string
	Label           string
	SettlementPoint string
	Start           time.Time
	End             time.Time
	// PreferHourly uses the pre-joined hourly revenue endpoint and falls back to the
	// individual endpoints when it returns nothing.
	PreferHourly bool
}

// Batch fetches everything needed to normalize one window.
func (c *VendorClient) Batch(ctx context.Context, q VendorQuery) (model.VendorBatch, error) {
	b := model.VendorBatch{Label: q.Label, SettlementPoint: q.SettlementPoint}
	if err := requireKey(c.service, c.APIKey); err != nil {
		return b, err
	}
	if c.baseURL == "" {
		return b, errors.New("vendor: base_url is required")
	}

	if q.PreferHourly {
		hourly, err := fetchPages[model.VendorHourlyRevenue](ctx, c, q, "hourly-revenue")
		if err != nil {
			return b, err
		}
		if len(hourly) > 0 {
			b.Hourly = hourly
			return b, nil
		}
		c.log.Info("hourly revenue empty, falling back to individual endpoints", "asset", q.Asset)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		b.Awards, err = fetchPages[model.VendorAward](gctx, c, q, "da-awards")
		return err
	})
	g.Go(func() error {
		var err error
		b.Generation, err = fetchPages[model.VendorGeneration](gctx, c, q, "generation")
		return err
	})
	g.Go(func() error {
		var err error
		b.RTPrices, err = fetchPages[model.VendorRTPrice](gctx, c, q, "rt-prices")
		return err
	})
	if err := g.Wait(); err != nil {
		return b, err
	}
	return b, nil
}

func fetchPages[T any](ctx context.Context, c *VendorClient, q VendorQuery, endpoint string) ([]T, error) {
	path := fmt.Sprintf("/v1/assets/%s/%s", url.PathEscape(q.Asset), endpoint)
	headers := map[string]string{"X-API-Key": c.APIKey}

	var out []T
	page := ""
	for i := 0; i < maxPages; i++ {
		v := url.Values{}
		v.Set("start", q.Start.UTC().Format(time.RFC3339))
		v.Set("end", q.End.UTC().Format(time.RFC3339))
		if page != "" {
			v.Set("page", page)
		}
		var p model.VendorPage[T]
		if err := c.getJSON(ctx, path, v, headers, &p); err != nil {
			return nil, fmt.Errorf("%s: %w", endpoint, err)
		}
		out = append(out, p.Data...)
		if p.NextPage == "" {
			return out, nil
		}
		page = p.NextPage
	}
	return nil, fmt.Errorf("vendor %s: more than %d pages", endpoint, maxPages)
}
