package data

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"renewables-pnl/internal/model"
)

const gridOperatorPageSize = 50000

// maxPages bounds pagination against a misbehaving upstream.
const maxPages = 100

// GridOperatorClient reads the grid operator's real-time LMP feed.
type GridOperatorClient struct {
	baseClient
	APIKey  string
	Dataset string
}

func NewGridOperatorClient(apiKey, dataset string, opts ClientOptions) *GridOperatorClient {
	if dataset == "" {
		dataset = "rt_fivemin_hrl_lmps"
	}
	return &GridOperatorClient{
		baseClient: newBaseClient("gridoperator", "https://api.pjm.com/api/v1", opts),
		APIKey:     apiKey,
		Dataset:    dataset,
	}
}

// RealTimeLMP returns every row for pnodeID between start and end, following pagination.
func (c *GridOperatorClient) RealTimeLMP(ctx context.Context, pnodeID int64, start, end time.Time) ([]model.GridOperatorLMP, error) {
	if err := requireKey(c.service, c.APIKey); err != nil {
		return nil, err
	}
	// The feed filters on naive UTC timestamps.
	window := fmt.Sprintf("%s to %s", start.UTC().Format("2006-01-02 15:04"), end.UTC().Format("2006-01-02 15:04"))

	var rows []model.GridOperatorLMP
	offset := 1
	for page := 0; page < maxPages; page++ {
		q := url.Values{}
		q.Set("pnode_id", strconv.FormatInt(pnodeID, 10))
		q.Set("datetime_beginning_utc", window)
		q.Set("rowCount", strconv.Itoa(gridOperatorPageSize))
		q.Set("startRow", strconv.Itoa(offset))

		var p model.GridOperatorLMPPage
		if err := c.getJSON(ctx, "/"+c.Dataset, q, map[string]string{"Ocp-Apim-Subscription-Key": c.APIKey}, &p); err != nil {
			return nil, err
		}
		rows = append(rows, p.Items...)
		if p.NextOffset == nil || len(p.Items) == 0 {
			c.log.Info("received rows", "pnode_id", pnodeID, "rows", len(rows), "pages", page+1)
			return rows, nil
		}
		offset = *p.NextOffset
	}
	return nil, fmt.Errorf("gridoperator: more than %d pages for pnode %d", maxPages, pnodeID)
}
