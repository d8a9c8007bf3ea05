package api

import (
	"context"
	"fmt"
	"net/url"
)

// GetLive fetches the latest live reading for a device.
func (c *Client) GetLive(ctx context.Context, deviceID string) (*LiveResponse, error) {
	var resp LiveResponse
	if err := c.get(ctx, "/api/data/"+url.PathEscape(deviceID), &resp); err != nil {
		return nil, fmt.Errorf("get live %s: %w", deviceID, err)
	}
	return &resp, nil
}

// GetHistory fetches the server-side history window for a device.
func (c *Client) GetHistory(ctx context.Context, deviceID string) (*HistoryResponse, error) {
	var resp HistoryResponse
	if err := c.get(ctx, "/api/history/"+url.PathEscape(deviceID), &resp); err != nil {
		return nil, fmt.Errorf("get history %s: %w", deviceID, err)
	}
	return &resp, nil
}
