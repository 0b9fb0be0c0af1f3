package api

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/probablyprofit/dashsync/internal/history"
)

// timestampLayouts are tried in order. Naive timestamps are taken as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses an ISO 8601 timestamp.
// Returns the zero time for empty or invalid input.
func ParseTimestamp(iso string) time.Time {
	iso = strings.TrimSpace(iso)
	if iso == "" {
		return time.Time{}
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, iso); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// ToRecord converts a Trade to a history record.
func (t *Trade) ToRecord() history.TradeRecord {
	var pnl *float64
	if t.RealizedPnL != nil {
		v := *t.RealizedPnL
		pnl = &v
	}

	return history.TradeRecord{
		ID:          string(t.ID),
		Timestamp:   ParseTimestamp(t.Timestamp),
		MarketID:    t.MarketID,
		MarketName:  t.MarketName,
		Side:        t.Side,
		Outcome:     t.Outcome,
		Size:        t.Size,
		Price:       t.Price,
		RealizedPnL: pnl,
	}
}

// ToRecords converts a trade list, preserving order.
func ToRecords(trades []Trade) []history.TradeRecord {
	records := make([]history.TradeRecord, 0, len(trades))
	for i := range trades {
		records = append(records, trades[i].ToRecord())
	}
	return records
}

// WebSocketURL derives the push channel URL from the client's base URL:
// http becomes ws and https becomes wss. An empty path uses /ws.
func (c *Client) WebSocketURL(path string) (string, error) {
	if path == "" {
		path = DefaultWSPath
	}
	return WebSocketURL(c.baseURL, path)
}

// WebSocketURL derives a ws:// or wss:// URL for path on the host of baseURL.
func WebSocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("base url %q has no host", baseURL)
	}

	u.Path = path
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
