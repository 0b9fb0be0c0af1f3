package history

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// SideAll disables the side filter.
const SideAll = "all"

// SortKey selects the single field the pipeline sorts by.
type SortKey string

const (
	SortTimestamp SortKey = "timestamp"
	SortMarket    SortKey = "market"
	SortSide      SortKey = "side"
	SortSize      SortKey = "size"
	SortPrice     SortKey = "price"
	SortPnL       SortKey = "pnl"
)

// Order is the sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

var (
	ErrInvalidSide  = errors.New("invalid side filter")
	ErrInvalidRange = errors.New("invalid date range")
	ErrInvalidSort  = errors.New("invalid sort key")
	ErrInvalidOrder = errors.New("invalid sort order")
)

// Filter holds the view options applied by Apply.
type Filter struct {
	Side    string // "all", "buy" or "sell"; compared case-insensitively
	Days    int    // 0 means all time
	Search  string
	SortKey SortKey
	Order   Order
}

// DefaultFilter returns the initial view: everything, newest first.
func DefaultFilter() Filter {
	return Filter{
		Side:    SideAll,
		SortKey: SortTimestamp,
		Order:   Desc,
	}
}

// Apply runs the pipeline over records and returns a new slice.
// The input slice is never modified.
func Apply(records []TradeRecord, f Filter, now time.Time) []TradeRecord {
	out := make([]TradeRecord, 0, len(records))

	side := strings.ToLower(f.Side)
	search := strings.ToLower(f.Search)

	var cutoff time.Time
	if f.Days > 0 {
		cutoff = now.AddDate(0, 0, -f.Days)
	}

	for _, r := range records {
		if side != "" && side != SideAll && strings.ToLower(r.Side) != side {
			continue
		}
		if f.Days > 0 && r.Timestamp.Before(cutoff) {
			continue
		}
		if search != "" && !matches(r, search) {
			continue
		}
		out = append(out, r)
	}

	sortRecords(out, f.SortKey, f.Order)
	return out
}

func matches(r TradeRecord, lower string) bool {
	return strings.Contains(strings.ToLower(r.MarketName), lower) ||
		strings.Contains(strings.ToLower(r.MarketID), lower)
}

func sortRecords(records []TradeRecord, key SortKey, order Order) {
	cmp := comparator(key)
	if cmp == nil {
		return
	}
	if order == Asc {
		slices.SortStableFunc(records, cmp)
		return
	}
	slices.SortStableFunc(records, func(a, b TradeRecord) int {
		return cmp(b, a)
	})
}

func comparator(key SortKey) func(a, b TradeRecord) int {
	switch key {
	case SortTimestamp:
		return func(a, b TradeRecord) int { return a.Timestamp.Compare(b.Timestamp) }
	case SortMarket:
		return func(a, b TradeRecord) int { return strings.Compare(a.MarketName, b.MarketName) }
	case SortSide:
		return func(a, b TradeRecord) int { return strings.Compare(a.Side, b.Side) }
	case SortSize:
		return func(a, b TradeRecord) int { return compareFloat(a.Size, b.Size) }
	case SortPrice:
		return func(a, b TradeRecord) int { return compareFloat(a.Price, b.Price) }
	case SortPnL:
		return func(a, b TradeRecord) int { return compareFloat(a.PnL(), b.PnL()) }
	default:
		return nil
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// ToggleSort returns f re-sorted by key. Selecting the current key flips the
// order; selecting a new key sorts it descending.
func ToggleSort(f Filter, key SortKey) Filter {
	if f.SortKey == key {
		if f.Order == Asc {
			f.Order = Desc
		} else {
			f.Order = Asc
		}
		return f
	}
	f.SortKey = key
	f.Order = Desc
	return f
}

// ParseSide validates a side filter value.
func ParseSide(s string) (string, error) {
	switch lower := strings.ToLower(strings.TrimSpace(s)); lower {
	case "", SideAll:
		return SideAll, nil
	case "buy", "sell":
		return lower, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSide, s)
	}
}

// ParseRange converts "all" or "<n>d" (for example "7d") to a day count.
func ParseRange(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "all" {
		return 0, nil
	}

	n, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
	if err != nil || !strings.HasSuffix(s, "d") || n < 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}
	return n, nil
}

// ParseSortKey validates a sort key.
func ParseSortKey(s string) (SortKey, error) {
	key := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if comparator(key) == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidSort, s)
	}
	return key, nil
}

// ParseOrder validates a sort order.
func ParseOrder(s string) (Order, error) {
	switch o := Order(strings.ToLower(strings.TrimSpace(s))); o {
	case Asc, Desc:
		return o, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOrder, s)
	}
}
