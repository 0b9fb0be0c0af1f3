package history

import (
	"errors"
	"testing"
	"time"
)

func pnl(v float64) *float64 { return &v }

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func TestApply_SideThenPnLDescIsStable(t *testing.T) {
	records := []TradeRecord{
		{ID: "1", Side: "buy", RealizedPnL: pnl(5)},
		{ID: "2", Side: "sell", RealizedPnL: pnl(9)},
		{ID: "3", Side: "buy", RealizedPnL: pnl(5)},
		{ID: "4", Side: "buy", RealizedPnL: pnl(2)},
	}

	got := Apply(records, Filter{Side: "buy", SortKey: SortPnL, Order: Desc}, testNow)

	want := []string{"1", "3", "4"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("got[%d].ID = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestApply_AscendingIsStableToo(t *testing.T) {
	records := []TradeRecord{
		{ID: "a", Size: 2},
		{ID: "b", Size: 1},
		{ID: "c", Size: 2},
		{ID: "d", Size: 1},
	}

	got := Apply(records, Filter{SortKey: SortSize, Order: Asc}, testNow)

	want := []string{"b", "d", "a", "c"}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("got[%d].ID = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestApply_SideCaseInsensitive(t *testing.T) {
	records := []TradeRecord{
		{ID: "1", Side: "BUY"},
		{ID: "2", Side: "Sell"},
		{ID: "3", Side: "buy"},
	}

	tests := []struct {
		side string
		want int
	}{
		{"all", 3},
		{"ALL", 3},
		{"", 3},
		{"buy", 2},
		{"Buy", 2},
		{"sell", 1},
	}

	for _, tt := range tests {
		t.Run(tt.side, func(t *testing.T) {
			got := Apply(records, Filter{Side: tt.side}, testNow)
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestApply_DateRangeBoundaryInclusive(t *testing.T) {
	records := []TradeRecord{
		{ID: "exact", Timestamp: testNow.Add(-7 * 24 * time.Hour)},
		{ID: "over", Timestamp: testNow.Add(-7*24*time.Hour - time.Second)},
		{ID: "recent", Timestamp: testNow.Add(-time.Hour)},
	}

	got := Apply(records, Filter{Days: 7, SortKey: SortTimestamp, Order: Asc}, testNow)

	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "exact" || got[1].ID != "recent" {
		t.Errorf("got %s,%s, want exact,recent", got[0].ID, got[1].ID)
	}

	all := Apply(records, Filter{Days: 0}, testNow)
	if len(all) != 3 {
		t.Errorf("all time len = %d, want 3", len(all))
	}
}

func TestApply_Search(t *testing.T) {
	records := []TradeRecord{
		{ID: "1", MarketName: "Will BTC hit 100k?", MarketID: "0xabc"},
		{ID: "2", MarketName: "", MarketID: "btc-dec"},
		{ID: "3", MarketName: "Fed rate cut", MarketID: "0xdef"},
	}

	tests := []struct {
		name   string
		search string
		want   []string
	}{
		{"by name case-insensitive", "btc", []string{"1", "2"}},
		{"by id", "0XDEF", []string{"3"}},
		{"no match", "eth", nil},
		{"empty keeps all", "", []string{"1", "2", "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(records, Filter{Search: tt.search}, testNow)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("got[%d].ID = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestApply_PipelineOrder(t *testing.T) {
	// A sell record matching the search must not survive the side filter,
	// and an old buy record must not survive the date filter.
	records := []TradeRecord{
		{ID: "1", Side: "buy", MarketName: "Election", Timestamp: testNow.Add(-time.Hour), Price: 0.4},
		{ID: "2", Side: "sell", MarketName: "Election", Timestamp: testNow.Add(-time.Hour), Price: 0.9},
		{ID: "3", Side: "buy", MarketName: "Election", Timestamp: testNow.AddDate(0, 0, -40), Price: 0.7},
		{ID: "4", Side: "buy", MarketName: "Sports", Timestamp: testNow.Add(-2 * time.Hour), Price: 0.8},
		{ID: "5", Side: "buy", MarketName: "Election night", Timestamp: testNow.Add(-3 * time.Hour), Price: 0.6},
	}

	f := Filter{Side: "buy", Days: 30, Search: "election", SortKey: SortPrice, Order: Desc}
	got := Apply(records, f, testNow)

	want := []string{"5", "1"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("got[%d].ID = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestApply_SortKeys(t *testing.T) {
	records := []TradeRecord{
		{ID: "1", MarketName: "b", Side: "sell", Size: 3, Price: 0.2, Timestamp: testNow.Add(-3 * time.Hour)},
		{ID: "2", MarketName: "a", Side: "buy", Size: 1, Price: 0.3, Timestamp: testNow.Add(-1 * time.Hour), RealizedPnL: pnl(-1)},
		{ID: "3", MarketName: "c", Side: "buy", Size: 2, Price: 0.1, Timestamp: testNow.Add(-2 * time.Hour), RealizedPnL: pnl(4)},
	}

	tests := []struct {
		key  SortKey
		want []string
	}{
		{SortTimestamp, []string{"1", "3", "2"}},
		{SortMarket, []string{"2", "1", "3"}},
		{SortSide, []string{"2", "3", "1"}},
		{SortSize, []string{"2", "3", "1"}},
		{SortPrice, []string{"3", "1", "2"}},
		{SortPnL, []string{"2", "1", "3"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			got := Apply(records, Filter{SortKey: tt.key, Order: Asc}, testNow)
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("got[%d].ID = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestApply_DoesNotModifyInput(t *testing.T) {
	records := []TradeRecord{
		{ID: "1", Size: 1},
		{ID: "2", Size: 2},
	}

	Apply(records, Filter{SortKey: SortSize, Order: Desc}, testNow)

	if records[0].ID != "1" || records[1].ID != "2" {
		t.Error("input slice was reordered")
	}
}

func TestToggleSort(t *testing.T) {
	f := DefaultFilter()

	f = ToggleSort(f, SortTimestamp)
	if f.SortKey != SortTimestamp || f.Order != Asc {
		t.Errorf("same key: got %s/%s, want timestamp/asc", f.SortKey, f.Order)
	}

	f = ToggleSort(f, SortTimestamp)
	if f.Order != Desc {
		t.Errorf("same key twice: order = %s, want desc", f.Order)
	}

	f.Order = Asc
	f = ToggleSort(f, SortPnL)
	if f.SortKey != SortPnL || f.Order != Desc {
		t.Errorf("new key: got %s/%s, want pnl/desc", f.SortKey, f.Order)
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"all", 0, false},
		{"", 0, false},
		{"7d", 7, false},
		{"30D", 30, false},
		{"90d", 90, false},
		{"7", 0, true},
		{"0d", 0, true},
		{"-3d", 0, true},
		{"week", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRange(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRange) {
					t.Errorf("err = %v, want ErrInvalidRange", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseSideSortOrder(t *testing.T) {
	if s, err := ParseSide("SELL"); err != nil || s != "sell" {
		t.Errorf("ParseSide(SELL) = %q, %v", s, err)
	}
	if _, err := ParseSide("hold"); !errors.Is(err, ErrInvalidSide) {
		t.Errorf("ParseSide(hold) err = %v, want ErrInvalidSide", err)
	}
	if k, err := ParseSortKey("PnL"); err != nil || k != SortPnL {
		t.Errorf("ParseSortKey(PnL) = %q, %v", k, err)
	}
	if _, err := ParseSortKey("volume"); !errors.Is(err, ErrInvalidSort) {
		t.Errorf("ParseSortKey(volume) err = %v, want ErrInvalidSort", err)
	}
	if o, err := ParseOrder("ASC"); err != nil || o != Asc {
		t.Errorf("ParseOrder(ASC) = %q, %v", o, err)
	}
	if _, err := ParseOrder("up"); !errors.Is(err, ErrInvalidOrder) {
		t.Errorf("ParseOrder(up) err = %v, want ErrInvalidOrder", err)
	}
}
