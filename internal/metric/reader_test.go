package metric

import (
	"testing"

	"github.com/web3-frozen/itchio-monitor/internal/itchio"
)

func game(id int64, fields map[string]any) itchio.GameRecord {
	return itchio.GameRecord{ID: id, Title: "Game", Fields: fields}
}

func TestCatalog(t *testing.T) {
	defs := Catalog()
	if len(defs) != 4 {
		t.Fatalf("len(Catalog) = %d, want 4", len(defs))
	}
	want := []Kind{Views, Downloads, Purchases, Earnings}
	for i, k := range want {
		if defs[i].Kind != k {
			t.Errorf("Catalog[%d] = %q, want %q", i, defs[i].Kind, k)
		}
	}

	d, ok := Earnings.Definition()
	if !ok || d.Unit != "USD" || d.Icon != "mdi:currency-usd" {
		t.Errorf("Earnings.Definition() = %+v, %v", d, ok)
	}
	if _, ok := Kind("followers").Definition(); ok {
		t.Error("unknown kind should have no definition")
	}
}

func TestExtractDirectFields(t *testing.T) {
	g := game(1, map[string]any{
		"views_count":     float64(120),
		"downloads_count": nil,
		"purchases_count": "n/a",
	})
	tests := []struct {
		kind Kind
		want any
	}{
		{Views, float64(120)},
		{Downloads, nil},
		{Purchases, "n/a"},
	}
	for _, tt := range tests {
		if got := Extract(g, tt.kind); got != tt.want {
			t.Errorf("Extract(%s) = %v, want %v", tt.kind, got, tt.want)
		}
	}

	if got := Extract(game(2, map[string]any{}), Views); got != nil {
		t.Errorf("Extract(missing) = %v, want nil", got)
	}
}

func TestExtractEarnings(t *testing.T) {
	tests := []struct {
		name     string
		earnings any
		want     float64
	}{
		{"single entry", []any{map[string]any{"amount": float64(1234), "currency": "USD"}}, 12.34},
		{"first entry wins", []any{map[string]any{"amount": float64(500)}, map[string]any{"amount": float64(900)}}, 5},
		{"empty list", []any{}, 0},
		{"missing amount", []any{map[string]any{"currency": "USD"}}, 0},
		{"missing field", nil, 0},
		{"bare object", map[string]any{"amount": float64(250)}, 2.5},
		{"wrong type", "lots", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := map[string]any{}
			if tt.earnings != nil {
				fields["earnings"] = tt.earnings
			}
			got := Extract(game(1, fields), Earnings)
			if got != tt.want {
				t.Errorf("Extract(earnings) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLookupAndRead(t *testing.T) {
	snap := &itchio.Snapshot{Games: []itchio.GameRecord{
		game(1, map[string]any{"views_count": float64(5)}),
		game(2, map[string]any{"views_count": float64(9)}),
	}}

	if g, ok := Lookup(snap, 2); !ok || g.ID != 2 {
		t.Errorf("Lookup(2) = %+v, %v", g, ok)
	}
	if _, ok := Lookup(snap, 3); ok {
		t.Error("Lookup(3) should miss")
	}
	if got := Read(snap, 2, Views); got != float64(9) {
		t.Errorf("Read(2, views) = %v, want 9", got)
	}
	if got := Read(snap, 3, Views); got != nil {
		t.Errorf("Read(3, views) = %v, want nil", got)
	}
	if got := Read(nil, 1, Views); got != nil {
		t.Errorf("Read(nil) = %v, want nil", got)
	}
}

func TestGamesNeverNil(t *testing.T) {
	if got := Games(nil); got == nil || len(got) != 0 {
		t.Errorf("Games(nil) = %v, want empty", got)
	}
	if got := Games(&itchio.Snapshot{}); got == nil || len(got) != 0 {
		t.Errorf("Games(empty) = %v, want empty", got)
	}
}

func TestToNumber(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		ok   bool
	}{
		{float64(1.5), 1.5, true},
		{int(3), 3, true},
		{int64(-4), -4, true},
		{"5", 0, false},
		{nil, 0, false},
		{[]any{}, 0, false},
	}
	for _, tt := range tests {
		got, ok := ToNumber(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ToNumber(%v) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
