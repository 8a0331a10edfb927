package metric

import (
	"github.com/web3-frozen/itchio-monitor/internal/itchio"
)

// Games returns the snapshot's games in API order. A nil snapshot has none.
func Games(snap *itchio.Snapshot) []itchio.GameRecord {
	if snap == nil || snap.Games == nil {
		return []itchio.GameRecord{}
	}
	return snap.Games
}

// Lookup finds a game by id with a linear scan.
func Lookup(snap *itchio.Snapshot, gameID int64) (itchio.GameRecord, bool) {
	for _, g := range Games(snap) {
		if g.ID == gameID {
			return g, true
		}
	}
	return itchio.GameRecord{}, false
}

// Extract returns the current value of kind for game. Earnings are unwrapped
// to major currency units; every other kind is returned exactly as decoded,
// which may be nil or a non-numeric value.
func Extract(game itchio.GameRecord, kind Kind) any {
	if kind == Earnings {
		v, ok := UnwrapEarnings(game.Field(string(Earnings)))
		if !ok {
			return 0.0
		}
		return v
	}
	return game.Field(string(kind))
}

// Read is Lookup followed by Extract. It returns nil when the game is absent.
func Read(snap *itchio.Snapshot, gameID int64, kind Kind) any {
	game, ok := Lookup(snap, gameID)
	if !ok {
		return nil
	}
	return Extract(game, kind)
}

// UnwrapEarnings converts an earnings structure to a decimal amount. It
// accepts the API list form and a bare object; the first list element wins.
// An empty list or a missing amount counts as 0. ok is false when v has no
// earnings shape at all.
func UnwrapEarnings(v any) (float64, bool) {
	switch e := v.(type) {
	case []any:
		if len(e) == 0 {
			return 0, true
		}
		return UnwrapEarnings(e[0])
	case map[string]any:
		amount, ok := ToNumber(e["amount"])
		if !ok {
			return 0, true
		}
		return amount / 100, true
	default:
		return 0, false
	}
}
