package itchio

import (
	"math"
	"time"
)

// Snapshot is the complete payload of one fetch cycle. It is never mutated
// after the client returns it.
type Snapshot struct {
	Games     []GameRecord `json:"games"`
	FetchedAt time.Time    `json:"fetched_at"`
}

// GameRecord is a single entry of the my-games list. Fields holds the raw
// decoded object so metric fields are read exactly as the API sent them.
type GameRecord struct {
	ID      int64          `json:"id"`
	Title   string         `json:"title"`
	URL     string         `json:"url"`
	Version string         `json:"version,omitempty"`
	Fields  map[string]any `json:"-"`
}

// Field returns the raw value of a JSON member, or nil when it is absent.
func (g GameRecord) Field(name string) any {
	if g.Fields == nil {
		return nil
	}
	return g.Fields[name]
}

// parseGames builds the game list from a decoded my-games body. A missing or
// non-list games member yields no games; elements without an integral id are
// skipped.
func parseGames(body map[string]any) []GameRecord {
	raw, ok := body["games"].([]any)
	if !ok {
		return []GameRecord{}
	}

	games := make([]GameRecord, 0, len(raw))
	for _, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, ok := integralID(obj["id"])
		if !ok {
			continue
		}
		title, _ := obj["title"].(string)
		url, _ := obj["url"].(string)
		version, _ := obj["version"].(string)
		games = append(games, GameRecord{
			ID:      id,
			Title:   title,
			URL:     url,
			Version: version,
			Fields:  obj,
		})
	}
	return games
}

func integralID(v any) (int64, bool) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}
