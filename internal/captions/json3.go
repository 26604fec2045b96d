package captions

import (
	"encoding/json"
	"fmt"
	"strings"

	"watchask/internal/domain"
)

// json3Body mirrors YouTube's compact timed-JSON caption format: a flat list
// of events, each carrying millisecond timing and text segments.
type json3Body struct {
	Events []json3Event `json:"events"`
}

type json3Event struct {
	StartMs    float64    `json:"tStartMs"`
	DurationMs float64    `json:"dDurationMs"`
	Segs       []json3Seg `json:"segs"`
}

type json3Seg struct {
	UTF8 string `json:"utf8"`
}

// parseJSON3 normalizes a json3 payload into fragments: start = tStartMs/1000,
// segment texts joined, events without text dropped.
func parseJSON3(data []byte) ([]domain.Fragment, error) {
	var body json3Body
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("decode json3: %w", err)
	}
	fragments := make([]domain.Fragment, 0, len(body.Events))
	for _, ev := range body.Events {
		var sb strings.Builder
		for _, seg := range ev.Segs {
			sb.WriteString(seg.UTF8)
		}
		text := strings.TrimSpace(strings.ReplaceAll(sb.String(), "\n", " "))
		if text == "" {
			continue
		}
		fragments = append(fragments, domain.Fragment{
			Start:    ev.StartMs / 1000,
			Duration: ev.DurationMs / 1000,
			Text:     text,
		})
	}
	return fragments, nil
}
