package captions

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/asticode/go-astisub"

	"watchask/internal/domain"
)

// parseSubtitles normalizes human-readable subtitle text (VTT or SRT) into
// fragments, keyed by the track's declared extension.
func parseSubtitles(data []byte, ext string) ([]domain.Fragment, error) {
	var (
		subs *astisub.Subtitles
		err  error
	)
	switch strings.ToLower(ext) {
	case "vtt":
		subs, err = astisub.ReadFromWebVTT(bytes.NewReader(data))
	case "srt":
		subs, err = astisub.ReadFromSRT(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unsupported subtitle format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", ext, err)
	}

	fragments := make([]domain.Fragment, 0, len(subs.Items))
	for _, item := range subs.Items {
		var sb strings.Builder
		for _, line := range item.Lines {
			for _, li := range line.Items {
				if li.Text == "" {
					continue
				}
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(li.Text)
			}
		}
		text := strings.TrimSpace(sb.String())
		if text == "" {
			continue
		}
		fragments = append(fragments, domain.Fragment{
			Start:    item.StartAt.Seconds(),
			Duration: (item.EndAt - item.StartAt).Seconds(),
			Text:     text,
		})
	}
	return fragments, nil
}
