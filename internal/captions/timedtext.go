package captions

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"

	"watchask/internal/domain"
)

const (
	watchPageURL  = "https://www.youtube.com/watch?v="
	browserUA     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"
	maxPageBytes  = 6 << 20
	maxTrackBytes = 1 << 20
)

// TimedTextSource is the primary caption backend. It scrapes the watch page
// for the player response's caption track list and fetches the chosen track
// as timedtext XML.
type TimedTextSource struct {
	client *http.Client
}

func NewTimedTextSource(client *http.Client) *TimedTextSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &TimedTextSource{client: client}
}

func (s *TimedTextSource) Name() string { return "timedtext" }

// captionTrack mirrors the relevant slice of ytInitialPlayerResponse.
type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" marks auto-generated tracks
}

type captionsRenderer struct {
	PlayerCaptionsTracklistRenderer struct {
		CaptionTracks []captionTrack `json:"captionTracks"`
	} `json:"playerCaptionsTracklistRenderer"`
}

func (s *TimedTextSource) Fetch(ctx context.Context, videoID string, preferred []string) (domain.Transcript, error) {
	tracks, err := s.listTracks(ctx, videoID)
	if err != nil {
		return domain.Transcript{}, err
	}
	if len(tracks) == 0 {
		return domain.Transcript{}, errors.New("no caption tracks in player response")
	}

	infos := make([]track, len(tracks))
	for i, t := range tracks {
		infos[i] = track{LanguageCode: t.LanguageCode, Auto: t.Kind == "asr"}
	}
	chosen := tracks[pickTrack(infos, preferred)]

	fragments, err := s.fetchTimedText(ctx, chosen.BaseURL)
	if err != nil {
		return domain.Transcript{}, err
	}
	return domain.Transcript{Fragments: fragments, LanguageCode: chosen.LanguageCode}, nil
}

// listTracks extracts the caption track list from the watch page HTML.
func (s *TimedTextSource) listTracks(ctx context.Context, videoID string) ([]captionTrack, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, watchPageURL+videoID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUA)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("watch page: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("read watch page: %w", err)
	}
	return parseCaptionTracks(body)
}

// parseCaptionTracks pulls the "captions" object out of raw watch page HTML.
// The JSON is bounded by the ,"videoDetails" key that always follows it.
func parseCaptionTracks(page []byte) ([]captionTrack, error) {
	_, rest, found := strings.Cut(string(page), `"captions":`)
	if !found {
		return nil, errors.New("captions disabled or page layout changed")
	}
	end := strings.Index(rest, `,"videoDetails`)
	if end < 0 {
		return nil, errors.New("player response truncated")
	}
	var renderer captionsRenderer
	if err := json.Unmarshal([]byte(rest[:end]), &renderer); err != nil {
		return nil, fmt.Errorf("decode caption tracks: %w", err)
	}
	return renderer.PlayerCaptionsTracklistRenderer.CaptionTracks, nil
}

// timedText mirrors the <transcript><text start dur> XML served by track URLs.
type timedText struct {
	Lines []timedTextLine `xml:"text"`
}

type timedTextLine struct {
	Start float64 `xml:"start,attr"`
	Dur   float64 `xml:"dur,attr"`
	Text  string  `xml:",chardata"`
}

func (s *TimedTextSource) fetchTimedText(ctx context.Context, trackURL string) ([]domain.Fragment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trackURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUA)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch timedtext: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTrackBytes))
	if err != nil {
		return nil, err
	}
	return parseTimedText(body)
}

func parseTimedText(body []byte) ([]domain.Fragment, error) {
	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}
	fragments := make([]domain.Fragment, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		text := strings.TrimSpace(html.UnescapeString(line.Text))
		if text == "" {
			continue
		}
		fragments = append(fragments, domain.Fragment{
			Start:    line.Start,
			Duration: line.Dur,
			Text:     text,
		})
	}
	return fragments, nil
}
