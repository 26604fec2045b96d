package captions

import (
	"context"
	"fmt"
	"log"
	"strings"

	"watchask/internal/domain"
)

// DefaultLanguages is the caption language preference order used when the
// caller does not supply one.
var DefaultLanguages = []string{"en", "en-US", "lv", "es", "ru"}

// Source fetches a transcript for a video from one backend (structured
// transcript API, yt-dlp, ...). Implementations return the normalized
// fragments and the language code of the track actually used.
type Source interface {
	Name() string
	Fetch(ctx context.Context, videoID string, preferred []string) (domain.Transcript, error)
}

// Resolver turns a video URL or id into a normalized transcript by trying its
// sources in priority order and stopping at the first that yields fragments.
type Resolver struct {
	sources   []Source
	preferred []string
}

// NewResolver builds a resolver over ordered sources. The preferred language
// list falls back to DefaultLanguages when empty.
func NewResolver(sources []Source, preferred []string) *Resolver {
	if len(preferred) == 0 {
		preferred = DefaultLanguages
	}
	return &Resolver{sources: sources, preferred: preferred}
}

// Resolve extracts the video id and walks the source chain. Per-source
// failures are logged and swallowed; only the terminal outcomes surface:
// domain.ErrInvalidVideoID before any fetch, or domain.ErrCaptionsUnavailable
// when every source came up empty.
func (r *Resolver) Resolve(ctx context.Context, urlOrID string) (domain.Transcript, error) {
	videoID, err := ExtractVideoID(urlOrID)
	if err != nil {
		return domain.Transcript{}, err
	}

	for _, src := range r.sources {
		transcript, err := src.Fetch(ctx, videoID, r.preferred)
		if err != nil {
			log.Printf("captions: source %s failed for %s: %v", src.Name(), videoID, err)
			continue
		}
		transcript.Fragments = dropEmpty(transcript.Fragments)
		if len(transcript.Fragments) == 0 {
			log.Printf("captions: source %s returned no usable fragments for %s", src.Name(), videoID)
			continue
		}
		return transcript, nil
	}
	return domain.Transcript{}, fmt.Errorf("%w %s", domain.ErrCaptionsUnavailable, videoID)
}

func dropEmpty(fragments []domain.Fragment) []domain.Fragment {
	kept := fragments[:0]
	for _, f := range fragments {
		f.Text = strings.TrimSpace(f.Text)
		if f.Text != "" {
			kept = append(kept, f)
		}
	}
	return kept
}

// track is the source-agnostic view of an available caption track used for
// preference ordering.
type track struct {
	LanguageCode string
	Auto         bool
}

// pickTrack selects the best track index for the preference order: exact
// preferred-language match first (manual beating auto-generated for the same
// language), then a dialect variant of a preferred language (en matching
// en-US), then the first available track. Returns -1 only for an empty list.
func pickTrack(tracks []track, preferred []string) int {
	if len(tracks) == 0 {
		return -1
	}
	for _, lang := range preferred {
		if i := findLanguage(tracks, func(code string) bool { return strings.EqualFold(code, lang) }); i >= 0 {
			return i
		}
	}
	for _, lang := range preferred {
		base := baseLanguage(lang)
		if i := findLanguage(tracks, func(code string) bool { return baseLanguage(code) == base }); i >= 0 {
			return i
		}
	}
	return 0
}

// findLanguage returns the first matching track index, preferring manually
// authored tracks over auto-generated ones.
func findLanguage(tracks []track, match func(code string) bool) int {
	auto := -1
	for i, t := range tracks {
		if !match(t.LanguageCode) {
			continue
		}
		if !t.Auto {
			return i
		}
		if auto < 0 {
			auto = i
		}
	}
	return auto
}

func baseLanguage(code string) string {
	code = strings.ToLower(code)
	if i := strings.IndexAny(code, "-_"); i > 0 {
		return code[:i]
	}
	return code
}
