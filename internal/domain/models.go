package domain

import "strings"

// Fragment is one timestamped piece of transcript text as returned by a
// caption source. Start and Duration are in seconds; Duration is 0 when the
// source format does not encode it.
type Fragment struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration,omitempty"`
	Text     string  `json:"text"`
}

// End returns the moment the fragment stops being spoken.
func (f Fragment) End() float64 {
	return f.Start + f.Duration
}

// Transcript is the normalized output of caption resolution: fragments in
// ascending Start order plus the language code of the track that was used.
type Transcript struct {
	Fragments    []Fragment `json:"fragments"`
	LanguageCode string     `json:"languageCode"`
}

// LanguageName maps the caption track's language code to the display name
// used when prompting the question generator.
func (t Transcript) LanguageName() string {
	c := strings.ToLower(t.LanguageCode)
	switch {
	case strings.HasPrefix(c, "lv"):
		return "Latvian"
	case strings.HasPrefix(c, "es"):
		return "Spanish"
	case strings.HasPrefix(c, "ru"):
		return "Russian"
	}
	return "English"
}

// Question is a single multiple-choice quiz question. Choices contains
// Correct exactly once, at index 0; any presentation-layer reordering happens
// downstream.
type Question struct {
	Timestamp float64  `json:"timestamp"`
	Prompt    string   `json:"prompt"`
	Correct   string   `json:"correct"`
	Choices   []string `json:"choices"`
}

// Quiz is the cacheable product of one video: an ordered list of questions
// grounded in the resolved transcript.
type Quiz struct {
	VideoID      string     `json:"videoId"`
	LanguageCode string     `json:"languageCode"`
	LanguageName string     `json:"languageName"`
	Questions    []Question `json:"questions"`
}
