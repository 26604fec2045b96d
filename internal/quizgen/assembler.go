package quizgen

import (
	"context"
	"fmt"
	"log"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"watchask/internal/domain"
)

// Assembly defaults. A window closes once the covered duration since its
// start reaches WindowSeconds; chunks shorter than MinChunkChars carry too
// little material to question.
const (
	defaultWindowSeconds = 75.0
	defaultMaxWindows    = 8
	defaultMaxQuestions  = 20
	minChunkChars        = 60
	fallbackPerChunk     = 2
	promptPreviewChars   = 70
)

var fallbackDistractors = []string{"Not mentioned", "Something unrelated", "I'm not sure"}

var sentenceSplitRe = regexp.MustCompile(`[.!?]\s+`)

// Window is a contiguous slice of the transcript grouped for one generation
// call.
type Window struct {
	Start     float64
	Fragments []domain.Fragment
}

// Assembler partitions a transcript into time windows, asks the generator for
// question sets per window, and assembles a deduplicated, bounded quiz.
type Assembler struct {
	gen Generator

	WindowSeconds float64
	MaxWindows    int
	MaxQuestions  int
}

func NewAssembler(gen Generator) *Assembler {
	return &Assembler{
		gen:           gen,
		WindowSeconds: defaultWindowSeconds,
		MaxWindows:    defaultMaxWindows,
		MaxQuestions:  defaultMaxQuestions,
	}
}

// Build runs the chunked, multi-call strategy. Generator failures for a chunk
// are downgraded to local fallback synthesis; the build only fails when the
// final question list is empty.
func (a *Assembler) Build(ctx context.Context, transcript domain.Transcript) ([]domain.Question, error) {
	language := transcript.LanguageName()
	windows := SplitWindows(transcript.Fragments, a.WindowSeconds)

	var (
		questions []domain.Question
		previous  []string
		seen      = make(map[string]struct{})
		used      int
	)
	for _, win := range windows {
		if used >= a.MaxWindows || len(questions) >= a.MaxQuestions {
			break
		}
		text := joinFragments(win.Fragments)
		if len(text) < minChunkChars {
			continue
		}
		used++

		items, err := a.gen.Generate(ctx, text, previous, language)
		if err != nil {
			log.Printf("quizgen: generator failed for window at %.1fs: %v", win.Start, err)
		}
		if len(items) == 0 {
			items = FallbackQuestions(text, fallbackPerChunk)
		}

		for _, it := range items {
			q := strings.TrimSpace(it.Question)
			if q == "" {
				continue
			}
			if _, dup := seen[q]; dup {
				continue
			}
			choices := append([]string{it.Correct}, it.Distractors...)
			questions = append(questions, domain.Question{
				Timestamp: math.Round(win.Start*10) / 10,
				Prompt:    q,
				Correct:   it.Correct,
				Choices:   choices,
			})
			seen[q] = struct{}{}
			previous = append(previous, q)
		}
	}

	if len(questions) == 0 {
		return nil, domain.ErrNoQuestions
	}
	if len(questions) > a.MaxQuestions {
		questions = questions[:a.MaxQuestions]
	}
	return questions, nil
}

// SplitWindows partitions fragments into contiguous windows of roughly the
// target duration. Windows are emitted in non-decreasing start order and
// together cover the full fragment sequence; the final partial window is kept
// when non-empty.
func SplitWindows(fragments []domain.Fragment, windowSeconds float64) []Window {
	if len(fragments) == 0 {
		return nil
	}
	var (
		windows []Window
		buf     []domain.Fragment
		start   = fragments[0].Start
	)
	for _, f := range fragments {
		buf = append(buf, f)
		if f.End()-start >= windowSeconds {
			windows = append(windows, Window{Start: start, Fragments: buf})
			buf = nil
			start = f.End()
		}
	}
	if len(buf) > 0 {
		windows = append(windows, Window{Start: start, Fragments: buf})
	}
	return windows
}

func joinFragments(fragments []domain.Fragment) string {
	parts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if t := strings.TrimSpace(f.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// FallbackQuestions synthesizes questions locally when the generator yields
// nothing usable for a chunk: up to k sentences longer than 12 characters
// become "what was mentioned here" prompts whose correct answer is the full
// sentence.
func FallbackQuestions(text string, k int) []Candidate {
	var out []Candidate
	for _, s := range sentenceSplitRe.Split(text, -1) {
		s = strings.TrimSpace(s)
		if utf8.RuneCountInString(s) <= 12 {
			continue
		}
		// Truncate on rune boundaries so non-Latin transcripts never get a
		// split multi-byte character in the prompt.
		preview := s
		if runes := []rune(preview); len(runes) > promptPreviewChars {
			preview = string(runes[:promptPreviewChars])
		}
		out = append(out, Candidate{
			Question:    fmt.Sprintf("What was mentioned here: \"%s...\"", preview),
			Correct:     s,
			Distractors: append([]string(nil), fallbackDistractors...),
		})
		if len(out) >= k {
			break
		}
	}
	return out
}
