package captions

import (
	"context"
	"errors"
	"testing"

	"watchask/internal/domain"
)

type fakeSource struct {
	name       string
	transcript domain.Transcript
	err        error
	calls      int
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) Fetch(_ context.Context, _ string, _ []string) (domain.Transcript, error) {
	s.calls++
	return s.transcript, s.err
}

func sampleTranscript() domain.Transcript {
	return domain.Transcript{
		LanguageCode: "en",
		Fragments: []domain.Fragment{
			{Start: 0, Duration: 2, Text: "hello there"},
		},
	}
}

func TestResolveFallsBackToNextSource(t *testing.T) {
	primary := &fakeSource{name: "primary", err: errors.New("blocked")}
	secondary := &fakeSource{name: "secondary", transcript: sampleTranscript()}
	resolver := NewResolver([]Source{primary, secondary}, nil)

	got, err := resolver.Resolve(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Fatalf("expected both sources tried, got primary=%d secondary=%d", primary.calls, secondary.calls)
	}
	if got.LanguageCode != "en" || len(got.Fragments) != 1 {
		t.Fatalf("unexpected transcript %+v", got)
	}
}

func TestResolveStopsAtFirstSuccess(t *testing.T) {
	primary := &fakeSource{name: "primary", transcript: sampleTranscript()}
	secondary := &fakeSource{name: "secondary", transcript: sampleTranscript()}
	resolver := NewResolver([]Source{primary, secondary}, nil)

	if _, err := resolver.Resolve(context.Background(), "dQw4w9WgXcQ"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if secondary.calls != 0 {
		t.Fatalf("secondary should not be tried after primary succeeded")
	}
}

func TestResolveSkipsSourceWithOnlyEmptyFragments(t *testing.T) {
	empty := &fakeSource{name: "empty", transcript: domain.Transcript{
		LanguageCode: "en",
		Fragments:    []domain.Fragment{{Start: 0, Duration: 1, Text: "   "}},
	}}
	good := &fakeSource{name: "good", transcript: sampleTranscript()}
	resolver := NewResolver([]Source{empty, good}, nil)

	got, err := resolver.Resolve(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if good.calls != 1 {
		t.Fatalf("expected fallback to good source")
	}
	if len(got.Fragments) != 1 || got.Fragments[0].Text != "hello there" {
		t.Fatalf("unexpected fragments %+v", got.Fragments)
	}
}

func TestResolveReportsCaptionsUnavailable(t *testing.T) {
	failing := &fakeSource{name: "failing", err: errors.New("nope")}
	resolver := NewResolver([]Source{failing}, nil)

	_, err := resolver.Resolve(context.Background(), "dQw4w9WgXcQ")
	if !errors.Is(err, domain.ErrCaptionsUnavailable) {
		t.Fatalf("expected ErrCaptionsUnavailable, got %v", err)
	}
}

func TestResolveFailsFastOnInvalidInput(t *testing.T) {
	src := &fakeSource{name: "src", transcript: sampleTranscript()}
	resolver := NewResolver([]Source{src}, nil)

	_, err := resolver.Resolve(context.Background(), "not a url")
	if !errors.Is(err, domain.ErrInvalidVideoID) {
		t.Fatalf("expected ErrInvalidVideoID, got %v", err)
	}
	if src.calls != 0 {
		t.Fatalf("no source should be tried for invalid input")
	}
}

func TestPickTrackPreferenceOrder(t *testing.T) {
	cases := []struct {
		name      string
		tracks    []track
		preferred []string
		want      int
	}{
		{
			name:      "exact match wins",
			tracks:    []track{{LanguageCode: "lv"}, {LanguageCode: "en"}},
			preferred: []string{"en"},
			want:      1,
		},
		{
			name:      "manual beats auto for same language",
			tracks:    []track{{LanguageCode: "en", Auto: true}, {LanguageCode: "en"}},
			preferred: []string{"en"},
			want:      1,
		},
		{
			name:      "auto used when no manual track",
			tracks:    []track{{LanguageCode: "lv"}, {LanguageCode: "en", Auto: true}},
			preferred: []string{"en"},
			want:      1,
		},
		{
			name:      "dialect variant matches base language",
			tracks:    []track{{LanguageCode: "lv"}, {LanguageCode: "en-GB"}},
			preferred: []string{"en"},
			want:      1,
		},
		{
			name:      "case-insensitive exact match",
			tracks:    []track{{LanguageCode: "EN"}},
			preferred: []string{"en"},
			want:      0,
		},
		{
			name:      "first available when nothing matches",
			tracks:    []track{{LanguageCode: "fr"}, {LanguageCode: "de"}},
			preferred: []string{"en"},
			want:      0,
		},
		{
			name:      "earlier preference outranks later",
			tracks:    []track{{LanguageCode: "lv"}, {LanguageCode: "en"}},
			preferred: []string{"en", "lv"},
			want:      1,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := pickTrack(tc.tracks, tc.preferred); got != tc.want {
				t.Fatalf("pickTrack = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestPickTrackEmpty(t *testing.T) {
	if got := pickTrack(nil, []string{"en"}); got != -1 {
		t.Fatalf("expected -1 for empty track list, got %d", got)
	}
}
