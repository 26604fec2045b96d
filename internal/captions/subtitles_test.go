package captions

import (
	"math"
	"testing"
)

func TestParseSubtitlesVTT(t *testing.T) {
	data := []byte(`WEBVTT

00:00:01.000 --> 00:00:03.500
Hello there

00:00:04.000 --> 00:00:06.000
General
Kenobi
`)

	fragments, err := parseSubtitles(data, "vtt")
	if err != nil {
		t.Fatalf("parse vtt: %v", err)
	}
	if len(fragments) != 2 {
		t.Fatalf("expected 2 fragments, got %d", len(fragments))
	}
	if fragments[0].Start != 1 || fragments[0].Duration != 2.5 {
		t.Fatalf("unexpected timing %+v", fragments[0])
	}
	if fragments[1].Text != "General Kenobi" {
		t.Fatalf("multi-line cue not joined: %q", fragments[1].Text)
	}
}

func TestParseSubtitlesSRT(t *testing.T) {
	data := []byte(`1
00:00:02,000 --> 00:00:04,000
First caption

2
00:00:05,500 --> 00:00:07,000
Second caption
`)

	fragments, err := parseSubtitles(data, "srt")
	if err != nil {
		t.Fatalf("parse srt: %v", err)
	}
	if len(fragments) != 2 {
		t.Fatalf("expected 2 fragments, got %d", len(fragments))
	}
	if fragments[1].Start != 5.5 || math.Abs(fragments[1].Duration-1.5) > 1e-9 {
		t.Fatalf("unexpected timing %+v", fragments[1])
	}
}

func TestParseSubtitlesUnsupportedFormat(t *testing.T) {
	if _, err := parseSubtitles([]byte("whatever"), "ass"); err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
}
