package quizgen

import (
	"strings"
	"testing"
)

func TestParseCandidates(t *testing.T) {
	raw := `[
		{"question":"What do plants need?","correct":"Sunlight","distractors":["Darkness","Rocks"]},
		{"question":"  ","correct":"x","distractors":["a","b"]},
		{"question":"Too few distractors?","correct":"Yes","distractors":["one"]},
		{"question":"Trimmed?","correct":" Yes ","distractors":[" a ","", " b "]}
	]`

	items, err := parseCandidates(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected invalid items dropped, got %d valid", len(items))
	}
	if items[0].Question != "What do plants need?" || items[0].Correct != "Sunlight" {
		t.Fatalf("unexpected first item %+v", items[0])
	}
	if items[1].Correct != "Yes" || len(items[1].Distractors) != 2 || items[1].Distractors[0] != "a" {
		t.Fatalf("expected trimmed fields and empty distractors dropped, got %+v", items[1])
	}
}

func TestParseCandidatesStripsCodeFences(t *testing.T) {
	raw := "```json\n[{\"question\":\"Q?\",\"correct\":\"A\",\"distractors\":[\"B\",\"C\"]}]\n```"
	items, err := parseCandidates(raw)
	if err != nil {
		t.Fatalf("parse fenced: %v", err)
	}
	if len(items) != 1 || items[0].Question != "Q?" {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestParseCandidatesDropsDistractorsMatchingAnswer(t *testing.T) {
	raw := `[
		{"question":"Q1?","correct":"Blue","distractors":["Blue","Red"]},
		{"question":"Q2?","correct":"Blue","distractors":["Red","Red","Green"]}
	]`
	items, err := parseCandidates(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	// Q1 loses the distractor repeating the answer and falls below two.
	if len(items) != 1 || items[0].Question != "Q2?" {
		t.Fatalf("expected only Q2 to survive, got %+v", items)
	}
	if len(items[0].Distractors) != 2 || items[0].Distractors[0] != "Red" || items[0].Distractors[1] != "Green" {
		t.Fatalf("expected duplicate distractor collapsed, got %v", items[0].Distractors)
	}
	for _, d := range items[0].Distractors {
		if d == items[0].Correct {
			t.Fatalf("correct answer must not appear among distractors: %v", items[0].Distractors)
		}
	}
}

func TestParseCandidatesErrors(t *testing.T) {
	if _, err := parseCandidates("this is not json"); err == nil {
		t.Fatalf("expected decode error")
	}
	if _, err := parseCandidates(`[{"question":"","correct":"","distractors":[]}]`); err == nil {
		t.Fatalf("expected error when no item survives validation")
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt("the chunk text", []string{"Old question?"}, "English")
	if !strings.Contains(prompt, "the chunk text") {
		t.Fatalf("prompt missing chunk text")
	}
	if !strings.Contains(prompt, "Old question?") {
		t.Fatalf("prompt missing previous-question suppression list")
	}
	if !strings.Contains(prompt, "ENGLISH") {
		t.Fatalf("prompt missing target language")
	}

	lv := buildPrompt("teksts", nil, "Latvian")
	if !strings.Contains(lv, "LATVIEŠU") {
		t.Fatalf("latvian prompt not localized")
	}
	ru := buildPrompt("текст", nil, "Russian")
	if !strings.Contains(ru, "РУССКОМ") {
		t.Fatalf("russian prompt not localized")
	}
	es := buildPrompt("texto", nil, "Spanish")
	if !strings.Contains(es, "ESPAÑOL") {
		t.Fatalf("spanish prompt not localized")
	}
}
