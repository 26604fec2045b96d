package quizgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Candidate is one question/answer/distractor set as returned by the
// generation capability, before assembly into a domain.Question.
type Candidate struct {
	Question    string   `json:"question"`
	Correct     string   `json:"correct"`
	Distractors []string `json:"distractors"`
}

// Generator produces candidate questions for one transcript chunk. previous
// carries already accepted question strings so the model can avoid repeats.
// Implementations return an error or an empty slice for unusable output;
// callers treat both the same way and fall back locally.
type Generator interface {
	Generate(ctx context.Context, chunk string, previous []string, language string) ([]Candidate, error)
}

// Disabled is a Generator for deployments without an API key; every call
// reports no usable output, so assembly relies on fallback synthesis.
type Disabled struct{}

func (Disabled) Generate(context.Context, string, []string, string) ([]Candidate, error) {
	return nil, errors.New("question generator disabled: no API key configured")
}

// GeminiGenerator asks a Gemini model for questions grounded in the chunk
// text and parses its JSON-array reply.
type GeminiGenerator struct {
	model   *genai.GenerativeModel
	timeout time.Duration
}

// NewGeminiGenerator dials the Gemini API. modelName must be set; timeout
// bounds each generation call and defaults to 60s when zero.
func NewGeminiGenerator(ctx context.Context, apiKey, modelName string, timeout time.Duration) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key not configured")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.7)
	model.SetTopP(0.7)
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &GeminiGenerator{model: model, timeout: timeout}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, chunk string, previous []string, language string) ([]Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	prompt := buildPrompt(chunk, previous, language)
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini GenerateContent: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("gemini returned no content")
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return nil, fmt.Errorf("gemini returned unexpected part type %T", resp.Candidates[0].Content.Parts[0])
	}
	return parseCandidates(string(text))
}

// buildPrompt combines the localized system instruction, the repeat
// suppression list, and the chunk text into one request.
func buildPrompt(chunk string, previous []string, language string) string {
	prevJSON, _ := json.Marshal(previous)
	schema := `Return ONLY a JSON array (no code fences, no prose). Each item MUST be an object with keys:
  "question": string (kid-friendly, short),
  "correct": string,
  "distractors": array of 2-3 short strings (plausible, not true).
Do NOT repeat or paraphrase these previous questions: ` + string(prevJSON) + `.
Questions must be answerable from the provided text only.`

	var intro string
	switch strings.ToLower(language) {
	case "latvian":
		intro = "Tu esi draudzīgs skolotājs, kurš ģenerē TRĪS īsus jautājumus bērniem. Atbildi TIKAI kā JSON masīvu.\n" + schema + "\nĢenerē jautājumus LATVIEŠU valodā."
	case "spanish":
		intro = "Eres un maestro amigable que genera TRES preguntas cortas para niños. Responde SOLO como un arreglo JSON.\n" + schema + "\nGenera preguntas en ESPAÑOL."
	case "russian":
		intro = "Ты дружелюбный учитель, который генерирует ТРИ коротких вопроса для детей. Отвечай ТОЛЬКО JSON-массивом.\n" + schema + "\nГенерируй вопросы на РУССКОМ."
	default:
		intro = "You are a friendly teacher generating THREE short questions for children. Respond ONLY as a JSON array.\n" + schema + "\nGenerate questions in ENGLISH."
	}

	return intro + "\n\nText:\n" + chunk + "\n\nRules:\n- Keep questions grounded strictly in this text.\n- Avoid proper nouns if not present.\n- Keep answers short (<= 12 words)."
}

// parseCandidates decodes a model reply into validated candidates. Stray code
// fences are stripped first; items missing a question, answer, or distractors
// are dropped rather than propagated.
func parseCandidates(raw string) ([]Candidate, error) {
	raw = stripFences(raw)

	var items []Candidate
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode generator reply: %w", err)
	}

	out := make([]Candidate, 0, len(items))
	for _, it := range items {
		it.Question = strings.TrimSpace(it.Question)
		it.Correct = strings.TrimSpace(it.Correct)
		distractors := it.Distractors[:0]
		seen := make(map[string]struct{}, len(it.Distractors))
		for _, d := range it.Distractors {
			d = strings.TrimSpace(d)
			// The correct answer must appear in the choices exactly once, so
			// a distractor repeating it (or another distractor) is dropped.
			if d == "" || d == it.Correct {
				continue
			}
			if _, dup := seen[d]; dup {
				continue
			}
			seen[d] = struct{}{}
			distractors = append(distractors, d)
		}
		it.Distractors = distractors
		if it.Question == "" || it.Correct == "" || len(it.Distractors) < 2 {
			continue
		}
		out = append(out, it)
	}
	if len(out) == 0 {
		return nil, errors.New("no valid items in generator reply")
	}
	return out, nil
}

func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.Trim(raw, "`")
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(raw), "json") {
		raw = strings.TrimSpace(raw[4:])
	}
	return raw
}
