package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"watchask/internal/app"
	"watchask/internal/domain"
	"watchask/internal/infra/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.NewSessionStore()
	repo := memory.NewQuizRepository(memory.NewStaticQuizLoader(sampleQuiz()), time.Minute)
	service := app.NewQuizService(store, repo)

	mux := http.NewServeMux()
	NewHandler(service).Register(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestGenerateQuestionSubmitFlow(t *testing.T) {
	server := newTestServer(t)

	// Generate a quiz and capture the session token.
	resp := postJSON(t, server.URL+"/api/generate", "", map[string]string{
		"url": "https://youtu.be/dQw4w9WgXcQ",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate status %d", resp.StatusCode)
	}
	token := resp.Header.Get("X-Session-Token")
	if token == "" {
		t.Fatalf("expected session token header")
	}
	var gen struct {
		VideoID        string `json:"video_id"`
		TotalQuestions int    `json:"total_questions"`
		Language       string `json:"language"`
	}
	decode(t, resp, &gen)
	if gen.VideoID != "dQw4w9WgXcQ" || gen.TotalQuestions != 2 || gen.Language != "English" {
		t.Fatalf("unexpected generate response %+v", gen)
	}

	// Fetch the first question; a repeat fetch must look the same.
	q1 := getQuestion(t, server.URL, token)
	if q1.QuestionNum != 1 || len(q1.Choices) != 2 || q1.Finished {
		t.Fatalf("unexpected question %+v", q1)
	}
	if again := getQuestion(t, server.URL, token); again.QuestionNum != 1 || again.Question != q1.Question {
		t.Fatalf("question read must be idempotent, got %+v", again)
	}

	// Wrong answer: no advance, answer revealed.
	sub := submit(t, server.URL, token, "B1")
	if sub.Correct || sub.MoveNext || sub.CorrectAnswer != "A1" {
		t.Fatalf("unexpected submit response %+v", sub)
	}
	if q := getQuestion(t, server.URL, token); q.QuestionNum != 1 {
		t.Fatalf("index must hold after first wrong answer, got %+v", q)
	}

	// Second chance wrong: advances without scoring.
	sub = submit(t, server.URL, token, "B1")
	if sub.Correct || !sub.MoveNext || sub.Score != 0 {
		t.Fatalf("unexpected second-chance response %+v", sub)
	}

	// Correct answer on question 2 finishes the quiz.
	sub = submit(t, server.URL, token, "A2")
	if !sub.Correct || !sub.Finished || sub.Score != 1 {
		t.Fatalf("unexpected final response %+v", sub)
	}
	if q := getQuestion(t, server.URL, token); !q.Finished || q.Score != 1 {
		t.Fatalf("expected finished view, got %+v", q)
	}

	// Reset invalidates the token.
	resp = postJSON(t, server.URL+"/api/reset", token, map[string]string{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset status %d", resp.StatusCode)
	}
	req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/question", nil)
	req.Header.Set("X-Session-Token", token)
	r, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("question after reset: %v", err)
	}
	defer r.Body.Close()
	if r.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after reset, got %d", r.StatusCode)
	}
}

func TestGenerateRejectsInvalidURL(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/generate", "", map[string]string{"url": "not a url"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid url, got %d", resp.StatusCode)
	}
	var e struct {
		Error string `json:"error"`
	}
	decode(t, resp, &e)
	if e.Error == "" {
		t.Fatalf("expected error message in body")
	}
}

func TestGenerateUnknownVideo(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/generate", "", map[string]string{
		"url": "https://youtu.be/zzzzzzzzzzz",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 for unknown video in static loader, got %d", resp.StatusCode)
	}
}

func TestQuestionWithoutSession(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/question")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 without a session, got %d", resp.StatusCode)
	}
}

func TestMethodChecks(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/generate")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET /api/generate, got %d", resp.StatusCode)
	}
}

func TestQuestionPayloadKeepsZeroTimestamp(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/generate", "", map[string]string{"url": "dQw4w9WgXcQ"})
	token := resp.Header.Get("X-Session-Token")
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/question", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("X-Session-Token", token)
	r, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get question: %v", err)
	}
	defer r.Body.Close()

	// The first question sits at t=0; clients need the field to seek.
	var body map[string]any
	decode(t, r, &body)
	ts, ok := body["timestamp"]
	if !ok {
		t.Fatalf("timestamp missing from payload: %v", body)
	}
	if ts.(float64) != 0 {
		t.Fatalf("expected timestamp 0, got %v", ts)
	}
}

func TestSessionTokenFromCookie(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/generate", "", map[string]string{"url": "dQw4w9WgXcQ"})
	resp.Body.Close()
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "watchask_session" {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatalf("expected session cookie to be set")
	}

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/question", nil)
	req.AddCookie(cookie)
	r, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("question via cookie: %v", err)
	}
	defer r.Body.Close()
	if r.StatusCode != http.StatusOK {
		t.Fatalf("expected cookie auth to work, got %d", r.StatusCode)
	}
}

func postJSON(t *testing.T, url, token string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("X-Session-Token", token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func getQuestion(t *testing.T, baseURL, token string) questionResponse {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, baseURL+"/api/question", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("X-Session-Token", token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get question: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("question status %d", resp.StatusCode)
	}
	var q questionResponse
	decode(t, resp, &q)
	return q
}

func submit(t *testing.T, baseURL, token, answer string) submitResponse {
	t.Helper()
	resp := postJSON(t, baseURL+"/api/submit", token, map[string]string{"answer": answer})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit status %d", resp.StatusCode)
	}
	var s submitResponse
	decode(t, resp, &s)
	return s
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func sampleQuiz() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"dQw4w9WgXcQ": {
			VideoID:      "dQw4w9WgXcQ",
			LanguageCode: "en",
			LanguageName: "English",
			Questions: []domain.Question{
				{Timestamp: 0, Prompt: "First?", Correct: "A1", Choices: []string{"A1", "B1"}},
				{Timestamp: 80, Prompt: "Second?", Correct: "A2", Choices: []string{"A2", "B2"}},
			},
		},
	}
}
