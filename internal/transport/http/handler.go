package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"watchask/internal/app"
	"watchask/internal/domain"
)

const sessionHeader = "X-Session-Token"
const sessionCookie = "watchask_session"

// Handler exposes the quiz use cases as JSON endpoints. Session state lives
// server-side; clients carry only the opaque token issued by /api/generate.
type Handler struct {
	service *app.QuizService
}

func NewHandler(service *app.QuizService) *Handler {
	return &Handler{service: service}
}

// Register wires the JSON API onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/generate", h.handleGenerate)
	mux.HandleFunc("/api/question", h.handleQuestion)
	mux.HandleFunc("/api/submit", h.handleSubmit)
	mux.HandleFunc("/api/reset", h.handleReset)
}

type generateRequest struct {
	URL string `json:"url"`
}

type generateResponse struct {
	VideoID        string `json:"video_id"`
	TotalQuestions int    `json:"total_questions"`
	Language       string `json:"language"`
}

type questionResponse struct {
	Finished    bool     `json:"finished"`
	QuestionNum int      `json:"question_num,omitempty"`
	Total       int      `json:"total"`
	Question    string   `json:"question,omitempty"`
	Timestamp   float64  `json:"timestamp"`
	Choices     []string `json:"choices,omitempty"`
	Score       int      `json:"score"`
}

type submitRequest struct {
	Answer string `json:"answer"`
}

type submitResponse struct {
	Correct       bool    `json:"correct"`
	CorrectAnswer string  `json:"correct_answer,omitempty"`
	Timestamp     float64 `json:"timestamp,omitempty"`
	Message       string  `json:"message"`
	MoveNext      bool    `json:"move_next"`
	Finished      bool    `json:"finished"`
	Score         int     `json:"score"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "missing or malformed url")
		return
	}

	session, err := h.service.StartQuiz(r.Context(), req.URL)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	quiz := session.Quiz()
	w.Header().Set(sessionHeader, session.Token())
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    session.Token(),
		Path:     "/",
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, generateResponse{
		VideoID:        quiz.VideoID,
		TotalQuestions: len(quiz.Questions),
		Language:       quiz.LanguageName,
	})
}

func (h *Handler) handleQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	token := sessionToken(r)
	view, err := h.service.CurrentQuestion(token)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questionResponse{
		Finished:    view.Finished,
		QuestionNum: view.Number,
		Total:       view.Total,
		Question:    view.Prompt,
		Timestamp:   view.Timestamp,
		Choices:     view.Choices,
		Score:       view.Score,
	})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed submit payload")
		return
	}
	result, err := h.service.SubmitAnswer(sessionToken(r), req.Answer)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{
		Correct:       result.Correct,
		CorrectAnswer: result.CorrectAnswer,
		Timestamp:     result.Timestamp,
		Message:       result.Message,
		MoveNext:      result.MoveNext,
		Finished:      result.Finished,
		Score:         result.Score,
	})
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.service.Reset(sessionToken(r))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// sessionToken pulls the opaque token from the header, falling back to the
// cookie set at generation time.
func sessionToken(r *http.Request) string {
	if token := r.Header.Get(sessionHeader); token != "" {
		return token
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// writeDomainError maps the error taxonomy onto status codes. Everything
// user-visible goes out as a JSON error value the UI can render.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidVideoID):
		writeError(w, http.StatusBadRequest, "invalid YouTube URL; paste a watch, youtu.be, or shorts link")
	case errors.Is(err, domain.ErrCaptionsUnavailable):
		writeError(w, http.StatusUnprocessableEntity, "no captions found; try another video with subtitles")
	case errors.Is(err, domain.ErrNoQuestions):
		writeError(w, http.StatusUnprocessableEntity, "couldn't generate any questions from this transcript")
	case errors.Is(err, domain.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "no active quiz; generate one first")
	default:
		log.Printf("http: internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("http: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
