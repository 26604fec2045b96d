package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"watchask/internal/app"
)

// WSHandler drives the quiz over a single websocket: the client sends
// generate/question/answer/reset messages and receives the same views the
// JSON API serves. The flow is strictly request/response per connection, so
// one read loop writing replies inline is enough.
type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type generatePayload struct {
	URL string `json:"url"`
}

type answerPayload struct {
	Answer string `json:"answer"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs the quiz conversation until the
// client goes away. Each connection owns at most one session token.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	var token string
	defer func() {
		if token != "" {
			h.service.Reset(token)
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		switch inbound.Type {
		case "generate":
			var payload generatePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.writeError(conn, "invalid generate payload")
				continue
			}
			session, err := h.service.StartQuiz(r.Context(), payload.URL)
			if err != nil {
				h.writeError(conn, err.Error())
				continue
			}
			if token != "" {
				h.service.Reset(token)
			}
			token = session.Token()
			quiz := session.Quiz()
			h.write(conn, "quiz", generateResponse{
				VideoID:        quiz.VideoID,
				TotalQuestions: len(quiz.Questions),
				Language:       quiz.LanguageName,
			})
			h.sendQuestion(conn, token)
		case "question":
			h.sendQuestion(conn, token)
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.writeError(conn, "invalid answer payload")
				continue
			}
			result, err := h.service.SubmitAnswer(token, payload.Answer)
			if err != nil {
				h.writeError(conn, err.Error())
				continue
			}
			h.write(conn, "feedback", submitResponse{
				Correct:       result.Correct,
				CorrectAnswer: result.CorrectAnswer,
				Timestamp:     result.Timestamp,
				Message:       result.Message,
				MoveNext:      result.MoveNext,
				Finished:      result.Finished,
				Score:         result.Score,
			})
			if result.MoveNext && !result.Finished {
				h.sendQuestion(conn, token)
			}
		case "reset":
			if token != "" {
				h.service.Reset(token)
				token = ""
			}
			h.write(conn, "reset", map[string]bool{"success": true})
		default:
			h.writeError(conn, "unsupported message type")
		}
	}
}

func (h *WSHandler) sendQuestion(conn *websocket.Conn, token string) {
	view, err := h.service.CurrentQuestion(token)
	if err != nil {
		h.writeError(conn, err.Error())
		return
	}
	h.write(conn, "question", questionResponse{
		Finished:    view.Finished,
		QuestionNum: view.Number,
		Total:       view.Total,
		Question:    view.Prompt,
		Timestamp:   view.Timestamp,
		Choices:     view.Choices,
		Score:       view.Score,
	})
}

func (h *WSHandler) write(conn *websocket.Conn, typ string, payload any) {
	if err := conn.WriteJSON(outboundMessage[any]{Type: typ, Payload: payload}); err != nil {
		log.Printf("ws write error: %v", err)
	}
}

func (h *WSHandler) writeError(conn *websocket.Conn, msg string) {
	h.write(conn, "error", errorPayload{Message: msg})
}
