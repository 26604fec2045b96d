package app

import (
	"context"

	"github.com/google/uuid"

	"watchask/internal/captions"
	"watchask/internal/domain"
)

// SessionStore abstracts how quiz sessions are kept between turns
// (in-memory, Redis, etc). Stores serialize access per token; the session
// itself guards its own state.
type SessionStore interface {
	Put(session *Session)
	Get(token string) (*Session, bool)
	Delete(token string)
}

// QuizRepository supplies quiz content per video id, typically a TTL cache in
// front of the resolver+assembler pipeline.
type QuizRepository interface {
	GetQuiz(ctx context.Context, videoID string) (domain.Quiz, error)
}

// QuizService contains the presentation-facing use cases: build a quiz from a
// URL, read the current question, submit an answer, reset.
type QuizService struct {
	sessions SessionStore
	quizzes  QuizRepository
}

func NewQuizService(sessions SessionStore, quizzes QuizRepository) *QuizService {
	return &QuizService{sessions: sessions, quizzes: quizzes}
}

// StartQuiz validates the URL, obtains quiz content (building it on cache
// miss), and opens a fresh session under a new opaque token. Invalid input
// fails before any network or generation work happens.
func (s *QuizService) StartQuiz(ctx context.Context, urlOrID string) (*Session, error) {
	videoID, err := captions.ExtractVideoID(urlOrID)
	if err != nil {
		return nil, err
	}
	quiz, err := s.quizzes.GetQuiz(ctx, videoID)
	if err != nil {
		return nil, err
	}
	session := NewSession(uuid.NewString(), quiz)
	s.sessions.Put(session)
	return session, nil
}

// CurrentQuestion returns the idempotent view of the session's current turn.
func (s *QuizService) CurrentQuestion(token string) (QuestionView, error) {
	session, ok := s.sessions.Get(token)
	if !ok {
		return QuestionView{}, domain.ErrSessionNotFound
	}
	return session.Current(), nil
}

// SubmitAnswer applies one submission to the session and re-persists it so
// snapshot-backed stores observe the mutation.
func (s *QuizService) SubmitAnswer(token, choice string) (SubmitResult, error) {
	session, ok := s.sessions.Get(token)
	if !ok {
		return SubmitResult{}, domain.ErrSessionNotFound
	}
	result := session.Submit(choice)
	s.sessions.Put(session)
	return result, nil
}

// Reset discards the session; the next StartQuiz begins from scratch.
func (s *QuizService) Reset(token string) {
	s.sessions.Delete(token)
}
