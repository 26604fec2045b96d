package app

import (
	"fmt"
	"sync"

	"watchask/internal/domain"
)

// Session holds one user's progress through a built quiz. It is the only
// mutable state in the core; all mutation goes through Submit. The index only
// ever increases.
type Session struct {
	token string

	mu       sync.Mutex
	quiz     domain.Quiz
	index    int
	score    int
	retrying bool
}

// SessionSnapshot is the serializable form of a session, used by stores that
// persist sessions across instances.
type SessionSnapshot struct {
	Token    string      `json:"token"`
	Quiz     domain.Quiz `json:"quiz"`
	Index    int         `json:"index"`
	Score    int         `json:"score"`
	Retrying bool        `json:"retrying"`
}

// QuestionView is the presentation-facing shape of the current turn.
type QuestionView struct {
	Finished  bool
	Number    int // 1-based
	Total     int
	Prompt    string
	Timestamp float64
	Choices   []string
	Score     int
	Retrying  bool
}

// SubmitResult reports the outcome of one answer submission.
type SubmitResult struct {
	Finished      bool
	Correct       bool
	MoveNext      bool
	Retrying      bool
	CorrectAnswer string
	Timestamp     float64
	Score         int
	Message       string
}

// NewSession wraps a built quiz in a fresh session.
func NewSession(token string, quiz domain.Quiz) *Session {
	return &Session{token: token, quiz: quiz}
}

// RestoreSession rebuilds a session from a persisted snapshot.
func RestoreSession(snap SessionSnapshot) *Session {
	return &Session{
		token:    snap.Token,
		quiz:     snap.Quiz,
		index:    snap.Index,
		score:    snap.Score,
		retrying: snap.Retrying,
	}
}

func (s *Session) Token() string { return s.token }

func (s *Session) Quiz() domain.Quiz {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quiz
}

func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionSnapshot{
		Token:    s.token,
		Quiz:     s.quiz,
		Index:    s.index,
		Score:    s.score,
		Retrying: s.retrying,
	}
}

// Current returns the question at the session's index without mutating
// anything, so repeated calls yield the identical view. Odd indexes get the
// first two choices swapped, a deterministic variation that keeps the correct
// answer from always landing first.
func (s *Session) Current() QuestionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := len(s.quiz.Questions)
	if s.index >= total {
		return QuestionView{Finished: true, Total: total, Score: s.score}
	}
	q := s.quiz.Questions[s.index]
	choices := append([]string(nil), q.Choices...)
	if s.index%2 == 1 && len(choices) >= 2 {
		choices[0], choices[1] = choices[1], choices[0]
	}
	return QuestionView{
		Number:    s.index + 1,
		Total:     total,
		Prompt:    fmt.Sprintf("Q%d: %s", s.index+1, q.Prompt),
		Timestamp: q.Timestamp,
		Choices:   choices,
		Score:     s.score,
		Retrying:  s.retrying,
	}
}

// Submit applies the second-chance policy: a first wrong answer keeps the
// index, exposes the correct answer and its timestamp, and arms a one-shot
// retry; the next submission at the same index always advances, scoring only
// if correct. A correct first answer advances and scores immediately.
// Submitting past the last question is a no-op that reports completion.
func (s *Session) Submit(choice string) SubmitResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := len(s.quiz.Questions)
	if s.index >= total {
		return SubmitResult{Finished: true, Score: s.score, Message: "Quiz already complete."}
	}
	q := s.quiz.Questions[s.index]
	correct := choice == q.Correct

	if s.retrying {
		if correct {
			s.score++
		}
		s.index++
		s.retrying = false
		msg := "Correct!"
		if !correct {
			msg = "Still incorrect, but moving on."
		}
		return SubmitResult{
			Finished: s.index >= total,
			Correct:  correct,
			MoveNext: true,
			Score:    s.score,
			Message:  msg,
		}
	}

	if correct {
		s.score++
		s.index++
		return SubmitResult{
			Finished: s.index >= total,
			Correct:  true,
			MoveNext: true,
			Score:    s.score,
			Message:  "Correct!",
		}
	}

	s.retrying = true
	return SubmitResult{
		Correct:       false,
		Retrying:      true,
		CorrectAnswer: q.Correct,
		Timestamp:     q.Timestamp,
		Score:         s.score,
		Message:       fmt.Sprintf("Not quite. Correct: %s", q.Correct),
	}
}

// Summary reports the final score as a percentage of the question count.
func (s *Session) Summary() (score, total int, percent float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total = len(s.quiz.Questions)
	if total > 0 {
		percent = float64(s.score) / float64(total) * 100
	}
	return s.score, total, percent
}
