package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"watchask/internal/domain"
)

// QuizArchive persists built quizzes as JSONB so a video only ever pays the
// caption+generation cost once, across restarts and cache expiry.
type QuizArchive struct {
	pool *pgxpool.Pool
}

func NewQuizArchive(pool *pgxpool.Pool) *QuizArchive {
	return &QuizArchive{pool: pool}
}

func (a *QuizArchive) LoadQuiz(ctx context.Context, videoID string) (domain.Quiz, error) {
	var raw []byte
	err := a.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE video_id=$1`, videoID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	return quiz, nil
}

func (a *QuizArchive) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	_, err = a.pool.Exec(ctx,
		`INSERT INTO quizzes (video_id, data) VALUES ($1, $2::jsonb)
		 ON CONFLICT (video_id) DO UPDATE SET data=EXCLUDED.data, updated_at=now()`,
		quiz.VideoID, string(data))
	if err != nil {
		return fmt.Errorf("save quiz: %w", err)
	}
	return nil
}

// QuizLoader builds quiz content on archive miss.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, videoID string) (domain.Quiz, error)
}

// ArchivingLoader checks the archive first and falls back to the build
// pipeline, archiving the fresh result best-effort.
type ArchivingLoader struct {
	archive *QuizArchive
	builder QuizLoader
}

func NewArchivingLoader(archive *QuizArchive, builder QuizLoader) *ArchivingLoader {
	return &ArchivingLoader{archive: archive, builder: builder}
}

func (l *ArchivingLoader) LoadQuiz(ctx context.Context, videoID string) (domain.Quiz, error) {
	quiz, err := l.archive.LoadQuiz(ctx, videoID)
	if err == nil {
		return quiz, nil
	}
	if !errors.Is(err, domain.ErrQuizNotFound) {
		log.Printf("postgres: archive read failed for %s: %v", videoID, err)
	}

	quiz, err = l.builder.LoadQuiz(ctx, videoID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if err := l.archive.SaveQuiz(ctx, quiz); err != nil {
		log.Printf("postgres: archive write failed for %s: %v", videoID, err)
	}
	return quiz, nil
}
