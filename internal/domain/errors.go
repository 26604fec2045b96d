package domain

import "errors"

var (
	// ErrInvalidVideoID is returned when the input is not a recognizable
	// YouTube URL or video id. No network call is made in this case.
	ErrInvalidVideoID = errors.New("invalid YouTube URL or video id")
	// ErrCaptionsUnavailable indicates no caption source produced a single
	// usable fragment for the video.
	ErrCaptionsUnavailable = errors.New("no captions available for video")
	// ErrNoQuestions indicates the transcript resolved but no valid questions
	// could be produced, even with local fallback synthesis.
	ErrNoQuestions = errors.New("no questions could be generated")
	// ErrSessionNotFound is returned when no quiz session exists for a token.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuizNotFound indicates quiz content could not be loaded from the archive.
	ErrQuizNotFound = errors.New("quiz not found")
)
