package quizgen

import (
	"context"

	"watchask/internal/captions"
	"watchask/internal/domain"
)

// Loader is the build pipeline behind the quiz caches: resolve captions,
// assemble questions. It satisfies the QuizLoader interfaces of the infra
// packages.
type Loader struct {
	resolver  *captions.Resolver
	assembler *Assembler
}

func NewLoader(resolver *captions.Resolver, assembler *Assembler) *Loader {
	return &Loader{resolver: resolver, assembler: assembler}
}

// LoadQuiz builds the quiz for a canonical video id from scratch. Cache
// layers above make sure this runs once per video per TTL.
func (l *Loader) LoadQuiz(ctx context.Context, videoID string) (domain.Quiz, error) {
	transcript, err := l.resolver.Resolve(ctx, videoID)
	if err != nil {
		return domain.Quiz{}, err
	}
	questions, err := l.assembler.Build(ctx, transcript)
	if err != nil {
		return domain.Quiz{}, err
	}
	return domain.Quiz{
		VideoID:      videoID,
		LanguageCode: transcript.LanguageCode,
		LanguageName: transcript.LanguageName(),
		Questions:    questions,
	}, nil
}
