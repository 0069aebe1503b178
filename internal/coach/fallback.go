package coach

import (
	"context"

	"go.uber.org/zap"

	"github.com/kalambet/mocktalk/internal/interview"
	"github.com/kalambet/mocktalk/internal/metrics"
)

type fallbackGenerator struct {
	interview.Generator
	question string
	logger   *zap.Logger
}

// WithFallbackQuestion wraps g so that failed question generation yields
// FallbackQuestion instead of an error. Feedback and summary errors still
// reach the caller.
func WithFallbackQuestion(g interview.Generator, logger *zap.Logger) interview.Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &fallbackGenerator{Generator: g, question: FallbackQuestion, logger: logger}
}

func (f *fallbackGenerator) Question(ctx context.Context, req interview.QuestionRequest) (string, error) {
	q, err := f.Generator.Question(ctx, req)
	if err == nil && q != "" {
		return q, nil
	}
	metrics.FallbackQuestionUsed()
	f.logger.Warn("using fallback question", zap.String("role", req.Role), zap.Error(err))
	return f.question, nil
}
