// Package coach turns interview actions into generator prompts and replies.
package coach

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kalambet/mocktalk/internal/interview"
	"github.com/kalambet/mocktalk/internal/metrics"
	"github.com/kalambet/mocktalk/internal/prompt"
)

// FallbackQuestion replaces a question the generator could not produce.
const FallbackQuestion = "Can you tell me about a recent challenge you faced and how you handled it?"

// ErrEmptyReply is returned when the generator answers with blank text.
var ErrEmptyReply = errors.New("generator returned an empty reply")

// Completer sends one prompt and returns the model's text.
type Completer interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Coach implements interview.Generator on top of a Completer.
type Coach struct {
	completer Completer
	prompts   *prompt.Manager
	logger    *zap.Logger
}

// New returns a Coach. A nil logger is replaced with a no-op logger.
func New(completer Completer, prompts *prompt.Manager, logger *zap.Logger) *Coach {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coach{completer: completer, prompts: prompts, logger: logger}
}

var _ interview.Generator = (*Coach)(nil)

func (c *Coach) Question(ctx context.Context, req interview.QuestionRequest) (string, error) {
	p, err := c.prompts.QuestionPrompt(req)
	if err != nil {
		return "", err
	}
	return c.call(ctx, prompt.Question, p)
}

func (c *Coach) Feedback(ctx context.Context, question, answer string) (string, error) {
	p, err := c.prompts.FeedbackPrompt(question, answer)
	if err != nil {
		return "", err
	}
	return c.call(ctx, prompt.Feedback, p)
}

func (c *Coach) Summary(ctx context.Context, role string, interviewType interview.InterviewType, turns []interview.Turn) (string, error) {
	p, err := c.prompts.SummaryPrompt(role, interviewType, turns)
	if err != nil {
		return "", err
	}
	return c.call(ctx, prompt.Summary, p)
}

func (c *Coach) call(ctx context.Context, kind, p string) (string, error) {
	start := time.Now()
	text, err := c.completer.Generate(ctx, p)
	elapsed := time.Since(start)

	if err != nil {
		metrics.ObserveGeneration(kind, metrics.OutcomeError, elapsed)
		c.logger.Warn("generator call failed", zap.String("kind", kind), zap.Duration("elapsed", elapsed), zap.Error(err))
		return "", fmt.Errorf("generating %s: %w", kind, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		metrics.ObserveGeneration(kind, metrics.OutcomeEmpty, elapsed)
		c.logger.Warn("generator returned empty reply", zap.String("kind", kind))
		return "", fmt.Errorf("generating %s: %w", kind, ErrEmptyReply)
	}

	metrics.ObserveGeneration(kind, metrics.OutcomeOK, elapsed)
	c.logger.Debug("generator call", zap.String("kind", kind), zap.Duration("elapsed", elapsed), zap.Int("chars", len(text)))
	return text, nil
}
