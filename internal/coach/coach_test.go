package coach

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kalambet/mocktalk/internal/interview"
	"github.com/kalambet/mocktalk/internal/prompt"
)

type mockCompleter struct {
	reply   string
	err     error
	prompts []string
}

func (m *mockCompleter) Generate(_ context.Context, p string) (string, error) {
	m.prompts = append(m.prompts, p)
	return m.reply, m.err
}

func newCoach(t *testing.T, c Completer) *Coach {
	t.Helper()
	pm, err := prompt.NewManager()
	require.NoError(t, err)
	return New(c, pm, zaptest.NewLogger(t))
}

func TestQuestionTrimsReply(t *testing.T) {
	mc := &mockCompleter{reply: "\n  What motivates you?  \n"}
	got, err := newCoach(t, mc).Question(context.Background(), interview.QuestionRequest{
		InterviewType: interview.TypeBehavioral,
		Role:          "Designer",
		Level:         interview.LevelBeginner,
		Previous:      []string{"Why design?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "What motivates you?", got)

	require.Len(t, mc.prompts, 1)
	assert.Contains(t, mc.prompts[0], "ROLE: Designer")
	assert.Contains(t, mc.prompts[0], "- Why design?")
}

func TestEmptyReplyIsAnError(t *testing.T) {
	_, err := newCoach(t, &mockCompleter{reply: "   "}).Feedback(context.Background(), "q", "a")
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestCompleterErrorIsWrapped(t *testing.T) {
	boom := errors.New("HTTP 500")
	_, err := newCoach(t, &mockCompleter{err: boom}).Summary(context.Background(), "SRE", interview.TypeProfessional,
		[]interview.Turn{{Question: "q", Answer: "a"}})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "generating summary")
}

func TestFeedbackPromptCarriesAnswer(t *testing.T) {
	mc := &mockCompleter{reply: "Score: 8/10"}
	got, err := newCoach(t, mc).Feedback(context.Background(), "Why Go?", "Simplicity.")
	require.NoError(t, err)
	assert.Equal(t, "Score: 8/10", got)
	assert.Contains(t, mc.prompts[0], "Answer: Simplicity.")
}

func TestFallbackQuestion(t *testing.T) {
	ctx := context.Background()

	for name, mc := range map[string]*mockCompleter{
		"error": {err: errors.New("timeout")},
		"empty": {reply: ""},
	} {
		t.Run(name, func(t *testing.T) {
			g := WithFallbackQuestion(newCoach(t, mc), zaptest.NewLogger(t))
			q, err := g.Question(ctx, interview.QuestionRequest{Role: "QA"})
			require.NoError(t, err)
			assert.Equal(t, FallbackQuestion, q)
		})
	}
}

func TestFallbackKeepsFeedbackErrors(t *testing.T) {
	g := WithFallbackQuestion(newCoach(t, &mockCompleter{err: errors.New("quota")}), nil)
	_, err := g.Feedback(context.Background(), "q", "a")
	assert.Error(t, err)
}

func TestFallbackDrivesMachine(t *testing.T) {
	g := WithFallbackQuestion(newCoach(t, &mockCompleter{err: errors.New("down")}), nil)
	m := interview.New(interview.Deps{Generator: g})

	require.NoError(t, m.StartInterview(context.Background(), interview.Config{Role: "Backend Engineer", TotalQuestions: 2}))
	st := m.State()
	assert.Equal(t, interview.StageInterview, st.Stage)
	assert.Equal(t, FallbackQuestion, st.CurrentQuestion)
}
