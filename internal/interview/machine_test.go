package interview

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	questionCalls []QuestionRequest
	feedbackCalls int
	summaryCalls  int
	summaryTurns  []Turn

	questionErr error
	feedbackErr error
	summaryErr  error
}

func (f *fakeGenerator) Question(_ context.Context, req QuestionRequest) (string, error) {
	f.questionCalls = append(f.questionCalls, req)
	if f.questionErr != nil {
		return "", f.questionErr
	}
	return fmt.Sprintf("question %d", len(f.questionCalls)), nil
}

func (f *fakeGenerator) Feedback(_ context.Context, question, answer string) (string, error) {
	f.feedbackCalls++
	if f.feedbackErr != nil {
		return "", f.feedbackErr
	}
	return "feedback on " + question, nil
}

func (f *fakeGenerator) Summary(_ context.Context, role string, _ InterviewType, turns []Turn) (string, error) {
	f.summaryCalls++
	f.summaryTurns = turns
	if f.summaryErr != nil {
		return "", f.summaryErr
	}
	return fmt.Sprintf("summary for %s #%d", role, f.summaryCalls), nil
}

type fakeHistory struct {
	records []Record
	err     error
}

func (f *fakeHistory) Append(_ context.Context, rec Record) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

var fixedNow = time.Date(2024, 5, 1, 9, 30, 15, 0, time.Local)

func newMachine(gen *fakeGenerator, hist *fakeHistory) *Machine {
	return New(Deps{
		Generator: gen,
		History:   hist,
		Now:       func() time.Time { return fixedNow },
	})
}

func quickDrill() Config {
	return Config{
		Role:           "Backend Engineer",
		InterviewType:  TypeBehavioral,
		Mode:           ModeQuickDrill,
		Level:          LevelBeginner,
		TotalQuestions: 2,
	}
}

func TestNewMachineStartsInSetup(t *testing.T) {
	m := newMachine(&fakeGenerator{}, &fakeHistory{})
	st := m.State()

	assert.Equal(t, StageSetup, st.Stage)
	assert.Equal(t, DefaultConfig(), st.Config)
	assert.Empty(t, st.Turns)
	assert.Empty(t, st.AskedQuestions)
}

func TestQuickDrillScenario(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{}
	m := newMachine(gen, &fakeHistory{})

	require.NoError(t, m.StartInterview(ctx, quickDrill()))
	st := m.State()
	assert.Equal(t, StageInterview, st.Stage)
	assert.Equal(t, 1, st.CurrentIndex)
	assert.Equal(t, "question 1", st.CurrentQuestion)
	require.Len(t, gen.questionCalls, 1)
	assert.Empty(t, gen.questionCalls[0].Previous)

	require.NoError(t, m.RecordAnswer("I fixed a race condition..."))
	require.NoError(t, m.RequestFeedback(ctx))
	assert.Equal(t, "feedback on question 1", m.State().CurrentFeedback)

	require.NoError(t, m.AdvanceQuestion(ctx))
	st = m.State()
	assert.Len(t, st.Turns, 1)
	assert.Equal(t, 2, st.CurrentIndex)
	assert.Equal(t, "question 2", st.CurrentQuestion)
	assert.Empty(t, st.CurrentAnswer)
	assert.Empty(t, st.CurrentFeedback)
	require.Len(t, gen.questionCalls, 2)
	assert.Equal(t, []string{"question 1"}, gen.questionCalls[1].Previous)

	require.NoError(t, m.RecordAnswer("I would profile first."))
	require.NoError(t, m.AdvanceQuestion(ctx))
	st = m.State()
	assert.Len(t, st.Turns, 2)
	assert.Equal(t, StageSummary, st.Stage)
	assert.Len(t, gen.questionCalls, 2, "last advance must not ask for another question")

	assert.Equal(t, Turn{Question: "question 1", Answer: "I fixed a race condition...", Feedback: "feedback on question 1"}, st.Turns[0])
	assert.Equal(t, Turn{Question: "question 2", Answer: "I would profile first."}, st.Turns[1])
}

func TestStartInterviewEmptyRole(t *testing.T) {
	gen := &fakeGenerator{}
	m := newMachine(gen, &fakeHistory{})

	for _, role := range []string{"", "   "} {
		cfg := quickDrill()
		cfg.Role = role
		err := m.StartInterview(context.Background(), cfg)

		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "role", ve.Field)
		assert.Equal(t, StageSetup, m.Stage())
	}
	assert.Empty(t, gen.questionCalls)
}

func TestStartInterviewValidatesConfig(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(*Config)
		field string
	}{
		{"unknown type", func(c *Config) { c.InterviewType = "Trivia" }, "interview_type"},
		{"unknown mode", func(c *Config) { c.Mode = "Marathon" }, "mode"},
		{"unknown level", func(c *Config) { c.Level = "guru" }, "level"},
		{"too many questions", func(c *Config) { c.TotalQuestions = 11 }, "total_questions"},
		{"negative questions", func(c *Config) { c.TotalQuestions = -1 }, "total_questions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMachine(&fakeGenerator{}, &fakeHistory{})
			cfg := quickDrill()
			tt.mod(&cfg)

			var ve *ValidationError
			require.ErrorAs(t, m.StartInterview(context.Background(), cfg), &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, StageSetup, m.Stage())
		})
	}
}

func TestStartInterviewUsesModeSuggestion(t *testing.T) {
	m := newMachine(&fakeGenerator{}, &fakeHistory{})
	cfg := Config{Role: "SRE", Mode: ModeDeepSession}

	require.NoError(t, m.StartInterview(context.Background(), cfg))
	st := m.State()
	assert.Equal(t, 8, st.Config.TotalQuestions)
	assert.Equal(t, TypeBehavioral, st.Config.InterviewType)
	assert.Equal(t, LevelBeginner, st.Config.Level)
}

func TestStartInterviewPassesDocuments(t *testing.T) {
	gen := &fakeGenerator{}
	m := newMachine(gen, &fakeHistory{})
	cfg := quickDrill()
	cfg.InterviewType = TypeResumeBased
	cfg.ResumeText = "Go, Postgres"
	cfg.JobText = "Platform team"

	require.NoError(t, m.StartInterview(context.Background(), cfg))
	require.Len(t, gen.questionCalls, 1)
	req := gen.questionCalls[0]
	assert.Equal(t, TypeResumeBased, req.InterviewType)
	assert.Equal(t, "Backend Engineer", req.Role)
	assert.Equal(t, "Go, Postgres", req.ResumeText)
	assert.Equal(t, "Platform team", req.JobText)
}

func TestStartInterviewGeneratorFailure(t *testing.T) {
	boom := errors.New("upstream down")
	m := newMachine(&fakeGenerator{questionErr: boom}, &fakeHistory{})

	err := m.StartInterview(context.Background(), quickDrill())
	var re *RemoteCallError
	require.ErrorAs(t, err, &re)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, NewState(), m.State())
}

func TestStartInterviewOutsideSetup(t *testing.T) {
	m := newMachine(&fakeGenerator{}, &fakeHistory{})
	require.NoError(t, m.StartInterview(context.Background(), quickDrill()))

	err := m.StartInterview(context.Background(), quickDrill())
	assert.ErrorIs(t, err, ErrInvalidStage)
}

func TestRecordAnswerRequiresInterview(t *testing.T) {
	m := newMachine(&fakeGenerator{}, &fakeHistory{})
	assert.ErrorIs(t, m.RecordAnswer("hello"), ErrInvalidStage)

	require.NoError(t, m.StartInterview(context.Background(), quickDrill()))
	require.NoError(t, m.RecordAnswer(""))
	assert.Equal(t, "", m.State().CurrentAnswer)
}

func TestRequestFeedbackEmptyAnswer(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{}
	m := newMachine(gen, &fakeHistory{})
	require.NoError(t, m.StartInterview(ctx, quickDrill()))
	require.NoError(t, m.RecordAnswer("first try"))
	require.NoError(t, m.RequestFeedback(ctx))

	require.NoError(t, m.RecordAnswer("  \n\t"))
	err := m.RequestFeedback(ctx)

	assert.True(t, IsValidation(err))
	assert.Equal(t, "feedback on question 1", m.State().CurrentFeedback)
	assert.Equal(t, 1, gen.feedbackCalls)
}

func TestRequestFeedbackFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{}
	m := newMachine(gen, &fakeHistory{})
	require.NoError(t, m.StartInterview(ctx, quickDrill()))
	require.NoError(t, m.RecordAnswer("answer"))
	before := m.State()

	gen.feedbackErr = errors.New("quota")
	err := m.RequestFeedback(ctx)

	assert.True(t, IsRemote(err))
	assert.Equal(t, before, m.State())
}

func TestAdvanceWithBlankAnswerDropsTurn(t *testing.T) {
	ctx := context.Background()
	m := newMachine(&fakeGenerator{}, &fakeHistory{})
	require.NoError(t, m.StartInterview(ctx, quickDrill()))

	require.NoError(t, m.RecordAnswer("   "))
	require.NoError(t, m.AdvanceQuestion(ctx))
	st := m.State()
	assert.Empty(t, st.Turns)
	assert.Equal(t, 2, st.CurrentIndex)
	assert.Equal(t, StageInterview, st.Stage)

	require.NoError(t, m.AdvanceQuestion(ctx))
	st = m.State()
	assert.Empty(t, st.Turns)
	assert.Equal(t, StageSummary, st.Stage)
}

func TestAdvanceFullRunForEveryCount(t *testing.T) {
	ctx := context.Background()
	for n := MinQuestions; n <= MaxQuestions; n++ {
		for _, typ := range InterviewTypes {
			gen := &fakeGenerator{}
			m := newMachine(gen, &fakeHistory{})
			cfg := Config{Role: "Data Analyst", InterviewType: typ, Mode: ModeStandardMock, Level: LevelAdvanced, TotalQuestions: n}
			require.NoError(t, m.StartInterview(ctx, cfg))

			for i := 0; i < n; i++ {
				require.NoError(t, m.RecordAnswer(fmt.Sprintf("answer %d", i+1)))
				require.NoError(t, m.AdvanceQuestion(ctx))
			}

			st := m.State()
			require.Equal(t, StageSummary, st.Stage, "n=%d type=%s", n, typ)
			require.Len(t, st.Turns, n)
			for i, turn := range st.Turns {
				assert.Equal(t, fmt.Sprintf("question %d", i+1), turn.Question)
				assert.Equal(t, fmt.Sprintf("answer %d", i+1), turn.Answer)
			}
			assert.Len(t, gen.questionCalls, n)
		}
	}
}

func TestAdvanceFailureIsAtomic(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{}
	m := newMachine(gen, &fakeHistory{})
	require.NoError(t, m.StartInterview(ctx, quickDrill()))
	require.NoError(t, m.RecordAnswer("answer"))
	before := m.State()

	gen.questionErr = errors.New("timeout")
	err := m.AdvanceQuestion(ctx)
	assert.True(t, IsRemote(err))
	assert.Equal(t, before, m.State())

	gen.questionErr = nil
	require.NoError(t, m.AdvanceQuestion(ctx))
	st := m.State()
	assert.Len(t, st.Turns, 1)
	assert.Equal(t, 2, st.CurrentIndex)
}

func TestAdvanceOutsideInterview(t *testing.T) {
	m := newMachine(&fakeGenerator{}, &fakeHistory{})
	assert.ErrorIs(t, m.AdvanceQuestion(context.Background()), ErrInvalidStage)
}

func TestGenerateSummary(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{}
	m := newMachine(gen, &fakeHistory{})
	require.NoError(t, m.StartInterview(ctx, quickDrill()))

	assert.True(t, IsValidation(m.GenerateSummary(ctx)))
	assert.Zero(t, gen.summaryCalls)

	require.NoError(t, m.RecordAnswer("a1"))
	require.NoError(t, m.AdvanceQuestion(ctx))
	require.NoError(t, m.RecordAnswer("a2"))
	require.NoError(t, m.AdvanceQuestion(ctx))

	require.NoError(t, m.GenerateSummary(ctx))
	assert.Equal(t, "summary for Backend Engineer #1", m.State().Summary)
	assert.Len(t, gen.summaryTurns, 2)

	require.NoError(t, m.GenerateSummary(ctx))
	assert.Equal(t, "summary for Backend Engineer #2", m.State().Summary)

	gen.summaryErr = errors.New("bad gateway")
	assert.True(t, IsRemote(m.GenerateSummary(ctx)))
	assert.Equal(t, "summary for Backend Engineer #2", m.State().Summary)
}

func TestSaveToHistory(t *testing.T) {
	ctx := context.Background()
	hist := &fakeHistory{}
	m := newMachine(&fakeGenerator{}, hist)

	_, err := m.SaveToHistory(ctx)
	assert.ErrorIs(t, err, ErrInvalidStage)

	require.NoError(t, m.StartInterview(ctx, quickDrill()))
	require.NoError(t, m.RecordAnswer("a1"))
	require.NoError(t, m.AdvanceQuestion(ctx))
	require.NoError(t, m.RecordAnswer("a2"))
	require.NoError(t, m.AdvanceQuestion(ctx))

	rec, err := m.SaveToHistory(ctx)
	require.NoError(t, err)
	require.Len(t, hist.records, 1)
	assert.Equal(t, rec, hist.records[0])
	assert.Equal(t, "2024-05-01T09:30:15", rec.Timestamp)
	assert.Equal(t, "Backend Engineer", rec.Role)
	assert.Equal(t, 2, rec.TotalQuestions)
	assert.Len(t, rec.Turns, 2)
	assert.Empty(t, rec.Summary)

	assert.Equal(t, StageSummary, m.Stage(), "saving keeps the session")
}

func TestSaveToHistoryFailure(t *testing.T) {
	ctx := context.Background()
	diskFull := errors.New("no space left on device")
	m := newMachine(&fakeGenerator{}, &fakeHistory{err: diskFull})
	require.NoError(t, m.StartInterview(ctx, quickDrill()))

	_, err := m.SaveToHistory(ctx)
	assert.True(t, IsPersistence(err))
	assert.ErrorIs(t, err, diskFull)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	m := newMachine(&fakeGenerator{}, &fakeHistory{})
	require.NoError(t, m.StartInterview(ctx, quickDrill()))
	require.NoError(t, m.RecordAnswer("a1"))
	require.NoError(t, m.AdvanceQuestion(ctx))

	m.Reset()
	assert.Equal(t, NewState(), m.State())
}

func TestStateIsACopy(t *testing.T) {
	ctx := context.Background()
	m := newMachine(&fakeGenerator{}, &fakeHistory{})
	require.NoError(t, m.StartInterview(ctx, quickDrill()))

	st := m.State()
	st.AskedQuestions[0] = "tampered"
	assert.Equal(t, "question 1", m.State().AskedQuestions[0])
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{}
	m := newMachine(gen, &fakeHistory{})
	require.NoError(t, m.StartInterview(ctx, quickDrill()))
	require.NoError(t, m.RecordAnswer("a1"))

	r := Restore(Deps{Generator: gen}, m.State())
	require.NoError(t, r.AdvanceQuestion(ctx))
	assert.Equal(t, 2, r.State().CurrentIndex)
	assert.Equal(t, 1, m.State().CurrentIndex)

	assert.Equal(t, StageSetup, Restore(Deps{}, SessionState{}).Stage())
}
