package interview

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeSuggestedQuestions(t *testing.T) {
	assert.Equal(t, 2, ModeQuickDrill.SuggestedQuestions())
	assert.Equal(t, 4, ModeStandardMock.SuggestedQuestions())
	assert.Equal(t, 8, ModeDeepSession.SuggestedQuestions())
}

func TestDefaultConfigIsValidOnceRoleSet(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, IsValidation(cfg.Validate()))

	cfg.Role = "QA"
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 3, cfg.TotalQuestions)
}

func TestNormalizeTrimsRole(t *testing.T) {
	cfg := Config{Role: "  Backend Engineer \n"}.normalize()
	assert.Equal(t, "Backend Engineer", cfg.Role)
	assert.Equal(t, ModeStandardMock, cfg.Mode)
	assert.Equal(t, 4, cfg.TotalQuestions)
}

func TestStageErrorMatchesSentinel(t *testing.T) {
	err := error(&StageError{Op: "advance question", Stage: StageSetup})
	assert.ErrorIs(t, err, ErrInvalidStage)
	assert.Contains(t, err.Error(), `"setup"`)
}

func TestBuildRecordJSON(t *testing.T) {
	st := NewState()
	st.Stage = StageSummary
	st.Config = Config{Role: "PM", InterviewType: TypeProfessional, Mode: ModeQuickDrill, Level: LevelIntermediate, TotalQuestions: 2}
	st.Turns = []Turn{{Question: "Why?", Answer: "Because.", Feedback: ""}}
	st.Summary = "Solid."

	rec := BuildRecord(st, time.Date(2025, 1, 2, 3, 4, 5, 999, time.Local))
	st.Turns[0].Answer = "changed later"

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"timestamp": "2025-01-02T03:04:05",
		"role": "PM",
		"interview_type": "Professional",
		"level": "intermediate",
		"total_questions": 2,
		"qa_list": [{"question": "Why?", "answer": "Because.", "feedback": ""}],
		"summary": "Solid."
	}`, string(data))
}

func TestProgress(t *testing.T) {
	st := NewState()
	assert.Empty(t, st.Progress())

	st.Stage = StageInterview
	st.CurrentIndex = 2
	st.Config.TotalQuestions = 5
	assert.Equal(t, "Question 2 of 5", st.Progress())
}

func TestRecordLabel(t *testing.T) {
	rec := Record{Timestamp: "2025-01-02T03:04:05", Role: "QA", InterviewType: TypeBehavioral, Level: LevelAdvanced}
	assert.Equal(t, "Session 3 – 2025-01-02T03:04:05 – QA (Behavioral, advanced)", rec.Label(3))
}
