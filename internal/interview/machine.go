// Package interview holds the session state machine that drives a mock
// interview from setup through questions to the closing summary.
package interview

import (
	"context"
	"strings"
	"time"
)

// QuestionRequest carries everything the generator needs for one question.
type QuestionRequest struct {
	InterviewType InterviewType
	Role          string
	Level         Level
	Previous      []string
	ResumeText    string
	JobText       string
}

// Generator produces questions, per-answer feedback and the closing summary.
type Generator interface {
	Question(ctx context.Context, req QuestionRequest) (string, error)
	Feedback(ctx context.Context, question, answer string) (string, error)
	Summary(ctx context.Context, role string, interviewType InterviewType, turns []Turn) (string, error)
}

// Appender persists finished sessions.
type Appender interface {
	Append(ctx context.Context, rec Record) error
}

// Deps are the collaborators a Machine calls out to.
type Deps struct {
	Generator Generator
	History   Appender
	Now       func() time.Time
}

// Machine applies user actions to one SessionState. It is not safe for
// concurrent use; callers serialise actions per session.
type Machine struct {
	deps  Deps
	state SessionState
}

// New returns a machine in the setup stage with the default configuration.
func New(deps Deps) *Machine {
	return Restore(deps, NewState())
}

// Restore resumes a machine from a previously captured state.
func Restore(deps Deps, st SessionState) *Machine {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if st.Stage == "" {
		st.Stage = StageSetup
	}
	return &Machine{deps: deps, state: st.Clone()}
}

// State returns a copy of the current state.
func (m *Machine) State() SessionState {
	return m.state.Clone()
}

// Stage returns the current stage.
func (m *Machine) Stage() Stage {
	return m.state.Stage
}

// StartInterview validates cfg, asks for the first question and enters the
// interview stage. On any failure the state is left untouched.
func (m *Machine) StartInterview(ctx context.Context, cfg Config) error {
	cfg = cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if m.state.Stage != StageSetup {
		return &StageError{Op: "start interview", Stage: m.state.Stage}
	}

	q, err := m.deps.Generator.Question(ctx, questionRequest(cfg, nil))
	if err != nil {
		return &RemoteCallError{Op: "generate question", Err: err}
	}

	m.state = SessionState{
		Stage:           StageInterview,
		Config:          cfg,
		CurrentIndex:    1,
		CurrentQuestion: q,
		Turns:           []Turn{},
		AskedQuestions:  []string{q},
	}
	return nil
}

// RecordAnswer stores text as the current answer. Any string is accepted;
// emptiness is checked by the actions that need an answer.
func (m *Machine) RecordAnswer(text string) error {
	if m.state.Stage != StageInterview {
		return &StageError{Op: "record answer", Stage: m.state.Stage}
	}
	m.state.CurrentAnswer = text
	return nil
}

// RequestFeedback asks the generator to grade the current answer.
func (m *Machine) RequestFeedback(ctx context.Context) error {
	if strings.TrimSpace(m.state.CurrentAnswer) == "" {
		return &ValidationError{Field: "answer", Reason: "please answer first"}
	}
	if m.state.Stage != StageInterview {
		return &StageError{Op: "request feedback", Stage: m.state.Stage}
	}

	fb, err := m.deps.Generator.Feedback(ctx, m.state.CurrentQuestion, m.state.CurrentAnswer)
	if err != nil {
		return &RemoteCallError{Op: "generate feedback", Err: err}
	}
	m.state.CurrentFeedback = fb
	return nil
}

// AdvanceQuestion files the current turn (dropped when the answer is blank)
// and either moves to the next question or, after the last one, to the
// summary stage. If the next question cannot be generated nothing changes,
// so the call can be retried.
func (m *Machine) AdvanceQuestion(ctx context.Context) error {
	if m.state.Stage != StageInterview {
		return &StageError{Op: "advance question", Stage: m.state.Stage}
	}

	turns := m.state.Turns
	if m.state.CurrentQuestion != "" && strings.TrimSpace(m.state.CurrentAnswer) != "" {
		turns = append(append([]Turn{}, turns...), Turn{
			Question: m.state.CurrentQuestion,
			Answer:   m.state.CurrentAnswer,
			Feedback: m.state.CurrentFeedback,
		})
	}

	if m.state.CurrentIndex >= m.state.Config.TotalQuestions {
		m.state.Turns = turns
		m.state.Stage = StageSummary
		return nil
	}

	req := questionRequest(m.state.Config, m.state.AskedQuestions)
	q, err := m.deps.Generator.Question(ctx, req)
	if err != nil {
		return &RemoteCallError{Op: "generate question", Err: err}
	}

	m.state.Turns = turns
	m.state.CurrentIndex++
	m.state.CurrentQuestion = q
	m.state.AskedQuestions = append(m.state.AskedQuestions, q)
	m.state.CurrentAnswer = ""
	m.state.CurrentFeedback = ""
	return nil
}

// GenerateSummary asks for the closing summary. Calling it again replaces
// the previous summary.
func (m *Machine) GenerateSummary(ctx context.Context) error {
	if len(m.state.Turns) == 0 {
		return &ValidationError{Field: "qa_list", Reason: "no answers to summarize"}
	}

	cfg := m.state.Config
	s, err := m.deps.Generator.Summary(ctx, cfg.Role, cfg.InterviewType, append([]Turn{}, m.state.Turns...))
	if err != nil {
		return &RemoteCallError{Op: "generate summary", Err: err}
	}
	m.state.Summary = s
	return nil
}

// SaveToHistory appends a record of the session to the history store and
// returns it. The in-memory state is kept; the summary may be empty.
func (m *Machine) SaveToHistory(ctx context.Context) (Record, error) {
	if m.state.Stage == StageSetup {
		return Record{}, &StageError{Op: "save to history", Stage: m.state.Stage}
	}

	rec := BuildRecord(m.state, m.deps.Now())
	if err := m.deps.History.Append(ctx, rec); err != nil {
		return Record{}, &PersistenceError{Err: err}
	}
	return rec, nil
}

// Reset discards the session and returns to setup with defaults.
func (m *Machine) Reset() {
	m.state = NewState()
}

func questionRequest(cfg Config, previous []string) QuestionRequest {
	return QuestionRequest{
		InterviewType: cfg.InterviewType,
		Role:          cfg.Role,
		Level:         cfg.Level,
		Previous:      append([]string{}, previous...),
		ResumeText:    cfg.ResumeText,
		JobText:       cfg.JobText,
	}
}
