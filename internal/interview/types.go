package interview

import (
	"fmt"
	"strings"
)

// Stage is the current phase of a session.
type Stage string

const (
	StageSetup     Stage = "setup"
	StageInterview Stage = "interview"
	StageSummary   Stage = "summary"
)

// InterviewType selects the flavour of questions.
type InterviewType string

const (
	TypeBehavioral   InterviewType = "Behavioral"
	TypeProfessional InterviewType = "Professional"
	TypeResumeBased  InterviewType = "Resume-based"
)

// Mode controls the suggested length of a session.
type Mode string

const (
	ModeQuickDrill   Mode = "Quick drill"
	ModeStandardMock Mode = "Standard mock"
	ModeDeepSession  Mode = "Deep session"
)

// Level is the candidate seniority the questions are pitched at.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

const (
	MinQuestions = 1
	MaxQuestions = 10

	defaultQuestions = 3
)

// InterviewTypes lists the accepted interview types in display order.
var InterviewTypes = []InterviewType{TypeBehavioral, TypeProfessional, TypeResumeBased}

// Modes lists the accepted modes in display order.
var Modes = []Mode{ModeQuickDrill, ModeStandardMock, ModeDeepSession}

// Levels lists the accepted levels in display order.
var Levels = []Level{LevelBeginner, LevelIntermediate, LevelAdvanced}

// SuggestedQuestions returns the default question count for a mode.
func (m Mode) SuggestedQuestions() int {
	switch m {
	case ModeQuickDrill:
		return 2
	case ModeDeepSession:
		return 8
	default:
		return 4
	}
}

// Config is the user-chosen setup of one interview.
type Config struct {
	Role           string        `json:"role"`
	InterviewType  InterviewType `json:"interview_type"`
	Mode           Mode          `json:"mode"`
	Level          Level         `json:"level"`
	TotalQuestions int           `json:"total_questions"`
	ResumeText     string        `json:"resume_text,omitempty"`
	JobText        string        `json:"job_text,omitempty"`
}

// DefaultConfig returns the configuration a fresh or reset session starts with.
func DefaultConfig() Config {
	return Config{
		InterviewType:  TypeBehavioral,
		Mode:           ModeStandardMock,
		Level:          LevelBeginner,
		TotalQuestions: defaultQuestions,
	}
}

// normalize fills zero values with defaults. A zero question count takes
// the mode's suggestion.
func (c Config) normalize() Config {
	if c.InterviewType == "" {
		c.InterviewType = TypeBehavioral
	}
	if c.Mode == "" {
		c.Mode = ModeStandardMock
	}
	if c.Level == "" {
		c.Level = LevelBeginner
	}
	if c.TotalQuestions == 0 {
		c.TotalQuestions = c.Mode.SuggestedQuestions()
	}
	c.Role = strings.TrimSpace(c.Role)
	return c
}

// Validate checks the configuration after defaults are applied.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Role) == "" {
		return &ValidationError{Field: "role", Reason: "please enter a target role"}
	}
	if !contains(InterviewTypes, c.InterviewType) {
		return &ValidationError{Field: "interview_type", Reason: fmt.Sprintf("unknown interview type %q", c.InterviewType)}
	}
	if !contains(Modes, c.Mode) {
		return &ValidationError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q", c.Mode)}
	}
	if !contains(Levels, c.Level) {
		return &ValidationError{Field: "level", Reason: fmt.Sprintf("unknown level %q", c.Level)}
	}
	if c.TotalQuestions < MinQuestions || c.TotalQuestions > MaxQuestions {
		return &ValidationError{
			Field:  "total_questions",
			Reason: fmt.Sprintf("must be between %d and %d, got %d", MinQuestions, MaxQuestions, c.TotalQuestions),
		}
	}
	return nil
}

func contains[T comparable](list []T, v T) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Turn is one answered question with its optional feedback.
type Turn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Feedback string `json:"feedback"`
}

// SessionState is everything a session holds between user actions.
type SessionState struct {
	Stage           Stage    `json:"stage"`
	Config          Config   `json:"config"`
	CurrentIndex    int      `json:"current_index"`
	CurrentQuestion string   `json:"current_question"`
	CurrentAnswer   string   `json:"current_answer"`
	CurrentFeedback string   `json:"current_feedback"`
	Turns           []Turn   `json:"qa_list"`
	AskedQuestions  []string `json:"previous_questions"`
	Summary         string   `json:"summary"`
}

// NewState returns the initial state: setup stage with default configuration.
func NewState() SessionState {
	return SessionState{
		Stage:          StageSetup,
		Config:         DefaultConfig(),
		Turns:          []Turn{},
		AskedQuestions: []string{},
	}
}

// Clone returns a deep copy so callers never share slices with the machine.
func (s SessionState) Clone() SessionState {
	out := s
	out.Turns = append([]Turn{}, s.Turns...)
	out.AskedQuestions = append([]string{}, s.AskedQuestions...)
	return out
}

// Progress is the "Question i of N" indicator, empty outside the interview stage.
func (s SessionState) Progress() string {
	if s.Stage != StageInterview {
		return ""
	}
	return fmt.Sprintf("Question %d of %d", s.CurrentIndex, s.Config.TotalQuestions)
}
