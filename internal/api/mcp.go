package api

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/kalambet/mocktalk/internal/history"
	"github.com/kalambet/mocktalk/internal/interview"
	"github.com/kalambet/mocktalk/internal/metrics"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Generator interview.Generator
	History   history.Store
	Logger    *zap.Logger
	Now       func() time.Time
	Version   string
}

// mcpSession is the single interview an MCP connection drives.
type mcpSession struct {
	mu      sync.Mutex
	machine *interview.Machine
}

func (s *mcpSession) do(fn func(m *interview.Machine) (string, error)) *mcp.CallToolResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, err := fn(s.machine)
	if err != nil {
		return mcpError(err.Error())
	}
	return mcpText(text)
}

// NewMCPServer creates an MCP server with the interview tools and the
// history resource registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Version == "" {
		deps.Version = "dev"
	}
	sess := &mcpSession{machine: interview.New(interview.Deps{
		Generator: deps.Generator,
		History:   deps.History,
		Now:       deps.Now,
	})}

	s := server.NewMCPServer(
		"mocktalk",
		deps.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("mocktalk: mock interview practice. Start an interview, answer each question, ask for feedback and finish with a summary."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("start_interview",
			mcp.WithDescription("Start a mock interview and return the first question."),
			mcp.WithString("role", mcp.Description("Target role, e.g. Backend Engineer"), mcp.Required()),
			mcp.WithString("interview_type", mcp.Description("Behavioral, Professional or Resume-based"),
				mcp.Enum(enumStrings(interview.InterviewTypes)...)),
			mcp.WithString("mode", mcp.Description("Quick drill, Standard mock or Deep session"),
				mcp.Enum(enumStrings(interview.Modes)...)),
			mcp.WithString("level", mcp.Description("beginner, intermediate or advanced"),
				mcp.Enum(enumStrings(interview.Levels)...)),
			mcp.WithNumber("total_questions", mcp.Description("Number of questions (1-10); defaults to the mode's suggestion")),
			mcp.WithString("resume_text", mcp.Description("Optional resume text")),
			mcp.WithString("job_text", mcp.Description("Optional job description text")),
		),
		mcpStartInterview(sess),
	)

	s.AddTool(
		mcp.NewTool("record_answer",
			mcp.WithDescription("Record the answer to the current question."),
			mcp.WithString("text", mcp.Description("The answer text"), mcp.Required()),
		),
		mcpRecordAnswer(sess),
	)

	s.AddTool(
		mcp.NewTool("request_feedback",
			mcp.WithDescription("Get feedback on the recorded answer."),
		),
		mcpRequestFeedback(sess),
	)

	s.AddTool(
		mcp.NewTool("next_question",
			mcp.WithDescription("File the current answer and move to the next question."),
		),
		mcpNextQuestion(sess),
	)

	s.AddTool(
		mcp.NewTool("generate_summary",
			mcp.WithDescription("Generate the end-of-interview summary."),
		),
		mcpGenerateSummary(sess),
	)

	s.AddTool(
		mcp.NewTool("save_session",
			mcp.WithDescription("Save the interview to history."),
		),
		mcpSaveSession(sess, deps.Logger),
	)

	s.AddTool(
		mcp.NewTool("reset_interview",
			mcp.WithDescription("Discard the interview and return to setup."),
		),
		mcpReset(sess),
	)

	s.AddTool(
		mcp.NewTool("get_state",
			mcp.WithDescription("Return the current interview state as JSON."),
		),
		mcpGetState(sess),
	)

	s.AddResource(
		mcp.NewResource(
			"history://sessions",
			"Interview History",
			mcp.WithResourceDescription("Saved interview sessions as a JSON array"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceHistory(deps),
	)

	return s
}

func enumStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func questionText(st interview.SessionState) string {
	return fmt.Sprintf("%s: %s", st.Progress(), st.CurrentQuestion)
}

func mcpStartInterview(sess *mcpSession) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		role, err := req.RequireString("role")
		if err != nil {
			return mcpError("role is required"), nil
		}
		cfg := interview.Config{
			Role:           role,
			InterviewType:  interview.InterviewType(req.GetString("interview_type", "")),
			Mode:           interview.Mode(req.GetString("mode", "")),
			Level:          interview.Level(req.GetString("level", "")),
			TotalQuestions: req.GetInt("total_questions", 0),
			ResumeText:     req.GetString("resume_text", ""),
			JobText:        req.GetString("job_text", ""),
		}

		return sess.do(func(m *interview.Machine) (string, error) {
			if err := m.StartInterview(ctx, cfg); err != nil {
				return "", err
			}
			return questionText(m.State()), nil
		}), nil
	}
}

func mcpRecordAnswer(sess *mcpSession) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcpError("text is required"), nil
		}
		return sess.do(func(m *interview.Machine) (string, error) {
			if err := m.RecordAnswer(text); err != nil {
				return "", err
			}
			return "Answer recorded.", nil
		}), nil
	}
}

func mcpRequestFeedback(sess *mcpSession) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return sess.do(func(m *interview.Machine) (string, error) {
			if err := m.RequestFeedback(ctx); err != nil {
				return "", err
			}
			return m.State().CurrentFeedback, nil
		}), nil
	}
}

func mcpNextQuestion(sess *mcpSession) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return sess.do(func(m *interview.Machine) (string, error) {
			if err := m.AdvanceQuestion(ctx); err != nil {
				return "", err
			}
			st := m.State()
			if st.Stage == interview.StageSummary {
				return fmt.Sprintf("Interview complete with %d answered questions. Call generate_summary next.", len(st.Turns)), nil
			}
			return questionText(st), nil
		}), nil
	}
}

func mcpGenerateSummary(sess *mcpSession) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return sess.do(func(m *interview.Machine) (string, error) {
			if err := m.GenerateSummary(ctx); err != nil {
				return "", err
			}
			return m.State().Summary, nil
		}), nil
	}
}

func mcpSaveSession(sess *mcpSession, logger *zap.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return sess.do(func(m *interview.Machine) (string, error) {
			rec, err := m.SaveToHistory(ctx)
			if err == nil || interview.IsPersistence(err) {
				metrics.ObserveSave(err)
			}
			if err != nil {
				logger.Warn("save to history failed", zap.Error(err))
				return "", err
			}
			return fmt.Sprintf("Saved session from %s.", rec.Timestamp), nil
		}), nil
	}
}

func mcpReset(sess *mcpSession) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return sess.do(func(m *interview.Machine) (string, error) {
			m.Reset()
			return "Interview reset.", nil
		}), nil
	}
}

func mcpGetState(sess *mcpSession) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return sess.do(func(m *interview.Machine) (string, error) {
			b, err := json.Marshal(m.State())
			if err != nil {
				return "", fmt.Errorf("failed to marshal state: %w", err)
			}
			return string(b), nil
		}), nil
	}
}

func mcpResourceHistory(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		records, err := deps.History.Load(ctx)
		if err != nil {
			deps.Logger.Warn("loading history failed", zap.Error(err))
			records = nil
		}
		if records == nil {
			records = []interview.Record{}
		}

		b, err := json.Marshal(records)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal history: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
