// Package prompt renders the generator prompts from embedded YAML templates.
package prompt

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/kalambet/mocktalk/internal/interview"
)

//go:embed templates/*.yaml
var templateFS embed.FS

const (
	Question = "question"
	Feedback = "feedback"
	Summary  = "summary"
)

// file is the on-disk shape of one template.
type file struct {
	Description string `yaml:"description"`
	Template    string `yaml:"template"`
}

// Manager holds the parsed templates keyed by file name without extension.
type Manager struct {
	templates map[string]*template.Template
}

var funcs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

// NewManager loads every embedded template. It fails if any of the three
// prompts is missing.
func NewManager() (*Manager, error) {
	m := &Manager{templates: make(map[string]*template.Template)}

	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("reading templates directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		data, err := templateFS.ReadFile("templates/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", entry.Name(), err)
		}

		var f file
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", entry.Name(), err)
		}

		name := strings.TrimSuffix(entry.Name(), ".yaml")
		tmpl, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(f.Template)
		if err != nil {
			return nil, fmt.Errorf("compiling template %s: %w", name, err)
		}
		m.templates[name] = tmpl
	}

	for _, name := range []string{Question, Feedback, Summary} {
		if _, ok := m.templates[name]; !ok {
			return nil, fmt.Errorf("template %q not found", name)
		}
	}
	return m, nil
}

// Names lists the loaded templates in sorted order.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.templates))
	for name := range m.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render executes the named template with data.
func (m *Manager) Render(name string, data any) (string, error) {
	tmpl, ok := m.templates[name]
	if !ok {
		return "", fmt.Errorf("template not found: %s", name)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", name, err)
	}
	return sb.String(), nil
}

// QuestionPrompt builds the prompt asking for one new question.
func (m *Manager) QuestionPrompt(req interview.QuestionRequest) (string, error) {
	return m.Render(Question, req)
}

// FeedbackPrompt builds the prompt grading one answer.
func (m *Manager) FeedbackPrompt(question, answer string) (string, error) {
	return m.Render(Feedback, struct{ Question, Answer string }{question, answer})
}

// SummaryPrompt builds the prompt summarising a session transcript.
func (m *Manager) SummaryPrompt(role string, interviewType interview.InterviewType, turns []interview.Turn) (string, error) {
	return m.Render(Summary, struct {
		Role          string
		InterviewType interview.InterviewType
		Turns         []interview.Turn
	}{role, interviewType, turns})
}
