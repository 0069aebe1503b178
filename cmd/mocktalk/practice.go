package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kalambet/mocktalk/internal/coach"
	"github.com/kalambet/mocktalk/internal/config"
	"github.com/kalambet/mocktalk/internal/ingest"
	"github.com/kalambet/mocktalk/internal/interview"
	"github.com/kalambet/mocktalk/internal/logging"
)

const quitCommand = ":q"

type practiceOptions struct {
	role          string
	interviewType string
	mode          string
	level         string
	questions     int
	resumePath    string
	jobURL        string
	autoSave      bool
}

var practiceOpts practiceOptions

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Run a mock interview in the terminal",
	Long: `Run a mock interview in the terminal with typed answers.

Finish each answer with an empty line. Type :q on its own line to stop.

Examples:
  mocktalk practice --role "Backend Engineer"
  mocktalk practice --role "Product Manager" --type Professional --mode "Deep session" --level advanced
  mocktalk practice --role "Data Analyst" --type Resume-based --resume ./cv.pdf`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx := cmd.Context()
		gen, err := newGenerator(ctx, cfg, logger)
		if err != nil {
			return err
		}
		hist, err := openHistory(cfg, logger)
		if err != nil {
			return err
		}
		defer closeHistory(hist)

		m := interview.New(interview.Deps{
			Generator: coach.WithFallbackQuestion(gen, logger),
			History:   hist,
		})

		ic, err := practiceOpts.interviewConfig(ctx, logger)
		if err != nil {
			return err
		}
		return practice(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), m, ic, practiceOpts.autoSave)
	},
}

func init() {
	f := practiceCmd.Flags()
	f.StringVar(&practiceOpts.role, "role", "", "target role (asked for when empty)")
	f.StringVar(&practiceOpts.interviewType, "type", string(interview.TypeBehavioral), "interview type: Behavioral, Professional or Resume-based")
	f.StringVar(&practiceOpts.mode, "mode", string(interview.ModeStandardMock), `mode: "Quick drill", "Standard mock" or "Deep session"`)
	f.StringVar(&practiceOpts.level, "level", string(interview.LevelBeginner), "difficulty: beginner, intermediate or advanced")
	f.IntVar(&practiceOpts.questions, "questions", 0, "number of questions (default: the mode's suggestion)")
	f.StringVar(&practiceOpts.resumePath, "resume", "", "resume file (PDF or text)")
	f.StringVar(&practiceOpts.jobURL, "job-url", "", "job posting URL")
	f.BoolVar(&practiceOpts.autoSave, "save", false, "save the session to history without asking")
}

// interviewConfig builds the setup from flags. Unreadable resumes and
// postings are warnings; the interview goes ahead without them.
func (o practiceOptions) interviewConfig(ctx context.Context, logger *zap.Logger) (interview.Config, error) {
	cfg := interview.Config{
		Role:           o.role,
		InterviewType:  interview.InterviewType(o.interviewType),
		Mode:           interview.Mode(o.mode),
		Level:          interview.Level(o.level),
		TotalQuestions: o.questions,
	}

	if o.resumePath != "" {
		data, err := os.ReadFile(o.resumePath)
		if err != nil {
			return cfg, fmt.Errorf("reading resume: %w", err)
		}
		text, err := ingest.ResumeText(o.resumePath, data)
		if err != nil {
			printWarning("could not read resume: %v", err)
		} else {
			printStep("Loaded resume (%d words)", len(strings.Fields(text)))
			cfg.ResumeText = text
		}
	}

	if o.jobURL != "" {
		text, err := ingest.FetchPosting(ctx, &http.Client{Timeout: 15 * time.Second}, o.jobURL)
		if err != nil {
			logger.Warn("job posting fetch failed", zap.String("url", o.jobURL), zap.Error(err))
			printWarning("could not fetch job posting: %v", err)
		} else {
			printStep("Loaded job posting (%d words)", len(strings.Fields(text)))
			cfg.JobText = text
		}
	}
	return cfg, nil
}

// errQuit ends a practice session early at the user's request.
var errQuit = errors.New("quit")

type practiceSession struct {
	in  *bufio.Reader
	out io.Writer
	m   *interview.Machine
}

// practice drives one interview over in/out until the summary is shown
// and the save question is answered.
func practice(ctx context.Context, in io.Reader, out io.Writer, m *interview.Machine, cfg interview.Config, autoSave bool) error {
	s := &practiceSession{in: bufio.NewReader(in), out: out, m: m}

	for strings.TrimSpace(cfg.Role) == "" {
		line, err := s.prompt("Target role: ")
		if err != nil {
			return nil
		}
		cfg.Role = line
	}

	if err := m.StartInterview(ctx, cfg); err != nil {
		return err
	}
	st := m.State()
	fmt.Fprintf(out, "\n%s interview for %s (%s, %d questions)\n",
		st.Config.InterviewType, st.Config.Role, st.Config.Level, st.Config.TotalQuestions)

	for m.Stage() == interview.StageInterview {
		err := s.askQuestion(ctx)
		if errors.Is(err, errQuit) {
			fmt.Fprintln(out, "Session ended.")
			return nil
		}
		if err != nil {
			return err
		}
	}

	return s.finish(ctx, autoSave)
}

func (s *practiceSession) askQuestion(ctx context.Context) error {
	st := s.m.State()
	fmt.Fprintf(s.out, "\n%s\n%s\n\n", colorize(colorCyan, st.Progress()), colorize(colorBold, st.CurrentQuestion))

	answer, err := s.readAnswer()
	if err != nil {
		return err
	}
	if err := s.m.RecordAnswer(answer); err != nil {
		return err
	}

	if answer != "" {
		if yes, err := s.confirm("Get feedback on this answer? [y/N] "); err == nil && yes {
			if err := s.m.RequestFeedback(ctx); err != nil {
				printError("%v", err)
			} else {
				printMarkdown(s.out, s.m.State().CurrentFeedback)
			}
		}
	} else {
		printWarning("no answer given, skipping this question")
	}

	return s.m.AdvanceQuestion(ctx)
}

func (s *practiceSession) finish(ctx context.Context, autoSave bool) error {
	st := s.m.State()
	fmt.Fprintf(s.out, "\nInterview complete: %d of %d questions answered.\n", len(st.Turns), st.Config.TotalQuestions)

	if len(st.Turns) == 0 {
		fmt.Fprintln(s.out, "No answers were recorded, so there is nothing to summarize.")
	} else if err := s.m.GenerateSummary(ctx); err != nil {
		printError("%v", err)
	} else {
		printMarkdown(s.out, s.m.State().Summary)
	}

	save := autoSave
	if !save {
		yes, err := s.confirm("Save this session to history? [y/N] ")
		save = err == nil && yes
	}
	if !save {
		return nil
	}
	rec, err := s.m.SaveToHistory(ctx)
	if err != nil {
		return err
	}
	printSuccess("Saved session from %s", rec.Timestamp)
	return nil
}

// readAnswer collects lines until an empty line. EOF ends the answer; EOF
// before any text, or the quit command, stops the session.
func (s *practiceSession) readAnswer() (string, error) {
	fmt.Fprintln(s.out, "Your answer (finish with an empty line, :q to stop):")
	var lines []string
	for {
		line, err := s.in.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == quitCommand {
			return "", errQuit
		}
		if line != "" {
			lines = append(lines, line)
		}
		if err == io.EOF {
			if len(lines) == 0 {
				return "", errQuit
			}
			break
		}
		if err != nil {
			return "", err
		}
		if line == "" && len(lines) > 0 {
			break
		}
		if line == "" {
			return "", nil
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

func (s *practiceSession) prompt(label string) (string, error) {
	fmt.Fprint(s.out, label)
	line, err := s.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (s *practiceSession) confirm(label string) (bool, error) {
	line, err := s.prompt(label)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
