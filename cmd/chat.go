package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/ainterviewer/internal/ai"
	"github.com/spigell/ainterviewer/internal/feedback"
	"github.com/spigell/ainterviewer/internal/ingestion"
	"github.com/spigell/ainterviewer/internal/interview"
	"github.com/spigell/ainterviewer/internal/logger"
)

const (
	PromptAnswer        = "Answer"
	PromptRetryQuestion = "Retry question"
	PromptEndInterview  = "End interview"
	PromptNewInterview  = "Start new interview"
	PromptExit          = "Exit"
)

var errExit = errors.New("exit requested")

var bold = promptui.Styler(promptui.FGBold)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run a mock interview in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		chat(cmd)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("resume", "r", "", "resume file (.txt, .md, .pdf, .docx)")
	chatCmd.Flags().StringP("job", "J", "", "job description file (.txt, .md, .pdf, .docx)")
}

func chat(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	gateway, err := newGateway(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("creating the ai gateway", zap.Error(err))
	}

	logger.Info("starting the interview chat", zap.String("version", version))

	resumePath, _ := cmd.Flags().GetString("resume")
	jobPath, _ := cmd.Flags().GetString("job")

	session := &chatSession{
		driver: interview.NewDriver(gateway, logger),
		out:    cmd.OutOrStdout(),
		logger: logger,
	}

	for first := true; ; first = false {
		resumePath, err = askPath("Resume file", resumePath, first)
		if err != nil {
			return
		}
		jobPath, err = askPath("Job description file", jobPath, first)
		if err != nil {
			return
		}

		if err := session.run(ctx, resumePath, jobPath); err != nil {
			if errors.Is(err, errExit) || errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				logger.Info("exiting", zap.String("reason", "requested by user"))
				return
			}
			logger.Fatal("interview failed", zap.Error(err))
		}
	}
}

type chatSession struct {
	driver *interview.Driver
	out    io.Writer
	logger *zap.Logger
}

// run conducts one interview and returns after the user restarts it.
func (c *chatSession) run(ctx context.Context, resumePath, jobPath string) error {
	resume, err := ingestion.ReadFile(resumePath)
	if err != nil {
		return fmt.Errorf("reading resume: %w", err)
	}

	jobDescription, err := ingestion.ReadFile(jobPath)
	if err != nil {
		return fmt.Errorf("reading job description: %w", err)
	}

	question, err := c.driver.Start(ctx, resume, jobDescription)
	c.showQuestion(question, err)
	if err != nil && !isRecoverable(err) {
		return err
	}

	for {
		switch c.driver.State() {
		case interview.StateInterviewing:
			if err := c.interviewStep(ctx); err != nil {
				return err
			}
		case interview.StateFeedbackReady:
			_, action, err := (&promptui.Select{
				Label: "What next?",
				Items: []string{PromptNewInterview, PromptExit},
			}).Run()
			if err != nil {
				return err
			}
			if action == PromptExit {
				return errExit
			}
			return c.driver.Restart()
		default:
			return fmt.Errorf("unexpected interview state %s", c.driver.State())
		}
	}
}

func (c *chatSession) interviewStep(ctx context.Context) error {
	items := []string{PromptAnswer, PromptEndInterview}
	if awaitingQuestion(c.driver.Snapshot()) {
		items = []string{PromptRetryQuestion, PromptEndInterview}
	}

	_, action, err := (&promptui.Select{Label: "Your move", Items: items}).Run()
	if err != nil {
		return err
	}

	switch action {
	case PromptAnswer:
		answer, err := (&promptui.Prompt{
			Label: "Answer",
			Validate: func(s string) error {
				if strings.TrimSpace(s) == "" {
					return interview.ErrEmptyAnswer
				}
				return nil
			},
		}).Run()
		if err != nil {
			return err
		}

		question, err := c.driver.Answer(ctx, answer)
		c.showQuestion(question, err)
		if err != nil && !isRecoverable(err) {
			return err
		}
	case PromptRetryQuestion:
		question, err := c.driver.AskNext(ctx)
		c.showQuestion(question, err)
		if err != nil && !isRecoverable(err) {
			return err
		}
	case PromptEndInterview:
		fmt.Fprintln(c.out, "Analyzing your interview...")

		text, err := c.driver.End(ctx)
		if err != nil {
			if !isRecoverable(err) {
				return err
			}
			fmt.Fprintf(c.out, "\n%s\n\n", err)
			return nil
		}
		printFeedback(c.out, text)
	}

	return nil
}

func (c *chatSession) showQuestion(question string, err error) {
	if err != nil {
		c.logger.Debug("question request failed", zap.Error(err))
		fmt.Fprintf(c.out, "\n%s\n\n", err)
		return
	}
	fmt.Fprintf(c.out, "\n%s %s\n\n", bold("AI:"), question)
}

// isRecoverable reports errors the user can act on from the menu.
func isRecoverable(err error) bool {
	var gatewayErr *ai.GatewayError
	return errors.As(err, &gatewayErr) ||
		errors.Is(err, interview.ErrEmptyAnswer) ||
		errors.Is(err, interview.ErrQuestionPending) ||
		errors.Is(err, interview.ErrAnswerPending)
}

func awaitingQuestion(snap interview.Snapshot) bool {
	n := len(snap.Turns)
	return n == 0 || snap.Turns[n-1].Speaker == interview.SpeakerCandidate
}

func printFeedback(out io.Writer, text string) {
	fmt.Fprintf(out, "\n%s\n\n", bold("Interview feedback"))
	for _, section := range feedback.Sections(text) {
		if section.Heading != "" {
			fmt.Fprintf(out, "%s\n%s\n\n", bold(section.Heading), section.Body)
			continue
		}
		fmt.Fprintf(out, "%s\n\n", section.Body)
	}
}

// askPath returns current as is on the first round when it names a readable
// document, otherwise prompts with current as the default.
func askPath(label, current string, first bool) (string, error) {
	if first && current != "" {
		if _, err := ingestion.ReadFile(current); err == nil {
			return current, nil
		}
	}

	path, err := (&promptui.Prompt{
		Label:   label,
		Default: current,
		Validate: func(s string) error {
			_, err := ingestion.ReadFile(strings.TrimSpace(s))
			return err
		},
	}).Run()

	return strings.TrimSpace(path), err
}
