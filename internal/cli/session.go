package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Veraticus/finassist/internal/assistant"
	"github.com/Veraticus/finassist/internal/common"
	"github.com/Veraticus/finassist/internal/parser"
	"github.com/Veraticus/finassist/internal/report"
)

// Assistant is the part of assistant.Assistant the chat session uses.
type Assistant interface {
	Ask(ctx context.Context, question string, opts assistant.AskOptions) (*assistant.Answer, error)
	Record(ctx context.Context, text, userID, explicitCategory string) (*assistant.Recording, error)
	Confirm(ctx context.Context, parsed *parser.ParsedExpense, userID, categoryID string) (*assistant.Recording, error)
}

// Session is an interactive chat: expense messages are recorded and
// everything else is answered as a question.
type Session struct {
	assistant Assistant
	reader    *LineReader
	writer    io.Writer
	prompter  *Prompter
	userID    string
}

// NewSession creates a chat session recording expenses for userID.
func NewSession(a Assistant, in io.Reader, out io.Writer, userID string) *Session {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	reader := NewLineReader(in)
	return &Session{
		assistant: a,
		reader:    reader,
		writer:    out,
		prompter:  NewPrompter(reader, out),
		userID:    userID,
	}
}

// Run reads messages until the input ends, the user types /quit, or ctx is
// canceled.
func (s *Session) Run(ctx context.Context) error {
	s.println(FormatTitle("finassist chat"))
	s.println(SubtleStyle.Render(`Record an expense like "Costco 120.54" or ask "how much did we spend this week?". /quit exits.`))

	for {
		s.print(FormatPrompt("You"))
		line, err := s.reader.ReadLine(ctx)
		switch {
		case errors.Is(err, io.EOF), errors.Is(err, ErrInputCancelled):
			return nil
		case err != nil:
			return fmt.Errorf("failed to read input: %w", err)
		}

		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return nil
		}

		if err := s.Handle(ctx, line); err != nil {
			if errors.Is(err, ErrInputClosed) || errors.Is(err, ErrInputCancelled) || ctx.Err() != nil {
				return nil
			}
			s.println(FormatError(common.UserMessage(err)))
		}
	}
}

// Handle processes one message.
func (s *Session) Handle(ctx context.Context, line string) error {
	if _, ok := parser.ParseMessage(line); ok {
		return s.record(ctx, line)
	}

	answer, err := s.assistant.Ask(ctx, line, assistant.AskOptions{})
	if err != nil {
		return err
	}
	s.println(RenderReport(report.Build(answer.Result)))
	return nil
}

func (s *Session) record(ctx context.Context, line string) error {
	rec, err := s.assistant.Record(ctx, line, s.userID, "")
	if err != nil {
		return err
	}

	if rec.Pending() {
		picked, ok, err := s.prompter.ChooseCategory(ctx, rec.Parsed.Merchant, rec.Classification.Suggestions)
		if err != nil {
			return err
		}
		if !ok {
			s.println(FormatInfo("Skipped " + rec.Parsed.Merchant))
			return nil
		}
		rec, err = s.assistant.Confirm(ctx, rec.Parsed, s.userID, picked.ID)
		if err != nil {
			return err
		}
	}

	s.println(FormatSuccess(SavedMessage(rec)))
	return nil
}

// SavedMessage describes a saved recording.
func SavedMessage(rec *assistant.Recording) string {
	e := rec.Expense
	msg := fmt.Sprintf("Saved %s %s to %s", e.Detail, report.FormatMoney(e.Amount, e.Currency), rec.Classification.CategoryName)
	if e.OriginalCurrency != "" && e.OriginalCurrency != e.Currency {
		msg += fmt.Sprintf(" (%s)", report.FormatMoney(e.OriginalAmount, e.OriginalCurrency))
	}
	return strings.TrimSpace(msg)
}

func (s *Session) println(text string) {
	_, _ = fmt.Fprintln(s.writer, text)
}

func (s *Session) print(text string) {
	_, _ = fmt.Fprint(s.writer, text)
}
