package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/Veraticus/finassist/internal/model"
)

// ErrInputClosed is returned when the input ends while a choice is pending.
var ErrInputClosed = errors.New("input terminated")

// Prompter asks the user to resolve ambiguous classifications.
type Prompter struct {
	reader *LineReader
	writer io.Writer
}

// NewPrompter creates a prompter reading choices from reader.
func NewPrompter(reader *LineReader, writer io.Writer) *Prompter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Prompter{reader: reader, writer: writer}
}

// ChooseCategory shows the suggestions for merchant and returns the picked
// one. ok is false when the user skips.
func (p *Prompter) ChooseCategory(ctx context.Context, merchant string, suggestions model.Suggestions) (picked model.Suggestion, ok bool, err error) {
	if len(suggestions) == 0 {
		return model.Suggestion{}, false, nil
	}

	content := RenderSuggestions(suggestions) + "\n  [S] Skip this expense"
	if _, err := fmt.Fprintln(p.writer, RenderBox(PendingIcon+" Which category is "+merchant+"?", content)); err != nil {
		return model.Suggestion{}, false, fmt.Errorf("failed to write suggestions: %w", err)
	}

	valid := make([]string, 0, len(suggestions)+1)
	for i := range suggestions {
		valid = append(valid, strconv.Itoa(i+1))
	}
	valid = append(valid, "s")

	choice, err := p.promptChoice(ctx, "Choice", valid)
	if err != nil {
		return model.Suggestion{}, false, err
	}
	if choice == "s" {
		return model.Suggestion{}, false, nil
	}

	n, _ := strconv.Atoi(choice)
	return suggestions[n-1], true, nil
}

func (p *Prompter) promptChoice(ctx context.Context, prompt string, validChoices []string) (string, error) {
	for {
		if _, err := fmt.Fprint(p.writer, FormatPrompt(prompt)); err != nil {
			return "", fmt.Errorf("failed to write prompt: %w", err)
		}

		input, err := p.reader.ReadLine(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", ErrInputClosed
			}
			return "", err
		}

		choice := strings.ToLower(input)
		for _, valid := range validChoices {
			if choice == valid {
				return choice, nil
			}
		}

		if _, err := fmt.Fprintln(p.writer, FormatError("Invalid choice. Please try again.")); err != nil {
			slog.Warn("Failed to write error message", "error", err)
		}
	}
}
