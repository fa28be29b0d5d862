package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/finassist/internal/assistant"
	"github.com/schollz/progressbar/v3"
)

// Recorder records one expense message.
type Recorder interface {
	Record(ctx context.Context, text, userID, explicitCategory string) (*assistant.Recording, error)
}

// ImportStats summarizes a batch import.
type ImportStats struct {
	Pending  []string
	Failed   []string
	Total    int
	Saved    int
	Duration time.Duration
}

// Importer records expense messages in bulk, one per line. Blank lines and
// lines starting with # are ignored. Ambiguous messages are left unsaved and
// listed in the summary.
type Importer struct {
	recorder     Recorder
	writer       io.Writer
	progressBar  *progressbar.ProgressBar
	userID       string
	showProgress bool
}

// NewImporter creates an importer recording for userID.
func NewImporter(r Recorder, writer io.Writer, userID string, showProgress bool) *Importer {
	if writer == nil {
		writer = os.Stdout
	}
	return &Importer{
		recorder:     r,
		writer:       writer,
		userID:       userID,
		showProgress: showProgress,
	}
}

// Import records every message in input.
func (i *Importer) Import(ctx context.Context, input io.Reader) (ImportStats, error) {
	start := time.Now()
	lines, err := readMessages(input)
	if err != nil {
		return ImportStats{}, err
	}

	stats := ImportStats{Total: len(lines)}
	if i.showProgress && len(lines) > 0 {
		i.initProgressBar(len(lines))
	}

	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		rec, err := i.recorder.Record(ctx, line, i.userID, "")
		switch {
		case err != nil:
			slog.Warn("Failed to import expense", "line", line, "error", err)
			stats.Failed = append(stats.Failed, line)
		case rec.Pending():
			stats.Pending = append(stats.Pending, line)
		default:
			stats.Saved++
		}
		i.updateProgress()
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

// ShowCompletion displays the import summary.
func (i *Importer) ShowCompletion(stats ImportStats) {
	if i.progressBar != nil {
		if err := i.progressBar.Finish(); err != nil {
			slog.Warn("Failed to finish progress bar", "error", err)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "  • Messages: %d\n", stats.Total)
	fmt.Fprintf(&sb, "  • Saved: %d\n", stats.Saved)
	fmt.Fprintf(&sb, "  • Need a category: %d\n", len(stats.Pending))
	fmt.Fprintf(&sb, "  • Failed: %d\n", len(stats.Failed))
	fmt.Fprintf(&sb, "  • Time taken: %s", stats.Duration.Round(time.Millisecond))
	for _, line := range stats.Pending {
		fmt.Fprintf(&sb, "\n  %s %s", PendingIcon, line)
	}

	if _, err := fmt.Fprintln(i.writer, RenderBox(WalletIcon+" Import complete", sb.String())); err != nil {
		slog.Warn("Failed to write completion box", "error", err)
	}
}

func readMessages(input io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return lines, nil
}

func (i *Importer) initProgressBar(total int) {
	i.progressBar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(i.writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Recording expenses...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(i.writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}

func (i *Importer) updateProgress() {
	if i.progressBar != nil {
		if err := i.progressBar.Add(1); err != nil {
			slog.Warn("Failed to update progress bar", "error", err)
		}
	}
}
