package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when a read is abandoned because its context
// ended.
var ErrInputCancelled = errors.New("input canceled")

type lineResult struct {
	err  error
	line string
}

// LineReader reads trimmed lines from an input that may block forever, such
// as a terminal. A single goroutine scans the input on demand, so a read
// abandoned by cancellation is delivered to the next ReadLine call instead of
// being lost.
type LineReader struct {
	scanner *bufio.Scanner
	lines   chan lineResult
	wants   chan struct{}
	once    sync.Once
	pending bool
}

// NewLineReader creates a reader over in.
func NewLineReader(in io.Reader) *LineReader {
	if in == nil {
		panic("reader cannot be nil")
	}
	return &LineReader{
		scanner: bufio.NewScanner(in),
		lines:   make(chan lineResult, 1),
		wants:   make(chan struct{}),
	}
}

func (r *LineReader) pump() {
	var done error
	for range r.wants {
		if done == nil && r.scanner.Scan() {
			r.lines <- lineResult{line: strings.TrimSpace(r.scanner.Text())}
			continue
		}
		if done == nil {
			if done = r.scanner.Err(); done == nil {
				done = io.EOF
			}
		}
		r.lines <- lineResult{err: done}
	}
}

// ReadLine returns the next line with surrounding space removed. It returns
// io.EOF once the input ends and ErrInputCancelled when ctx ends first.
// ReadLine is not safe for concurrent use.
func (r *LineReader) ReadLine(ctx context.Context) (string, error) {
	if ctx.Err() != nil {
		return "", ErrInputCancelled
	}
	r.once.Do(func() { go r.pump() })

	if !r.pending {
		select {
		case r.wants <- struct{}{}:
			r.pending = true
		case <-ctx.Done():
			return "", ErrInputCancelled
		}
	}

	select {
	case res := <-r.lines:
		r.pending = false
		return res.line, res.err
	case <-ctx.Done():
		return "", ErrInputCancelled
	}
}
