package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
)

// ErrInterrupted is the cancellation cause of a context ended by a signal.
var ErrInterrupted = errors.New("interrupted")

// InterruptHandler ends a command's context on SIGINT or SIGTERM, printing
// a farewell once.
type InterruptHandler struct {
	writer      io.Writer
	cancel      context.CancelCauseFunc
	message     string
	notice      sync.Once
	interrupted atomic.Bool
}

// NewInterruptHandler creates a handler that writes message on interrupt.
func NewInterruptHandler(writer io.Writer, message string) *InterruptHandler {
	if writer == nil {
		writer = os.Stdout
	}
	return &InterruptHandler{writer: writer, message: message}
}

// HandleInterrupts derives a context that is canceled with ErrInterrupted
// when a signal arrives. Signal delivery stops once the context ends.
func (h *InterruptHandler) HandleInterrupts(ctx context.Context) context.Context {
	ctx, h.cancel = context.WithCancelCause(ctx)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			h.interrupt()
		case <-ctx.Done():
		}
	}()
	return ctx
}

func (h *InterruptHandler) interrupt() {
	h.interrupted.Store(true)
	h.notice.Do(func() {
		if _, err := fmt.Fprint(h.writer, h.farewell()); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write interrupt message: %v\n", err)
		}
	})
	if h.cancel != nil {
		h.cancel(ErrInterrupted)
	}
}

func (h *InterruptHandler) farewell() string {
	msg := "\n" + FormatWarning("Interrupted!")
	if h.message != "" {
		msg += "\n" + FormatInfo(h.message)
	}
	return msg + "\n"
}

// WasInterrupted reports whether a signal ended the context.
func (h *InterruptHandler) WasInterrupted() bool {
	return h.interrupted.Load()
}
