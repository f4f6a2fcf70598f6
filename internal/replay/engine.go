// Package replay runs recorded descriptors against the host again and turns
// the host's answer into a PlayReply.
package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"actionlog/internal/action"
	"actionlog/internal/document"
)

// Executor is the host's command execution capability. It receives an
// ordered batch of command documents plus an options document and answers
// with the result documents.
type Executor interface {
	Execute(ctx context.Context, commands []document.Value, options document.Value) ([]document.Value, error)
}

// HostError is implemented by executor errors that carry the host's own
// error document.
type HostError interface {
	error
	Payload() document.Value
}

// ExecutionError reports that the host rejected a replay.
type ExecutionError struct {
	EntryID int
	Payload document.Value
	Err     error
}

func (e *ExecutionError) Error() string {
	if !e.Payload.IsNull() {
		return fmt.Sprintf("replay entry %d: host rejected command: %s", e.EntryID, e.Payload.String())
	}
	return fmt.Sprintf("replay entry %d: %v", e.EntryID, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Engine replays entries through an Executor.
type Engine struct {
	exec    Executor
	timeout time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

type Option func(*Engine)

// WithTimeout bounds every replay. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func NewEngine(exec Executor, opts ...Option) *Engine {
	e := &Engine{
		exec:   exec,
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Replay submits the entry's descriptor to the host and builds the reply. It
// does not touch the entry; the caller appends the reply. On failure no reply
// is produced and the error is an *ExecutionError.
func (e *Engine) Replay(ctx context.Context, entry action.Entry) (action.PlayReply, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	results, err := e.exec.Execute(ctx, []document.Value{entry.Descriptor}, document.Object())
	if err != nil {
		execErr := &ExecutionError{EntryID: entry.ID, Err: err}
		var hostErr HostError
		if errors.As(err, &hostErr) {
			execErr.Payload = hostErr.Payload()
		}
		e.logger.Warn("replay failed", "id", entry.ID, "title", entry.Title, "error", err)
		return action.PlayReply{}, execErr
	}

	if results == nil {
		results = []document.Value{}
	}
	reply := action.PlayReply{
		Descriptors: results,
		Time:        e.now().UTC().Truncate(time.Millisecond),
	}
	e.logger.Debug("replayed entry", "id", entry.ID, "results", len(results), "elapsed", time.Since(start))
	return reply, nil
}

// Play replays entry id and appends the reply. On any failure the returned
// collection is c itself.
func (e *Engine) Play(ctx context.Context, c action.Collection, id int) (action.Collection, action.PlayReply, error) {
	entry, ok := c.Find(id)
	if !ok {
		return c, action.PlayReply{}, fmt.Errorf("%w: %d", action.ErrEntryNotFound, id)
	}
	reply, err := e.Replay(ctx, entry)
	if err != nil {
		return c, action.PlayReply{}, err
	}
	next, err := c.AppendReply(id, reply)
	if err != nil {
		return c, action.PlayReply{}, err
	}
	return next, reply, nil
}
