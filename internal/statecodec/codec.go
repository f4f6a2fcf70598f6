package statecodec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"actionlog/internal/action"
)

// Items is the result of an item import together with how the caller should
// combine it with the current log.
type Items struct {
	Entries []action.Entry
	Kind    action.ImportKind
}

// Codec exports and imports through a Channel.
type Codec struct {
	ch     Channel
	logger *slog.Logger
}

func New(ch Channel, logger *slog.Logger) *Codec {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Codec{ch: ch, logger: logger}
}

// ExportState writes the whole state. ErrCancelled is passed through so the
// caller can tell a dismissed save from a failed one.
func (c *Codec) ExportState(ctx context.Context, s *State) error {
	blob, err := MarshalState(s)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := c.ch.Save(ctx, blob); err != nil {
		return err
	}
	c.logger.Info("exported state", "actions", s.Actions.Len(), "bytes", len(blob))
	return nil
}

// ExportItems writes the given entries in order as an items blob.
func (c *Codec) ExportItems(ctx context.Context, entries []action.Entry) error {
	blob, err := MarshalItems(entries)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	if err := c.ch.Save(ctx, blob); err != nil {
		return err
	}
	c.logger.Info("exported items", "count", len(entries), "bytes", len(blob))
	return nil
}

// ImportState reads a state blob. It returns nil, nil when the user cancels
// or nothing is available.
func (c *Codec) ImportState(ctx context.Context) (*State, error) {
	blob, err := c.ch.Load(ctx)
	if errors.Is(err, ErrCancelled) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	st, err := UnmarshalState(blob)
	if err != nil {
		return nil, err
	}
	c.logger.Info("imported state", "actions", st.Actions.Len())
	return st, nil
}

// ImportItems reads an items blob. It returns nil, nil when the user cancels.
func (c *Codec) ImportItems(ctx context.Context, kind action.ImportKind) (*Items, error) {
	if kind != action.ImportAppend && kind != action.ImportReplace {
		return nil, fmt.Errorf("unknown import kind %q", kind)
	}
	blob, err := c.ch.Load(ctx)
	if errors.Is(err, ErrCancelled) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	entries, err := UnmarshalItems(blob)
	if err != nil {
		return nil, err
	}
	c.logger.Info("imported items", "count", len(entries), "kind", kind)
	return &Items{Entries: entries, Kind: kind}, nil
}
