package statecodec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrCancelled means the user dismissed the save or load; callers treat it
// as "no data" rather than a failure.
var ErrCancelled = errors.New("cancelled")

// Channel moves blobs to and from wherever the user chose to keep them.
type Channel interface {
	Save(ctx context.Context, blob []byte) error
	Load(ctx context.Context) ([]byte, error)
}

// FileChannel reads and writes one file. An empty Path behaves like a
// dismissed dialog, as does loading a file that does not exist.
type FileChannel struct {
	Path string
}

func (f FileChannel) Save(ctx context.Context, blob []byte) error {
	if f.Path == "" {
		return ErrCancelled
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".actionlog-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		return fmt.Errorf("write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

func (f FileChannel) Load(ctx context.Context) ([]byte, error) {
	if f.Path == "" {
		return nil, ErrCancelled
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCancelled
		}
		return nil, fmt.Errorf("read import: %w", err)
	}
	return data, nil
}

// StreamChannel saves to W and loads from R, for piping blobs through stdio.
// Loading an empty stream counts as cancelled.
type StreamChannel struct {
	R io.Reader
	W io.Writer
}

func (s StreamChannel) Save(ctx context.Context, blob []byte) error {
	if s.W == nil {
		return ErrCancelled
	}
	if _, err := s.W.Write(append(blob, '\n')); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

func (s StreamChannel) Load(ctx context.Context) ([]byte, error) {
	if s.R == nil {
		return nil, ErrCancelled
	}
	data, err := io.ReadAll(s.R)
	if err != nil {
		return nil, fmt.Errorf("read import: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrCancelled
	}
	return data, nil
}
