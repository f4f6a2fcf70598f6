// Package capture reads descriptors that were captured elsewhere and handed
// to actionlog as JSON text.
package capture

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"actionlog/internal/document"

	"github.com/atotto/clipboard"
)

// Clipboard is the source name that reads from the system clipboard.
const Clipboard = "clipboard"

var ErrEmpty = errors.New("no descriptors to record")

// Reader resolves a source name to its text.
type Reader struct {
	Stdin         io.Reader
	ReadClipboard func() (string, error)
}

func NewReader(stdin io.Reader) *Reader {
	return &Reader{Stdin: stdin, ReadClipboard: clipboard.ReadAll}
}

// Read returns the raw text of src: "-" is stdin, "clipboard" is the system
// clipboard, anything else is a file path.
func (r *Reader) Read(src string) ([]byte, error) {
	switch src {
	case "", "-":
		return io.ReadAll(r.Stdin)
	case Clipboard:
		text, err := r.ReadClipboard()
		if err != nil {
			return nil, fmt.Errorf("read clipboard: %w", err)
		}
		return []byte(text), nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

// Descriptors reads src and splits it into descriptors. A top-level array
// yields one descriptor per element.
func (r *Reader) Descriptors(src string) ([]document.Value, error) {
	data, err := r.Read(src)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, ErrEmpty
	}
	return Split(data)
}

func Split(data []byte) ([]document.Value, error) {
	desc, err := document.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse descriptor: %w", err)
	}
	descs := []document.Value{desc}
	if desc.Kind() == document.KindArray {
		descs = desc.Items()
	}
	if len(descs) == 0 {
		return nil, ErrEmpty
	}
	return descs, nil
}
