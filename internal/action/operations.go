package action

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"actionlog/internal/document"
)

var (
	ErrNoOracle     = errors.New("no existence oracle configured")
	ErrUnknownScope = errors.New("unknown scope")
)

// IDSet is a caller-supplied set of entry ids, such as the entries currently
// in view or the current selection.
type IDSet map[int]struct{}

func NewIDSet(ids ...int) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Has(id int) bool {
	_, ok := s[id]
	return ok
}

// Oracle reports whether the resource a descriptor refers to still exists in
// the host.
type Oracle interface {
	Exists(ctx context.Context, descriptor document.Value) (bool, error)
}

type OracleFunc func(ctx context.Context, descriptor document.Value) (bool, error)

func (f OracleFunc) Exists(ctx context.Context, descriptor document.Value) (bool, error) {
	return f(ctx, descriptor)
}

// Scope selects which entries a clear removes.
type Scope string

const (
	ScopeAll         Scope = "all"
	ScopeInView      Scope = "inView"
	ScopeNotInView   Scope = "notInView"
	ScopeNonExistent Scope = "nonExistent"
)

// ParseScope accepts both the camel-case names and their kebab-case spellings.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.ReplaceAll(s, "-", "")) {
	case "all":
		return ScopeAll, nil
	case "inview":
		return ScopeInView, nil
	case "notinview":
		return ScopeNotInView, nil
	case "nonexistent":
		return ScopeNonExistent, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownScope, s)
}

// ClearOptions carries the inputs a scope may need.
type ClearOptions struct {
	View   IDSet
	Oracle Oracle
	Logger *slog.Logger
}

// Clear removes the entries selected by scope. Survivors keep their order.
// It returns the remaining collection and the number of removed entries; on
// error the input collection is returned unchanged.
func Clear(ctx context.Context, c Collection, scope Scope, opts ClearOptions) (Collection, int, error) {
	switch scope {
	case ScopeAll:
		next, n := ClearAll(c)
		return next, n, nil
	case ScopeInView:
		next, n := ClearInView(c, opts.View)
		return next, n, nil
	case ScopeNotInView:
		next, n := ClearNotInView(c, opts.View)
		return next, n, nil
	case ScopeNonExistent:
		return ClearNonExistent(ctx, c, opts.Oracle, opts.Logger)
	}
	return c, 0, fmt.Errorf("%w %q", ErrUnknownScope, scope)
}

func ClearAll(c Collection) (Collection, int) {
	return Collection{}, c.Len()
}

func ClearInView(c Collection, view IDSet) (Collection, int) {
	return c.filter(func(e Entry) bool { return !view.Has(e.ID) })
}

func ClearNotInView(c Collection, view IDSet) (Collection, int) {
	return c.filter(func(e Entry) bool { return view.Has(e.ID) })
}

// ClearNonExistent removes entries the oracle reports as gone. Entries whose
// status cannot be determined are kept.
func ClearNonExistent(ctx context.Context, c Collection, oracle Oracle, logger *slog.Logger) (Collection, int, error) {
	gone, err := NonExistent(ctx, c, oracle, logger)
	if err != nil {
		return c, 0, err
	}
	next, n := c.filter(func(e Entry) bool { return !gone.Has(e.ID) })
	return next, n, nil
}

// NonExistent asks the oracle about every entry once and returns the ids it
// answered false for. Oracle failures count as unknown.
func NonExistent(ctx context.Context, c Collection, oracle Oracle, logger *slog.Logger) (IDSet, error) {
	if oracle == nil {
		return nil, ErrNoOracle
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	gone := NewIDSet()
	for _, e := range c.entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		exists, err := oracle.Exists(ctx, e.Descriptor)
		if err != nil {
			logger.Warn("existence check failed, keeping entry", "id", e.ID, "error", err)
			continue
		}
		if !exists {
			gone[e.ID] = struct{}{}
		}
	}
	return gone, nil
}

// ExportScope selects which entries an item export writes.
type ExportScope string

const (
	ExportAll      ExportScope = "all"
	ExportSelected ExportScope = "selected"
)

// Select returns the entries an export of the given scope covers, in log
// order. It never modifies c.
func Select(c Collection, scope ExportScope, selected IDSet) ([]Entry, error) {
	switch scope {
	case ExportAll:
		return c.Entries(), nil
	case ExportSelected:
		kept, _ := c.filter(func(e Entry) bool { return selected.Has(e.ID) })
		return kept.entries, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownScope, scope)
}

// ImportKind decides how imported items combine with the current log.
type ImportKind string

const (
	ImportAppend  ImportKind = "append"
	ImportReplace ImportKind = "replace"
)

func ParseImportKind(s string) (ImportKind, error) {
	switch ImportKind(strings.ToLower(s)) {
	case ImportAppend:
		return ImportAppend, nil
	case ImportReplace:
		return ImportReplace, nil
	}
	return "", fmt.Errorf("unknown import kind %q", s)
}

// Merge combines imported entries with the existing log.
//
// Replace adopts the imported entries verbatim and fails on duplicate ids.
// Append keeps existing entries and appends the imported ones; an imported
// id that collides with an id already in the log (or repeated within the
// import) is renumbered past the current maximum. The returned map records
// renumberings as old id -> new id; for an id repeated within the import the
// last renumbering wins.
func Merge(existing Collection, imported []Entry, kind ImportKind) (Collection, map[int]int, error) {
	switch kind {
	case ImportReplace:
		c, err := NewCollection(imported...)
		if err != nil {
			return existing, nil, err
		}
		return c, map[int]int{}, nil
	case ImportAppend:
		next := existing.Entries()
		used := NewIDSet(existing.IDs()...)
		nextID := existing.NextID()
		for _, e := range imported {
			if e.ID >= nextID {
				nextID = e.ID + 1
			}
		}

		renumbered := make(map[int]int)
		for _, e := range imported {
			e = cloneEntry(e)
			if used.Has(e.ID) {
				renumbered[e.ID] = nextID
				e.ID = nextID
				nextID++
			}
			used[e.ID] = struct{}{}
			next = append(next, e)
		}
		return Collection{entries: next}, renumbered, nil
	}
	return existing, nil, fmt.Errorf("unknown import kind %q", kind)
}
