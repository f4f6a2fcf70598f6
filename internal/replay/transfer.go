package replay

import (
	"fmt"

	"actionlog/internal/action"
	"actionlog/internal/document"
)

const (
	// Indent matches the indentation of copied snippets.
	Indent = "   "

	DefaultCapability = "PhotoshopAction.batchPlay"
)

// Template wraps a pretty-printed descriptor into an invocation of the host
// capability, ready to paste into a script.
type Template struct {
	Capability string
}

func (t Template) Decorate(doc string) string {
	capability := t.Capability
	if capability == "" {
		capability = DefaultCapability
	}
	return fmt.Sprintf("await %s([\n%s\n], {})", capability, doc)
}

// EncodeForTransfer renders a descriptor for copying with the default
// capability name.
func EncodeForTransfer(descriptor document.Value, decorate bool) (string, error) {
	return Template{}.Encode(descriptor, decorate)
}

// Encode pretty-prints the descriptor in document order and, when decorate
// is set, wraps it in the invocation template.
func (t Template) Encode(descriptor document.Value, decorate bool) (string, error) {
	doc, err := document.Indent(descriptor, Indent)
	if err != nil {
		return "", fmt.Errorf("encode descriptor: %w", err)
	}
	if !decorate {
		return doc, nil
	}
	return t.Decorate(doc), nil
}

// RenderReplies pretty-prints the first result document of every reply, in
// replay order. It returns "" when the entry was never replayed.
func RenderReplies(entry action.Entry) (string, error) {
	if len(entry.PlayReplies) == 0 {
		return "", nil
	}
	firsts := make([]document.Value, len(entry.PlayReplies))
	for i, r := range entry.PlayReplies {
		if len(r.Descriptors) > 0 {
			firsts[i] = r.Descriptors[0]
		}
	}
	return document.Indent(document.Array(firsts...), Indent)
}
