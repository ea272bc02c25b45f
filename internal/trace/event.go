package trace

import (
	"fmt"
	"strings"
)

// Kind classifies an Event.
type Kind string

const (
	// KindOp is a runtime operation issued by a scenario step.
	KindOp Kind = "op"

	// KindDestroyed is a destructor firing.
	KindDestroyed Kind = "destroyed"

	// KindViolation is a recovered contract violation.
	KindViolation Kind = "violation"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindOp, KindDestroyed, KindViolation:
		return true
	}
	return false
}

// ParseKind converts a string to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown event kind %q", s)
	}
	return k, nil
}

// Event is one entry of a run trace.
//
// Target and Object hold scenario names, not runtime ids, so traces stay
// stable across runs. Empty fields are omitted from the canonical form.
type Event struct {
	Seq    int64  `json:"seq"`
	Kind   Kind   `json:"kind"`
	Op     string `json:"op,omitempty"`
	Target string `json:"target,omitempty"`
	Object string `json:"object,omitempty"`
	Result string `json:"result,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Fields returns the canonical field map of e.
func (e Event) Fields() map[string]any {
	m := map[string]any{
		"seq":  e.Seq,
		"kind": string(e.Kind),
	}
	for k, v := range map[string]string{
		"op":     e.Op,
		"target": e.Target,
		"object": e.Object,
		"result": e.Result,
		"detail": e.Detail,
	} {
		if v != "" {
			m[k] = v
		}
	}
	return m
}

// Canonical returns the canonical JSON encoding of e.
func (e Event) Canonical() ([]byte, error) {
	data, err := MarshalCanonical(e.Fields())
	if err != nil {
		return nil, fmt.Errorf("event %d: %w", e.Seq, err)
	}
	return data, nil
}

// String renders e as a single human-readable line.
func (e Event) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%4d %-9s", e.Seq, e.Kind)
	for _, part := range []string{e.Op, e.Target, e.Object} {
		if part != "" {
			b.WriteByte(' ')
			b.WriteString(part)
		}
	}
	if e.Result != "" {
		b.WriteString(" -> ")
		b.WriteString(e.Result)
	}
	if e.Detail != "" {
		b.WriteString(" (")
		b.WriteString(e.Detail)
		b.WriteByte(')')
	}
	return b.String()
}
