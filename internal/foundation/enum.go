// Package foundation holds small generic helpers shared by the config and
// CLI layers.
package foundation

import (
	"fmt"
	"sort"
	"strings"
)

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Normalizer maps the spellings users type onto enum values.
type Normalizer[T comparable] struct {
	values map[string]T
	names  []string
}

// NewNormalizer creates a normalizer from name->value pairs. Names are
// matched case-insensitively and ignoring surrounding whitespace.
func NewNormalizer[T comparable](values map[string]T) *Normalizer[T] {
	n := &Normalizer[T]{values: make(map[string]T, len(values))}
	for k, v := range values {
		key := normalizeKey(k)
		n.values[key] = v
		n.names = append(n.names, key)
	}
	sort.Strings(n.names)
	return n
}

// Normalize returns the value for raw and whether it was recognized.
func (n *Normalizer[T]) Normalize(raw string) (T, bool) {
	v, ok := n.values[normalizeKey(raw)]
	return v, ok
}

// Parse is Normalize with an error naming the accepted values.
func (n *Normalizer[T]) Parse(raw string) (T, error) {
	if v, ok := n.Normalize(raw); ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid value %q (want %s)", raw, n.want())
}

// Names returns the accepted names in sorted order.
func (n *Normalizer[T]) Names() []string {
	return append([]string(nil), n.names...)
}

func (n *Normalizer[T]) want() string {
	switch len(n.names) {
	case 0:
		return "nothing"
	case 1:
		return n.names[0]
	default:
		return strings.Join(n.names[:len(n.names)-1], ", ") + " or " + n.names[len(n.names)-1]
	}
}
