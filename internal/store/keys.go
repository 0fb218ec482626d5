package store

import (
	"errors"
	"strings"
)

// ErrNotFound is returned by field updates addressed to a missing document.
var ErrNotFound = errors.New("document not found")

// Key addresses a single document.
type Key struct {
	Collection string
	ID         string
}

// Doc builds a document key.
func Doc(collection, id string) Key {
	return Key{Collection: collection, ID: id}
}

func (k Key) String() string {
	return k.Collection + "/" + k.ID
}

// Fields maps dotted field paths to new values. A value of Delete removes
// the field.
type Fields map[string]any

type fieldDelete struct{}

// Delete is the sentinel value that removes a field in an update.
var Delete any = fieldDelete{}

// IsDelete reports whether v is the Delete sentinel.
func IsDelete(v any) bool {
	_, ok := v.(fieldDelete)
	return ok
}

var pathEscaper = strings.NewReplacer(`\`, `\\`, `.`, `\.`, `*`, `\*`, `?`, `\?`)

// FieldPath joins segments into a dotted path, escaping characters that
// would otherwise be read as path syntax.
func FieldPath(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = pathEscaper.Replace(s)
	}
	return strings.Join(escaped, ".")
}

// splitPath splits a dotted path on unescaped dots. Segments keep their
// escapes so they can be rejoined.
func splitPath(path string) []string {
	var segs []string
	start := 0
	for i := 0; i < len(path); i++ {
		switch path[i] {
		case '\\':
			i++
		case '.':
			segs = append(segs, path[start:i])
			start = i + 1
		}
	}
	return append(segs, path[start:])
}
