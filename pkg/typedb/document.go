package typedb

import (
	"sort"
	"time"
)

// Document is one answer of a fetch query: attribute names mapped to plain
// JSON values, with no references back into the graph.
type Document map[string]any

// timeLayouts covers the datetime renderings the server emits.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	datetimeLayout,
	"2006-01-02T15:04:05.000",
	"2006-01-02",
}

// SortedKeys returns the document's keys in deterministic order.
func (d Document) SortedKeys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String returns the value at key as a string, or "" when absent.
func (d Document) String(key string) string {
	if s, ok := d[key].(string); ok {
		return s
	}
	return ""
}

// StringPtr returns the value at key, or nil when the attribute is absent.
func (d Document) StringPtr(key string) *string {
	if s, ok := d[key].(string); ok {
		return &s
	}
	return nil
}

// Bool returns the value at key as a bool, defaulting to false.
func (d Document) Bool(key string) bool {
	b, _ := d[key].(bool)
	return b
}

// BoolPtr returns the value at key, or nil when the attribute is absent.
func (d Document) BoolPtr(key string) *bool {
	if b, ok := d[key].(bool); ok {
		return &b
	}
	return nil
}

// Int returns the value at key as an int. JSON numbers decode as float64.
func (d Document) Int(key string) int {
	switch v := d[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// IntPtr returns the value at key, or nil when the attribute is absent.
func (d Document) IntPtr(key string) *int {
	if _, ok := d[key]; !ok {
		return nil
	}
	n := d.Int(key)
	return &n
}

// Time parses the value at key as a timestamp, returning the zero time when
// absent or unparseable.
func (d Document) Time(key string) time.Time {
	if t := d.TimePtr(key); t != nil {
		return *t
	}
	return time.Time{}
}

// TimePtr parses the value at key, or returns nil when absent.
func (d Document) TimePtr(key string) *time.Time {
	s, ok := d[key].(string)
	if !ok {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// Strings returns the value at key as a string slice.
func (d Document) Strings(key string) []string {
	raw, ok := d[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Doc returns a nested document at key.
func (d Document) Doc(key string) Document {
	switch v := d[key].(type) {
	case map[string]any:
		return Document(v)
	case Document:
		return v
	}
	return nil
}

// Docs returns a nested list of documents at key.
func (d Document) Docs(key string) []Document {
	raw, ok := d[key].([]any)
	if !ok {
		return nil
	}
	out := make([]Document, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, Document(m))
		}
	}
	return out
}
