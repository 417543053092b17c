// Package document defines the in-memory representation of versioned
// document content: a flat, ordered mapping of field name to string value
// (e.g. lean canvas sections plus a title field).
package document

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// TitleField is the reserved field carrying the document's display title.
const TitleField = "title"

// Fields is a flat field-name -> string-value mapping that preserves the
// key order of the JSON object it was parsed from. Order matters: the
// patch engine resolves ambiguous matches in favor of the first field in
// stored order, which must be stable across parse/serialize round trips.
type Fields struct {
	names  []string
	values map[string]string
	// raw marks fields whose value is a non-string JSON literal kept in
	// its raw representation, so serialization does not re-quote it.
	raw map[string]bool
}

// NewFields returns an empty field set.
func NewFields() *Fields {
	return &Fields{values: make(map[string]string), raw: make(map[string]bool)}
}

// ParseFields parses a serialized JSON object into an ordered field set.
// Non-string values are kept in their raw JSON representation so that a
// later serialization does not silently drop them.
func ParseFields(raw string) (*Fields, error) {
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("content is not valid JSON")
	}
	parsed := gjson.Parse(raw)
	if !parsed.IsObject() {
		return nil, fmt.Errorf("content is not a JSON object")
	}

	fields := NewFields()
	parsed.ForEach(func(key, value gjson.Result) bool {
		fields.Set(key.String(), value.String())
		if value.Type != gjson.String {
			fields.values[key.String()] = value.Raw
			fields.raw[key.String()] = true
		}
		return true
	})
	return fields, nil
}

// Get returns the value for a field and whether it exists.
func (f *Fields) Get(name string) (string, bool) {
	v, ok := f.values[name]
	return v, ok
}

// Set stores a string value, appending the field at the end of the order
// if new.
func (f *Fields) Set(name, value string) {
	if _, ok := f.values[name]; !ok {
		f.names = append(f.names, name)
	}
	f.values[name] = value
	delete(f.raw, name)
}

// Names returns the field names in stored order.
func (f *Fields) Names() []string {
	names := make([]string, len(f.names))
	copy(names, f.names)
	return names
}

// Len returns the number of fields.
func (f *Fields) Len() int {
	return len(f.names)
}

// Title returns the title field value, or "" if absent.
func (f *Fields) Title() string {
	v := f.values[TitleField]
	return v
}

// HasTitle reports whether a non-empty title field is present.
func (f *Fields) HasTitle() bool {
	v, ok := f.values[TitleField]
	return ok && v != ""
}

// Clone returns an independent copy with the same order and values.
func (f *Fields) Clone() *Fields {
	clone := &Fields{
		names:  make([]string, len(f.names)),
		values: make(map[string]string, len(f.values)),
		raw:    make(map[string]bool, len(f.raw)),
	}
	copy(clone.names, f.names)
	for k, v := range f.values {
		clone.values[k] = v
	}
	for k := range f.raw {
		clone.raw[k] = true
	}
	return clone
}

// JSON serializes the fields back to a JSON object, preserving order.
func (f *Fields) JSON() (string, error) {
	out := "{}"
	var err error
	for _, name := range f.names {
		if f.raw[name] {
			out, err = sjson.SetRaw(out, escapePath(name), f.values[name])
		} else {
			out, err = sjson.Set(out, escapePath(name), f.values[name])
		}
		if err != nil {
			return "", fmt.Errorf("serialize field %q: %w", name, err)
		}
	}
	return out, nil
}

// escapePath escapes sjson path metacharacters so field names containing
// dots or wildcards are treated literally.
func escapePath(name string) string {
	escaped := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		switch name[i] {
		case '.', '*', '?', '|', '#', '@', '\\':
			escaped = append(escaped, '\\')
		}
		escaped = append(escaped, name[i])
	}
	return string(escaped)
}
