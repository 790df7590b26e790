package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/knadh/koanf/v2"
)

// Store is the read-only view of the declarative configuration
type Store interface {
	GetString(path string) (string, bool)
	GetStringArray(path string) ([]string, bool)
	GetStringMap(path string) (map[string]string, bool)
}

// KoanfStore implements Store over a loaded koanf instance
type KoanfStore struct {
	k   *koanf.Koanf
	raw map[string]interface{}
}

func newKoanfStore(k *koanf.Koanf) *KoanfStore {
	return &KoanfStore{k: k, raw: k.Raw()}
}

// Koanf exposes the underlying instance for unmarshalling sections
func (s *KoanfStore) Koanf() *koanf.Koanf {
	return s.k
}

// GetString returns the scalar at path rendered as a string
func (s *KoanfStore) GetString(path string) (string, bool) {
	v, ok := s.lookup(path)
	if !ok {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return val, true
	case map[string]interface{}, []interface{}:
		return "", false
	default:
		return fmt.Sprint(val), true
	}
}

// GetStringArray returns the array at path. A scalar is returned as a single element.
func (s *KoanfStore) GetStringArray(path string) ([]string, bool) {
	v, ok := s.lookup(path)
	if !ok {
		return nil, false
	}
	switch val := v.(type) {
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, fmt.Sprint(item))
		}
		return out, true
	case []string:
		return append([]string(nil), val...), true
	case map[string]interface{}:
		return nil, false
	default:
		return []string{fmt.Sprint(val)}, true
	}
}

// GetStringMap returns the scalar children of the table at path
func (s *KoanfStore) GetStringMap(path string) (map[string]string, bool) {
	v, ok := s.lookup(path)
	if !ok {
		return nil, false
	}
	table, ok := v.(map[string]interface{})
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(table))
	for key, item := range table {
		switch item.(type) {
		case map[string]interface{}, []interface{}:
			continue
		}
		out[key] = fmt.Sprint(item)
	}
	return out, true
}

func (s *KoanfStore) lookup(path string) (interface{}, bool) {
	segments, err := SplitKey(path)
	if err != nil || len(segments) == 0 {
		return nil, false
	}

	var current interface{} = s.raw
	for _, segment := range segments {
		table, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = table[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Key joins segments into a store path, quoting any segment that contains
// a dot, a quote or whitespace.
func Key(segments ...string) string {
	parts := make([]string, len(segments))
	for i, segment := range segments {
		if strings.ContainsAny(segment, ". \t\"") || segment == "" {
			parts[i] = `"` + strings.ReplaceAll(segment, `"`, `\"`) + `"`
			continue
		}
		parts[i] = segment
	}
	return strings.Join(parts, ".")
}

// SplitKey is the inverse of Key
func SplitKey(path string) ([]string, error) {
	var (
		segments []string
		current  strings.Builder
		quoted   bool
		wasQuote bool
	)

	for i := 0; i < len(path); i++ {
		c := path[i]
		switch {
		case quoted && c == '\\' && i+1 < len(path) && path[i+1] == '"':
			current.WriteByte('"')
			i++
		case c == '"':
			quoted = !quoted
			wasQuote = true
		case c == '.' && !quoted:
			if current.Len() == 0 && !wasQuote {
				return nil, fmt.Errorf("empty segment in key %q", path)
			}
			segments = append(segments, current.String())
			current.Reset()
			wasQuote = false
		default:
			current.WriteByte(c)
		}
	}

	if quoted {
		return nil, fmt.Errorf("unterminated quote in key %q", path)
	}
	if current.Len() == 0 && !wasQuote {
		return nil, fmt.Errorf("empty segment in key %q", path)
	}
	return append(segments, current.String()), nil
}

// SortedKeys returns the keys of m in lexical order
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
