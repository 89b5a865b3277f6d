package types

import "strings"

// LocalizedText maps a language code ("en", "de", ...) to a string.
type LocalizedText map[string]string

// Get returns the text for lang, falling back to "en" and then to any
// available language.
func (t LocalizedText) Get(lang string) string {
	if len(t) == 0 {
		return ""
	}
	if v, ok := t[strings.ToLower(strings.TrimSpace(lang))]; ok {
		return v
	}
	if v, ok := t["en"]; ok {
		return v
	}
	for _, v := range t {
		return v
	}
	return ""
}

// IsEmpty reports whether no language carries a non-empty value.
func (t LocalizedText) IsEmpty() bool {
	for _, v := range t {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Clone returns a shallow copy so callers can mutate without aliasing.
func (t LocalizedText) Clone() LocalizedText {
	if t == nil {
		return nil
	}
	out := make(LocalizedText, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}
