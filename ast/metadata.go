package ast

// The helpers in this file never modify the slice they are given. Callers rewriting an
// entry assign the returned slice to the new entry.

// Lookup returns the value stored under key, if any.
func Lookup(md []*Metadata, key string) (*MetadataValue, bool) {
	for _, m := range md {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Has reports whether key is present.
func Has(md []*Metadata, key string) bool {
	_, ok := Lookup(md, key)
	return ok
}

// LookupAmount returns the amount stored under key. It reports false when the key is
// absent or holds something other than an amount.
func LookupAmount(md []*Metadata, key string) (*Amount, bool) {
	v, ok := Lookup(md, key)
	if !ok || v == nil || v.Amount == nil {
		return nil, false
	}
	return v.Amount, true
}

// LookupText returns the textual form of the value stored under key.
func LookupText(md []*Metadata, key string) (string, bool) {
	v, ok := Lookup(md, key)
	if !ok {
		return "", false
	}
	return v.Text(), true
}

// LookupDate returns the date stored under key.
func LookupDate(md []*Metadata, key string) (*Date, bool) {
	v, ok := Lookup(md, key)
	if !ok || v == nil || v.Date == nil {
		return nil, false
	}
	return v.Date, true
}

// Without returns a copy of md with the given keys removed. A nil slice is returned when
// nothing is left.
func Without(md []*Metadata, keys ...string) []*Metadata {
	var out []*Metadata
	for _, m := range md {
		if containsKey(keys, m.Key) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// With returns a copy of md where key holds value. An existing key keeps its position.
func With(md []*Metadata, key string, value *MetadataValue) []*Metadata {
	out := make([]*Metadata, 0, len(md)+1)
	replaced := false
	for _, m := range md {
		if m.Key == key {
			out = append(out, &Metadata{Key: key, Value: value})
			replaced = true
			continue
		}
		out = append(out, m)
	}
	if !replaced {
		out = append(out, &Metadata{Key: key, Value: value})
	}
	return out
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
