package registry

// Args is the parameter mapping of a single tool call. Values arrive as
// decoded JSON, so numbers are float64 unless a handler put something else
// there (defaults keep their declared Go type).
type Args map[string]any

// Has returns true if the key is present, regardless of its value.
func (a Args) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// String returns the value for key as a string, or def when absent or not
// a string.
func (a Args) String(key, def string) string {
	if v, ok := a[key].(string); ok {
		return v
	}
	return def
}

// Bool returns the value for key as a bool, or def when absent or not a bool.
func (a Args) Bool(key string, def bool) bool {
	if v, ok := a[key].(bool); ok {
		return v
	}
	return def
}

// Int returns the value for key as an int, accepting the numeric types JSON
// decoding produces. Returns def when absent or not numeric.
func (a Args) Int(key string, def int) int {
	switch v := a[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return def
	}
}
