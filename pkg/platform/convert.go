package platform

// toInt64 converts the numeric types a codec may produce to int64.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float32:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

// parseString returns m[key] when it is a string.
func parseString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
