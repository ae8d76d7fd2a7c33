package core

import "strconv"

// itoa converts an integer to a string
func itoa(n int) string {
	return strconv.Itoa(n)
}

// utoa converts an unsigned integer to a string
func utoa(n uint32) string {
	return strconv.FormatUint(uint64(n), 10)
}

// ftoa formats a float with the shortest representation that round-trips
func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// valueToString converts a response field value to its wire representation
// Handles the types used by console responses
func valueToString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return quoteIfNeeded(val)
	case bool:
		if val {
			return "1"
		}
		return "0"
	case int:
		return itoa(val)
	case int32:
		return itoa(int(val))
	case int64:
		return strconv.FormatInt(val, 10)
	case uint8:
		return utoa(uint32(val))
	case uint16:
		return utoa(uint32(val))
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint32:
		return utoa(val)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case float64:
		return ftoa(val)
	default:
		// All response field types should be known
		return ""
	}
}

// quoteIfNeeded wraps s in double quotes when it contains characters
// the console tokenizer would split on
func quoteIfNeeded(s string) string {
	if s == "" {
		return `""`
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '"', '\'', '\\', '#':
			return strconv.Quote(s)
		}
	}
	return s
}
