package vectordb

import (
	"fmt"
	"strconv"
	"strings"
)

// normalizeString coerces any scalar field value to a trimmed string.
func normalizeString(raw interface{}) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case []byte:
		return strings.TrimSpace(string(v))
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// normalizeInt coerces a scalar field value to an int. Ingest runs have
// stored class_level and page as int64, int32, float64 and string at various
// times; anything unparseable becomes zero.
func normalizeInt(raw interface{}) int {
	switch v := raw.(type) {
	case nil:
		return 0
	case int:
		return v
	case int8:
		return int(v)
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float32:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
