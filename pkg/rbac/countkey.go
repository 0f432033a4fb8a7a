package rbac

import (
	"fmt"
	"strconv"
	"strings"
)

// Count-annotated keys embed an aggregate count as a bracketed integer prefix
// on the label, e.g. "[42]Contributor". The encoding lives only at the
// serialization boundary; in-memory models keep counts as numeric fields.
// Labels must not contain ']' or the encoding is ambiguous. That is a
// documented limitation of the format, not something we repair.

// EncodeCountKey renders a count-annotated key.
func EncodeCountKey(count int, label string) string {
	return fmt.Sprintf("[%d]%s", count, label)
}

// SplitCountKey parses a count-annotated key at the first ']'. Keys without
// the bracket prefix fall back to a count of 0 with the whole string as the
// label, since upstream data may be malformed without being invalid JSON.
func SplitCountKey(key string) (int, string) {
	if !strings.HasPrefix(key, "[") {
		return 0, key
	}

	idx := strings.Index(key, "]")
	if idx < 0 {
		return 0, key
	}

	count, err := strconv.Atoi(key[1:idx])
	if err != nil {
		return 0, key
	}
	return count, key[idx+1:]
}

// CountKeyLabel returns just the label portion of a count-annotated key.
func CountKeyLabel(key string) string {
	_, label := SplitCountKey(key)
	return label
}
