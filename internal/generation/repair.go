package generation

import (
	"encoding/json"
	"strings"
)

// Repair recovers a syntactically valid JSON document from the raw text
// of a generation call that was truncated mid-token. Valid input is
// returned unchanged (modulo surrounding whitespace). Otherwise the
// intended shape is read from the first byte, and progressively shorter
// prefixes are tried from the end of the text toward the start, closing
// the outer bracket and dropping a dangling comma where needed; the
// first prefix that parses wins, so the result is the largest valid
// prefix substructure. When nothing parses the minimal empty document
// for the detected shape is returned. Repair only undoes truncation; it
// never rewrites content, and it is idempotent.
func Repair(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "{}"
	}
	if json.Valid([]byte(s)) {
		return s
	}
	var closer string
	switch s[0] {
	case '{':
		closer = "}"
	case '[':
		closer = "]"
	default:
		return "{}"
	}
	for i := len(s) - 1; i > 0; i-- {
		prefix := s[:i+1]
		if json.Valid([]byte(prefix)) {
			return prefix
		}
		// The prefix may end just after a complete element; closing the
		// outer bracket (after stripping a trailing comma) recovers it.
		trimmed := strings.TrimRight(prefix, ", \t\r\n")
		if trimmed == "" {
			break
		}
		if candidate := trimmed + closer; json.Valid([]byte(candidate)) {
			return candidate
		}
	}
	if closer == "]" {
		return "[]"
	}
	return "{}"
}
