package extract

import "strings"

// CleanJSON extracts a JSON object from model output, handling explanatory
// text before or after the object and markdown code fences around it.
func CleanJSON(s string) string {
	s = strings.TrimSpace(s)

	// A bare object may itself contain fences inside string values.
	if strings.HasPrefix(s, "{") {
		if end := strings.LastIndex(s, "}"); end != -1 {
			return s[:end+1]
		}
		return s
	}

	if idx := strings.Index(s, "```json"); idx != -1 {
		s = s[idx+7:]
		if endIdx := strings.LastIndex(s, "```"); endIdx != -1 {
			s = s[:endIdx]
		}
		return strings.TrimSpace(s)
	}
	if idx := strings.Index(s, "```"); idx != -1 {
		s = s[idx+3:]
		// Skip an optional language identifier on the fence line.
		if nlIdx := strings.Index(s, "\n"); nlIdx != -1 && nlIdx < 20 {
			s = s[nlIdx+1:]
		}
		if endIdx := strings.LastIndex(s, "```"); endIdx != -1 {
			s = s[:endIdx]
		}
		return strings.TrimSpace(s)
	}

	// Look for '{"' to avoid matching braces in prose like "{see below}".
	start := strings.Index(s, `{"`)
	if start == -1 {
		start = strings.Index(s, "{")
	}
	end := strings.LastIndex(s, "}")
	if start != -1 && end != -1 && end > start {
		return s[start : end+1]
	}

	return s
}
