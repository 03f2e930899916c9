package planner

import "strings"

// ExtractObject returns the first balanced {...} fragment of text.
// Generator output is not trusted to be clean structured data, so this is
// a best-effort extraction: it tracks brace depth and JSON string state
// and reports ok=false when no balanced object exists.
func ExtractObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		ch := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}

	return "", false
}

// StripFences removes surrounding markdown code-fence markers from text.
// The generator is instructed not to emit fences; this cleans up when it
// does anyway.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "```sql", "")
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}
