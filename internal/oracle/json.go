package oracle

// Models frequently wrap their JSON answer in commentary or code fences.
// firstJSONObject/firstJSONArray locate the first balanced object or array
// substring, tracking string literals and escapes so braces inside strings
// don't terminate the scan early.

func firstJSONObject(s string) (string, bool) {
	return firstBalanced(s, '{', '}')
}

func firstJSONArray(s string) (string, bool) {
	return firstBalanced(s, '[', ']')
}

func firstBalanced(s string, open, close byte) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if start == -1 {
			if ch == open {
				start = i
				depth = 1
			}
			continue
		}

		if escaped {
			escaped = false
			continue
		}
		switch {
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
			// string contents are opaque
		case ch == open:
			depth++
		case ch == close:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
