package generation

import "strings"

// ExtractJSONBlock finds the first balanced JSON array or object embedded in
// free-form model output. Models frequently wrap JSON in prose or code fences,
// so callers should run responses through this before unmarshalling.
//
// Returns the block and true, or the empty string and false when no balanced
// block exists.
func ExtractJSONBlock(s string) (string, bool) {
	for i := 0; i < len(s); i++ {
		var opener, closer byte
		switch s[i] {
		case '[':
			opener, closer = '[', ']'
		case '{':
			opener, closer = '{', '}'
		default:
			continue
		}

		depth := 0
		inString := false
		escaped := false
		for j := i; j < len(s); j++ {
			c := s[j]
			if inString {
				switch {
				case escaped:
					escaped = false
				case c == '\\':
					escaped = true
				case c == '"':
					inString = false
				}
				continue
			}
			switch c {
			case '"':
				inString = true
			case opener:
				depth++
			case closer:
				depth--
				if depth == 0 {
					return strings.TrimSpace(s[i : j+1]), true
				}
			}
		}
	}
	return "", false
}
