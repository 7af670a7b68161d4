package update

import (
	"strings"
)

func levelFromError(isErr bool) string {
	if isErr {
		return "error"
	}
	return "info"
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

// splitTags accepts "a b", "a,b" and "#a #b".
func splitTags(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimPrefix(f, "#")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
