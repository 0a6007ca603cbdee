// Package mathfmt rewrites LaTeX math delimiters in model output so the chat
// page renders inline math the same way as block math.
package mathfmt

import "strings"

// Normalize converts single-dollar math spans to double-dollar form, line by
// line. Lines that already contain "$$" are passed through untouched, and
// escaped dollars ("\$") are never treated as delimiters.
//
// A line with an odd number of unescaped dollars has an unterminated span;
// such lines are rewritten best-effort rather than rejected, matching how the
// rendering layer copes with them.
func Normalize(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, normalizeLine(line))
	}
	return strings.Join(out, "\n")
}

func normalizeLine(line string) string {
	if strings.Contains(line, "$$") {
		return line
	}
	if !strings.Contains(line, "$") {
		return line
	}

	var b strings.Builder
	b.Grow(len(line) + 8)
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c == '$' && (i == 0 || line[i-1] != '\\') {
			// Both the opening and closing delimiter become the block
			// marker.
			b.WriteString("$$")
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
