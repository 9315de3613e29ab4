package jsonrepair

import (
	"regexp"
	"strings"
	"unicode"
)

// FenceStep keeps only the body of the first markdown code fence.
type FenceStep struct{}

var fenceRe = regexp.MustCompile("(?s)```[a-zA-Z0-9_-]*[ \t]*\r?\n?(.*?)```")

func (FenceStep) Name() string { return "fence" }

func (FenceStep) Rewrite(text string) (string, bool) {
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	// An unterminated fence usually means the reply was cut off.
	if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+3:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			return rest[nl+1:], true
		}
	}
	return text, false
}

// CommentStep removes // line comments and /* */ block comments that
// appear outside double-quoted strings. Prose before the first { or [ is
// left alone, so a URL in a lead-in sentence survives for the span step.
type CommentStep struct{}

func (CommentStep) Name() string { return "comments" }

func (CommentStep) Rewrite(text string) (string, bool) {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return text, false
	}
	prefix, body := text[:start], text[start:]
	if !strings.Contains(body, "//") && !strings.Contains(body, "/*") {
		return text, false
	}
	out, changed := stripComments(body)
	return prefix + out, changed
}

func stripComments(text string) (string, bool) {
	var b strings.Builder
	b.Grow(len(text))
	changed := false
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			b.WriteByte(c)
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
		if c == '"' {
			inString = true
			b.WriteByte(c)
			continue
		}
		if c == '/' && i+1 < len(text) {
			switch text[i+1] {
			case '/':
				changed = true
				for i < len(text) && text[i] != '\n' {
					i++
				}
				if i < len(text) {
					b.WriteByte('\n')
				}
				continue
			case '*':
				changed = true
				end := strings.Index(text[i+2:], "*/")
				if end < 0 {
					i = len(text)
				} else {
					i += 2 + end + 1
				}
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String(), changed
}

// SpanStep extracts the first balanced {...} or [...] span. Brackets inside
// double-quoted strings are ignored. An unbalanced span runs to the end of
// the text so the literal step can still try to repair it.
type SpanStep struct{}

func (SpanStep) Name() string { return "span" }

func (SpanStep) Rewrite(text string) (string, bool) {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return text, false
	}

	var stack []byte
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
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
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				continue
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				span := text[start : i+1]
				return span, span != text
			}
		}
	}
	span := text[start:]
	return span, span != text
}

// LiteralStep applies lenient fixes for common non-JSON output:
// Python literals (None, True, False), single-quoted strings, trailing
// commas and raw control characters inside strings.
type LiteralStep struct{}

func (LiteralStep) Name() string { return "literals" }

var pyLiterals = map[string]string{
	"None":  "null",
	"True":  "true",
	"False": "false",
}

func (LiteralStep) Rewrite(text string) (string, bool) {
	var b strings.Builder
	b.Grow(len(text) + 16)

	runes := []rune(text)
	var quote rune // 0 when outside a string
	escaped := false

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if quote != 0 {
			switch {
			case escaped:
				escaped = false
				// \' is not a JSON escape in either quote style.
				if r == '\'' {
					b.WriteRune('\'')
					continue
				}
				b.WriteRune('\\')
				b.WriteRune(r)
			case r == '\\':
				escaped = true
			case r == quote:
				quote = 0
				b.WriteRune('"')
			case r == '"':
				// Only reachable inside single-quoted strings.
				b.WriteString(`\"`)
			case r == '\n':
				b.WriteString(`\n`)
			case r == '\r':
				b.WriteString(`\r`)
			case r == '\t':
				b.WriteString(`\t`)
			default:
				b.WriteRune(r)
			}
			continue
		}

		switch {
		case r == '"' || r == '\'':
			quote = r
			b.WriteRune('"')
		case r == ',':
			j := i + 1
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			if j < len(runes) && (runes[j] == ']' || runes[j] == '}') {
				continue
			}
			b.WriteRune(r)
		case unicode.IsLetter(r):
			j := i
			for j < len(runes) && (unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j]) || runes[j] == '_') {
				j++
			}
			word := string(runes[i:j])
			if lit, ok := pyLiterals[word]; ok {
				b.WriteString(lit)
			} else {
				b.WriteString(word)
			}
			i = j - 1
		default:
			b.WriteRune(r)
		}
	}

	out := b.String()
	return out, out != text
}
