package logging

import (
	"io"
	"regexp"
)

// Pattern defines a redaction pattern with a name and regular expression.
// Replacement may reference capture groups.
type Pattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
}

// assignment matches `<name>=value`, `<name>: value` and the JSON form
// `"<name>":"value"`, keeping everything up to the value intact. A value
// opening with '[' is left to list.
func assignment(name string) Pattern {
	return Pattern{
		Name:        name,
		Regex:       regexp.MustCompile(`(?i)(` + name + `["\s]*[:=]["\s]*)[^"\s\[]+`),
		Replacement: "${1}***",
	}
}

// list matches the JSON array form `"<name>":["a","b"]` that zerolog
// emits for url.Values and string slices. The whole array is replaced by
// a single masked element so the line stays valid JSON.
func list(name string) Pattern {
	return Pattern{
		Name:        name + "_list",
		Regex:       regexp.MustCompile(`(?i)(` + name + `"\s*:\s*)\[(?:[^\]"]|"(?:[^"\\]|\\.)*")*\]`),
		Replacement: `${1}["***"]`,
	}
}

// StandardPatterns returns the default set of redaction patterns.
func StandardPatterns() []Pattern {
	return []Pattern{
		list("client_secret"),
		list("token"),
		list("password"),
		list("secret"),
		list("key"),
		assignment("client_secret"),
		assignment("token"),
		assignment("password"),
		assignment("secret"),
		assignment("key"),
		{
			Name:        "authorization_header",
			Regex:       regexp.MustCompile(`(?i)(Authorization:\s*(?:Bearer|Token)\s+)[^\s"]+`),
			Replacement: "${1}***",
		},
	}
}

// Redact applies every pattern to s in order.
func Redact(s string, patterns ...Pattern) string {
	for _, p := range patterns {
		s = p.Regex.ReplaceAllString(s, p.Replacement)
	}
	return s
}

// RedactingWriter masks credentials in each log line before handing it
// to the wrapped writer.
type RedactingWriter struct {
	out      io.Writer
	patterns []Pattern
}

// NewRedactingWriter wraps out. With no patterns the writer is a passthrough.
func NewRedactingWriter(out io.Writer, patterns ...Pattern) *RedactingWriter {
	return &RedactingWriter{out: out, patterns: patterns}
}

// Write redacts p and writes the result. It reports len(p) on success so
// callers never see a short write caused by a changed line length.
func (w *RedactingWriter) Write(p []byte) (int, error) {
	if len(w.patterns) == 0 {
		return w.out.Write(p)
	}
	if _, err := io.WriteString(w.out, Redact(string(p), w.patterns...)); err != nil {
		return 0, err
	}
	return len(p), nil
}
