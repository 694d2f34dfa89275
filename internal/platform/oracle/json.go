package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrNoJSON = errors.New("no json object in completion")

// ExtractJSON returns the first balanced JSON object in raw. Markdown code
// fences and surrounding prose are ignored; braces inside string literals do
// not affect balancing.
func ExtractJSON(raw string) (string, error) {
	text := stripFences(raw)
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", ErrNoJSON
	}

	depth := 0
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
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", ErrNoJSON
}

// DecodeJSON extracts and unmarshals the first JSON object into out.
func DecodeJSON(raw string, out any) error {
	body, err := ExtractJSON(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return fmt.Errorf("decode completion json: %w", err)
	}
	return nil
}

func stripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	open := strings.Index(trimmed, "```")
	if open < 0 {
		return trimmed
	}
	rest := trimmed[open+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	}
	if end := strings.LastIndex(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}
