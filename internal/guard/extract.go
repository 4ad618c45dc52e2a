package guard

import (
	"encoding/json"
	"strings"

	"skillgap-ai/internal/domain/entity"
)

const fence = "```"

// ExtractJSON recovers a JSON object from model output that may be wrapped in
// markdown fences or surrounded by prose. It returns a single PARSE_ERROR
// when no valid object can be found.
func ExtractJSON(raw string) (string, error) {
	s := strings.TrimSpace(stripFences(raw))
	if s == "" {
		return "", parseError("empty model output", raw)
	}
	if json.Valid([]byte(s)) && strings.HasPrefix(s, "{") {
		return s, nil
	}

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", parseError("no JSON object in model output", raw)
	}
	if end := balancedEnd(s, start); end > start {
		if candidate := s[start : end+1]; json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}
	if end := strings.LastIndexByte(s, '}'); end > start {
		if candidate := s[start : end+1]; json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}
	return "", parseError("model output is not valid JSON", raw)
}

// stripFences returns the body of the first fenced block, or s unchanged.
func stripFences(s string) string {
	open := strings.Index(s, fence)
	if open < 0 {
		return s
	}
	body := s[open+len(fence):]
	// Drop the info string (```json).
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.ContainsAny(body[:nl], "{[") {
		body = body[nl+1:]
	}
	if end := strings.Index(body, fence); end >= 0 {
		body = body[:end]
	}
	return body
}

// balancedEnd returns the index of the brace closing the object opened at
// start, skipping braces inside string literals, or -1.
func balancedEnd(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
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
				return i
			}
		}
	}
	return -1
}

func parseError(msg, raw string) *entity.ServiceError {
	return entity.NewServiceError(entity.CodeParse, msg).
		WithDetail("output_preview", preview(raw))
}

func preview(raw string) string {
	const max = 120
	r := []rune(MaskSecrets(raw))
	if len(r) <= max {
		return string(r)
	}
	return string(r[:max]) + "…"
}
