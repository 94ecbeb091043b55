package utils

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// DecodeModelJSON parses JSON produced by a language model into target. The
// model is told to emit a bare JSON object, but replies routinely arrive
// wrapped in markdown fences, surrounded by prose, or with minor syntax
// slips. Decoding is attempted in order of likelihood:
//  1. the input as-is
//  2. the body of a markdown code fence
//  3. the first balanced JSON object or array found in the text
//  4. the input after repairing common model mistakes
func DecodeModelJSON(input string, target interface{}) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return fmt.Errorf("empty input")
	}

	if err := json.Unmarshal([]byte(input), target); err == nil {
		return nil
	}

	if body := fencedBody(input); body != "" {
		if err := json.Unmarshal([]byte(body), target); err == nil {
			return nil
		}
	}

	if body := embeddedJSON(input); body != "" {
		if err := json.Unmarshal([]byte(body), target); err == nil {
			return nil
		}
	}

	if repaired := repairJSON(input); repaired != "" {
		if err := json.Unmarshal([]byte(repaired), target); err == nil {
			return nil
		}
	}

	return fmt.Errorf("no parseable JSON in model output: %s", truncate(input, 100))
}

var (
	fenceTaggedRe = regexp.MustCompile("(?s)```json\\s*(.+?)\\s*```")
	fencePlainRe  = regexp.MustCompile("(?s)```\\s*(.+?)\\s*```")
)

// fencedBody extracts the body of a ```json or bare ``` code fence.
func fencedBody(input string) string {
	if m := fenceTaggedRe.FindStringSubmatch(input); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	if m := fencePlainRe.FindStringSubmatch(input); len(m) > 1 {
		body := strings.TrimSpace(m[1])
		if strings.HasPrefix(body, "{") || strings.HasPrefix(body, "[") {
			return body
		}
	}
	return ""
}

// embeddedJSON finds the first balanced object or array inside free text.
func embeddedJSON(input string) string {
	if start := strings.Index(input, "{"); start >= 0 {
		if body := balancedSlice(input[start:], '{', '}'); body != "" {
			return body
		}
	}
	if start := strings.Index(input, "["); start >= 0 {
		if body := balancedSlice(input[start:], '[', ']'); body != "" {
			return body
		}
	}
	return ""
}

// balancedSlice returns the shortest prefix of input with balanced
// open/close delimiters, skipping delimiters inside string literals.
func balancedSlice(input string, open, close rune) string {
	depth := 0
	inString := false
	escape := false
	start := 0

	for i, ch := range input {
		if escape {
			escape = false
			continue
		}
		switch {
		case ch == '\\':
			escape = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == open:
			if depth == 0 {
				start = i
			}
			depth++
		case ch == close:
			depth--
			if depth == 0 {
				return input[start : i+1]
			}
		}
	}
	return ""
}

var (
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	unquotedKeyRe   = regexp.MustCompile(`([{,]\s*)(\w+)(\s*:)`)
	controlCharRe   = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F]`)
)

// repairJSON fixes the syntax slips models make most often: trailing commas,
// unquoted keys, stray control characters, a leading BOM.
func repairJSON(input string) string {
	s := strings.TrimSpace(input)
	s = strings.TrimPrefix(s, "\ufeff")
	s = trailingCommaRe.ReplaceAllString(s, "$1")
	s = unquotedKeyRe.ReplaceAllString(s, `$1"$2"$3`)
	s = controlCharRe.ReplaceAllString(s, "")
	return s
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
