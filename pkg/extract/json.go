package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformedOutput indicates the oracle's response contained no structured
// object that could be parsed, even after the repair pass.
var ErrMalformedOutput = errors.New("no valid JSON found in oracle response")

var (
	bareKeyPattern       = regexp.MustCompile(`([{,])\s*([a-zA-Z0-9_]+)\s*:`)
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractJSONString pulls a structured object or array out of free text and
// returns it as a parseable JSON string. It looks for a fenced ```json block
// first, then any fenced block, then the first balanced brace or bracket
// span. A candidate that fails to parse goes through one repair pass before
// the whole extraction fails with ErrMalformedOutput.
func ExtractJSONString(text string) (string, error) {
	candidate := extractCandidate(text)
	if candidate == "" {
		return "", ErrMalformedOutput
	}

	if isValidJSON(candidate) {
		return candidate, nil
	}

	// Repair pass: normalize quotes, quote bare keys, strip trailing commas
	repaired := RepairJSON(candidate)
	if isValidJSON(repaired) {
		return repaired, nil
	}

	return "", ErrMalformedOutput
}

// ExtractObject extracts a JSON object from free text into a generic map
func ExtractObject(text string) (map[string]interface{}, error) {
	jsonStr, err := ExtractJSONString(text)
	if err != nil {
		return nil, err
	}

	var out map[string]interface{}
	if err := json.Unmarshal([]byte(jsonStr), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return out, nil
}

// ExtractInto extracts a JSON object from free text and unmarshals it into
// the provided target
func ExtractInto(text string, target interface{}) error {
	jsonStr, err := ExtractJSONString(text)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(jsonStr), target); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return nil
}

// RepairJSON attempts to fix common formatting issues in quasi-JSON produced
// by the oracle: single quotes, unquoted keys, and trailing commas.
func RepairJSON(jsonStr string) string {
	jsonStr = strings.ReplaceAll(jsonStr, "'", `"`)
	jsonStr = bareKeyPattern.ReplaceAllString(jsonStr, `$1"$2":`)
	jsonStr = trailingCommaPattern.ReplaceAllString(jsonStr, `$1`)
	return jsonStr
}

// extractCandidate picks the most promising JSON candidate out of free text
func extractCandidate(text string) string {
	if fenced := extractFencedBlock(text, "```json"); fenced != "" {
		return fenced
	}
	if fenced := extractFencedBlock(text, "```"); fenced != "" {
		return fenced
	}
	return extractBalancedSpan(text)
}

// extractFencedBlock returns the contents of the first fenced code block
// opened by the given marker
func extractFencedBlock(text, marker string) string {
	start := strings.Index(text, marker)
	if start == -1 {
		return ""
	}
	start += len(marker)

	// Skip a language identifier on the opening line of a bare fence
	if marker == "```" {
		if newlinePos := strings.Index(text[start:], "\n"); newlinePos != -1 {
			start += newlinePos + 1
		}
	}

	end := strings.Index(text[start:], "```")
	if end == -1 {
		return ""
	}
	return strings.TrimSpace(text[start : start+end])
}

// extractBalancedSpan returns the first balanced top-level {...} or [...]
// span, tracking string literals and escapes
func extractBalancedSpan(text string) string {
	braceStart := strings.IndexAny(text, "{[")
	if braceStart == -1 {
		return ""
	}

	open := text[braceStart]
	var closing byte = '}'
	if open == '[' {
		closing = ']'
	}

	depth := 0
	inString := false
	escaped := false

	for i := braceStart; i < len(text); i++ {
		char := text[i]

		if escaped {
			escaped = false
			continue
		}

		if char == '\\' {
			escaped = true
			continue
		}

		if char == '"' {
			inString = !inString
			continue
		}

		if !inString {
			switch char {
			case open:
				depth++
			case closing:
				depth--
				if depth == 0 {
					return text[braceStart : i+1]
				}
			}
		}
	}

	return ""
}

// isValidJSON checks if a string is valid JSON
func isValidJSON(s string) bool {
	var js json.RawMessage
	return json.Unmarshal([]byte(s), &js) == nil
}
