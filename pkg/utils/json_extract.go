package utils

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Patterns for recovering structured output from LLM responses.
var (
	// jsonBlockPattern matches a JSON object inside a markdown code block.
	jsonBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*\\})\\s*```")
	// jsonObjectPattern matches any JSON object (greedy fallback).
	jsonObjectPattern = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
	// trailingCommaPattern matches trailing commas before ] or }.
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// StripCodeFence removes a surrounding markdown code fence, if any.
func StripCodeFence(content string) string {
	text := strings.TrimSpace(content)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// ExtractJSONObject recovers the first well-formed JSON object from an LLM
// response: code fences are stripped, the content is tried as-is, then a
// greedy object match with trailing-comma cleanup is attempted. Returns ""
// when nothing parseable is found.
func ExtractJSONObject(content string) string {
	raw := StripCodeFence(content)
	if raw == "" {
		return ""
	}

	if json.Valid([]byte(raw)) && strings.HasPrefix(raw, "{") {
		return raw
	}

	if matches := jsonBlockPattern.FindStringSubmatch(content); len(matches) > 1 {
		raw = matches[1]
	} else if match := jsonObjectPattern.FindString(raw); match != "" {
		raw = match
	} else {
		return ""
	}

	raw = trailingCommaPattern.ReplaceAllString(raw, "$1")
	if !json.Valid([]byte(raw)) {
		return ""
	}
	return raw
}

// DecodeJSONObject unmarshals the recovered JSON object into out. It reports
// false when no object could be recovered.
func DecodeJSONObject(content string, out interface{}) bool {
	raw := ExtractJSONObject(content)
	if raw == "" {
		return false
	}
	return json.Unmarshal([]byte(raw), out) == nil
}
