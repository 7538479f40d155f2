package tools

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

const maxFallbackQuery = 200

var (
	searchForRe = regexp.MustCompile(`(?i)search\s*(?:for|:)\s*([^\n]+)`)
	fencedRe    = regexp.MustCompile("(?is)```(?:javascript|js)?\\s*(.*?)```")
	codeColonRe = regexp.MustCompile(`(?is)code\s*:\s*(.*)$`)
)

// FindFirstJSONObject returns the first balanced {...} span of text that
// parses as JSON, or nil.
func FindFirstJSONObject(text string) json.RawMessage {
	depth, start := 0, -1
	inStr, esc := false, false
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if inStr {
			switch {
			case esc:
				esc = false
			case ch == '\\':
				esc = true
			case ch == '"':
				inStr = false
			}
			continue
		}
		switch ch {
		case '"':
			inStr = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start != -1 {
				candidate := text[start : i+1]
				if json.Valid([]byte(candidate)) {
					return json.RawMessage(candidate)
				}
				start = -1
			}
		}
	}
	return nil
}

// ExtractJSONLabeled finds the last case-insensitive occurrence of label and
// returns the first JSON object after it.
func ExtractJSONLabeled(text, label string) json.RawMessage {
	if text == "" || label == "" {
		return nil
	}
	for i := len(text) - len(label); i >= 0; i-- {
		if strings.EqualFold(text[i:i+len(label)], label) {
			return FindFirstJSONObject(text[i:])
		}
	}
	return nil
}

// ExtractCode returns the body of the first fenced (optionally js-tagged)
// code block, or whatever follows "code:".
func ExtractCode(text string) string {
	if m := fencedRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := codeColonRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// fallbackQuery derives a search query from user text: the rest of a
// "search for ..." line, or the whole text, capped in length.
func fallbackQuery(text string) string {
	query := text
	if m := searchForRe.FindStringSubmatch(text); m != nil {
		query = m[1]
	}
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) > maxFallbackQuery {
		query = string([]rune(query)[:maxFallbackQuery])
	}
	return query
}

// isEmptyJSON reports whether raw is absent, null, or an empty object or
// array.
func isEmptyJSON(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return true
	}
	res := gjson.ParseBytes(raw)
	switch {
	case res.Type == gjson.Null:
		return true
	case res.IsObject(), res.IsArray():
		empty := true
		res.ForEach(func(_, _ gjson.Result) bool {
			empty = false
			return false
		})
		return empty
	}
	return false
}
