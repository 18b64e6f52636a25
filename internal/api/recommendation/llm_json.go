package recommendation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/goccy/go-json"

	"github.com/FACorreiaa/go-family-activity-suggestions/internal/types"
)

// cleanJSONResponse strips markdown fences around a model reply.
func cleanJSONResponse(response string) string {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "```json") {
		response = strings.TrimPrefix(response, "```json")
	} else if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
	}
	response = strings.TrimSuffix(strings.TrimSpace(response), "```")

	return strings.TrimSpace(response)
}

// extractJSON returns the first balanced array or object in s that is
// valid JSON. Strings are tracked so brackets inside them do not count.
func extractJSON(s string) (string, bool) {
	for start := 0; start < len(s); start++ {
		if s[start] != '[' && s[start] != '{' {
			continue
		}
		if end := matchingBracket(s, start); end > 0 {
			candidate := s[start : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate, true
			}
		}
	}
	return "", false
}

func matchingBracket(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

var (
	doubledQuoteOpen  = regexp.MustCompile(`""(\w)`)
	doubledQuoteClose = regexp.MustCompile(`(\w)""`)
)

var smartQuotes = strings.NewReplacer("“", `"`, "”", `"`, "‘", "'", "’", "'")

// repairJSON is a single best-effort pass over the usual model mistakes:
// a payload returned as a JSON string, doubled quotes, smart quotes and
// trailing commas. It is not a parser and may return garbage.
func repairJSON(s string) string {
	s = cleanJSONResponse(s)

	var inner string
	if strings.HasPrefix(s, `"`) && json.Unmarshal([]byte(s), &inner) == nil {
		s = strings.TrimSpace(inner)
	}

	s = smartQuotes.Replace(s)
	s = doubledQuoteOpen.ReplaceAllString(s, `"$1`)
	s = doubledQuoteClose.ReplaceAllString(s, `$1"`)
	s = strings.ReplaceAll(s, `\"`, `"`)
	s = trailingCommas(s)
	return s
}

func trailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			j := i + 1
			for j < len(s) && strings.ContainsRune(" \t\r\n", rune(s[j])) {
				j++
			}
			if j < len(s) && (s[j] == ']' || s[j] == '}') {
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// parseModelArray decodes a model reply into a list of objects. A bare
// object is accepted when it wraps the list under a single array field,
// e.g. {"activities": [...]}. One repair pass is attempted before giving up.
func parseModelArray(raw string) ([]map[string]any, error) {
	items, err := decodeArray(raw)
	if err == nil {
		return items, nil
	}
	repaired, rerr := decodeArray(repairJSON(raw))
	if rerr != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrMalformedOutput, err)
	}
	return repaired, nil
}

func decodeArray(raw string) ([]map[string]any, error) {
	payload, ok := extractJSON(cleanJSONResponse(raw))
	if !ok {
		return nil, fmt.Errorf("no JSON value in model output")
	}

	var items []map[string]any
	if payload[0] == '[' {
		if err := json.Unmarshal([]byte(payload), &items); err != nil {
			return nil, err
		}
	} else {
		var wrapper map[string]any
		if err := json.Unmarshal([]byte(payload), &wrapper); err != nil {
			return nil, err
		}
		items = unwrapList(wrapper)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("model returned an empty list")
	}
	return items, nil
}

func unwrapList(wrapper map[string]any) []map[string]any {
	for _, v := range wrapper {
		list, ok := v.([]any)
		if !ok {
			continue
		}
		out := make([]map[string]any, 0, len(list))
		for _, e := range list {
			if m, ok := e.(map[string]any); ok {
				out = append(out, m)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}
