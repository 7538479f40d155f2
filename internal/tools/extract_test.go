package tools

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindFirstJSONObject(t *testing.T) {
	tests := map[string]struct {
		in   string
		want string
	}{
		"plain":           {`send {"a":1} please`, `{"a":1}`},
		"nested":          {`x {"a":{"b":[1,2]}} y {"c":2}`, `{"a":{"b":[1,2]}}`},
		"brace in string": {`{"a":"}{"}`, `{"a":"}{"}`},
		"skips invalid":   {`{not json} then {"ok":true}`, `{"ok":true}`},
		"none":            {`no objects here`, ``},
		"unbalanced":      {`{"a":1`, ``},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := FindFirstJSONObject(tc.in)
			if tc.want == "" {
				require.Nil(t, got)
				return
			}
			require.JSONEq(t, tc.want, string(got))
		})
	}
}

func TestExtractJSONLabeled(t *testing.T) {
	text := `first {"skip":1}. PAYLOAD: {"model":"x"} and {"later":2}`
	require.JSONEq(t, `{"model":"x"}`, string(ExtractJSONLabeled(text, "payload")))
	require.Nil(t, ExtractJSONLabeled(`{"a":1}`, "payload"))
	require.Nil(t, ExtractJSONLabeled("", "payload"))
}

func TestExtractCode(t *testing.T) {
	tests := map[string]struct {
		in   string
		want string
	}{
		"js fence":      {"run this\n```js\nconsole.log(1)\n```", "console.log(1)"},
		"bare fence":    {"```\n1+1\n```", "1+1"},
		"javascript":    {"```javascript\nlet a = 2\n```\n", "let a = 2"},
		"code colon":    {"please run code: 2 * 21", "2 * 21"},
		"fence wins":    {"code: nope\n```js\nyes()\n```", "yes()"},
		"nothing found": {"just words", ""},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.want, ExtractCode(tc.in))
		})
	}
}

func TestFallbackQuery(t *testing.T) {
	require.Equal(t, "golang generics", fallbackQuery("please search for golang generics\nthanks"))
	require.Equal(t, "weather", fallbackQuery("Search: weather"))
	require.Equal(t, "what is rust", fallbackQuery("  what is rust "))

	long := strings.Repeat("é", 300)
	require.Equal(t, 200, len([]rune(fallbackQuery(long))))
}

func TestIsEmptyJSON(t *testing.T) {
	for _, raw := range []string{"", "null", "{}", " { } ", "[]"} {
		require.True(t, isEmptyJSON(json.RawMessage(raw)), raw)
	}
	for _, raw := range []string{`{"a":1}`, `[0]`, `"x"`, `0`} {
		require.False(t, isEmptyJSON(json.RawMessage(raw)), raw)
	}
}
