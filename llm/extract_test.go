package llm

import "testing"

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "Here you go:\n```json\n{\"a\":1}\n```\nthanks", `{"a":1}`},
		{"fence without lang", "```\n{\"a\":[1,2]}\n```", `{"a":[1,2]}`},
		{"prose", `The result is {"a":"x}"} as requested`, `{"a":"x}"}`},
		{"escaped quote", `answer: {"a":"say \"hi\" {"} done`, `{"a":"say \"hi\" {"}`},
		{"skips invalid", `{not json} then {"b":2}`, `{"b":2}`},
		{"none", `no json here`, ``},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractJSON(tc.in); got != tc.want {
				t.Fatalf("want %q, got %q", tc.want, got)
			}
		})
	}
}
