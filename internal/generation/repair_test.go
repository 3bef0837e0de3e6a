package generation

import (
	"encoding/json"
	"testing"
)

func TestRepair(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"valid object unchanged", `{"a":1,"b":[2,3]}`, `{"a":1,"b":[2,3]}`},
		{"valid array unchanged", `[1,2,3]`, `[1,2,3]`},
		{"valid string unchanged", `"hello"`, `"hello"`},
		{"valid number unchanged", `42`, `42`},
		{"valid null unchanged", `null`, `null`},
		{"surrounding whitespace trimmed", "  {\"a\":1}\n", `{"a":1}`},
		{"empty input", "", "{}"},
		{"whitespace only", "   \n\t", "{}"},
		{"plain prose", "Sorry, I cannot help with that.", "{}"},
		{"truncated object value", `{"a":1,"b":"tru`, `{"a":1}`},
		{"truncated object key", `{"a":1,"b`, `{"a":1}`},
		{"object cut after comma", `{"a":1,`, `{"a":1}`},
		{"array of three cut in third", `[{"q":"one"},{"q":"two"},{"q":"thr`, `[{"q":"one"},{"q":"two"}]`},
		{"array cut after comma", `[1,2,`, `[1,2]`},
		{"array cut mid number", `[10,20,3`, `[10,20,3]`},
		{"lone open brace", `{`, "{}"},
		{"lone open bracket", `[`, "[]"},
		{"nested object truncated", `{"a":{"b":1},"c":{"d"`, `{"a":{"b":1}}`},
		{"unrecoverable array garbage", `[}}}`, "[]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Repair(tc.in)
			if got != tc.want {
				t.Fatalf("Repair(%q) = %q, want %q", tc.in, got, tc.want)
			}
			if !json.Valid([]byte(got)) {
				t.Fatalf("Repair(%q) = %q is not valid JSON", tc.in, got)
			}
		})
	}
}

func TestRepairIdempotent(t *testing.T) {
	inputs := []string{
		`{"a":1,"b":"tru`,
		`[{"q":"one"},{"q":"two"},{"q":"thr`,
		`{"a":1}`,
		"garbage",
		"",
		`[1,2,`,
	}
	for _, in := range inputs {
		once := Repair(in)
		twice := Repair(once)
		if once != twice {
			t.Errorf("Repair not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}
