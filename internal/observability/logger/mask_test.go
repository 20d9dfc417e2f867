package logger

import "testing"

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"pat1@x.com":          "p…@x.com",
		"pat1@example.com":    "p…@e….com",
		"a@b.org":             "a@b.org",
		"doc@localhost":       "d…@l…",
		"":                    "",
		"noatsign":            "n…n",
		"ab":                  "***",
		" MiXeD@Example.COM ": "m…@e….com",
	}
	for in, want := range cases {
		if got := maskEmail(in); got != want {
			t.Fatalf("maskEmail(%q) = %q, want %q", in, got, want)
		}
	}
}
