package logging

import "testing"

func TestRedact(t *testing.T) {
	cases := []struct {
		in   string
		dev  bool
		want string
	}{
		{"AIzaSyExampleKey42", false, "AIza...42"},
		{"short", false, "***"},
		{"AIzaSyExampleKey42", true, "AIzaSyExampleKey42"},
	}
	for _, c := range cases {
		if got := Redact(c.in, c.dev); got != c.want {
			t.Errorf("Redact(%q, %v) = %q, want %q", c.in, c.dev, got, c.want)
		}
	}
}
