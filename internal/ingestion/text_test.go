package ingestion

import "testing"

func TestCleanText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{name: "empty", input: "", expect: ""},
		{name: "crlf", input: "Line 1\r\nLine 2\rLine 3", expect: "Line 1\nLine 2\nLine 3"},
		{name: "trailing spaces", input: "Go   \t\nSQL  ", expect: "Go\nSQL"},
		{name: "blank lines", input: "A\n\n\n\n\nB", expect: "A\n\nB"},
		{name: "inner spaces", input: "Senior    Go\t\tEngineer", expect: "Senior Go Engineer"},
		{name: "indented bullets", input: "Skills:\n  - Go\n  - Kubernetes", expect: "Skills:\n  - Go\n  - Kubernetes"},
		{name: "surrounding whitespace", input: "\n\n  \nResume\n\n", expect: "Resume"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CleanText(tt.input); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
