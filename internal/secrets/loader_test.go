package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSecret(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "secret")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write secret: %v", err)
	}
	return path
}

func TestLoadPrecedence(t *testing.T) {
	t.Setenv("AINTERVIEWER_TEST_KEY", " from-env ")

	tests := []struct {
		name   string
		src    Source
		expect string
	}{
		{
			name:   "file wins",
			src:    Source{File: writeSecret(t, "from-file\n"), Value: "inline", Env: "AINTERVIEWER_TEST_KEY"},
			expect: "from-file",
		},
		{
			name:   "inline beats env",
			src:    Source{Value: "  inline ", Env: "AINTERVIEWER_TEST_KEY"},
			expect: "inline",
		},
		{
			name:   "env fallback",
			src:    Source{Env: "AINTERVIEWER_TEST_KEY"},
			expect: "from-env",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("AINTERVIEWER_EMPTY_KEY", "")

	tests := []struct {
		name     string
		src      Source
		contains string
	}{
		{name: "nothing configured", src: Source{Name: "gemini api key"}, contains: "gemini api key is not configured"},
		{name: "default name", src: Source{}, contains: "secret is not configured"},
		{name: "empty file", src: Source{Name: "key", File: writeSecret(t, " \n")}, contains: "is empty"},
		{name: "missing file", src: Source{Name: "key", File: filepath.Join(t.TempDir(), "nope")}, contains: "reading key from file"},
		{name: "empty env", src: Source{Name: "key", Env: "AINTERVIEWER_EMPTY_KEY"}, contains: "AINTERVIEWER_EMPTY_KEY is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.src)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Fatalf("expected error to contain %q, got %v", tt.contains, err)
			}
		})
	}
}
