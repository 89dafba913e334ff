package ingestion

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestExtractPlainText(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"resume.txt", "JOB.MD"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := Extract(name, []byte("Go developer  \r\n\r\n\r\n\r\n5 years"))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != "Go developer\n\n5 years" {
				t.Fatalf("unexpected text: %q", got)
			}
		})
	}
}

func TestExtractErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		filename string
		data     []byte
		expect   error
	}{
		{name: "unsupported", filename: "resume.odt", data: []byte("x"), expect: ErrUnsupportedType},
		{name: "no extension", filename: "resume", data: []byte("x"), expect: ErrUnsupportedType},
		{name: "blank text", filename: "resume.txt", data: []byte(" \n\t\n"), expect: ErrEmptyDocument},
		{name: "binary text", filename: "resume.txt", data: bytes.Repeat([]byte{0, 1, 2, 3}, 100), expect: ErrBinaryText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Extract(tt.filename, tt.data); !errors.Is(err, tt.expect) {
				t.Fatalf("expected %v, got %v", tt.expect, err)
			}
		})
	}
}

func TestExtractInvalidPDF(t *testing.T) {
	if _, err := Extract("resume.pdf", []byte("definitely not a pdf")); err == nil {
		t.Fatal("expected error for malformed pdf")
	}
}

func TestExtractDOCX(t *testing.T) {
	data := buildDOCX(t, `<w:document><w:body>`+
		`<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>`+
		`<w:p><w:r><w:t>Go &amp; Kubernetes</w:t></w:r></w:p>`+
		`</w:body></w:document>`)

	got, err := Extract("resume.docx", data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != "Jane Doe\nGo & Kubernetes" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.txt")
	if err := os.WriteFile(path, []byte("Backend engineer\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Backend engineer" {
		t.Fatalf("unexpected text: %q", got)
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestIsBinaryData(t *testing.T) {
	if IsBinaryData(nil) {
		t.Fatal("empty data is not binary")
	}
	if IsBinaryData([]byte("plain resume text\n\twith tabs")) {
		t.Fatal("plain text reported as binary")
	}
	if !IsBinaryData([]byte{0x00, 0xff, 0xfe, 0x01}) {
		t.Fatal("binary data not detected")
	}
}

func buildDOCX(t *testing.T, document string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	files := map[string]string{
		"[Content_Types].xml":          `<?xml version="1.0" encoding="UTF-8"?><Types></Types>`,
		"word/document.xml":            `<?xml version="1.0" encoding="UTF-8"?>` + document,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?><Relationships></Relationships>`,
	}

	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	return buf.Bytes()
}
