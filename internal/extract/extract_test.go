package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"
)

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

const docxBody = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Midterm is on </w:t></w:r><w:r><w:t>March 3rd</w:t></w:r></w:p>
<w:p><w:r><w:t>Final exam: Q&amp;A on May 20</w:t></w:r></w:p>
</w:body>
</w:document>`

func TestTextPlainReplacesInvalidUTF8(t *testing.T) {
	got := Text(context.Background(), []byte("caf\xe9 notes"), "text/plain", "notes.txt")
	if got != "caf� notes" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestTextPlainStripsBOM(t *testing.T) {
	got := Text(context.Background(), []byte("\xef\xbb\xbfhello"), "", "a.txt")
	if got != "hello" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestTextDOCXParagraphsInOrder(t *testing.T) {
	data := buildDOCX(t, docxBody)
	got := Text(context.Background(), data, "application/octet-stream", "notes.docx")
	want := "Midterm is on March 3rd\nFinal exam: Q&A on May 20"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func buildODT(t *testing.T, contentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("content.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte(contentXML)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestTextODTParagraphs(t *testing.T) {
	data := buildODT(t, `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0">
<office:body><office:text>
<text:p>Lab report due Friday</text:p>
<text:p>Bring goggles</text:p>
</office:text></office:body>
</office:document-content>`)
	got := Text(context.Background(), data, "", "lab.odt")
	if got != "Lab report due Friday\nBring goggles" {
		t.Fatalf("unexpected odt text %q", got)
	}
}

func TestTextODTNotAZipYieldsNothing(t *testing.T) {
	got := Text(context.Background(), []byte("not a zip, the midterm is secret"), "application/vnd.oasis.opendocument.text", "notes.odt")
	if got != "" {
		t.Fatalf("corrupt odt must not leak raw bytes, got %q", got)
	}
}

func TestTextRTF(t *testing.T) {
	got := Text(context.Background(), []byte(`{\rtf1\ansi Photosynthesis notes\par}`), "", "bio.rtf")
	if !strings.Contains(got, "Photosynthesis notes") {
		t.Fatalf("unexpected rtf text %q", got)
	}
}

func TestTextDOCXDetectedFromZipMime(t *testing.T) {
	data := buildDOCX(t, docxBody)
	got := Text(context.Background(), data, "application/zip", "upload")
	if !strings.Contains(got, "Midterm") {
		t.Fatalf("expected docx text from zip mime, got %q", got)
	}
}

func TestTextCorruptedOrEmptyReturnsEmpty(t *testing.T) {
	garbage := []byte("this is definitely not a valid binary document \x00\x01\x02")
	tests := []struct {
		name string
		file string
		data []byte
	}{
		{name: "empty txt", file: "a.txt", data: nil},
		{name: "empty pdf", file: "a.pdf", data: nil},
		{name: "corrupt pdf", file: "a.pdf", data: garbage},
		{name: "truncated pdf", file: "a.pdf", data: []byte("%PDF-1.4\n1 0 obj\n<<")},
		{name: "empty docx", file: "a.docx", data: nil},
		{name: "corrupt docx", file: "a.docx", data: garbage},
		{name: "docx without body", file: "a.docx", data: buildDOCX(t, "<w:document><w:body>")},
		{name: "empty odt", file: "a.odt", data: nil},
		{name: "corrupt odt", file: "a.odt", data: garbage},
		{name: "empty rtf", file: "a.rtf", data: nil},
		{name: "corrupt rtf", file: "a.rtf", data: garbage},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(context.Background(), tt.data, "", tt.file); got != "" {
				t.Fatalf("expected empty text, got %q", got)
			}
		})
	}
}

func TestTextUnsupportedFormat(t *testing.T) {
	if got := Text(context.Background(), []byte{0x89, 'P', 'N', 'G'}, "image/png", "diagram.png"); got != "" {
		t.Fatalf("expected empty text for png, got %q", got)
	}
	if Supported("image/png", "diagram.png") {
		t.Fatal("png should not be supported")
	}
	for _, name := range []string{"a.txt", "a.pdf", "a.docx", "a.odt", "a.rtf", "a.md"} {
		if !Supported("", name) {
			t.Fatalf("%s should be supported", name)
		}
	}
}

func TestSentinelNamesDocument(t *testing.T) {
	s := Sentinel("scan.pdf")
	if !strings.Contains(s, "scan.pdf") {
		t.Fatalf("sentinel should mention document name: %q", s)
	}
}
