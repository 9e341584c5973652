package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/lu4p/cat/docxtxt"
	"github.com/lu4p/cat/odtxt"
	"github.com/lu4p/cat/rtftxt"

	"notes-backend/internal/shared/telemetry"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeODT  = "application/vnd.oasis.opendocument.text"
	mimeRTF  = "application/rtf"
)

type format int

const (
	formatUnsupported format = iota
	formatText
	formatPDF
	formatDOCX
	formatODT
	formatRTF
)

var errEmptyInput = errors.New("empty input")

// Text returns the plain text of a document. It never fails: any extraction
// error, including a panic inside a parser, is logged and yields "".
func Text(ctx context.Context, data []byte, mediaType, fileName string) (text string) {
	f := detect(mediaType, fileName, data)
	defer func() {
		if rec := recover(); rec != nil {
			telemetry.Error("extract.panic", map[string]any{
				"file_name":  fileName,
				"media_type": mediaType,
				"error":      fmt.Sprint(rec),
			})
			text = ""
		}
	}()

	out, err := fromBytes(ctx, f, data)
	if err != nil {
		telemetry.Warn("extract.failed", map[string]any{
			"file_name":  fileName,
			"media_type": mediaType,
			"error":      err.Error(),
		})
		return ""
	}
	return out
}

// Supported reports whether the format nominally supports extraction.
func Supported(mediaType, fileName string) bool {
	return detect(mediaType, fileName, nil) != formatUnsupported
}

// Sentinel is stored in place of text when a supported document yields none.
func Sentinel(displayName string) string {
	return fmt.Sprintf("[%s: no readable text found]", displayName)
}

func fromBytes(ctx context.Context, f format, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f == formatUnsupported {
		return "", nil
	}
	if len(data) == 0 {
		if f == formatText {
			return "", nil
		}
		return "", errEmptyInput
	}
	switch f {
	case formatText:
		return decodeText(data), nil
	case formatPDF:
		return extractPDF(data)
	case formatDOCX:
		return docxText(data)
	case formatODT:
		return odtText(data)
	case formatRTF:
		if !bytes.HasPrefix(bytes.TrimSpace(data), []byte(`{\rtf`)) {
			return "", errors.New("missing rtf header")
		}
		return rtftxt.BytesToStr(data)
	default:
		return "", nil
	}
}

func decodeText(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), string(utf8.RuneError))
}

// extractPDF concatenates the text of every page in document order. Pages
// that fail to decode are skipped.
func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var buf strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			telemetry.Warn("extract.pdf_page_failed", map[string]any{"page": i, "error": err.Error()})
			continue
		}
		buf.WriteString(content)
	}
	return buf.String(), nil
}

// docxText reads paragraphs with docxtxt. It matches runs textually, so XML
// entities are still escaped in its output.
func docxText(data []byte) (string, error) {
	out, err := docxtxt.BytesToStr(data)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(html.UnescapeString(out), "\n"), nil
}

func odtText(data []byte) (string, error) {
	out, err := odtxt.BytesToStr(data)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}

func detect(mediaType, fileName string, data []byte) format {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".txt", ".md", ".markdown", ".csv", ".text":
		return formatText
	case ".pdf":
		return formatPDF
	case ".docx":
		return formatDOCX
	case ".odt":
		return formatODT
	case ".rtf":
		return formatRTF
	}

	clean := strings.ToLower(strings.TrimSpace(strings.Split(mediaType, ";")[0]))
	switch {
	case clean == mimePDF:
		return formatPDF
	case clean == mimeDOCX:
		return formatDOCX
	case clean == mimeODT:
		return formatODT
	case clean == mimeRTF || clean == "text/rtf":
		return formatRTF
	case strings.HasPrefix(clean, "text/"):
		return formatText
	case clean == "application/zip" && isDOCXZip(data):
		return formatDOCX
	}
	return formatUnsupported
}

func isDOCXZip(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			return true
		}
	}
	return false
}
