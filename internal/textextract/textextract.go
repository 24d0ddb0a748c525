package textextract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"remitapi/internal/storage"
)

// ErrUnsupportedFormat matches a FormatError of KindUnsupported.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Kind classifies a text extraction failure.
type Kind string

const (
	KindUnsupported Kind = "unsupported-format"
	KindExtraction  Kind = "extraction-error"
)

// FormatError is the typed failure of an Extractor.
type FormatError struct {
	Kind Kind
	Mime string
	Err  error
}

func (e *FormatError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Mime)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Mime, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

func (e *FormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat && e.Kind == KindUnsupported
}

// Extractor turns raw bytes of a declared MIME type into UTF-8 text.
type Extractor interface {
	Extract(ctx context.Context, data []byte, mime string) (string, error)
}

// Local extracts text in-process: PDF text layers, DOCX body text and plain text.
// Images carry no text layer and are reported unsupported.
type Local struct{}

func (Local) Extract(ctx context.Context, data []byte, mime string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mime, ";")[0]))

	var (
		text string
		err  error
	)
	switch clean {
	case MimePDF:
		text, err = pdfText(data)
	case MimeDOCX:
		text, err = docxText(data)
	case MimeText:
		if !bytes.ContainsRune(data, 0) {
			text = string(data)
		} else {
			err = errors.New("binary content")
		}
	default:
		return "", &FormatError{Kind: KindUnsupported, Mime: clean}
	}
	if err != nil {
		return "", &FormatError{Kind: KindExtraction, Mime: clean, Err: err}
	}
	return text, nil
}

func pdfText(data []byte) (text string, err error) {
	// The PDF reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		return docxBody(rc)
	}
	return "", errors.New("word/document.xml not found")
}

// docxBody keeps character data and breaks lines at paragraph, break and tab ends.
func docxBody(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.EndElement:
			switch t.Name.Local {
			case "p", "br":
				b.WriteString("\n")
			case "tab":
				b.WriteString("\t")
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// CacheKey is where the extracted text of an object is kept.
func CacheKey(storageRef string) string { return storage.TextCacheKey(storageRef) }

// FromStore returns the text of a stored object, preferring a cached
// extraction and writing one after a fresh extraction.
func FromStore(ctx context.Context, store storage.Storage, ex Extractor, storageRef, mime string, logger *zap.Logger) (string, error) {
	cached, err := storage.ReadAll(ctx, store, CacheKey(storageRef))
	if err == nil {
		return string(cached), nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		logger.Warn("extracted text cache unavailable",
			zap.String("component", "textextract"),
			zap.String("event", "cache.read_failed"),
			zap.String("storage_ref", storageRef),
			zap.Error(err),
		)
	}

	raw, err := storage.ReadAll(ctx, store, storageRef)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", storageRef, err)
	}
	text, err := ex.Extract(ctx, raw, mime)
	if err != nil {
		return "", err
	}

	if _, err := store.Put(ctx, CacheKey(storageRef), strings.NewReader(text), storage.PutObjectOptions{
		Size:        int64(len(text)),
		ContentType: "text/plain; charset=utf-8",
	}); err != nil {
		logger.Warn("extracted text not cached",
			zap.String("component", "textextract"),
			zap.String("event", "cache.write_failed"),
			zap.String("storage_ref", storageRef),
			zap.Error(err),
		)
	}
	return text, nil
}
