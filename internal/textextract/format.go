package textextract

import (
	"archive/zip"
	"bytes"
	"strings"
	"unicode/utf8"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
	MimeTIFF = "image/tiff"
	MimeText = "text/plain"
)

// Format is a detected content type and the object key extension used for it.
type Format struct {
	Mime string
	Ext  string
}

var signatures = []struct {
	magic  []byte
	format Format
}{
	{[]byte("%PDF"), Format{MimePDF, ".pdf"}},
	{[]byte("\x89PNG\r\n\x1a\n"), Format{MimePNG, ".png"}},
	{[]byte{0xFF, 0xD8, 0xFF}, Format{MimeJPEG, ".jpg"}},
	{[]byte("II*\x00"), Format{MimeTIFF, ".tif"}},
	{[]byte("MM\x00*"), Format{MimeTIFF, ".tif"}},
}

// Sniff identifies data by its leading bytes. Zip archives count only when
// they hold a Word document; anything else must be valid UTF-8 text.
func Sniff(data []byte) (Format, bool) {
	for _, s := range signatures {
		if bytes.HasPrefix(data, s.magic) {
			return s.format, true
		}
	}
	if bytes.HasPrefix(data, []byte("PK\x03\x04")) {
		if isDOCX(data) {
			return Format{MimeDOCX, ".docx"}, true
		}
		return Format{}, false
	}
	if utf8.Valid(data) && !bytes.ContainsRune(data, 0) {
		return Format{MimeText, ".txt"}, true
	}
	return Format{}, false
}

func isDOCX(data []byte) bool {
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
