package segment

import (
	"regexp"
	"strings"
)

// Separator joins the shared header to each claim body.
const Separator = "\n" + "--------------------" + "\n"

// Headers this short carry no payer or payment context and are dropped.
const minHeaderChars = 20

var (
	claimMarker   = regexp.MustCompile(`(?i)claim\s*(?:number|no\.?)[\s:#]*[A-Z]?\d{8,}`)
	patientMarker = regexp.MustCompile(`(?i)patient\s*name[\s:]+[A-Z]`)
)

// Block is one claim's slice of a document.
type Block struct {
	Index  int
	Header string
	Body   string
}

// Text is what extraction sees: the header, the separator and the body.
func (b Block) Text() string {
	if b.Header == "" {
		return b.Body
	}
	return b.Header + Separator + b.Body
}

// Segmenter splits extracted text into claim blocks.
type Segmenter struct {
	minBlockChars int
}

func New(minBlockChars int) *Segmenter {
	return &Segmenter{minBlockChars: minBlockChars}
}

// Split locates the first claim number, takes everything before the closest
// preceding patient marker as the document header and cuts the rest at each
// marker of the kind that opens the first claim. Bodies no longer than the
// minimum are dropped. Text without any claim number is one block when long
// enough and nothing otherwise.
func (s *Segmenter) Split(text string) []Block {
	first := claimMarker.FindStringIndex(text)
	if first == nil {
		whole := strings.TrimSpace(text)
		if len(whole) <= s.minBlockChars {
			return nil
		}
		return []Block{{Index: 0, Body: whole}}
	}

	headerEnd := first[0]
	boundary := claimMarker
	for _, loc := range patientMarker.FindAllStringIndex(text[:first[0]], -1) {
		headerEnd = loc[0]
		boundary = patientMarker
	}

	header := strings.TrimSpace(text[:headerEnd])
	if len(header) <= minHeaderChars {
		header = ""
	}

	rest := text[headerEnd:]
	cuts := boundary.FindAllStringIndex(rest, -1)
	blocks := make([]Block, 0, len(cuts))
	for i, loc := range cuts {
		end := len(rest)
		if i+1 < len(cuts) {
			end = cuts[i+1][0]
		}
		body := strings.TrimSpace(rest[loc[0]:end])
		if len(body) <= s.minBlockChars {
			continue
		}
		blocks = append(blocks, Block{Index: len(blocks), Header: header, Body: body})
	}
	return blocks
}
