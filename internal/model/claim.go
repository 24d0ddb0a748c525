package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ClaimStatus is the review status shared by an extraction record and its versions.
type ClaimStatus string

const (
	ClaimNeedTemplate  ClaimStatus = "need_template"
	ClaimPendingReview ClaimStatus = "pending_review"
	ClaimException     ClaimStatus = "exception"
	ClaimApproved      ClaimStatus = "approved"
	ClaimGenerated     ClaimStatus = "generated"

	// ClaimFailed marks a block whose payload carried no claim identifier; it has no versions.
	ClaimFailed ClaimStatus = "extraction_failed"
	// ClaimSuperseded marks a placeholder replaced by a later pipeline run.
	ClaimSuperseded ClaimStatus = "superseded"
)

// Accepted reports whether the block produced a reviewable claim that a rerun must not redo.
func (s ClaimStatus) Accepted() bool {
	switch s {
	case ClaimPendingReview, ClaimException, ClaimApproved, ClaimGenerated:
		return true
	}
	return false
}

// Version is a major.minor claim version. Minor moves on every accepted mutation.
type Version struct {
	Major int
	Minor int
}

// InitialVersion is the version written by the pipeline.
func InitialVersion() Version { return Version{Major: 1, Minor: 0} }

// ParseVersion parses "major.minor".
func ParseVersion(s string) (Version, error) {
	major, minor, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok {
		return Version{}, fmt.Errorf("invalid version %q", s)
	}
	ma, err := strconv.Atoi(major)
	if err != nil || ma < 0 {
		return Version{}, fmt.Errorf("invalid major in version %q", s)
	}
	mi, err := strconv.Atoi(minor)
	if err != nil || mi < 0 {
		return Version{}, fmt.Errorf("invalid minor in version %q", s)
	}
	return Version{Major: ma, Minor: mi}, nil
}

func (v Version) String() string { return fmt.Sprintf("%d.%d", v.Major, v.Minor) }

// NextMinor returns the version after v within the same major.
func (v Version) NextMinor() Version { return Version{Major: v.Major, Minor: v.Minor + 1} }

// Less orders versions.
func (v Version) Less(o Version) bool {
	if v.Major != o.Major {
		return v.Major < o.Major
	}
	return v.Minor < o.Minor
}

func (v Version) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

func (v *Version) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseVersion(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// PayloadField is one typed claim value. A nil Value means not found.
type PayloadField struct {
	Key   string    `json:"field"`
	Label string    `json:"label,omitempty"`
	Type  FieldType `json:"type,omitempty"`
	Value *string   `json:"value"`
}

// PayloadSection mirrors a template section.
type PayloadSection struct {
	DataKey string         `json:"dataKey"`
	Name    string         `json:"sectionName"`
	Fields  []PayloadField `json:"fields"`
}

// ClaimPayload is the ordered field/value structure of one claim.
// Fields can only be set, never added, once the layout exists.
type ClaimPayload struct {
	Sections []PayloadSection `json:"sections"`
}

// Keys returns the normalized keys that carry a non-empty value.
func (p ClaimPayload) Keys() []string {
	keys := make([]string, 0)
	for _, sec := range p.Sections {
		for _, f := range sec.Fields {
			if f.Value != nil && strings.TrimSpace(*f.Value) != "" {
				keys = append(keys, NormalizeKey(f.Key))
			}
		}
	}
	return keys
}

// Value returns the value stored under key.
func (p ClaimPayload) Value(key string) (string, bool) {
	k := NormalizeKey(key)
	for _, sec := range p.Sections {
		for _, f := range sec.Fields {
			if NormalizeKey(f.Key) == k && f.Value != nil {
				return *f.Value, true
			}
		}
	}
	return "", false
}

// Has reports whether key is part of the payload layout.
func (p ClaimPayload) Has(key string) bool {
	k := NormalizeKey(key)
	for _, sec := range p.Sections {
		for _, f := range sec.Fields {
			if NormalizeKey(f.Key) == k {
				return true
			}
		}
	}
	return false
}

// Set normalizes raw by the field's type and stores it. Unknown keys are ignored
// and reported with false.
func (p *ClaimPayload) Set(key, raw string) bool {
	k := NormalizeKey(key)
	for si := range p.Sections {
		for fi := range p.Sections[si].Fields {
			f := &p.Sections[si].Fields[fi]
			if NormalizeKey(f.Key) != k {
				continue
			}
			v := NormalizeValue(f.Type, raw)
			f.Value = &v
			return true
		}
	}
	return false
}

// ClaimNumber is the claim identifier or "" when missing.
func (p ClaimPayload) ClaimNumber() string {
	v, _ := p.Value(FieldClaimNumber)
	return strings.TrimSpace(v)
}

// Empty reports whether no field carries a value.
func (p ClaimPayload) Empty() bool { return len(p.Keys()) == 0 }

// Clone deep-copies the payload.
func (p ClaimPayload) Clone() ClaimPayload {
	out := ClaimPayload{Sections: make([]PayloadSection, len(p.Sections))}
	for i, sec := range p.Sections {
		fields := make([]PayloadField, len(sec.Fields))
		for j, f := range sec.Fields {
			fields[j] = f
			if f.Value != nil {
				v := *f.Value
				fields[j].Value = &v
			}
		}
		out.Sections[i] = PayloadSection{DataKey: sec.DataKey, Name: sec.Name, Fields: fields}
	}
	return out
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"01-02-2006",
	"20060102",
	"Jan 2, 2006",
	"January 2, 2006",
}

// NormalizeValue coerces raw into the canonical text form of t.
// Values that do not parse are kept trimmed rather than dropped.
func NormalizeValue(t FieldType, raw string) string {
	v := strings.TrimSpace(raw)
	switch t {
	case FieldMoney:
		clean := strings.NewReplacer("$", "", ",", "", " ", "").Replace(v)
		neg := false
		if strings.HasPrefix(clean, "(") && strings.HasSuffix(clean, ")") {
			clean = strings.Trim(clean, "()")
			neg = true
		}
		if f, err := strconv.ParseFloat(clean, 64); err == nil {
			if neg {
				f = -f
			}
			return strconv.FormatFloat(f, 'f', 2, 64)
		}
	case FieldNumber:
		clean := strings.ReplaceAll(v, ",", "")
		if _, err := strconv.ParseFloat(clean, 64); err == nil {
			return clean
		}
	case FieldDate:
		for _, layout := range dateLayouts {
			if ts, err := time.Parse(layout, v); err == nil {
				return ts.Format("2006-01-02")
			}
		}
	}
	return v
}

// ClaimVersion is one append-only snapshot of a claim.
type ClaimVersion struct {
	ID           string       `json:"id"`
	ExtractionID string       `json:"extraction_id"`
	DocumentID   string       `json:"document_id"`
	Version      Version      `json:"version"`
	Payload      ClaimPayload `json:"claim"`
	Status       ClaimStatus  `json:"status"`
	UpdatedBy    string       `json:"updated_by,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// ExtractionSource records who produced a block's payload.
type ExtractionSource string

const (
	SourceCollaborator ExtractionSource = "collaborator"
	SourceFallback     ExtractionSource = "fallback"
	SourcePlaceholder  ExtractionSource = "placeholder"
)

// ExtractionResult is the per-block extraction record. Its ID is the extractionId
// grouping the claim's versions, and Status mirrors the latest review status.
type ExtractionResult struct {
	ID                string           `json:"extraction_id"`
	DocumentID        string           `json:"document_id"`
	BlockIndex        int              `json:"block_index"`
	PayerID           *string          `json:"payer_id"`
	PayerName         string           `json:"payer_name"`
	TemplateID        *string          `json:"template_id"`
	TemplateVersionID *string          `json:"template_version_id"`
	MatchFraction     float64          `json:"match_fraction"`
	TemplateMatched   bool             `json:"template_matched"`
	ClaimNumber       string           `json:"claim_number"`
	Source            ExtractionSource `json:"source"`
	Confidence        int              `json:"confidence"`
	RawResponse       json.RawMessage  `json:"raw_response,omitempty"`
	Status            ClaimStatus      `json:"status"`
	CurrentVersion    string           `json:"current_version"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// ClaimExport records the one export generated for an extraction.
type ClaimExport struct {
	ID           string    `json:"id"`
	ExtractionID string    `json:"extraction_id"`
	DocumentID   string    `json:"document_id"`
	Version      string    `json:"version"`
	StorageRef   string    `json:"storage_ref"`
	CreatedBy    string    `json:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
