package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// FieldType tells how a claim field value is normalized.
type FieldType string

const (
	FieldText   FieldType = "text"
	FieldNumber FieldType = "number"
	FieldMoney  FieldType = "money"
	FieldDate   FieldType = "date"
)

// Well-known field keys the pipeline reads from every payload.
const (
	FieldClaimNumber      = "claim_number"
	FieldPatientName      = "patient_name"
	FieldMemberID         = "member_id"
	FieldPayerName        = "payer_name"
	FieldPaymentReference = "payment_reference"
	FieldPaymentDate      = "payment_date"
	FieldPaymentAmount    = "payment_amount"
	FieldServiceDate      = "service_date"
	FieldBilledAmount     = "billed_amount"
	FieldAllowedAmount    = "allowed_amount"
	FieldPaidAmount       = "paid_amount"
	FieldAdjustmentAmount = "adjustment_amount"
	FieldClaimStatusCode  = "claim_status_code"
)

// TemplateField is one stable key in a template schema.
type TemplateField struct {
	Key   string    `json:"field" yaml:"field"`
	Label string    `json:"label,omitempty" yaml:"label,omitempty"`
	Type  FieldType `json:"type,omitempty" yaml:"type,omitempty"`
}

// TemplateSection groups ordered fields under a data key.
type TemplateSection struct {
	DataKey string          `json:"dataKey" yaml:"dataKey"`
	Name    string          `json:"sectionName" yaml:"sectionName"`
	Fields  []TemplateField `json:"fields" yaml:"fields"`
}

// TemplateSchema is the ordered section/field layout of a template version.
// Slice order is the display and extraction order.
type TemplateSchema struct {
	Sections []TemplateSection `json:"sections" yaml:"sections"`
}

// NormalizeKey canonicalizes a field key for comparison.
func NormalizeKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}

// FieldKeys flattens the schema into its ordered, de-duplicated normalized keys.
func (s TemplateSchema) FieldKeys() []string {
	seen := make(map[string]struct{})
	keys := make([]string, 0)
	for _, sec := range s.Sections {
		for _, f := range sec.Fields {
			k := NormalizeKey(f.Key)
			if k == "" {
				continue
			}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return keys
}

// Field looks a field up by key.
func (s TemplateSchema) Field(key string) (TemplateField, bool) {
	k := NormalizeKey(key)
	for _, sec := range s.Sections {
		for _, f := range sec.Fields {
			if NormalizeKey(f.Key) == k {
				return f, true
			}
		}
	}
	return TemplateField{}, false
}

// Validate checks the schema can drive extraction.
func (s TemplateSchema) Validate() error {
	if len(s.Sections) == 0 {
		return errors.New("schema has no sections")
	}
	seen := make(map[string]struct{})
	for i, sec := range s.Sections {
		if strings.TrimSpace(sec.DataKey) == "" {
			return fmt.Errorf("section %d: dataKey is required", i)
		}
		if len(sec.Fields) == 0 {
			return fmt.Errorf("section %q has no fields", sec.DataKey)
		}
		for _, f := range sec.Fields {
			k := NormalizeKey(f.Key)
			if k == "" {
				return fmt.Errorf("section %q: field key is required", sec.DataKey)
			}
			if _, ok := seen[k]; ok {
				return fmt.Errorf("duplicate field key %q", k)
			}
			seen[k] = struct{}{}
			switch f.Type {
			case "", FieldText, FieldNumber, FieldMoney, FieldDate:
			default:
				return fmt.Errorf("field %q: unknown type %q", k, f.Type)
			}
		}
	}
	return nil
}

// Merge returns the union of s and other. Sections pair up by data key and
// fields already present anywhere in s are not repeated.
func (s TemplateSchema) Merge(other TemplateSchema) TemplateSchema {
	out := s.clone()
	seen := make(map[string]struct{})
	for _, k := range out.FieldKeys() {
		seen[k] = struct{}{}
	}
	for _, sec := range other.Sections {
		idx := -1
		for i := range out.Sections {
			if out.Sections[i].DataKey == sec.DataKey {
				idx = i
				break
			}
		}
		if idx == -1 {
			out.Sections = append(out.Sections, TemplateSection{DataKey: sec.DataKey, Name: sec.Name})
			idx = len(out.Sections) - 1
		}
		for _, f := range sec.Fields {
			k := NormalizeKey(f.Key)
			if _, ok := seen[k]; ok || k == "" {
				continue
			}
			seen[k] = struct{}{}
			out.Sections[idx].Fields = append(out.Sections[idx].Fields, f)
		}
	}
	return out
}

// EmptyPayload lays the schema out as a payload with every value unset.
func (s TemplateSchema) EmptyPayload() ClaimPayload {
	p := ClaimPayload{Sections: make([]PayloadSection, 0, len(s.Sections))}
	for _, sec := range s.Sections {
		ps := PayloadSection{DataKey: sec.DataKey, Name: sec.Name, Fields: make([]PayloadField, 0, len(sec.Fields))}
		for _, f := range sec.Fields {
			ps.Fields = append(ps.Fields, PayloadField{Key: NormalizeKey(f.Key), Label: f.Label, Type: f.Type})
		}
		p.Sections = append(p.Sections, ps)
	}
	return p
}

func (s TemplateSchema) clone() TemplateSchema {
	out := TemplateSchema{Sections: make([]TemplateSection, len(s.Sections))}
	for i, sec := range s.Sections {
		out.Sections[i] = TemplateSection{DataKey: sec.DataKey, Name: sec.Name, Fields: append([]TemplateField(nil), sec.Fields...)}
	}
	return out
}

// DefaultSchema is the remittance layout every extraction starts from.
func DefaultSchema() TemplateSchema {
	return TemplateSchema{Sections: []TemplateSection{
		{
			DataKey: "payment",
			Name:    "Payment Information",
			Fields: []TemplateField{
				{Key: FieldPayerName, Label: "Payer Name", Type: FieldText},
				{Key: FieldPaymentReference, Label: "Check/EFT Number", Type: FieldText},
				{Key: FieldPaymentDate, Label: "Payment Date", Type: FieldDate},
				{Key: FieldPaymentAmount, Label: "Payment Amount", Type: FieldMoney},
			},
		},
		{
			DataKey: "claim",
			Name:    "Claim Information",
			Fields: []TemplateField{
				{Key: FieldClaimNumber, Label: "Claim Number", Type: FieldText},
				{Key: FieldPatientName, Label: "Patient Name", Type: FieldText},
				{Key: FieldMemberID, Label: "Member ID", Type: FieldText},
				{Key: FieldClaimStatusCode, Label: "Claim Status Code", Type: FieldText},
				{Key: FieldServiceDate, Label: "Service Date", Type: FieldDate},
				{Key: FieldBilledAmount, Label: "Billed Amount", Type: FieldMoney},
				{Key: FieldAllowedAmount, Label: "Allowed Amount", Type: FieldMoney},
				{Key: FieldPaidAmount, Label: "Paid Amount", Type: FieldMoney},
				{Key: FieldAdjustmentAmount, Label: "Adjustment Amount", Type: FieldMoney},
			},
		},
	}}
}

// Template is a payer-scoped schema owner; CurrentVersionID points at the live version.
type Template struct {
	ID               string    `json:"id"`
	OrgID            string    `json:"org_id"`
	PayerID          string    `json:"payer_id"`
	Name             string    `json:"name"`
	CurrentVersionID *string   `json:"current_version_id"`
	CreatedBy        string    `json:"created_by,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// TemplateVersion is an immutable snapshot of a template schema.
type TemplateVersion struct {
	ID            string         `json:"id"`
	TemplateID    string         `json:"template_id"`
	VersionNumber int            `json:"version_number"`
	Schema        TemplateSchema `json:"schema"`
	CreatedBy     string         `json:"created_by,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// TemplateCandidate pairs a version with its template for matching.
type TemplateCandidate struct {
	Template Template
	Version  TemplateVersion
}

// IsCurrent reports whether the candidate's version is its template's current one.
func (c TemplateCandidate) IsCurrent() bool {
	return c.Template.CurrentVersionID != nil && *c.Template.CurrentVersionID == c.Version.ID
}
