// Package template scores claims against payer templates and manages template versions.
package template

import (
	"context"
	"fmt"

	"remitapi/internal/model"
	"remitapi/internal/repository"
)

// MatchFraction is the share of a template's keys present among the extracted
// keys: |extracted ∩ template| / max(1, |template|). Keys are compared normalized.
func MatchFraction(extracted, templateKeys []string) float64 {
	have := make(map[string]struct{}, len(extracted))
	for _, k := range extracted {
		have[model.NormalizeKey(k)] = struct{}{}
	}
	want := make(map[string]struct{}, len(templateKeys))
	for _, k := range templateKeys {
		if k = model.NormalizeKey(k); k != "" {
			want[k] = struct{}{}
		}
	}
	hit := 0
	for k := range want {
		if _, ok := have[k]; ok {
			hit++
		}
	}
	return float64(hit) / float64(max(1, len(want)))
}

// MatchResult is the outcome of scoring one claim against a payer's templates.
type MatchResult struct {
	Candidate    *model.TemplateCandidate
	Fraction     float64
	Matched      bool
	HasTemplates bool
}

// Accepted reports whether the best candidate is written as the detected template.
func (r MatchResult) Accepted() bool {
	return r.Candidate != nil && r.Fraction > 0
}

// Matcher selects the best-scoring template version of a payer.
type Matcher struct {
	templates repository.TemplateRepository
	threshold float64
}

func NewMatcher(templates repository.TemplateRepository, threshold float64) *Matcher {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.6
	}
	return &Matcher{templates: templates, threshold: threshold}
}

// Match scores keys against every version of every template of payerID.
func (m *Matcher) Match(ctx context.Context, payerID string, keys []string) (MatchResult, error) {
	candidates, err := m.templates.ListCandidates(ctx, payerID)
	if err != nil {
		return MatchResult{}, fmt.Errorf("list template candidates: %w", err)
	}
	return m.Best(candidates, keys), nil
}

// Best picks the highest fraction. Ties prefer a template's current version,
// then the higher version number.
func (m *Matcher) Best(candidates []model.TemplateCandidate, keys []string) MatchResult {
	res := MatchResult{HasTemplates: len(candidates) > 0}
	for i := range candidates {
		c := &candidates[i]
		f := MatchFraction(keys, c.Version.Schema.FieldKeys())
		if res.Candidate == nil || f > res.Fraction || (f == res.Fraction && preferred(c, res.Candidate)) {
			res.Candidate = c
			res.Fraction = f
		}
	}
	res.Matched = res.Candidate != nil && res.Fraction >= m.threshold
	return res
}

func preferred(a, b *model.TemplateCandidate) bool {
	if a.IsCurrent() != b.IsCurrent() {
		return a.IsCurrent()
	}
	return a.Version.VersionNumber > b.Version.VersionNumber
}

// ExpectedSchema is the layout extraction asks for: the default remittance
// schema merged with the current version of each of the payer's templates.
func (m *Matcher) ExpectedSchema(ctx context.Context, payerID string) (model.TemplateSchema, error) {
	schema := model.DefaultSchema()
	if payerID == "" {
		return schema, nil
	}
	candidates, err := m.templates.ListCandidates(ctx, payerID)
	if err != nil {
		return schema, fmt.Errorf("list template candidates: %w", err)
	}
	for _, c := range candidates {
		if c.IsCurrent() {
			schema = schema.Merge(c.Version.Schema)
		}
	}
	return schema, nil
}
