package extraction

import (
	"regexp"
	"strings"

	"remitapi/internal/model"
)

const datePattern = `(\d{1,2}/\d{1,2}/\d{2,4}|\d{4}-\d{2}-\d{2})`

const amountPattern = `\$?\s?(\(?-?[\d,]+\.\d{2}\)?)`

// lineRule extracts one field from a single line. The first rule to match a
// field wins; later lines never overwrite it.
type lineRule struct {
	key string
	re  *regexp.Regexp
}

var lineRules = []lineRule{
	{model.FieldPayerName, regexp.MustCompile(`(?i)^\s*payer(?:\s*name)?\s*[:\-]\s*(.+?)\s*$`)},
	{model.FieldClaimNumber, regexp.MustCompile(`(?i)claim\s*(?:number|no\.?)[\s:#]*([A-Z]?\d{8,})`)},
	{model.FieldPatientName, regexp.MustCompile(`(?i)patient\s*name[\s:]+([A-Z][A-Z ,.'-]*?)(?:\s{2,}|\s+(?:member|claim|acct|account|id)\b|\s*$)`)},
	{model.FieldPatientName, regexp.MustCompile(`^\s*MEMBER\s+(.+?)\s+NUMBER\s+\S+`)},
	{model.FieldMemberID, regexp.MustCompile(`(?i)member\s*id[\s:#]*([A-Z0-9][A-Z0-9-]{4,})`)},
	{model.FieldMemberID, regexp.MustCompile(`^\s*MEMBER\s+.+?\s+NUMBER\s+(\S+)`)},
	{model.FieldPaymentReference, regexp.MustCompile(`(?i)\b(?:check|eft|trace)\b[^\n]*?\b([A-Z]{0,3}\d[A-Z0-9-]{4,})`)},
	{model.FieldPaymentDate, regexp.MustCompile(`(?i)(?:payment|check|issue|paid)\s*date[\s:]*` + datePattern)},
	{model.FieldPaymentAmount, regexp.MustCompile(`(?i)(?:check|payment|eft)[^\n]*?amount[\s:]*(?:[A-Z]{0,3}\d[A-Z0-9-]{4,}\s+)?` + amountPattern)},
	{model.FieldServiceDate, regexp.MustCompile(`(?i)(?:date of service|service(?:\s*date)?|dos)[^\n\d]{0,20}` + datePattern)},
	{model.FieldBilledAmount, regexp.MustCompile(`(?i)\b(?:billed|charge[sd]?)(?:\s*amount)?[\s:]*` + amountPattern)},
	{model.FieldAllowedAmount, regexp.MustCompile(`(?i)\ballowed(?:\s*amount)?[\s:]*` + amountPattern)},
	{model.FieldPaidAmount, regexp.MustCompile(`(?i)\bpaid(?:\s*amount)?[\s:]*` + amountPattern)},
	{model.FieldAdjustmentAmount, regexp.MustCompile(`(?i)\badj(?:ustment)?(?:\s*amount)?[\s:]*` + amountPattern)},
	{model.FieldClaimStatusCode, regexp.MustCompile(`(?i)\bstatus\s*(?:code)?[\s:]*(\d{1,2})\b`)},
}

var (
	claimTotal  = regexp.MustCompile(`(?i)^\s*claim\s+total\s+(.+)$`)
	amountToken = regexp.MustCompile(`\(?-?[\d,]+\.\d{2}\)?`)
	payerLine   = regexp.MustCompile(`(?i)\b(health|healthcare|insurance|assurance|mutual|plan|blue cross|blue shield|medicare|medicaid)\b`)
)

// Fallback is the rule-based extractor. It reads line-oriented cues (labels,
// claim totals, dollar amounts and dates) and never fails: the result always
// carries the schema's layout, possibly with no values.
func Fallback(text string, schema model.TemplateSchema) model.ClaimPayload {
	p := schema.EmptyPayload()
	found := make(map[string]bool)
	set := func(key, val string) {
		val = strings.TrimSpace(val)
		if val == "" || found[key] {
			return
		}
		if p.Set(key, val) {
			found[key] = true
		}
	}

	lines := strings.Split(text, "\n")
	for _, line := range lines {
		if m := claimTotal.FindStringSubmatch(line); m != nil {
			amounts := amountToken.FindAllString(m[1], -1)
			if len(amounts) >= 2 {
				set(model.FieldBilledAmount, amounts[0])
				set(model.FieldPaidAmount, amounts[len(amounts)-1])
			}
			if len(amounts) >= 3 {
				set(model.FieldAllowedAmount, amounts[1])
			}
			continue
		}
		for _, r := range lineRules {
			if found[r.key] {
				continue
			}
			if m := r.re.FindStringSubmatch(line); m != nil {
				set(r.key, m[1])
			}
		}
	}

	if !found[model.FieldPayerName] {
		for _, line := range lines {
			if payerLine.MatchString(line) && !strings.Contains(strings.ToLower(line), "patient") {
				name := strings.TrimSpace(line)
				if len(name) > 50 {
					name = name[:50]
				}
				set(model.FieldPayerName, name)
				break
			}
		}
	}
	return p
}
