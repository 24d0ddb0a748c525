package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remitapi/internal/model"
)

const block = `ACME HEALTH PLAN
CHECK NO. EFT88812345  PAYMENT DATE 03/15/2024  AMOUNT $1,556.32
--------------------
Patient Name: JANE DOE  Member ID: W123456789
Claim Number: 202403150001
Service 03/01/2024  billed $250.00  allowed 200.00  paid 180.00  adj 20.00
Status Code: 1`

func value(t *testing.T, p model.ClaimPayload, key string) string {
	t.Helper()
	v, ok := p.Value(key)
	require.True(t, ok, "missing %s", key)
	return v
}

func TestFallback_Remittance(t *testing.T) {
	p := Fallback(block, model.DefaultSchema())

	assert.Equal(t, "ACME HEALTH PLAN", value(t, p, model.FieldPayerName))
	assert.Equal(t, "EFT88812345", value(t, p, model.FieldPaymentReference))
	assert.Equal(t, "2024-03-15", value(t, p, model.FieldPaymentDate))
	assert.Equal(t, "1556.32", value(t, p, model.FieldPaymentAmount))
	assert.Equal(t, "202403150001", value(t, p, model.FieldClaimNumber))
	assert.Equal(t, "JANE DOE", value(t, p, model.FieldPatientName))
	assert.Equal(t, "W123456789", value(t, p, model.FieldMemberID))
	assert.Equal(t, "2024-03-01", value(t, p, model.FieldServiceDate))
	assert.Equal(t, "250.00", value(t, p, model.FieldBilledAmount))
	assert.Equal(t, "200.00", value(t, p, model.FieldAllowedAmount))
	assert.Equal(t, "180.00", value(t, p, model.FieldPaidAmount))
	assert.Equal(t, "20.00", value(t, p, model.FieldAdjustmentAmount))
	assert.Equal(t, "1", value(t, p, model.FieldClaimStatusCode))
}

func TestFallback_MemberLayoutAndClaimTotal(t *testing.T) {
	text := `UNITEDHEALTHCARE INSURANCE COMPANY
CHECK NO. AMOUNT U2531457 $1556.32
MEMBER BOUFFARD, JUDITH H. NUMBER 04007-996949371-00 ACCOUNT NO. 2569
CLAIM NO. 0400799694
CLAIM TOTAL 350.00 120.00 50.00 180.00`

	p := Fallback(text, model.DefaultSchema())

	assert.Equal(t, "U2531457", value(t, p, model.FieldPaymentReference))
	assert.Equal(t, "1556.32", value(t, p, model.FieldPaymentAmount))
	assert.Equal(t, "BOUFFARD, JUDITH H.", value(t, p, model.FieldPatientName))
	assert.Equal(t, "04007-996949371-00", value(t, p, model.FieldMemberID))
	assert.Equal(t, "0400799694", value(t, p, model.FieldClaimNumber))
	assert.Equal(t, "350.00", value(t, p, model.FieldBilledAmount))
	assert.Equal(t, "180.00", value(t, p, model.FieldPaidAmount))
	assert.Equal(t, "UNITEDHEALTHCARE INSURANCE COMPANY", value(t, p, model.FieldPayerName))
}

func TestFallback_NeverFails(t *testing.T) {
	for _, text := range []string{"", "\n\n", "garbage ###", block + block} {
		p := Fallback(text, model.DefaultSchema())
		assert.Len(t, p.Sections, 2)
	}
	assert.True(t, Fallback("nothing useful here", model.DefaultSchema()).Empty())
}

func TestFallback_OnlySchemaKeys(t *testing.T) {
	narrow := model.TemplateSchema{Sections: []model.TemplateSection{{
		DataKey: "claim",
		Fields:  []model.TemplateField{{Key: model.FieldClaimNumber}},
	}}}
	p := Fallback(block, narrow)
	assert.Equal(t, []string{model.FieldClaimNumber}, p.Keys())
}
