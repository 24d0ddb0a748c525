package segment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = `ACME HEALTH PLAN
PO BOX 1234, HARTFORD CT
CHECK NO. EFT88812345  PAYMENT DATE 03/15/2024  AMOUNT $1,556.32
`

func TestSplit_PatientFirstLayout(t *testing.T) {
	text := header + `
Patient Name: JANE DOE  Member ID: W123456789
Claim Number: 202403150001
Service 03/01/2024 billed 250.00 paid 180.00
Patient Name: JOHN ROE  Member ID: W987654321
Claim Number: 202403150002
Service 03/02/2024 billed 125.00 paid 100.00
`
	blocks := New(50).Split(text)

	require.Len(t, blocks, 2)
	for i, b := range blocks {
		assert.Equal(t, i, b.Index)
		assert.Contains(t, b.Header, "ACME HEALTH PLAN")
		assert.True(t, strings.HasPrefix(b.Text(), b.Header+Separator))
		assert.Equal(t, 1, strings.Count(b.Body, "Claim Number"))
	}
	assert.Contains(t, blocks[0].Body, "JANE DOE")
	assert.Contains(t, blocks[1].Body, "202403150002")
}

func TestSplit_ClaimFirstLayout(t *testing.T) {
	text := header + `
Claim Number: 202403150001
Patient Name: JANE DOE  Member ID: W123456789 billed 250.00 paid 180.00
Claim Number: 202403150002
Patient Name: JOHN ROE  Member ID: W987654321 billed 125.00 paid 100.00
Claim No. A202403150003
Patient Name: MARY POE  Member ID: W555555555 billed 300.00 paid 0.00
`
	blocks := New(50).Split(text)

	require.Len(t, blocks, 3)
	assert.True(t, strings.HasPrefix(blocks[0].Body, "Claim Number: 202403150001"))
	assert.Contains(t, blocks[0].Body, "JANE DOE")
	assert.True(t, strings.HasPrefix(blocks[2].Body, "Claim No. A202403150003"))
	assert.Contains(t, blocks[2].Body, "MARY POE")
}

func TestSplit_NoMarker(t *testing.T) {
	long := strings.Repeat("remittance advice without claim identifiers ", 3)

	blocks := New(50).Split(long)
	require.Len(t, blocks, 1)
	assert.Empty(t, blocks[0].Header)
	assert.Equal(t, strings.TrimSpace(long), blocks[0].Text())

	assert.Empty(t, New(50).Split("too short"))
}

func TestSplit_ShortHeaderDropped(t *testing.T) {
	text := "ACME\nPatient Name: JANE DOE Claim Number: 202403150001 billed 250.00 paid 180.00 adj 70.00"
	blocks := New(50).Split(text)
	require.Len(t, blocks, 1)
	assert.Empty(t, blocks[0].Header)
	assert.Equal(t, blocks[0].Body, blocks[0].Text())
}

func TestSplit_TinyBodiesSkipped(t *testing.T) {
	text := header + `
Patient Name: A
Claim Number: 202403150001
Patient Name: JOHN ROE  Member ID: W987654321
Claim Number: 202403150002 billed 125.00 paid 100.00
`
	blocks := New(50).Split(text)
	require.Len(t, blocks, 1)
	assert.Equal(t, 0, blocks[0].Index)
	assert.Contains(t, blocks[0].Body, "JOHN ROE")
}

func TestSplit_Deterministic(t *testing.T) {
	text := header + "Patient Name: JANE DOE\nClaim Number: 202403150001 billed 250.00 paid 180.00 adjustment 70.00\n"
	assert.Equal(t, New(50).Split(text), New(50).Split(text))
}
