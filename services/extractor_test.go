package services

import (
	"testing"
	"time"

	"github.com/scauction/foreclosure-backend/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAuctionDate = time.Date(2025, time.October, 6, 0, 0, 0, 0, time.UTC)

func TestParseExtractionOutput(t *testing.T) {
	rawText := `[
		{"caseNumber": "2025-CP-22-00123", "plaintiff": "First Bank", "defendant": "John Doe",
		 "tms": "01-0123-045-00-00", "address": "123 Main St", "city": "Georgetown",
		 "county": "Georgetown", "state": "SC", "auctionDate": "2099-01-01"},
		{"caseNumber": "2025-CP-22-00456", "plaintiff": "Second Bank", "defendant": "Jane Doe",
		 "tms": "01-0456-078-00-00", "address": "9 Oak Ave", "city": "Andrews",
		 "county": "Georgetown", "state": "SC", "auctionDate": "2099-01-01"}
	]`

	records, err := ParseExtractionOutput(rawText, testAuctionDate)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2025-CP-22-00123", records[0].CaseNumber)
	assert.Equal(t, "First Bank", records[0].Plaintiff)
	assert.Equal(t, "Andrews", records[1].City)

	// The model's auctionDate is never trusted; the computed one wins.
	for _, record := range records {
		assert.Equal(t, testAuctionDate, record.AuctionDate)
		assert.Equal(t, "Georgetown", record.County)
		assert.Equal(t, "SC", record.State)
		assert.True(t, record.Active)
	}
}

func TestParseExtractionOutput_MalformedJSON(t *testing.T) {
	rawText := "I found the following records:\n[{\"caseNumber\": ..."

	_, err := ParseExtractionOutput(rawText, testAuctionDate)

	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.ErrorKindExtractionMalformed))

	var pipelineErr *shared.PipelineError
	require.ErrorAs(t, err, &pipelineErr)
	assert.Equal(t, rawText, pipelineErr.Details["raw_response"], "raw text kept for operator inspection")
}

func TestNormalizeRecord_AddressSplitting(t *testing.T) {
	record := normalizeRecord(extractedRecord{
		CaseNumber: "2025-CP-22-00789",
		Address:    "123 Main St, Gtown",
	}, testAuctionDate)

	assert.Equal(t, "123 Main St", record.Address)
	assert.Equal(t, "Georgetown", record.City)
}

func TestNormalizeRecord_LastCommaWins(t *testing.T) {
	record := normalizeRecord(extractedRecord{
		Address: "Lot 4, Pine Grove Rd, Andrews",
	}, testAuctionDate)

	assert.Equal(t, "Lot 4, Pine Grove Rd", record.Address)
	assert.Equal(t, "Andrews", record.City)
}

func TestNormalizeRecord_NoComma(t *testing.T) {
	record := normalizeRecord(extractedRecord{
		Address: "123 Main St",
	}, testAuctionDate)

	assert.Equal(t, "123 Main St", record.Address)
	assert.Equal(t, "Georgetown", record.City)
}

func TestNormalizeRecord_GtownNormalizedEvenWhenModelSplit(t *testing.T) {
	record := normalizeRecord(extractedRecord{
		Address: "77 Bay St",
		City:    "Gtown",
	}, testAuctionDate)

	assert.Equal(t, "77 Bay St", record.Address)
	assert.Equal(t, "Georgetown", record.City)
}

func TestNormalizeRecord_ActiveDefaultAndOverride(t *testing.T) {
	defaulted := normalizeRecord(extractedRecord{CaseNumber: "A"}, testAuctionDate)
	assert.True(t, defaulted.Active)

	inactive := false
	overridden := normalizeRecord(extractedRecord{CaseNumber: "B", Active: &inactive}, testAuctionDate)
	assert.False(t, overridden.Active)
}

func TestExtractionPrompt(t *testing.T) {
	prompt := extractionPrompt(testAuctionDate)

	assert.Contains(t, prompt, "2025-10-06")
	assert.Contains(t, prompt, "Skip the first row")
	assert.Contains(t, prompt, "Gtown")
	assert.Contains(t, prompt, "'Georgetown'")
	assert.Contains(t, prompt, "'SC'")
	assert.Contains(t, prompt, "JSON only")
}
