package services

import (
	"testing"
	"time"

	"github.com/scauction/foreclosure-backend/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingBaseURL = "https://county.example.org/469/Master-in-Equity"

func TestParse_SiblingList(t *testing.T) {
	markup := []byte(`
		<html><body>
			<h2>Some Other Section</h2>
			<h2>Upcoming Foreclosure Sales</h2>
			<ul>
				<li><a href="/docs/september-2025.pdf">September 2025</a></li>
				<li><a href="/docs/october-2025.pdf">October 2025</a></li>
			</ul>
		</body></html>`)

	parser := NewListingParserService(listingBaseURL)
	reference, err := parser.Parse(markup)

	require.NoError(t, err)
	assert.Equal(t, "September 2025", reference.LabelText)
	assert.Equal(t, "https://county.example.org/docs/september-2025.pdf", reference.DocumentURL)
}

func TestParse_NestedList(t *testing.T) {
	markup := []byte(`
		<html><body>
			<h2>Upcoming Foreclosure Sales</h2>
			<div class="widget">
				<ul>
					<li><a href="https://cdn.example.org/notice.pdf">November 2025</a></li>
				</ul>
			</div>
		</body></html>`)

	parser := NewListingParserService(listingBaseURL)
	reference, err := parser.Parse(markup)

	require.NoError(t, err)
	assert.Equal(t, "November 2025", reference.LabelText)
	assert.Equal(t, "https://cdn.example.org/notice.pdf", reference.DocumentURL, "absolute hrefs pass through untouched")
}

func TestParse_MissingHeading(t *testing.T) {
	markup := []byte(`<html><body><h2>Court Calendar</h2><ul><li><a href="/x.pdf">x</a></li></ul></body></html>`)

	parser := NewListingParserService(listingBaseURL)
	_, err := parser.Parse(markup)

	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.ErrorKindStructureNotFound))
	assert.Contains(t, err.Error(), "heading")
}

func TestParse_MissingList(t *testing.T) {
	markup := []byte(`<html><body><h2>Upcoming Foreclosure Sales</h2><p>No sales this month.</p></body></html>`)

	parser := NewListingParserService(listingBaseURL)
	_, err := parser.Parse(markup)

	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.ErrorKindStructureNotFound))
	assert.Contains(t, err.Error(), "list")
}

func TestParse_MissingItem(t *testing.T) {
	markup := []byte(`<html><body><h2>Upcoming Foreclosure Sales</h2><ul></ul></body></html>`)

	parser := NewListingParserService(listingBaseURL)
	_, err := parser.Parse(markup)

	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.ErrorKindStructureNotFound))
}

func TestParse_MissingLink(t *testing.T) {
	markup := []byte(`<html><body><h2>Upcoming Foreclosure Sales</h2><ul><li>September 2025</li></ul></body></html>`)

	parser := NewListingParserService(listingBaseURL)
	_, err := parser.Parse(markup)

	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.ErrorKindStructureNotFound))
}

func TestParse_LinkWithoutHref(t *testing.T) {
	markup := []byte(`<html><body><h2>Upcoming Foreclosure Sales</h2><ul><li><a>September 2025</a></li></ul></body></html>`)

	parser := NewListingParserService(listingBaseURL)
	_, err := parser.Parse(markup)

	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.ErrorKindStructureNotFound))
}

func TestParseAuctionMonth(t *testing.T) {
	parsed, err := ParseAuctionMonth("March 2025")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), parsed)

	parsed, err = ParseAuctionMonth("  September 2025 ")
	require.NoError(t, err)
	assert.Equal(t, time.September, parsed.Month())

	_, err = ParseAuctionMonth("Sale List 2025")
	assert.Error(t, err)

	_, err = ParseAuctionMonth("2025-09")
	assert.Error(t, err)
}
