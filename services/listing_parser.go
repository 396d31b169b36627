package services

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/scauction/foreclosure-backend/models"
	"github.com/scauction/foreclosure-backend/shared"
	"github.com/sirupsen/logrus"
)

// ForeclosureSalesMarker is the heading text that anchors the structural
// search on the county page.
const ForeclosureSalesMarker = "Upcoming Foreclosure Sales"

// auctionMonthLayout matches labels like "September 2025".
const auctionMonthLayout = "January 2006"

// ListingParserService locates the upcoming-sale document link on the county
// listing page. The search path is fixed; a shape mismatch means the county
// redesigned the page, so every failure here is terminal.
type ListingParserService struct {
	baseURL string
}

// NewListingParserService creates a parser that resolves path-relative hrefs
// against listingURL's scheme and host.
func NewListingParserService(listingURL string) *ListingParserService {
	return &ListingParserService{baseURL: listingURL}
}

// Parse extracts the first upcoming-sale label and document URL from markup.
func (s *ListingParserService) Parse(markup []byte) (*models.ListingReference, error) {
	logger := logrus.WithFields(logrus.Fields{
		"component": "ListingParserService",
		"method":    "Parse",
	})

	document, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return nil, shared.NewPipelineError(
			shared.ErrorKindStructureNotFound,
			"failed to parse listing markup",
			"Parse",
			false,
			err,
		)
	}

	heading := s.findMarkerHeading(document)
	if heading == nil {
		return nil, s.structureError("heading", fmt.Sprintf("no heading containing %q", ForeclosureSalesMarker))
	}

	list := s.findSalesList(heading)
	if list == nil {
		return nil, s.structureError("list", "no list element after the foreclosure sales heading")
	}

	item := list.Find("li").First()
	if item.Length() == 0 {
		return nil, s.structureError("item", "no list item in the foreclosure sales list")
	}

	link := item.Find("a").First()
	href, hasHref := link.Attr("href")
	if link.Length() == 0 || !hasHref || href == "" {
		return nil, s.structureError("link", "no link with href in the foreclosure sales item")
	}

	labelText := strings.TrimSpace(link.Text())
	documentURL := s.resolveDocumentURL(href)

	logger.WithFields(logrus.Fields{
		"label_text":   labelText,
		"document_url": documentURL,
	}).Info("Found auction document link")

	return &models.ListingReference{
		LabelText:   labelText,
		DocumentURL: documentURL,
	}, nil
}

// findMarkerHeading returns the first h2 whose text contains the marker.
func (s *ListingParserService) findMarkerHeading(document *goquery.Document) *goquery.Selection {
	var heading *goquery.Selection
	document.Find("h2").EachWithBreak(func(i int, selection *goquery.Selection) bool {
		if strings.Contains(selection.Text(), ForeclosureSalesMarker) {
			heading = selection
			return false
		}
		return true
	})
	return heading
}

// findSalesList returns the ul that is the heading's next sibling, or nested
// inside the next sibling when the page wraps lists in containers.
func (s *ListingParserService) findSalesList(heading *goquery.Selection) *goquery.Selection {
	sibling := heading.Next()
	if sibling.Length() == 0 {
		return nil
	}
	if goquery.NodeName(sibling) == "ul" {
		return sibling
	}
	nested := sibling.Find("ul").First()
	if nested.Length() > 0 {
		return nested
	}
	return nil
}

// resolveDocumentURL prefixes path-relative hrefs with the listing page's
// scheme and host.
func (s *ListingParserService) resolveDocumentURL(href string) string {
	if !strings.HasPrefix(href, "/") {
		return href
	}
	base, err := url.Parse(s.baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return href
	}
	return base.Scheme + "://" + base.Host + href
}

func (s *ListingParserService) structureError(element, message string) *shared.PipelineError {
	err := shared.NewPipelineError(
		shared.ErrorKindStructureNotFound,
		message,
		"Parse",
		false,
		nil,
	).WithDetails(map[string]interface{}{"element": element})
	err.LogError()
	return err
}

// ParseAuctionMonth parses a strict "Month Year" label into the first day of
// that month. The orchestrator treats a parse failure as "use the current
// month" rather than aborting the run.
func ParseAuctionMonth(labelText string) (time.Time, error) {
	parsed, err := time.Parse(auctionMonthLayout, strings.TrimSpace(labelText))
	if err != nil {
		return time.Time{}, fmt.Errorf("could not parse month/year from label %q: %w", labelText, err)
	}
	return parsed, nil
}
