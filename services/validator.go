package services

import (
	"bytes"
	"strings"

	"github.com/scauction/foreclosure-backend/shared"
	"github.com/sirupsen/logrus"
)

var pdfMagicNumber = []byte("%PDF")

// DocumentValidatorService classifies downloaded bytes as an accepted
// document type. Only PDFs are accepted; the full buffer must be resident
// before the magic-number check.
type DocumentValidatorService struct{}

func NewDocumentValidatorService() *DocumentValidatorService {
	return &DocumentValidatorService{}
}

// Validate accepts the document iff the content-type header contains the PDF
// media type, the URL's trailing extension is pdf, or the bytes begin with
// the PDF magic signature.
func (s *DocumentValidatorService) Validate(contentType, documentURL string, content []byte) error {
	normalizedContentType := strings.ToLower(contentType)
	extension := urlExtension(documentURL)

	logrus.WithFields(logrus.Fields{
		"component":    "DocumentValidatorService",
		"content_type": normalizedContentType,
		"extension":    extension,
		"size_bytes":   len(content),
	}).Info("Validating downloaded document")

	isPDF := strings.Contains(normalizedContentType, "application/pdf") ||
		extension == "pdf" ||
		bytes.HasPrefix(content, pdfMagicNumber)

	if !isPDF {
		err := shared.NewPipelineError(
			shared.ErrorKindUnsupportedDocument,
			"file type not supported - only PDF files are accepted",
			"Validate",
			false,
			nil,
		).WithDetails(map[string]interface{}{
			"content_type": normalizedContentType,
			"extension":    extension,
		})
		err.LogError()
		return err
	}

	return nil
}

// urlExtension returns the lower-cased text after the last dot in the URL,
// or the empty string when no dot is present.
func urlExtension(documentURL string) string {
	lowered := strings.ToLower(documentURL)
	lastDot := strings.LastIndex(lowered, ".")
	if lastDot < 0 {
		return ""
	}
	return lowered[lastDot+1:]
}
