package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/bedrockruntime"
	"github.com/scauction/foreclosure-backend/models"
	"github.com/scauction/foreclosure-backend/shared"
	"github.com/sirupsen/logrus"
)

const (
	// CountyName and StateCode scope every record this pipeline produces.
	CountyName = "Georgetown"
	StateCode  = "SC"

	cityAbbreviation = "Gtown"

	anthropicVersion    = "bedrock-2023-05-31"
	extractionMaxTokens = 4000
)

// RecordExtractor invokes the document-understanding capability and returns
// structured sale records.
type RecordExtractor interface {
	Extract(ctx context.Context, documentContent []byte, auctionDate time.Time) ([]models.ForeclosureRecord, error)
}

// BedrockExtractor extracts foreclosure records from a notice PDF with a
// fixed field-mapping prompt against AWS Bedrock.
type BedrockExtractor struct {
	client  *bedrockruntime.BedrockRuntime
	modelID string
}

// NewBedrockExtractor creates an extractor bound to the configured model.
func NewBedrockExtractor(region, modelID string) (*BedrockExtractor, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &BedrockExtractor{
		client:  bedrockruntime.New(sess),
		modelID: modelID,
	}, nil
}

// extractionRequest is the Bedrock anthropic-messages payload.
type extractionRequest struct {
	AnthropicVersion string              `json:"anthropic_version"`
	MaxTokens        int                 `json:"max_tokens"`
	Messages         []extractionMessage `json:"messages"`
}

type extractionMessage struct {
	Role    string                  `json:"role"`
	Content []extractionContentPart `json:"content"`
}

type extractionContentPart struct {
	Type   string                   `json:"type"`
	Text   string                   `json:"text,omitempty"`
	Source *extractionContentSource `json:"source,omitempty"`
}

type extractionContentSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// extractionResponse is the subset of the Bedrock response the pipeline reads.
type extractionResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Extract encodes the document, invokes the model with the fixed extraction
// contract, and parses the output as strict JSON. The call is never retried:
// the upstream is deterministic enough that a retry rarely helps and costs
// real resources.
func (e *BedrockExtractor) Extract(ctx context.Context, documentContent []byte, auctionDate time.Time) ([]models.ForeclosureRecord, error) {
	logger := logrus.WithFields(logrus.Fields{
		"component": "BedrockExtractor",
		"method":    "Extract",
		"model_id":  e.modelID,
	})

	encoded := base64.StdEncoding.EncodeToString(documentContent)
	logger.WithField("encoded_length", len(encoded)).Info("Encoded PDF for extraction")

	requestBody, err := json.Marshal(extractionRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        extractionMaxTokens,
		Messages: []extractionMessage{
			{
				Role: "user",
				Content: []extractionContentPart{
					{
						Type: "document",
						Source: &extractionContentSource{
							Type:      "base64",
							MediaType: "application/pdf",
							Data:      encoded,
						},
					},
					{
						Type: "text",
						Text: extractionPrompt(auctionDate),
					},
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extraction request: %w", err)
	}

	response, err := e.client.InvokeModelWithContext(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(e.modelID),
		ContentType: aws.String("application/json"),
		Body:        requestBody,
	})
	if err != nil {
		return nil, shared.WrapError(err, shared.ErrorKindExtraction, "Extract", false)
	}

	var parsed extractionResponse
	if err := json.Unmarshal(response.Body, &parsed); err != nil {
		return nil, shared.NewPipelineError(
			shared.ErrorKindExtraction,
			"failed to decode model response envelope",
			"Extract",
			false,
			err,
		)
	}
	if len(parsed.Content) == 0 {
		return nil, shared.NewPipelineError(
			shared.ErrorKindExtraction,
			"model response contained no content blocks",
			"Extract",
			false,
			nil,
		)
	}

	rawText := parsed.Content[0].Text
	logger.WithField("response_length", len(rawText)).Info("Received extraction response")

	records, err := ParseExtractionOutput(rawText, auctionDate)
	if err != nil {
		return nil, err
	}

	logger.WithField("record_count", len(records)).Info("Parsed foreclosure records")
	return records, nil
}

// extractionPrompt is the fixed field-mapping contract sent with every
// document.
func extractionPrompt(auctionDate time.Time) string {
	return fmt.Sprintf(`You are a parser that extracts structured rows from a tabular foreclosure PDF.
Rules:
- Read the PDF and find the main table of sales.
- Skip the first row of column headers.
- For each remaining row, map the first five cell values, by index, to JSON attributes:
  0 = caseNumber
  1 = plaintiff
  2 = defendant
  3 = tms
  4 = address
- Special rules for the address column:
  * If the value contains a comma, split on the LAST comma.
    - Everything before the comma is `+"`address`"+`.
    - Everything after the comma is `+"`city`"+` (trim it).
  * If the city is '%s', output '%s' instead.
  * If no comma exists, output the entire cell as `+"`address`"+` and set the value of `+"`city`"+` to '%s'.
- Return ONLY valid JSON: an array of objects like
  [{"caseNumber", "plaintiff", "defendant", "tms", "address", "county", "city", "auctionDate", "state"}, ...]
- For the `+"`county`"+` attribute always set it to '%s'.
- For the `+"`state`"+` attribute always set it to '%s'.
- For the `+"`auctionDate`"+` attribute always set the value to '%s'.
- Do NOT include any explanations or markdown—JSON only.`,
		cityAbbreviation, CountyName, CountyName, CountyName, StateCode, auctionDate.Format("2006-01-02"))
}

// extractedRecord is the loose shape the model returns before normalization.
type extractedRecord struct {
	CaseNumber string `json:"caseNumber"`
	Plaintiff  string `json:"plaintiff"`
	Defendant  string `json:"defendant"`
	TMS        string `json:"tms"`
	Address    string `json:"address"`
	City       string `json:"city"`
	County     string `json:"county"`
	State      string `json:"state"`
	Active     *bool  `json:"active"`
}

// ParseExtractionOutput parses the model's raw text as a strict JSON array
// and normalizes each record. A parse failure is terminal and carries the raw
// text for operator inspection.
func ParseExtractionOutput(rawText string, auctionDate time.Time) ([]models.ForeclosureRecord, error) {
	var extracted []extractedRecord
	if err := json.Unmarshal([]byte(rawText), &extracted); err != nil {
		pipelineErr := shared.NewPipelineError(
			shared.ErrorKindExtractionMalformed,
			"failed to parse extraction response as JSON",
			"ParseExtractionOutput",
			false,
			err,
		).WithDetails(map[string]interface{}{"raw_response": rawText})
		pipelineErr.LogError()
		return nil, pipelineErr
	}

	records := make([]models.ForeclosureRecord, 0, len(extracted))
	for _, raw := range extracted {
		records = append(records, normalizeRecord(raw, auctionDate))
	}
	return records, nil
}

// normalizeRecord re-enforces the extraction contract locally so prompt
// drift cannot leak abbreviations or foreign scopes into the store. The
// auction date is always the computed one, never the model's.
func normalizeRecord(raw extractedRecord, auctionDate time.Time) models.ForeclosureRecord {
	address := strings.TrimSpace(raw.Address)
	city := strings.TrimSpace(raw.City)

	if city == "" {
		if lastComma := strings.LastIndex(address, ","); lastComma >= 0 {
			city = strings.TrimSpace(address[lastComma+1:])
			address = strings.TrimSpace(address[:lastComma])
		} else {
			city = CountyName
		}
	}
	if strings.EqualFold(city, cityAbbreviation) {
		city = CountyName
	}

	active := true
	if raw.Active != nil {
		active = *raw.Active
	}

	return models.ForeclosureRecord{
		CaseNumber:  strings.TrimSpace(raw.CaseNumber),
		Plaintiff:   strings.TrimSpace(raw.Plaintiff),
		Defendant:   strings.TrimSpace(raw.Defendant),
		TMS:         strings.TrimSpace(raw.TMS),
		Address:     address,
		City:        city,
		County:      CountyName,
		State:       StateCode,
		AuctionDate: auctionDate,
		Active:      active,
	}
}
