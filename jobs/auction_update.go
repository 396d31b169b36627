package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/scauction/foreclosure-backend/models"
	"github.com/scauction/foreclosure-backend/services"
	"github.com/scauction/foreclosure-backend/shared"
	"github.com/sirupsen/logrus"
)

// RunStore is the run-scoped persistent store: the reconciler's write
// surface plus the close guarantee.
type RunStore interface {
	services.AuctionStore
	Close(ctx context.Context) error
}

// StoreOpener acquires a store connection for a single run.
type StoreOpener func(ctx context.Context) (RunStore, error)

// AuctionUpdateJob runs the acquisition pipeline: fetch the county listing,
// locate the upcoming notice, gate on the auction month, download and
// validate the PDF, extract sale records, and reconcile them into the store.
type AuctionUpdateJob struct {
	CountyURL string
	MongoURL  string

	Fetcher   *shared.HTTPClientFactory
	Parser    *services.ListingParserService
	Calendar  *services.CalendarService
	Validator *services.DocumentValidatorService
	Extractor services.RecordExtractor
	OpenStore StoreOpener

	// now is injectable for month-gate tests.
	now func() time.Time
}

func NewAuctionUpdateJob(
	countyURL, mongoURL string,
	fetcher *shared.HTTPClientFactory,
	parser *services.ListingParserService,
	calendar *services.CalendarService,
	validator *services.DocumentValidatorService,
	extractor services.RecordExtractor,
	openStore StoreOpener,
) *AuctionUpdateJob {
	return &AuctionUpdateJob{
		CountyURL: countyURL,
		MongoURL:  mongoURL,
		Fetcher:   fetcher,
		Parser:    parser,
		Calendar:  calendar,
		Validator: validator,
		Extractor: extractor,
		OpenStore: openStore,
		now:       time.Now,
	}
}

// Run executes one pipeline pass and returns a tagged outcome. Retries are
// confined to the two fetch stages; every other stage fails fast.
func (j *AuctionUpdateJob) Run(ctx context.Context) models.RunOutcome {
	runID := uuid.NewString()
	logger := logrus.WithFields(logrus.Fields{
		"component": "AuctionUpdateJob",
		"run_id":    runID,
	})
	logger.Info("Starting foreclosure auction update run")

	// Required configuration fails fast, before any network activity.
	if j.MongoURL == "" {
		err := shared.NewPipelineError(
			shared.ErrorKindConfigurationMissing,
			"MONGO_DB_URL environment variable not set",
			"Run",
			false,
			nil,
		)
		return j.failed(runID, logger, err)
	}

	listing, err := j.Fetcher.Fetch(ctx, j.CountyURL, shared.ListingFetchPolicy(),
		"text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if err != nil {
		return j.failed(runID, logger, err)
	}

	reference, err := j.Parser.Parse(listing.Body)
	if err != nil {
		return j.failed(runID, logger, err)
	}

	schedule, skip := j.gateAuctionMonth(runID, logger, reference.LabelText)
	if skip != nil {
		return *skip
	}

	document, err := j.Fetcher.Fetch(ctx, reference.DocumentURL, shared.DocumentFetchPolicy(), "application/pdf,*/*")
	if err != nil {
		return j.failed(runID, logger, err)
	}

	if err := j.Validator.Validate(document.ContentType, reference.DocumentURL, document.Body); err != nil {
		return j.failed(runID, logger, err)
	}

	records, err := j.Extractor.Extract(ctx, document.Body, schedule.AuctionDate)
	if err != nil {
		return j.failed(runID, logger, err)
	}

	store, err := j.OpenStore(ctx)
	if err != nil {
		return j.failed(runID, logger, shared.WrapError(err, shared.ErrorKindStore, "Run", false))
	}
	defer func() {
		if closeErr := store.Close(context.Background()); closeErr != nil {
			logger.WithError(closeErr).Warn("Failed to close store connection")
		}
	}()

	reconciler := services.NewReconcilerService(store)
	updated, created, err := reconciler.Reconcile(ctx, records, schedule.AuctionDate)
	if err != nil {
		return j.failed(runID, logger, err)
	}

	logger.WithFields(logrus.Fields{
		"pdf_url":         reference.DocumentURL,
		"auction_date":    schedule.AuctionDate.Format("2006-01-02"),
		"records_updated": updated,
		"records_created": created,
		"total_processed": len(records),
	}).Info("Foreclosure auction update run complete")

	return models.RunOutcome{
		RunID:          runID,
		Status:         models.RunProcessed,
		PDFURL:         reference.DocumentURL,
		AuctionDate:    schedule.AuctionDate,
		UpdatedCount:   updated,
		CreatedCount:   created,
		TotalProcessed: len(records),
	}
}

// gateAuctionMonth decides whether the listed month is worth processing.
// A listed month at or before the current month short-circuits the run; an
// unparseable label falls back to scheduling the current month.
func (j *AuctionUpdateJob) gateAuctionMonth(runID string, logger *logrus.Entry, labelText string) (models.AuctionSchedule, *models.RunOutcome) {
	now := j.now()
	currentMonthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	auctionMonth, err := services.ParseAuctionMonth(labelText)
	if err != nil {
		logger.WithError(err).Warn("Could not parse auction month label, falling back to current month")
		return j.Calendar.AuctionDateFor(now.Year(), now.Month()), nil
	}

	logger.WithFields(logrus.Fields{
		"listed_month":  auctionMonth.Format("January 2006"),
		"current_month": currentMonthStart.Format("January 2006"),
	}).Info("Comparing listed auction month against current month")

	if !auctionMonth.After(currentMonthStart) {
		logger.WithField("auction_month", labelText).Info("Listed auction is not upcoming, skipping run")
		return models.AuctionSchedule{}, &models.RunOutcome{
			RunID:        runID,
			Status:       models.RunSkipped,
			AuctionMonth: labelText,
			SkipReason:   fmt.Sprintf("Skipped processing %s - showing only upcoming auctions", labelText),
		}
	}

	return j.Calendar.AuctionDateFor(auctionMonth.Year(), auctionMonth.Month()), nil
}

func (j *AuctionUpdateJob) failed(runID string, logger *logrus.Entry, err error) models.RunOutcome {
	logger.WithError(err).Error("Foreclosure auction update run failed")
	return models.RunOutcome{
		RunID:  runID,
		Status: models.RunFailed,
		Err:    err,
	}
}
