package services

import (
	"context"
	"time"

	"github.com/scauction/foreclosure-backend/models"
	"github.com/scauction/foreclosure-backend/shared"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuctionStore is the persistent-store contract the reconciler writes
// through. database.Store implements it.
type AuctionStore interface {
	FindExisting(ctx context.Context, state, county string) ([]models.ForeclosureRecord, error)
	UpdateAuctionFields(ctx context.Context, id primitive.ObjectID, auctionDate time.Time, active bool, updateDate time.Time) error
	Insert(ctx context.Context, record models.ForeclosureRecord) error
}

// ReconcilerService merges freshly extracted records into the store by
// caseNumber: matched records get their date, active flag and update
// timestamp refreshed; unmatched records are inserted with full bookkeeping
// defaults.
type ReconcilerService struct {
	store AuctionStore
	now   func() time.Time
}

func NewReconcilerService(store AuctionStore) *ReconcilerService {
	return &ReconcilerService{store: store, now: time.Now}
}

// Reconcile fetches one snapshot of existing Georgetown/SC records, then
// walks the extracted records issuing updates and inserts. The snapshot is
// not re-read during the loop; concurrent external mutation is not detected.
// A store error aborts the remaining loop.
func (s *ReconcilerService) Reconcile(ctx context.Context, records []models.ForeclosureRecord, auctionDate time.Time) (updatedCount, createdCount int, err error) {
	logger := logrus.WithFields(logrus.Fields{
		"component": "ReconcilerService",
		"method":    "Reconcile",
	})

	existing, err := s.store.FindExisting(ctx, StateCode, CountyName)
	if err != nil {
		return 0, 0, shared.WrapError(err, shared.ErrorKindStore, "Reconcile", false)
	}
	logger.WithField("existing_count", len(existing)).Info("Fetched existing auction items")

	for i, record := range records {
		logger.WithFields(logrus.Fields{
			"record_index": i + 1,
			"record_total": len(records),
			"case_number":  record.CaseNumber,
		}).Info("Processing extracted record")

		match := findByCaseNumber(existing, record.CaseNumber)
		if match != nil {
			if err := s.store.UpdateAuctionFields(ctx, match.ID, auctionDate, record.Active, s.now()); err != nil {
				return updatedCount, createdCount, shared.WrapError(err, shared.ErrorKindStore, "Reconcile", false)
			}
			updatedCount++
			logger.WithField("case_number", record.CaseNumber).Info("Updated existing record")
			continue
		}

		record.AuctionDate = auctionDate
		record.IsReopen = false
		record.AttemptedZillowAPI = false
		record.AttemptedRentCastAPI = false
		record.AttemptedGeoCodeAPI = false
		record.CreateDate = s.now()

		if err := s.store.Insert(ctx, record); err != nil {
			return updatedCount, createdCount, shared.WrapError(err, shared.ErrorKindStore, "Reconcile", false)
		}
		createdCount++
		logger.WithField("case_number", record.CaseNumber).Info("Created new record")
	}

	logger.WithFields(logrus.Fields{
		"updated": updatedCount,
		"created": createdCount,
	}).Info("Reconciliation complete")

	return updatedCount, createdCount, nil
}

// findByCaseNumber returns the first snapshot record with an exact
// caseNumber match; the business key is assumed unique within scope.
func findByCaseNumber(existing []models.ForeclosureRecord, caseNumber string) *models.ForeclosureRecord {
	for i := range existing {
		if existing[i].CaseNumber == caseNumber {
			return &existing[i]
		}
	}
	return nil
}
