package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ForeclosureRecord is a single sale entry in the auctionitems collection.
// caseNumber is the business key: unique per (state, county).
type ForeclosureRecord struct {
	ID                   primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	CaseNumber           string             `json:"caseNumber" bson:"caseNumber"`
	Plaintiff            string             `json:"plaintiff" bson:"plaintiff"`
	Defendant            string             `json:"defendant" bson:"defendant"`
	TMS                  string             `json:"tms" bson:"tms"`
	Address              string             `json:"address" bson:"address"`
	City                 string             `json:"city" bson:"city"`
	County               string             `json:"county" bson:"county"`
	State                string             `json:"state" bson:"state"`
	AuctionDate          time.Time          `json:"auctionDate" bson:"auctionDate"`
	Active               bool               `json:"active" bson:"active"`
	IsReopen             bool               `json:"isReopen" bson:"isReopen"`
	AttemptedZillowAPI   bool               `json:"attemptedZillowApi" bson:"attemptedZillowApi"`
	AttemptedRentCastAPI bool               `json:"attemptedRentCastApi" bson:"attemptedRentCastApi"`
	AttemptedGeoCodeAPI  bool               `json:"attemptedGeoCodeApi" bson:"attemptedGeoCodeApi"`
	CreateDate           time.Time          `json:"createDate,omitempty" bson:"createDate,omitempty"`
	UpdateDate           time.Time          `json:"updateDate,omitempty" bson:"updateDate,omitempty"`
}

// AuctionSchedule is the computed sale date for one month. AuctionDate is the
// first Monday, or the next business day when the first Monday is a federal
// holiday. Never persisted; recomputed each run.
type AuctionSchedule struct {
	Year             int        `json:"year"`
	Month            time.Month `json:"month"`
	FirstMonday      time.Time  `json:"first_monday"`
	IsHolidayShifted bool       `json:"is_holiday_shifted"`
	AuctionDate      time.Time  `json:"auction_date"`
}

// ListingReference is the parsed result of the county listing page: the
// month label of the first upcoming sale and the absolute document URL.
type ListingReference struct {
	LabelText   string `json:"label_text"`
	DocumentURL string `json:"document_url"`
}

// RunStatus tags the terminal state of a pipeline run.
type RunStatus string

const (
	RunProcessed RunStatus = "processed"
	RunSkipped   RunStatus = "skipped"
	RunFailed    RunStatus = "failed"
)

// RunOutcome is the orchestrator's terminal result for one pipeline run.
type RunOutcome struct {
	RunID          string    `json:"run_id"`
	Status         RunStatus `json:"status"`
	PDFURL         string    `json:"pdf_url,omitempty"`
	AuctionDate    time.Time `json:"auction_date,omitempty"`
	AuctionMonth   string    `json:"auction_month,omitempty"`
	SkipReason     string    `json:"skip_reason,omitempty"`
	UpdatedCount   int       `json:"records_updated"`
	CreatedCount   int       `json:"records_created"`
	TotalProcessed int       `json:"total_processed"`
	Err            error     `json:"-"`
}
