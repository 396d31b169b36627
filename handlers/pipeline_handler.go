package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/scauction/foreclosure-backend/jobs"
	"github.com/scauction/foreclosure-backend/models"
	"github.com/scauction/foreclosure-backend/services"
)

// PipelineHandler exposes the acquisition pipeline over HTTP: a synchronous
// trigger plus a read view of the stored records.
type PipelineHandler struct {
	job       *jobs.AuctionUpdateJob
	openStore jobs.StoreOpener
}

func NewPipelineHandler(job *jobs.AuctionUpdateJob, openStore jobs.StoreOpener) *PipelineHandler {
	return &PipelineHandler{job: job, openStore: openStore}
}

// RunPipeline triggers one pipeline run and maps the outcome to the
// response contract: 200 for processed and skipped runs, 500 for failures.
func (h *PipelineHandler) RunPipeline(c *fiber.Ctx) error {
	outcome := h.job.Run(c.Context())

	switch outcome.Status {
	case models.RunProcessed:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"pdf_url":         outcome.PDFURL,
			"auction_date":    outcome.AuctionDate.Format("2006-01-02"),
			"records_updated": outcome.UpdatedCount,
			"records_created": outcome.CreatedCount,
			"total_processed": outcome.TotalProcessed,
		})
	case models.RunSkipped:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"message":           outcome.SkipReason,
			"auction_month":     outcome.AuctionMonth,
			"records_processed": 0,
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": outcome.Err.Error(),
		})
	}
}

// ListAuctions returns the stored Georgetown/SC records.
func (h *PipelineHandler) ListAuctions(c *fiber.Ctx) error {
	store, err := h.openStore(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	defer store.Close(c.Context())

	records, err := store.FindExisting(c.Context(), services.StateCode, services.CountyName)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"count": len(records),
		"items": records,
	})
}
