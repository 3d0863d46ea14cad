package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hqride/clinical-summarizer/internal/api/dto"
	"github.com/hqride/clinical-summarizer/internal/dispatch"
	"github.com/hqride/clinical-summarizer/internal/domain"
	"github.com/hqride/clinical-summarizer/internal/fhir"
)

const healthPingTimeout = 2 * time.Second

// SubmitSummary handles POST /api/v1/summaries
// Accepts a transcript or audio reference and returns a job handle
// immediately; the summary is produced asynchronously.
func (h *SummaryHandler) SubmitSummary(c *gin.Context) {
	var req dto.SubmitSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	job, err := h.submitter.Submit(c.Request.Context(), req.Text, req.AudioRef)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "exactly one of text or audio_ref must be provided",
			})
			return
		}
		h.logger.Error("Failed to submit job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to submit job",
		})
		return
	}

	h.logger.Info("Job submitted",
		slog.String("job_id", job.ID),
		slog.Bool("from_audio", job.AudioRef != ""),
	)

	c.JSON(http.StatusAccepted, dto.SubmitSummaryResponse{
		JobID:     job.ID,
		Status:    string(job.Status),
		CreatedAt: job.CreatedAt.Format(time.RFC3339),
	})
}

// GetSummary handles GET /api/v1/summaries/:job_id
// Returns the current job status, with the summary once completed.
func (h *SummaryHandler) GetSummary(c *gin.Context) {
	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	snapshot, err := h.querier.Query(c.Request.Context(), jobID)
	if err != nil {
		h.respondQueryError(c, jobID, err)
		return
	}

	c.JSON(http.StatusOK, statusResponse(snapshot))
}

// GetSummaryFHIR handles GET /api/v1/summaries/:job_id/fhir
// Renders a completed summary as a FHIR collection bundle.
func (h *SummaryHandler) GetSummaryFHIR(c *gin.Context) {
	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	snapshot, err := h.querier.Query(c.Request.Context(), jobID)
	if err != nil {
		h.respondQueryError(c, jobID, err)
		return
	}

	if snapshot.Job.Status != domain.StatusCompleted {
		c.JSON(http.StatusConflict, gin.H{
			"error":  "job is not completed",
			"status": string(snapshot.Job.Status),
		})
		return
	}

	c.JSON(http.StatusOK, fhir.FromSummary(snapshot.Summary))
}

// Health handles GET /health
// Always answers while the process is alive; dependency states are
// reported so a degraded service is still distinguishable.
func (h *SummaryHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
	defer cancel()

	storeStatus := "up"
	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("Job store unreachable", slog.String("error", err.Error()))
		storeStatus = "down"
	}

	queueStatus := "up"
	if !h.queue.Connected() {
		queueStatus = "down"
	}

	status := "healthy"
	if storeStatus != "up" || queueStatus != "up" {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  status,
		"service": "clinical-summarizer",
		"store":   storeStatus,
		"queue":   queueStatus,
	})
}

func (h *SummaryHandler) respondQueryError(c *gin.Context, jobID string, err error) {
	switch {
	case errors.Is(err, domain.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "job not found or expired",
		})
	case errors.Is(err, domain.ErrResultMissing):
		h.logger.Error("Completed job has no stored result",
			slog.String("job_id", jobID),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "result missing for completed job",
		})
	default:
		h.logger.Error("Failed to query job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to query job",
		})
	}
}

func statusResponse(snapshot *dispatch.Snapshot) dto.SummaryStatusResponse {
	job := snapshot.Job
	resp := dto.SummaryStatusResponse{
		JobID:     job.ID,
		Status:    string(job.Status),
		CreatedAt: job.CreatedAt.Format(time.RFC3339),
	}
	if job.CompletedAt != nil {
		resp.CompletedAt = job.CompletedAt.Format(time.RFC3339)
	}
	switch job.Status {
	case domain.StatusCompleted:
		resp.Summary = snapshot.Summary
	case domain.StatusFailed:
		resp.Error = job.Error
	}
	return resp
}
