package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hqride/clinical-summarizer/internal/api/dto"
	"github.com/hqride/clinical-summarizer/internal/archive"
	"github.com/hqride/clinical-summarizer/internal/domain"
)

// ListHistory handles GET /api/v1/jobs
// Lists archived terminal jobs with cursor pagination.
func (h *SummaryHandler) ListHistory(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "job history is not configured",
		})
		return
	}

	var req dto.ListHistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.Status != "" && !domain.JobStatus(req.Status).Valid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid status filter",
		})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	cursor, err := DecodeHistoryCursor(req.Cursor)
	if err != nil {
		h.logger.Error("Invalid cursor", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	records, err := h.history.List(c.Request.Context(), archive.Filter{
		Status:   req.Status,
		PageSize: req.PageSize,
		Cursor:   cursor,
	})
	if err != nil {
		h.logger.Error("Failed to list job history", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list job history",
		})
		return
	}

	hasMore := len(records) > req.PageSize
	if hasMore {
		records = records[:req.PageSize]
	}

	jobs := make([]dto.HistoryRecordDTO, len(records))
	for i, record := range records {
		jobs[i] = dto.HistoryRecordDTO{
			JobID:       record.JobID,
			Status:      record.Status,
			TextChars:   record.TextChars,
			AudioRef:    record.AudioRef,
			Error:       record.Error,
			CreatedAt:   record.CreatedAt.Format(time.RFC3339),
			CompletedAt: record.CompletedAt.Format(time.RFC3339),
		}
	}

	var nextCursor string
	if hasMore {
		last := records[len(records)-1]
		nextCursor = EncodeHistoryCursor(&archive.Cursor{
			CreatedAt: last.CreatedAt,
			JobID:     last.JobID,
		})
	}

	c.JSON(http.StatusOK, dto.ListHistoryResponse{
		Jobs:       jobs,
		NextCursor: nextCursor,
	})
}
