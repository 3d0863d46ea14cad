package dto

import "github.com/hqride/clinical-summarizer/internal/domain"

// SubmitSummaryRequest carries either raw clinical text or a reference to
// an audio recording, never both.
type SubmitSummaryRequest struct {
	Text     string `json:"text"`
	AudioRef string `json:"audio_ref"`
}

type SubmitSummaryResponse struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// SummaryStatusResponse is the polling payload. Summary is present only
// for completed jobs, Error only for failed ones.
type SummaryStatusResponse struct {
	JobID       string                  `json:"job_id"`
	Status      string                  `json:"status"`
	Summary     *domain.ClinicalSummary `json:"summary,omitempty"`
	Error       string                  `json:"error,omitempty"`
	CreatedAt   string                  `json:"created_at"`
	CompletedAt string                  `json:"completed_at,omitempty"`
}

type ListHistoryRequest struct {
	Status   string `form:"status"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

type ListHistoryResponse struct {
	Jobs       []HistoryRecordDTO `json:"jobs"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

// HistoryRecordDTO is one archived terminal job. The archive keeps only
// payload shape, so no clinical text appears here.
type HistoryRecordDTO struct {
	JobID       string `json:"job_id"`
	Status      string `json:"status"`
	TextChars   int    `json:"text_chars"`
	AudioRef    string `json:"audio_ref,omitempty"`
	Error       string `json:"error,omitempty"`
	CreatedAt   string `json:"created_at"`
	CompletedAt string `json:"completed_at"`
}
