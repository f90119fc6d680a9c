package model

import "time"

type ExtractionStatus string

const (
	ExtractionStatusExtracted ExtractionStatus = "extracted"
	ExtractionStatusManual    ExtractionStatus = "manual"
	ExtractionStatusFailed    ExtractionStatus = "failed"
)

// SupervisionRequestAbstract is the abstract derived from a request's proposal, one per request
type SupervisionRequestAbstract struct {
	ID                 int64            `json:"id"`
	RequestID          int64            `json:"supervision_request_id"`
	SourceAttachmentID *int64           `json:"source_attachment_id"`
	Content            string           `json:"content"`
	ExtractionStatus   ExtractionStatus `json:"extraction_status"`
	ExtractionError    string           `json:"extraction_error"`
	ExtractedAt        *time.Time       `json:"extracted_at"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}
