package dto

import (
	"time"

	"github.com/google/uuid"
	"onboarding-media/constant"
)

// TranscodeJob is handed to the background video pipeline. FinalDir is the
// finalized-artifact directory for the record's (model, role) pair; RawPath
// points at the staged upload the job owns until it terminates.
type TranscodeJob struct {
	RecordId uuid.UUID `json:"recordId"`
	RawPath  string    `json:"rawPath"`
	FinalDir string    `json:"finalDir"`
}

type UploadResult struct {
	Id         uuid.UUID `json:"id"`
	Processing bool      `json:"processing"`
	Url        string    `json:"url,omitempty"`
}

type MediaItem struct {
	Id              uuid.UUID          `json:"id"`
	MediaType       constant.MediaType `json:"media_type"`
	MediaRole       constant.MediaRole `json:"media_role"`
	MediaUrl        string             `json:"media_url"`
	PosterUrl       string             `json:"poster_url,omitempty"`
	Processing      bool               `json:"processing"`
	ProcessingError string             `json:"processing_error,omitempty"`
	SortOrder       int                `json:"sort_order"`
	CreatedAt       time.Time          `json:"created_at"`
}
