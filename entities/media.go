package entities

import (
	"time"

	"github.com/google/uuid"
	"onboarding-media/constant"
)

type MediaRecord struct {
	ID              uuid.UUID          `json:"id"`
	ModelId         uuid.UUID          `json:"model_id"`
	MediaType       constant.MediaType `json:"media_type"`
	MediaRole       constant.MediaRole `json:"media_role"`
	MediaUrl        string             `json:"media_url"`
	PosterUrl       string             `json:"poster_url"`
	Processing      bool               `json:"processing"`
	ProcessingError string             `json:"processing_error"`
	SortOrder       int                `json:"sort_order"`
	CreatedAt       time.Time          `json:"created_at"`
}

func (MediaRecord) TableName() string {
	return "media_records"
}

// Terminal reports whether the record reached its final processing state.
func (m *MediaRecord) Terminal() bool {
	return !m.Processing
}
