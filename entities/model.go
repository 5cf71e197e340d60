package entities

import (
	"time"

	"github.com/google/uuid"
)

// Model is the owner profile entity media records belong to. Uploads are
// keyed by the authenticated user id and resolved to a model id here.
type Model struct {
	ID        uuid.UUID `json:"id"`
	UserId    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Model) TableName() string {
	return "models"
}
