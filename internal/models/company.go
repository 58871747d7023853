package models

import (
	"time"

	"github.com/google/uuid"
)

// Company represents a tenant. Domain, when set, is unique and lower-cased and
// is used to place new registrants into their company by email suffix.
type Company struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
