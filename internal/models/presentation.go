// Package models defines the persisted entities of the presentation
// catalog.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Presentation is one catalog entry: the card metadata shown in the
// gallery plus the raw timeline payload the player validates and loads
type Presentation struct {
	ID          uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	Slug        string    `json:"slug" gorm:"type:text;not null;uniqueIndex;column:slug"`
	Title       string    `json:"title" gorm:"type:text;not null;column:title"`
	Subtitle    string    `json:"subtitle" gorm:"type:text;column:subtitle"`
	Speaker     string    `json:"speaker" gorm:"type:text;column:speaker"`
	Role        string    `json:"role" gorm:"type:text;column:role"`
	Description string    `json:"description" gorm:"type:text;column:description"`
	Image       string    `json:"image" gorm:"type:text;column:image"`
	Timeline    []byte    `json:"-" gorm:"type:blob;not null;column:timeline"`
	CreatedAt   time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// NewPresentation creates a Presentation with a generated UUID and
// timestamps
func NewPresentation(slug, title string, timeline []byte) *Presentation {
	now := time.Now().UTC()
	return &Presentation{
		ID:        uuid.New(),
		Slug:      slug,
		Title:     title,
		Timeline:  timeline,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
