package models

import (
	"time"

	"github.com/google/uuid"
)

// Interaction kinds tracked by the system. Every user action on an
// experience is recorded as exactly one of these.
const (
	InteractionView      = "view"
	InteractionClick     = "click"
	InteractionWishlist  = "wishlist"
	InteractionBooking   = "booking"
	InteractionRating    = "rating"
	InteractionCompleted = "completed"
)

// ValidInteractionKinds enumerates the accepted interaction_type values.
var ValidInteractionKinds = map[string]bool{
	InteractionView:      true,
	InteractionClick:     true,
	InteractionWishlist:  true,
	InteractionBooking:   true,
	InteractionRating:    true,
	InteractionCompleted: true,
}

// Interaction is one recorded user action. Records are append-only: once
// written they are never mutated, and training always works from a fresh
// scan of the full history.
type Interaction struct {
	ID              uuid.UUID `json:"id" db:"id"`
	UserID          string    `json:"user_id" db:"user_id"`
	ItemID          string    `json:"item_id" db:"item_id"`
	InteractionType string    `json:"interaction_type" db:"interaction_type"`
	// Rating is set only when InteractionType == "rating"; for every other
	// kind the training pipeline derives an implicit rating.
	Rating    *float64  `json:"rating,omitempty" db:"rating"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

type InteractionRequest struct {
	UserID          string   `json:"user_id" validate:"required"`
	ItemID          string   `json:"item_id" validate:"required"`
	InteractionType string   `json:"interaction_type" validate:"required,oneof=view click wishlist booking rating completed"`
	Rating          *float64 `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
}

// InteractionEvent is the wire form consumed from the interaction topic.
type InteractionEvent struct {
	UserID          string    `json:"user_id"`
	ItemID          string    `json:"item_id"`
	InteractionType string    `json:"interaction_type"`
	Rating          *float64  `json:"rating,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}
