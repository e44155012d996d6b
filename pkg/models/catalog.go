package models

import "time"

// Experience is one bookable catalog item. The recommender only reads the
// catalog; ownership of the data lives with the catalog service.
type Experience struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Category    string    `json:"category" db:"category"`
	Rating      float64   `json:"rating" db:"rating"`
	ReviewCount int       `json:"review_count" db:"review_count"`
	Price       float64   `json:"price,omitempty" db:"price"`
	ImageURL    string    `json:"image_url,omitempty" db:"image_url"`
	Active      bool      `json:"active" db:"active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
