package model

import "time"

// Business is the target item whose ranking position is tracked.
type Business struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Query is one natural-language ranking question belonging to a business.
// Immutable once created except for the active flag.
type Query struct {
	ID         string    `json:"id"`
	BusinessID string    `json:"business_id"`
	Text       string    `json:"text"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}
