package report

import (
	"time"

	"github.com/google/uuid"
)

type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Summary aggregates blocking activity for a reporting window.
type Summary struct {
	ID               uuid.UUID `json:"id"`
	GeneratedAt      time.Time `json:"generated_at"`
	WindowStart      time.Time `json:"window_start"`
	TotalActive      int       `json:"total_active"`
	Automatic        int       `json:"automatic"`
	Manual           int       `json:"manual"`
	Permanent        int       `json:"permanent"`
	TopCategories    []Count   `json:"top_categories"`
	TopCountries     []Count   `json:"top_countries"`
	ReviewQueue      int       `json:"review_queue"`
	BlocksInWindow   int       `json:"blocks_in_window"`
	UnblocksInWindow int       `json:"unblocks_in_window"`
}
