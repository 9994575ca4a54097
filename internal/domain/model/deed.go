package model

import "time"

type DeedStatus string

const (
	DeedStatusPending  DeedStatus = "pending"
	DeedStatusVerified DeedStatus = "verified"
)

type Deed struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Category    string     `json:"category"`
	ProofURL    string     `json:"proof_url"`
	Status      DeedStatus `json:"status"`
	Credits     int        `json:"credits"`
	Reward      *int       `json:"reward,omitempty"`
	Impact      *string    `json:"impact,omitempty"`
	Duration    *string    `json:"duration,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	VerifiedAt  *time.Time `json:"verified_at,omitempty"`
}

// CatalogEntry is a read-only seed template offered when choosing a
// deed to log.
type CatalogEntry struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
	Duration    string `json:"duration"`
}
