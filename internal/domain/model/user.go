package model

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	HashedPassword     string    `json:"-"` // Not exposed
	Role               string    `json:"role"`
	Credits            int       `json:"credits"`
	Region             *string   `json:"region,omitempty"`
	Sector             *string   `json:"sector,omitempty"`
	VerificationStatus string    `json:"verification_status"`
	CreatedAt          time.Time `json:"created_at"`
}

// Profile is the account payload returned by signup and login. The
// completed count is the user's verified deeds.
type Profile struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	Email              string  `json:"email"`
	Role               string  `json:"role"`
	Credits            int     `json:"credits"`
	Completed          int     `json:"completed"`
	Region             *string `json:"region,omitempty"`
	Sector             *string `json:"sector,omitempty"`
	VerificationStatus string  `json:"verification_status"`
	CreatedAt          string  `json:"created_at,omitempty"`
	SessionToken       string  `json:"sessionToken,omitempty"`
}

// ProfileSummary is the public aggregate served by /api/profile and
// returned alongside a verification result.
type ProfileSummary struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email,omitempty"`
	Credits       int    `json:"credits"`
	TotalDeeds    int    `json:"total_deeds"`
	VerifiedDeeds int    `json:"verified_deeds"`
}
