package model

type LeaderboardEntry struct {
	Name    string `json:"name"`
	Region  string `json:"region"`
	Sector  string `json:"sector"`
	Credits int    `json:"credits"`
	// Verified and Total count the user's verified and submitted deeds.
	Verified int `json:"verified"`
	Total    int `json:"total"`
}
