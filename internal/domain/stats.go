package domain

// Stats is the aggregate learning progress of the whole fridge.
type Stats struct {
	CurrentTitle       string  `json:"current_title"`
	NextTitle          string  `json:"next_title"`
	TotalXP            int     `json:"total_xp"`
	NextLevelXP        int     `json:"next_level_xp"`
	ProgressPercentage float64 `json:"progress_percentage"`
	TotalItems         int     `json:"total_items"`
	FreshCount         int     `json:"fresh_count"`
	WarningCount       int     `json:"warning_count"`
	RottenCount        int     `json:"rotten_count"`
}
