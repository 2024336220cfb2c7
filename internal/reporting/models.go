package reporting

// Overview aggregates interview metrics for the recruiter dashboard.
type Overview struct {
	TotalInterviews     int `json:"total_interviews"`
	ActiveInterviews    int `json:"active_interviews"`
	StartingInterviews  int `json:"starting_interviews"`
	CompletedInterviews int `json:"completed_interviews"`

	TotalDurationSeconds   int `json:"total_duration_seconds"`
	AverageDurationSeconds int `json:"average_duration_seconds"`

	// ScoredInterviews counts records that have been reviewed and scored;
	// AverageScore is over those records only.
	ScoredInterviews int     `json:"scored_interviews"`
	AverageScore     float64 `json:"average_score"`
}
