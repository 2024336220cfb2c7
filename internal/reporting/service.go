package reporting

import (
	"context"
	"errors"

	"ai-recruiter/internal/interview"
)

// Repository abstracts data access for reporting. The interview record store
// satisfies it directly.
type Repository interface {
	List(ctx context.Context) ([]interview.Record, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

// Overview computes dashboard aggregates across all interview records.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	if s.repo == nil {
		return Overview{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.repo.List(ctx)
	if err != nil {
		return Overview{}, err
	}

	out := Overview{}
	var scoreSum float64
	for _, rec := range rows {
		out.TotalInterviews++
		switch rec.Status {
		case interview.StatusStarting:
			out.StartingInterviews++
		case interview.StatusActive:
			out.ActiveInterviews++
		case interview.StatusCompleted:
			out.CompletedInterviews++
			out.TotalDurationSeconds += rec.Duration
		}
		if rec.Score != nil {
			out.ScoredInterviews++
			scoreSum += *rec.Score
		}
	}
	if out.CompletedInterviews > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / out.CompletedInterviews
	}
	if out.ScoredInterviews > 0 {
		out.AverageScore = scoreSum / float64(out.ScoredInterviews)
	}
	return out, nil
}
