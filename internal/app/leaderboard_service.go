package app

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"exceltoquiz/internal/domain"
)

// Period restricts the global leaderboard to recent submissions.
type Period string

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

// ParsePeriod accepts today, week, month or all; blank means all.
func ParsePeriod(raw string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return PeriodAll, nil
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodAll:
		return p, nil
	}
	return "", domain.NewError(domain.KindValidation, "leaderboard", fmt.Sprintf("unknown period %q", raw), domain.ErrInvalidInput)
}

// window returns the maximum age of an entry, or 0 for no limit.
func (p Period) window() time.Duration {
	switch p {
	case PeriodToday:
		return 24 * time.Hour
	case PeriodWeek:
		return 7 * 24 * time.Hour
	case PeriodMonth:
		return 30 * 24 * time.Hour
	}
	return 0
}

// LeaderboardBackend reads leaderboards from the external backend.
type LeaderboardBackend interface {
	QuizLeaderboard(ctx context.Context, quizID string) (domain.QuizLeaderboard, error)
	GlobalLeaderboard(ctx context.Context) ([]domain.GlobalEntry, error)
}

// LeaderboardService serves per-quiz and global rankings.
type LeaderboardService struct {
	backend LeaderboardBackend
	now     func() time.Time
}

func NewLeaderboardService(backend LeaderboardBackend) *LeaderboardService {
	return &LeaderboardService{backend: backend, now: time.Now}
}

// Quiz returns the ranked results of one quiz as computed by the backend.
func (s *LeaderboardService) Quiz(ctx context.Context, quizID string) (domain.QuizLeaderboard, error) {
	return s.backend.QuizLeaderboard(ctx, quizID)
}

// Global returns the cross-quiz ranking for period.
func (s *LeaderboardService) Global(ctx context.Context, period Period) (domain.GlobalLeaderboard, error) {
	entries, err := s.backend.GlobalLeaderboard(ctx)
	if err != nil {
		return domain.GlobalLeaderboard{}, err
	}
	return RankGlobal(entries, period, s.now()), nil
}

// RankGlobal filters entries to period, orders them by score then by time
// taken, and assigns ranks from 1.
func RankGlobal(entries []domain.GlobalEntry, period Period, now time.Time) domain.GlobalLeaderboard {
	window := period.window()

	kept := make([]domain.GlobalEntry, 0, len(entries))
	for _, e := range entries {
		if window > 0 {
			at, ok := e.SubmittedTime()
			if !ok || now.Sub(at) >= window {
				continue
			}
		}
		kept = append(kept, e)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Score != kept[j].Score {
			return kept[i].Score > kept[j].Score
		}
		return kept[i].TimeTaken < kept[j].TimeTaken
	})

	quizzes := make(map[string]struct{})
	sum := 0
	for i := range kept {
		kept[i].Rank = i + 1
		quizzes[kept[i].QuizID] = struct{}{}
		sum += kept[i].Score
	}

	stats := domain.GlobalStats{
		TotalQuizzes:      len(quizzes),
		TotalParticipants: len(kept),
	}
	if len(kept) > 0 {
		stats.AverageScore = int(math.Round(float64(sum) / float64(len(kept))))
	}
	return domain.GlobalLeaderboard{Entries: kept, Stats: stats}
}
