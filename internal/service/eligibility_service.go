package service

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/fukatani/atcoder-problems/internal/models"
	"github.com/fukatani/atcoder-problems/internal/repository"
)

// EligibilityService resolves the set of problems that belong to rated contests.
type EligibilityService interface {
	RatedProblemIDs(ctx context.Context) (map[string]struct{}, error)
}

type eligibilityService struct {
	contests repository.ContestRepository
	logger   zerolog.Logger
}

// NewEligibilityService constructs the eligibility resolver.
func NewEligibilityService(contests repository.ContestRepository, logger zerolog.Logger) EligibilityService {
	return &eligibilityService{
		contests: contests,
		logger:   logger.With().Str("component", "eligibility_service").Logger(),
	}
}

// RatedProblemIDs fetches the rated contest ids and the contest-problem membership
// concurrently, then keeps the problems whose contest is rated. If either fetch fails
// the resolution fails as a whole.
func (s *eligibilityService) RatedProblemIDs(ctx context.Context) (map[string]struct{}, error) {
	var (
		contestIDs []string
		pairs      []models.ContestProblem
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		contestIDs, err = s.contests.RatedContestIDs(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		pairs, err = s.contests.ListContestProblems(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rated := make(map[string]struct{}, len(contestIDs))
	for _, id := range contestIDs {
		rated[id] = struct{}{}
	}

	problems := make(map[string]struct{})
	for _, pair := range pairs {
		if _, ok := rated[pair.ContestID]; ok {
			problems[pair.ProblemID] = struct{}{}
		}
	}

	s.logger.Debug().
		Int("rated_contests", len(rated)).
		Int("rated_problems", len(problems)).
		Msg("resolved rated problem set")

	return problems, nil
}
