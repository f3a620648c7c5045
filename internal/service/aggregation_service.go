package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fukatani/atcoder-problems/internal/models"
	"github.com/fukatani/atcoder-problems/internal/observability"
	"github.com/fukatani/atcoder-problems/internal/repository"
)

// IntegrityViolationError reports an accepted submission on a rated problem whose point
// value is not integral. Fractional partial credit is only possible on unrated problems,
// so such a row means the stored data is corrupt.
type IntegrityViolationError struct {
	SubmissionID int64
	ProblemID    string
	Point        float64
}

func (e *IntegrityViolationError) Error() string {
	return fmt.Sprintf(
		"submission %d on problem %s, which is a rated problem, has non-integer point %v",
		e.SubmissionID, e.ProblemID, e.Point,
	)
}

// AggregationReport summarises one completed recompute run.
type AggregationReport struct {
	RunID       uuid.UUID
	Submissions int
	Users       int
	Duration    time.Duration
}

// AggregationService recomputes the rated point sum aggregate from accepted submissions.
type AggregationService interface {
	Run(ctx context.Context) (AggregationReport, error)
	UpdateFromSubmissions(ctx context.Context, acSubmissions []models.Submission) (AggregationReport, error)
}

type aggregationService struct {
	eligibility EligibilityService
	submissions repository.SubmissionRepository
	sums        repository.RatedPointSumRepository
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewAggregationService constructs the aggregation pipeline.
func NewAggregationService(
	eligibility EligibilityService,
	submissions repository.SubmissionRepository,
	sums repository.RatedPointSumRepository,
	logger zerolog.Logger,
) AggregationService {
	return &aggregationService{
		eligibility: eligibility,
		submissions: submissions,
		sums:        sums,
		logger:      logger.With().Str("component", "aggregation_service").Logger(),
		tracer:      otel.Tracer("github.com/fukatani/atcoder-problems/internal/service/aggregation"),
	}
}

// Run recomputes the aggregate over every accepted submission in the archive.
func (s *aggregationService) Run(ctx context.Context) (AggregationReport, error) {
	ctx, span := s.tracer.Start(ctx, "rated_point_sum.run")
	defer span.End()

	var (
		ratedProblems map[string]struct{}
		acSubmissions []models.Submission
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ratedProblems, err = s.eligibility.RatedProblemIDs(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		acSubmissions, err = s.submissions.AllAccepted(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "source_read_failed")
		observability.AggregationRuns().WithLabelValues("error").Inc()
		return AggregationReport{}, err
	}

	return s.update(ctx, acSubmissions, ratedProblems)
}

// UpdateFromSubmissions recomputes the aggregate from a caller-supplied batch of
// accepted submissions, leaving users absent from the batch untouched.
func (s *aggregationService) UpdateFromSubmissions(ctx context.Context, acSubmissions []models.Submission) (AggregationReport, error) {
	ctx, span := s.tracer.Start(ctx, "rated_point_sum.update_from_submissions")
	defer span.End()

	ratedProblems, err := s.eligibility.RatedProblemIDs(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "source_read_failed")
		observability.AggregationRuns().WithLabelValues("error").Inc()
		return AggregationReport{}, err
	}

	return s.update(ctx, acSubmissions, ratedProblems)
}

func (s *aggregationService) update(ctx context.Context, acSubmissions []models.Submission, ratedProblems map[string]struct{}) (AggregationReport, error) {
	ctx, span := s.tracer.Start(ctx, "rated_point_sum.update")
	span.SetAttributes(
		attribute.Int("aggregation.submissions", len(acSubmissions)),
		attribute.Int("aggregation.rated_problems", len(ratedProblems)),
	)
	defer span.End()

	start := time.Now()
	runID := uuid.New()
	logger := s.logger.With().Stringer("run_id", runID).Logger()

	sums, err := AggregatePointSums(acSubmissions, ratedProblems)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "integrity_violation")
		observability.AggregationRuns().WithLabelValues("error").Inc()
		return AggregationReport{}, err
	}

	if err := s.sums.UpsertSums(ctx, sums); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence_failed")
		observability.AggregationRuns().WithLabelValues("error").Inc()
		return AggregationReport{}, err
	}

	report := AggregationReport{
		RunID:       runID,
		Submissions: len(acSubmissions),
		Users:       len(sums),
		Duration:    time.Since(start),
	}

	observability.AggregationRuns().WithLabelValues("ok").Inc()
	observability.AggregationDuration().Observe(report.Duration.Seconds())
	observability.UpsertedUsers().Add(float64(report.Users))

	logger.Info().
		Int("submissions", report.Submissions).
		Int("users", report.Users).
		Dur("duration", report.Duration).
		Msg("rated point sum recompute finished")

	return report, nil
}

// AggregatePointSums folds accepted submissions into one integer point sum per user,
// covering only users with at least one contributing submission, ordered by user id.
//
// Submissions on problems outside ratedProblems are discarded. When two submissions
// collide on the same (user, problem), the later one in input order wins; this is not a
// max, and rank comparisons downstream depend on the exact value. A non-integer point
// on a rated problem aborts the whole fold.
func AggregatePointSums(acSubmissions []models.Submission, ratedProblems map[string]struct{}) ([]models.UserSum, error) {
	points := make(map[string]map[string]int64)
	for _, sub := range acSubmissions {
		if _, ok := ratedProblems[sub.ProblemID]; !ok {
			continue
		}
		if sub.Point != math.Trunc(sub.Point) {
			return nil, &IntegrityViolationError{
				SubmissionID: sub.ID,
				ProblemID:    sub.ProblemID,
				Point:        sub.Point,
			}
		}

		byProblem, ok := points[sub.UserID]
		if !ok {
			byProblem = make(map[string]int64)
			points[sub.UserID] = byProblem
		}
		byProblem[sub.ProblemID] = int64(sub.Point)
	}

	sums := make([]models.UserSum, 0, len(points))
	for userID, byProblem := range points {
		var total int64
		for _, point := range byProblem {
			total += point
		}
		sums = append(sums, models.UserSum{UserID: userID, PointSum: total})
	}

	// Deterministic output keeps chunk boundaries stable across reruns.
	sort.Slice(sums, func(i, j int) bool {
		return sums[i].UserID < sums[j].UserID
	})

	return sums, nil
}
