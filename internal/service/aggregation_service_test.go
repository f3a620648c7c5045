package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fukatani/atcoder-problems/internal/models"
	"github.com/fukatani/atcoder-problems/internal/repository"
)

func ratedSet(problemIDs ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(problemIDs))
	for _, id := range problemIDs {
		set[id] = struct{}{}
	}
	return set
}

func TestAggregatePointSumsLastSubmissionWins(t *testing.T) {
	submissions := []models.Submission{
		{ID: 1, UserID: "u1", ProblemID: "p1", Point: 100, Result: models.ResultAccepted},
		{ID: 2, UserID: "u1", ProblemID: "p2", Point: 50, Result: models.ResultAccepted},
		{ID: 3, UserID: "u1", ProblemID: "p1", Point: 80, Result: models.ResultAccepted},
	}

	sums, err := AggregatePointSums(submissions, ratedSet("p1", "p2"))
	require.NoError(t, err)
	// The later p1 submission overwrites the earlier one even though its point is
	// lower: 80 + 50, not 100 + 50.
	require.Equal(t, []models.UserSum{{UserID: "u1", PointSum: 130}}, sums)
}

func TestAggregatePointSumsScenario(t *testing.T) {
	// C1 is rated, C2 started before the rated era.
	rated := ratedSet("p1", "p2")
	submissions := []models.Submission{
		{ID: 1, UserID: "u1", ProblemID: "p1", Point: 100, Result: models.ResultAccepted},
		{ID: 2, UserID: "u1", ProblemID: "p2", Point: 50, Result: models.ResultAccepted},
		{ID: 3, UserID: "u1", ProblemID: "p1", Point: 80, Result: models.ResultAccepted},
		{ID: 4, UserID: "u2", ProblemID: "p3", Point: 999999, Result: models.ResultAccepted},
	}

	sums, err := AggregatePointSums(submissions, rated)
	require.NoError(t, err)
	require.Equal(t, []models.UserSum{{UserID: "u1", PointSum: 130}}, sums)
}

func TestAggregatePointSumsUserWithoutEligibleSubmissionsIsAbsent(t *testing.T) {
	submissions := []models.Submission{
		{ID: 1, UserID: "u1", ProblemID: "unrated_p", Point: 100, Result: models.ResultAccepted},
	}

	sums, err := AggregatePointSums(submissions, ratedSet("p1"))
	require.NoError(t, err)
	require.Empty(t, sums, "no zero-sum rows for users without contributions")
}

func TestAggregatePointSumsRejectsFractionalPoint(t *testing.T) {
	submissions := []models.Submission{
		{ID: 1, UserID: "u1", ProblemID: "p1", Point: 100, Result: models.ResultAccepted},
		{ID: 3, UserID: "u1", ProblemID: "p1", Point: 80.5, Result: models.ResultAccepted},
	}

	_, err := AggregatePointSums(submissions, ratedSet("p1"))
	require.Error(t, err)

	var violation *IntegrityViolationError
	require.True(t, errors.As(err, &violation))
	require.Equal(t, int64(3), violation.SubmissionID)
	require.Equal(t, "p1", violation.ProblemID)

	// Fractional credit is fine on unrated problems.
	sums, err := AggregatePointSums(submissions, ratedSet("other"))
	require.NoError(t, err)
	require.Empty(t, sums)
}

func TestAggregatePointSumsOrderedByUser(t *testing.T) {
	submissions := []models.Submission{
		{ID: 1, UserID: "zed", ProblemID: "p1", Point: 100, Result: models.ResultAccepted},
		{ID: 2, UserID: "amy", ProblemID: "p1", Point: 100, Result: models.ResultAccepted},
		{ID: 3, UserID: "mia", ProblemID: "p1", Point: 100, Result: models.ResultAccepted},
	}

	sums, err := AggregatePointSums(submissions, ratedSet("p1"))
	require.NoError(t, err)
	require.Equal(t, []string{"amy", "mia", "zed"}, []string{sums[0].UserID, sums[1].UserID, sums[2].UserID})
}

func setupAggregationDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Contest{}, &models.ContestProblem{}, &models.Submission{}, &models.RatedPointSum{}))
	return db
}

func seedRatedCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Create(&[]models.Contest{
		{ID: "c1", StartEpochSecond: 2000000000, RateChange: "All"},
		{ID: "c2", StartEpochSecond: 1000000000, RateChange: "All"},
	}).Error)
	require.NoError(t, db.Create(&[]models.ContestProblem{
		{ContestID: "c1", ProblemID: "p1"},
		{ContestID: "c1", ProblemID: "p2"},
		{ContestID: "c2", ProblemID: "p3"},
	}).Error)
}

func TestAggregationServiceRunIsIdempotent(t *testing.T) {
	db := setupAggregationDB(t)
	seedRatedCatalog(t, db)
	require.NoError(t, db.Create(&[]models.Submission{
		{ID: 1, EpochSecond: 2000000100, ProblemID: "p1", ContestID: "c1", UserID: "u1", Point: 100, Result: models.ResultAccepted},
		{ID: 2, EpochSecond: 2000000200, ProblemID: "p2", ContestID: "c1", UserID: "u1", Point: 50, Result: models.ResultAccepted},
		{ID: 3, EpochSecond: 2000000300, ProblemID: "p1", ContestID: "c1", UserID: "u1", Point: 80, Result: models.ResultAccepted},
		{ID: 4, EpochSecond: 2000000400, ProblemID: "p3", ContestID: "c2", UserID: "u2", Point: 999999, Result: models.ResultAccepted},
		{ID: 5, EpochSecond: 2000000500, ProblemID: "p2", ContestID: "c1", UserID: "u3", Point: 300, Result: models.ResultWrongAnswer},
	}).Error)

	sumRepo := repository.NewRatedPointSumRepository(db, 0)
	svc := NewAggregationService(
		NewEligibilityService(repository.NewContestRepository(db), zerolog.Nop()),
		repository.NewSubmissionRepository(db),
		sumRepo,
		zerolog.Nop(),
	)
	ctx := context.Background()

	report, err := svc.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Users)

	sum, err := sumRepo.GetUserSum(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, int64(130), sum)

	// u2 only solved an unrated problem; u3 never got accepted.
	_, err = sumRepo.GetUserSum(ctx, "u2")
	require.ErrorIs(t, err, repository.ErrPointSumNotFound)
	_, err = sumRepo.GetUserSum(ctx, "u3")
	require.ErrorIs(t, err, repository.ErrPointSumNotFound)

	// Rerunning over identical inputs leaves an identical table.
	before, err := sumRepo.ListRange(ctx, 0, 100)
	require.NoError(t, err)
	_, err = svc.Run(ctx)
	require.NoError(t, err)
	after, err := sumRepo.ListRange(ctx, 0, 100)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestAggregationServiceNarrowBatchLeavesOthersUntouched(t *testing.T) {
	db := setupAggregationDB(t)
	seedRatedCatalog(t, db)

	sumRepo := repository.NewRatedPointSumRepository(db, 0)
	svc := NewAggregationService(
		NewEligibilityService(repository.NewContestRepository(db), zerolog.Nop()),
		repository.NewSubmissionRepository(db),
		sumRepo,
		zerolog.Nop(),
	)
	ctx := context.Background()

	require.NoError(t, sumRepo.UpsertSums(ctx, []models.UserSum{{UserID: "veteran", PointSum: 4200}}))

	batch := []models.Submission{
		{ID: 10, EpochSecond: 2000000100, ProblemID: "p1", ContestID: "c1", UserID: "newbie", Point: 100, Result: models.ResultAccepted},
	}
	report, err := svc.UpdateFromSubmissions(ctx, batch)
	require.NoError(t, err)
	require.Equal(t, 1, report.Users)

	sum, err := sumRepo.GetUserSum(ctx, "veteran")
	require.NoError(t, err)
	require.Equal(t, int64(4200), sum, "users absent from the batch keep their stored sum")

	sum, err = sumRepo.GetUserSum(ctx, "newbie")
	require.NoError(t, err)
	require.Equal(t, int64(100), sum)
}

func TestAggregationServiceIntegrityViolationCommitsNothing(t *testing.T) {
	db := setupAggregationDB(t)
	seedRatedCatalog(t, db)
	require.NoError(t, db.Create(&[]models.Submission{
		{ID: 1, EpochSecond: 2000000100, ProblemID: "p1", ContestID: "c1", UserID: "u1", Point: 100, Result: models.ResultAccepted},
		{ID: 2, EpochSecond: 2000000200, ProblemID: "p1", ContestID: "c1", UserID: "u1", Point: 80.5, Result: models.ResultAccepted},
	}).Error)

	sumRepo := repository.NewRatedPointSumRepository(db, 0)
	svc := NewAggregationService(
		NewEligibilityService(repository.NewContestRepository(db), zerolog.Nop()),
		repository.NewSubmissionRepository(db),
		sumRepo,
		zerolog.Nop(),
	)
	ctx := context.Background()

	_, err := svc.Run(ctx)
	var violation *IntegrityViolationError
	require.True(t, errors.As(err, &violation))
	require.Equal(t, int64(2), violation.SubmissionID)

	_, err = sumRepo.GetUserSum(ctx, "u1")
	require.ErrorIs(t, err, repository.ErrPointSumNotFound)
}
