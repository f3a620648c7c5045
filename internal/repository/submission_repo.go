package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fukatani/atcoder-problems/internal/models"
)

// CrossQueryRowLimit caps the user x problem x time-range query so a single request
// cannot pull an unbounded slice of the submissions table.
const CrossQueryRowLimit = 10000

// submissionUpsertChunkSize bounds one bulk submission upsert statement.
const submissionUpsertChunkSize = 10000

// SubmissionRepository exposes the query variants the aggregation and integrity jobs
// need against the submissions table, plus the crawler-facing bulk upsert.
type SubmissionRepository interface {
	AllForUser(ctx context.Context, userID string) ([]models.Submission, error)
	AcceptedForUsers(ctx context.Context, userIDs []string) ([]models.Submission, error)
	FromTime(ctx context.Context, fromSecond, count int64) ([]models.Submission, error)
	FromUserAndTime(ctx context.Context, userID string, fromSecond int64, count int) ([]models.Submission, error)
	RecentAccepted(ctx context.Context, count int64) ([]models.Submission, error)
	RecentAll(ctx context.Context, count int64) ([]models.Submission, error)
	WithInvalidResult(ctx context.Context, fromSecond int64) ([]models.Submission, error)
	AllAccepted(ctx context.Context) ([]models.Submission, error)
	ByIDs(ctx context.Context, ids []int64) ([]models.Submission, error)
	ForUsersProblemsTime(ctx context.Context, userIDs, problemIDs []string, fromSecond, toSecond int64) ([]models.Submission, error)
	UpsertBatch(ctx context.Context, submissions []models.Submission) (int64, error)
	CountStored(ctx context.Context, ids []int64) (int, error)
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

type submissionRepository struct {
	db *gorm.DB
}

func (r *submissionRepository) find(query *gorm.DB) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := query.Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *submissionRepository) AllForUser(ctx context.Context, userID string) ([]models.Submission, error) {
	return r.find(r.db.WithContext(ctx).
		Where("LOWER(user_id) = LOWER(?)", userID))
}

func (r *submissionRepository) AcceptedForUsers(ctx context.Context, userIDs []string) ([]models.Submission, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	return r.find(r.db.WithContext(ctx).
		Where("result = ?", models.ResultAccepted).
		Where("user_id IN ?", userIDs))
}

func (r *submissionRepository) FromTime(ctx context.Context, fromSecond, count int64) ([]models.Submission, error) {
	return r.find(r.db.WithContext(ctx).
		Where("epoch_second >= ?", fromSecond).
		Order("epoch_second ASC").
		Limit(int(count)))
}

func (r *submissionRepository) FromUserAndTime(ctx context.Context, userID string, fromSecond int64, count int) ([]models.Submission, error) {
	return r.find(r.db.WithContext(ctx).
		Where("LOWER(user_id) = LOWER(?)", userID).
		Where("epoch_second >= ?", fromSecond).
		Order("epoch_second ASC").
		Limit(count))
}

func (r *submissionRepository) RecentAccepted(ctx context.Context, count int64) ([]models.Submission, error) {
	return r.find(r.db.WithContext(ctx).
		Where("result = ?", models.ResultAccepted).
		Order("id DESC").
		Limit(int(count)))
}

func (r *submissionRepository) RecentAll(ctx context.Context, count int64) ([]models.Submission, error) {
	return r.find(r.db.WithContext(ctx).
		Order("id DESC").
		Limit(int(count)))
}

func (r *submissionRepository) WithInvalidResult(ctx context.Context, fromSecond int64) ([]models.Submission, error) {
	return r.find(r.db.WithContext(ctx).
		Where("result NOT IN ?", models.KnownResults).
		Where("epoch_second >= ?", fromSecond).
		Order("id DESC"))
}

func (r *submissionRepository) AllAccepted(ctx context.Context) ([]models.Submission, error) {
	return r.find(r.db.WithContext(ctx).
		Where("result = ?", models.ResultAccepted))
}

func (r *submissionRepository) ByIDs(ctx context.Context, ids []int64) ([]models.Submission, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.find(r.db.WithContext(ctx).
		Where("id IN ?", ids))
}

func (r *submissionRepository) ForUsersProblemsTime(ctx context.Context, userIDs, problemIDs []string, fromSecond, toSecond int64) ([]models.Submission, error) {
	if len(userIDs) == 0 || len(problemIDs) == 0 {
		return nil, nil
	}
	return r.find(r.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Where("problem_id IN ?", problemIDs).
		Where("epoch_second >= ?", fromSecond).
		Where("epoch_second <= ?", toSecond).
		Limit(CrossQueryRowLimit))
}

// UpsertBatch inserts crawled submissions, overwriting only the mutable columns when a
// submission id already exists.
func (r *submissionRepository) UpsertBatch(ctx context.Context, submissions []models.Submission) (int64, error) {
	if len(submissions) == 0 {
		return 0, nil
	}

	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "result", "point", "execution_time"}),
	})

	result := tx.CreateInBatches(&submissions, submissionUpsertChunkSize)
	return result.RowsAffected, result.Error
}

func (r *submissionRepository) CountStored(ctx context.Context, ids []int64) (int, error) {
	stored, err := r.ByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}
	return len(stored), nil
}
