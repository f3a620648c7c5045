package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fukatani/atcoder-problems/internal/models"
)

// DefaultUpsertChunkSize bounds how many rows one upsert statement may carry, keeping
// the statement under backend parameter-count ceilings.
const DefaultUpsertChunkSize = 10000

// ErrPointSumNotFound indicates no aggregate has ever been computed for the user.
// It is distinct from a stored sum of zero.
var ErrPointSumNotFound = errors.New("rated point sum not found")

// RatedPointSumRepository persists and queries the per-user rated point sum aggregate.
type RatedPointSumRepository interface {
	UpsertSums(ctx context.Context, sums []models.UserSum) error
	GetUserSum(ctx context.Context, userID string) (int64, error)
	RankByPoint(ctx context.Context, point int64) (int64, error)
	ListRange(ctx context.Context, start, end int) ([]models.UserSum, error)
}

// NewRatedPointSumRepository constructs the aggregate store. chunkSize values of zero
// or below fall back to DefaultUpsertChunkSize.
func NewRatedPointSumRepository(db *gorm.DB, chunkSize int) RatedPointSumRepository {
	if chunkSize <= 0 {
		chunkSize = DefaultUpsertChunkSize
	}
	return &ratedPointSumRepository{db: db, chunkSize: chunkSize}
}

type ratedPointSumRepository struct {
	db        *gorm.DB
	chunkSize int
}

// UpsertSums writes each (user, sum) pair with insert-or-overwrite semantics keyed by
// user_id. Batches are split into chunks applied as independent statements: a chunk is
// atomic, the sequence is not, so a failure leaves earlier chunks committed.
func (r *ratedPointSumRepository) UpsertSums(ctx context.Context, sums []models.UserSum) error {
	for offset := 0; offset < len(sums); offset += r.chunkSize {
		end := offset + r.chunkSize
		if end > len(sums) {
			end = len(sums)
		}

		rows := make([]models.RatedPointSum, 0, end-offset)
		for _, sum := range sums[offset:end] {
			rows = append(rows, models.RatedPointSum{UserID: sum.UserID, PointSum: sum.PointSum})
		}

		err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"point_sum"}),
		}).Create(&rows).Error
		if err != nil {
			return fmt.Errorf("upsert chunk %d (%d rows): %w", offset/r.chunkSize, len(rows), err)
		}
	}
	return nil
}

func (r *ratedPointSumRepository) GetUserSum(ctx context.Context, userID string) (int64, error) {
	var row models.RatedPointSum
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrPointSumNotFound
		}
		return 0, err
	}
	return row.PointSum, nil
}

// RankByPoint returns the number of users whose stored sum strictly exceeds point,
// which is the 0-indexed shared rank of every user holding exactly that sum.
func (r *ratedPointSumRepository) RankByPoint(ctx context.Context, point int64) (int64, error) {
	var rank int64
	err := r.db.WithContext(ctx).
		Model(&models.RatedPointSum{}).
		Where("point_sum > ?", point).
		Count(&rank).Error
	if err != nil {
		return 0, err
	}
	return rank, nil
}

// ListRange returns the leaderboard rows for the half-open rank range [start, end),
// ordered by sum descending with user id ascending as the tie-break. Ranges past the
// end of the table yield fewer rows; empty or inverted ranges yield none.
func (r *ratedPointSumRepository) ListRange(ctx context.Context, start, end int) ([]models.UserSum, error) {
	if start < 0 || end <= start {
		return []models.UserSum{}, nil
	}

	var sums []models.UserSum
	err := r.db.WithContext(ctx).
		Model(&models.RatedPointSum{}).
		Order("point_sum DESC, user_id ASC").
		Offset(start).
		Limit(end - start).
		Find(&sums).Error
	if err != nil {
		return nil, err
	}
	return sums, nil
}
