package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/fukatani/atcoder-problems/internal/models"
)

// ContestRepository exposes read access to the contest catalog.
type ContestRepository interface {
	RatedContestIDs(ctx context.Context) ([]string, error)
	ListContestProblems(ctx context.Context) ([]models.ContestProblem, error)
}

// NewContestRepository constructs a contest repository.
func NewContestRepository(db *gorm.DB) ContestRepository {
	return &contestRepository{db: db}
}

type contestRepository struct {
	db *gorm.DB
}

func (r *contestRepository) RatedContestIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Contest{}).
		Where("start_epoch_second >= ? AND rate_change <> ?", models.FirstRatedEpochSecond, models.UnratedState).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *contestRepository) ListContestProblems(ctx context.Context) ([]models.ContestProblem, error) {
	var pairs []models.ContestProblem
	if err := r.db.WithContext(ctx).Find(&pairs).Error; err != nil {
		return nil, err
	}
	return pairs, nil
}
