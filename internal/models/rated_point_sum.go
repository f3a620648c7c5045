package models

// RatedPointSum is the persisted per-user total of deduplicated points earned on
// problems from rated contests. It is overwritten wholesale on every recompute that
// includes the user, never adjusted incrementally.
type RatedPointSum struct {
	UserID   string `gorm:"primaryKey;size:255" json:"user_id"`
	PointSum int64  `gorm:"not null" json:"point_sum"`
}

// TableName keeps the legacy singular table name.
func (RatedPointSum) TableName() string {
	return "rated_point_sum"
}

// UserSum is a leaderboard row: one user and their rated point sum.
type UserSum struct {
	UserID   string `json:"user_id"`
	PointSum int64  `json:"point_sum"`
}
